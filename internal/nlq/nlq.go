// Package nlq holds the domain model shared by the natural-language query
// pipeline: utterances, classified intents, extracted entities and filters,
// compiled query programs, and the response returned to callers.
package nlq

import "time"

type IntentKind string

const (
	KindQuery        IntentKind = "query"
	KindMutation     IntentKind = "mutation"
	KindSubscription IntentKind = "subscription"
)

type IntentAction string

const (
	ActionGet       IntentAction = "get"
	ActionCreate    IntentAction = "create"
	ActionUpdate    IntentAction = "update"
	ActionDelete    IntentAction = "delete"
	ActionSearch    IntentAction = "search"
	ActionCount     IntentAction = "count"
	ActionAggregate IntentAction = "aggregate"
)

// Intent is the classified operation for an utterance. Confidence is a
// heuristic score in [0,1], not a calibrated probability.
type Intent struct {
	Kind       IntentKind   `json:"kind"`
	Action     IntentAction `json:"action"`
	Confidence float64      `json:"confidence"`
}

type EntityType string

const (
	EntityTodo     EntityType = "todo"
	EntityUser     EntityType = "user"
	EntityTag      EntityType = "tag"
	EntityPriority EntityType = "priority"
	EntityStatus   EntityType = "status"
	EntityDate     EntityType = "date"
)

// Entity is a typed literal recognized in the utterance text. Start and End
// are byte offsets into the normalized text.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
}

type FilterOperator string

const (
	OpEquals   FilterOperator = "equals"
	OpContains FilterOperator = "contains"
	OpGreater  FilterOperator = "greater"
	OpLess     FilterOperator = "less"
	OpBetween  FilterOperator = "between"
	OpIn       FilterOperator = "in"
)

// Filter is a field-operator-value predicate applied to the generated query.
// For OpBetween the value is a two-element slice of range bounds.
type Filter struct {
	Field      string         `json:"field"`
	Operator   FilterOperator `json:"operator"`
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"`
}

type OperationKind string

const (
	OpSort      OperationKind = "sort"
	OpLimit     OperationKind = "limit"
	OpGroup     OperationKind = "group"
	OpAggregate OperationKind = "aggregate"
)

// Operation is a query modifier. Parameters are kind-specific:
// sort carries "field" and "direction", limit carries "count",
// aggregate carries "function".
type Operation struct {
	Kind       OperationKind  `json:"kind"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
}

type ResultShape string

const (
	ShapeSingle  ResultShape = "single"
	ShapeList    ResultShape = "list"
	ShapeCount   ResultShape = "count"
	ShapeBoolean ResultShape = "boolean"
	ShapeSummary ResultShape = "summary"
)

// ParsedQuery is the compiled form of an utterance: the classified intent,
// everything extracted from the text, and the generated program with its
// bound variables. Once built it is treated as immutable; the cache hands
// out copies, never the stored value.
type ParsedQuery struct {
	Intent     Intent         `json:"intent"`
	Entities   []Entity       `json:"entities"`
	Filters    []Filter       `json:"filters"`
	Operations []Operation    `json:"operations"`
	Shape      ResultShape    `json:"shape"`
	Program    string         `json:"program"`
	Variables  map[string]any `json:"variables"`
}

// Clone returns a deep copy so cache consumers cannot mutate stored entries.
func (p ParsedQuery) Clone() ParsedQuery {
	out := p
	out.Entities = append([]Entity(nil), p.Entities...)
	out.Filters = append([]Filter(nil), p.Filters...)
	out.Operations = make([]Operation, len(p.Operations))
	for i, op := range p.Operations {
		cloned := op
		cloned.Parameters = make(map[string]any, len(op.Parameters))
		for k, v := range op.Parameters {
			cloned.Parameters[k] = v
		}
		out.Operations[i] = cloned
	}
	out.Variables = make(map[string]any, len(p.Variables))
	for k, v := range p.Variables {
		out.Variables[k] = v
	}
	return out
}

// Preferences are the per-user settings that influence compilation and
// explanation wording.
type Preferences struct {
	Language     string `json:"language"`
	DateFormat   string `json:"date_format"`
	Timezone     string `json:"timezone"`
	DefaultLimit int    `json:"default_limit"`
	Verbosity    string `json:"verbosity"`
}

// SessionContext travels with every utterance. Previous holds a bounded
// window of earlier utterance texts for the same session.
type SessionContext struct {
	Role        string         `json:"role"`
	Previous    []string       `json:"previous"`
	Data        map[string]any `json:"data"`
	Preferences Preferences    `json:"preferences"`
}

// Utterance is the immutable input record for one pipeline run.
type Utterance struct {
	Text       string         `json:"text"`
	ReceivedAt time.Time      `json:"received_at"`
	UserID     string         `json:"user_id"`
	Session    SessionContext `json:"session"`
}

// NLResponse is produced exactly once per utterance. On failure Success is
// false and ErrorCode carries the taxonomy code; the pipeline never lets an
// error escape to the caller in any other form.
type NLResponse struct {
	Success       bool           `json:"success"`
	Data          any            `json:"data,omitempty"`
	Explanation   string         `json:"explanation"`
	Program       string         `json:"program"`
	Variables     map[string]any `json:"variables,omitempty"`
	Confidence    float64        `json:"confidence"`
	Suggestions   []string       `json:"suggestions"`
	FollowUps     []string       `json:"follow_ups"`
	ExecutionTime time.Duration  `json:"execution_time"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Error         string         `json:"error,omitempty"`
	CacheHit      bool           `json:"cache_hit"`
}
