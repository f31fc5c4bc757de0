// Package schema pins the fixed, strongly-typed todo schema that generated
// query programs are compiled against, and statically validates programs
// before execution. The schema is deliberately closed: the generator and the
// validator share one source of truth so a program that validates can never
// reference an unknown field or type.
package schema

import (
	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

// Field describes one todo field as exposed by the schema.
type Field struct {
	Name       string
	Type       string
	Filterable bool
	Sortable   bool
	Operators  []nlq.FilterOperator
}

var todoFields = map[string]Field{
	"id": {Name: "id", Type: "ID"},
	"title": {
		Name: "title", Type: "String", Filterable: true, Sortable: true,
		Operators: []nlq.FilterOperator{nlq.OpEquals, nlq.OpContains},
	},
	"status": {
		Name: "status", Type: "Status", Filterable: true, Sortable: true,
		Operators: []nlq.FilterOperator{nlq.OpEquals, nlq.OpIn},
	},
	"priority": {
		Name: "priority", Type: "Priority", Filterable: true, Sortable: true,
		Operators: []nlq.FilterOperator{nlq.OpEquals, nlq.OpIn},
	},
	"dueDate": {
		Name: "dueDate", Type: "Date", Filterable: true, Sortable: true,
		Operators: []nlq.FilterOperator{nlq.OpEquals, nlq.OpGreater, nlq.OpLess, nlq.OpBetween},
	},
	"tags": {
		Name: "tags", Type: "[String!]", Filterable: true,
		Operators: []nlq.FilterOperator{nlq.OpContains, nlq.OpIn},
	},
	"createdAt": {Name: "createdAt", Type: "DateTime", Sortable: true},
}

// Root fields by operation kind.
var (
	queryRoots    = map[string]bool{"todos": true, "todosCount": true}
	mutationRoots = map[string]bool{"createTodo": true}
)

// DefaultSelection is the field set selected when the utterance does not ask
// for an aggregate shape.
var DefaultSelection = []string{"id", "title", "status", "priority", "dueDate", "createdAt"}

func FieldDef(name string) (Field, bool) {
	field, ok := todoFields[name]
	return field, ok
}

func (f Field) SupportsOperator(op nlq.FilterOperator) bool {
	for _, candidate := range f.Operators {
		if candidate == op {
			return true
		}
	}
	return false
}

// VariableType returns the GraphQL type for a bound filter variable. Between
// and in filters bind a single list-typed variable.
func VariableType(field Field, op nlq.FilterOperator) string {
	base := field.Type
	if base == "[String!]" {
		base = "String"
	}
	switch op {
	case nlq.OpBetween, nlq.OpIn:
		return "[" + base + "!]!"
	default:
		return base + "!"
	}
}
