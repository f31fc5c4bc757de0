package generate

import (
	"strings"
	"testing"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
	"github.com/viapip/pothos-todo-sub004/internal/schema"
)

func TestGenerateListQueryWithFilterSortAndLimit(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionSearch, Confidence: 0.9}
	filters := []nlq.Filter{
		{Field: "priority", Operator: nlq.OpEquals, Value: "high", Confidence: 0.9},
	}
	operations := []nlq.Operation{
		{Kind: nlq.OpSort, Parameters: map[string]any{"field": "dueDate", "direction": "asc"}},
		{Kind: nlq.OpLimit, Parameters: map[string]any{"count": 5}},
	}

	program, variables, err := g.Generate(intent, nil, filters, operations, nlq.SessionContext{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	for _, want := range []string{
		"query NaturalLanguageQuery($priority_0: Priority!)",
		"todos(filter: { priority: { equals: $priority_0 } }, orderBy: { dueDate: asc }, first: 5)",
		"pageInfo",
		"totalCount",
	} {
		if !strings.Contains(program, want) {
			t.Fatalf("program missing %q:\n%s", want, program)
		}
	}
	if variables["priority_0"] != "high" {
		t.Fatalf("variables = %#v", variables)
	}
	if err := schema.Validate(program, variables); err != nil {
		t.Fatalf("generated program fails validation: %v", err)
	}
}

func TestGenerateBindsOneVariablePerFilter(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet, Confidence: 0.6}
	filters := []nlq.Filter{
		{Field: "status", Operator: nlq.OpEquals, Value: "pending"},
		{Field: "dueDate", Operator: nlq.OpBetween, Value: []any{"2026-02-16", "2026-02-22"}},
	}

	program, variables, err := g.Generate(intent, nil, filters, nil, nlq.SessionContext{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(variables) != 2 {
		t.Fatalf("variables = %#v", variables)
	}
	if !strings.Contains(program, "$status_0: Status!") {
		t.Fatalf("program missing status declaration:\n%s", program)
	}
	if !strings.Contains(program, "$dueDate_1: [Date!]!") {
		t.Fatalf("program missing between declaration:\n%s", program)
	}
	if err := schema.Validate(program, variables); err != nil {
		t.Fatalf("generated program fails validation: %v", err)
	}
}

func TestGenerateCountQuery(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionCount, Confidence: 0.9}
	filters := []nlq.Filter{{Field: "status", Operator: nlq.OpEquals, Value: "pending"}}
	operations := []nlq.Operation{
		{Kind: nlq.OpAggregate, Parameters: map[string]any{"function": "count"}},
	}

	program, variables, err := g.Generate(intent, nil, filters, operations, nlq.SessionContext{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(program, "query NaturalLanguageCount") {
		t.Fatalf("program:\n%s", program)
	}
	if !strings.Contains(program, "todosCount(filter: { status: { equals: $status_0 } })") {
		t.Fatalf("program:\n%s", program)
	}
	if strings.Contains(program, "pageInfo") {
		t.Fatalf("count program must not select items:\n%s", program)
	}
	if err := schema.Validate(program, variables); err != nil {
		t.Fatalf("generated program fails validation: %v", err)
	}
}

func TestGenerateCreateMutation(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindMutation, Action: nlq.ActionCreate, Confidence: 0.9}
	entities := []nlq.Entity{
		{Type: nlq.EntityTodo, Value: "buy milk"},
		{Type: nlq.EntityPriority, Value: "high"},
	}

	program, variables, err := g.Generate(intent, entities, nil, nil, nlq.SessionContext{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(program, "mutation CreateTodo($title_0: String!, $priority_1: Priority!)") {
		t.Fatalf("program:\n%s", program)
	}
	if variables["title_0"] != "buy milk" || variables["priority_1"] != "high" {
		t.Fatalf("variables = %#v", variables)
	}
	if err := schema.Validate(program, variables); err != nil {
		t.Fatalf("generated program fails validation: %v", err)
	}
}

func TestGenerateCreateDefaults(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindMutation, Action: nlq.ActionCreate, Confidence: 0.9}

	_, variables, err := g.Generate(intent, nil, nil, nil, nlq.SessionContext{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if variables["title_0"] != "New todo" || variables["priority_1"] != "medium" {
		t.Fatalf("variables = %#v", variables)
	}
}

func TestGenerateRejectsUnsupportedMutations(t *testing.T) {
	g := New()
	for _, action := range []nlq.IntentAction{nlq.ActionUpdate, nlq.ActionDelete} {
		intent := nlq.Intent{Kind: nlq.KindMutation, Action: action, Confidence: 0.9}
		_, _, err := g.Generate(intent, nil, nil, nil, nlq.SessionContext{})
		if err == nil {
			t.Fatalf("expected error for %s", action)
		}
		if nlq.CodeOf(err) != nlq.CodeGenerationUnsupported {
			t.Fatalf("code = %s", nlq.CodeOf(err))
		}
	}
}

func TestGenerateRejectsSubscriptions(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindSubscription, Action: nlq.ActionGet, Confidence: 0.9}
	_, _, err := g.Generate(intent, nil, nil, nil, nlq.SessionContext{})
	if nlq.CodeOf(err) != nlq.CodeGenerationUnsupported {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateRejectsUnknownFilterField(t *testing.T) {
	g := New()
	intent := nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet, Confidence: 0.6}
	filters := []nlq.Filter{{Field: "owner", Operator: nlq.OpEquals, Value: "alice"}}
	_, _, err := g.Generate(intent, nil, filters, nil, nlq.SessionContext{})
	if nlq.CodeOf(err) != nlq.CodeGenerationUnsupported {
		t.Fatalf("err = %v", err)
	}
}

func TestResultShapeFor(t *testing.T) {
	if got := ResultShapeFor(nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionCount}, nil); got != nlq.ShapeCount {
		t.Fatalf("shape = %s", got)
	}
	countOps := []nlq.Operation{{Kind: nlq.OpAggregate, Parameters: map[string]any{"function": "count"}}}
	if got := ResultShapeFor(nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet}, countOps); got != nlq.ShapeCount {
		t.Fatalf("shape = %s", got)
	}
	if got := ResultShapeFor(nlq.Intent{Kind: nlq.KindMutation, Action: nlq.ActionCreate}, nil); got != nlq.ShapeSingle {
		t.Fatalf("shape = %s", got)
	}
	// A count mention inside a mutation never changes its shape.
	if got := ResultShapeFor(nlq.Intent{Kind: nlq.KindMutation, Action: nlq.ActionCreate}, countOps); got != nlq.ShapeSingle {
		t.Fatalf("shape = %s", got)
	}
	if got := ResultShapeFor(nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionSearch}, nil); got != nlq.ShapeList {
		t.Fatalf("shape = %s", got)
	}
}
