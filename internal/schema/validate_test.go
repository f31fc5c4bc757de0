package schema

import (
	"testing"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

const validProgram = `query NaturalLanguageQuery($status_0: Status!) {
  todos(filter: { status: { equals: $status_0 } }) {
    items {
      id
      title
    }
  }
}
`

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	if err := Validate(validProgram, map[string]any{"status_0": "pending"}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestValidateRejectsEmptyProgram(t *testing.T) {
	err := Validate("   ", nil)
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsUnknownRootField(t *testing.T) {
	program := "query Q {\n  users {\n    id\n  }\n}\n"
	err := Validate(program, nil)
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsSubscriptionOperations(t *testing.T) {
	program := "subscription S {\n  todos {\n    id\n  }\n}\n"
	err := Validate(program, nil)
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsUnboundDeclaration(t *testing.T) {
	err := Validate(validProgram, map[string]any{})
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsUndeclaredReference(t *testing.T) {
	program := "query Q {\n  todos(filter: { status: { equals: $ghost } }) {\n    items {\n      id\n    }\n  }\n}\n"
	err := Validate(program, nil)
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsStrayBinding(t *testing.T) {
	err := Validate(validProgram, map[string]any{"status_0": "pending", "extra": 1})
	if nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePlanChecksFilterOperators(t *testing.T) {
	parsed := nlq.ParsedQuery{
		Intent:  nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet},
		Shape:   nlq.ShapeList,
		Filters: []nlq.Filter{{Field: "priority", Operator: nlq.OpContains, Value: "hi"}},
	}
	if err := ValidatePlan(parsed); nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}

	parsed.Filters = []nlq.Filter{{Field: "priority", Operator: nlq.OpEquals, Value: "high"}}
	if err := ValidatePlan(parsed); err != nil {
		t.Fatalf("validate plan failed: %v", err)
	}
}

func TestValidatePlanRejectsUnsortableField(t *testing.T) {
	parsed := nlq.ParsedQuery{
		Intent: nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet},
		Shape:  nlq.ShapeList,
		Operations: []nlq.Operation{
			{Kind: nlq.OpSort, Parameters: map[string]any{"field": "tags", "direction": "asc"}},
		},
	}
	if err := ValidatePlan(parsed); nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePlanRejectsNonPositiveLimit(t *testing.T) {
	parsed := nlq.ParsedQuery{
		Intent: nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionGet},
		Shape:  nlq.ShapeList,
		Operations: []nlq.Operation{
			{Kind: nlq.OpLimit, Parameters: map[string]any{"count": 0}},
		},
	}
	if err := ValidatePlan(parsed); nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePlanRejectsAggregateOnMutation(t *testing.T) {
	parsed := nlq.ParsedQuery{
		Intent: nlq.Intent{Kind: nlq.KindMutation, Action: nlq.ActionCreate},
		Shape:  nlq.ShapeSingle,
		Operations: []nlq.Operation{
			{Kind: nlq.OpAggregate, Parameters: map[string]any{"function": "count"}},
		},
	}
	if err := ValidatePlan(parsed); nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePlanRequiresCountShapeForCountAction(t *testing.T) {
	parsed := nlq.ParsedQuery{
		Intent: nlq.Intent{Kind: nlq.KindQuery, Action: nlq.ActionCount},
		Shape:  nlq.ShapeList,
	}
	if err := ValidatePlan(parsed); nlq.CodeOf(err) != nlq.CodeValidationFailed {
		t.Fatalf("err = %v", err)
	}

	parsed.Shape = nlq.ShapeCount
	if err := ValidatePlan(parsed); err != nil {
		t.Fatalf("validate plan failed: %v", err)
	}
}
