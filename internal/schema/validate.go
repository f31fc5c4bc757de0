package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

var (
	operationPattern   = regexp.MustCompile(`^\s*(query|mutation|subscription)\b`)
	declarationPattern = regexp.MustCompile(`\$([A-Za-z0-9_]+)\s*:\s*([\[\]A-Za-z0-9!]+)`)
	referencePattern   = regexp.MustCompile(`\$([A-Za-z0-9_]+)`)
	rootFieldPattern   = regexp.MustCompile(`\{\s*([A-Za-z0-9_]+)`)
)

// Validate statically checks a generated program against the schema: the
// operation kind must be query or mutation, the root field must exist, every
// declared variable must have a binding, every referenced variable must be
// declared, and no stray bindings may ride along. A failure here is fatal
// for the request and never retried.
func Validate(program string, variables map[string]any) error {
	program = strings.TrimSpace(program)
	if program == "" {
		return nlq.NewError(nlq.CodeValidationFailed, "empty program")
	}

	opMatch := operationPattern.FindStringSubmatch(program)
	if opMatch == nil {
		return nlq.NewError(nlq.CodeValidationFailed, "program has no operation keyword")
	}
	operation := opMatch[1]

	var roots map[string]bool
	switch operation {
	case "query":
		roots = queryRoots
	case "mutation":
		roots = mutationRoots
	default:
		return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("operation %q is not part of the schema surface", operation))
	}

	rootMatch := rootFieldPattern.FindStringSubmatch(program)
	if rootMatch == nil {
		return nlq.NewError(nlq.CodeValidationFailed, "program has no selection set")
	}
	if !roots[rootMatch[1]] {
		return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("unknown %s field %q", operation, rootMatch[1]))
	}

	body := program
	header := program
	if brace := strings.Index(program, "{"); brace >= 0 {
		header = program[:brace]
		body = program[brace:]
	}

	declared := map[string]string{}
	for _, match := range declarationPattern.FindAllStringSubmatch(header, -1) {
		declared[match[1]] = match[2]
	}

	for name := range declared {
		if _, ok := variables[name]; !ok {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("declared variable $%s has no binding", name))
		}
	}
	for _, match := range referencePattern.FindAllStringSubmatch(body, -1) {
		if _, ok := declared[match[1]]; !ok {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("variable $%s referenced but not declared", match[1]))
		}
	}
	for name := range variables {
		if _, ok := declared[name]; !ok {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("binding %q does not match any declared variable", name))
		}
	}
	return nil
}

// ValidatePlan checks the structured plan against the schema before the
// program text is even considered: filter fields must be filterable with a
// supported operator, sort fields sortable, limits positive, and the
// intent-level invariants (no aggregates on mutations, count forces the
// count shape) must hold.
func ValidatePlan(parsed nlq.ParsedQuery) error {
	for _, filter := range parsed.Filters {
		field, ok := FieldDef(filter.Field)
		if !ok {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("unknown field %q", filter.Field))
		}
		if !field.Filterable {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("field %q is not filterable", filter.Field))
		}
		if !field.SupportsOperator(filter.Operator) {
			return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("field %q does not support operator %q", filter.Field, filter.Operator))
		}
	}

	for _, op := range parsed.Operations {
		switch op.Kind {
		case nlq.OpSort:
			name, _ := op.Parameters["field"].(string)
			field, ok := FieldDef(name)
			if !ok || !field.Sortable {
				return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("field %q is not sortable", name))
			}
			if direction, _ := op.Parameters["direction"].(string); direction != "asc" && direction != "desc" {
				return nlq.NewError(nlq.CodeValidationFailed, fmt.Sprintf("invalid sort direction %q", direction))
			}
		case nlq.OpLimit:
			count, _ := op.Parameters["count"].(int)
			if count <= 0 {
				return nlq.NewError(nlq.CodeValidationFailed, "limit must be positive")
			}
		case nlq.OpAggregate:
			if parsed.Intent.Kind == nlq.KindMutation {
				return nlq.NewError(nlq.CodeValidationFailed, "mutations cannot carry aggregate operations")
			}
		}
	}

	if parsed.Intent.Action == nlq.ActionCount && parsed.Shape != nlq.ShapeCount {
		return nlq.NewError(nlq.CodeValidationFailed, "count action requires count result shape")
	}
	return nil
}
