// Package generate compiles a classified intent plus its extracted filters
// and operations into a parameterized GraphQL program against the todo
// schema. Every filter binds exactly one variable named <field>_<index>; the
// generator never emits a program referencing an unbound variable.
package generate

import (
	"fmt"
	"strings"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
	"github.com/viapip/pothos-todo-sub004/internal/schema"
)

const defaultPriority = "medium"

type Generator struct{}

func New() *Generator { return &Generator{} }

// Generate is total for the supported action set: queries (get, search,
// count, aggregate) and the create mutation. Update and delete mutations and
// subscriptions are a deliberately narrow surface and return a generation
// error naming the action.
func (g *Generator) Generate(intent nlq.Intent, entities []nlq.Entity, filters []nlq.Filter, operations []nlq.Operation, _ nlq.SessionContext) (string, map[string]any, error) {
	switch intent.Kind {
	case nlq.KindQuery:
		return buildQuery(filters, operations)
	case nlq.KindMutation:
		if intent.Action != nlq.ActionCreate {
			return "", nil, nlq.NewError(nlq.CodeGenerationUnsupported,
				fmt.Sprintf("mutation action %q is not supported", intent.Action))
		}
		return buildCreate(entities)
	default:
		return "", nil, nlq.NewError(nlq.CodeGenerationUnsupported,
			fmt.Sprintf("operation kind %q is not supported", intent.Kind))
	}
}

// ResultShapeFor derives the expected result shape from the intent and
// operations. Mutations always produce a single record; for queries a count
// action or count aggregate forces the count shape.
func ResultShapeFor(intent nlq.Intent, operations []nlq.Operation) nlq.ResultShape {
	if intent.Kind == nlq.KindMutation {
		return nlq.ShapeSingle
	}
	if intent.Action == nlq.ActionCount || hasCountAggregate(operations) {
		return nlq.ShapeCount
	}
	return nlq.ShapeList
}

func buildQuery(filters []nlq.Filter, operations []nlq.Operation) (string, map[string]any, error) {
	variables := make(map[string]any, len(filters))
	declarations := make([]string, 0, len(filters))
	filterArgs := make([]string, 0, len(filters))

	for index, filter := range filters {
		field, ok := schema.FieldDef(filter.Field)
		if !ok {
			return "", nil, nlq.NewError(nlq.CodeGenerationUnsupported,
				fmt.Sprintf("field %q is not part of the schema", filter.Field))
		}
		name := fmt.Sprintf("%s_%d", filter.Field, index)
		declarations = append(declarations, fmt.Sprintf("$%s: %s", name, schema.VariableType(field, filter.Operator)))
		filterArgs = append(filterArgs, fmt.Sprintf("%s: { %s: $%s }", filter.Field, filter.Operator, name))
		variables[name] = filter.Value
	}

	args := make([]string, 0, 3)
	if len(filterArgs) > 0 {
		args = append(args, fmt.Sprintf("filter: { %s }", strings.Join(filterArgs, ", ")))
	}
	if field, direction, ok := sortParameters(operations); ok {
		args = append(args, fmt.Sprintf("orderBy: { %s: %s }", field, direction))
	}
	if count, ok := limitCount(operations); ok {
		args = append(args, fmt.Sprintf("first: %d", count))
	}

	var builder strings.Builder
	if hasCountAggregate(operations) {
		writeHeader(&builder, "query", "NaturalLanguageCount", declarations)
		builder.WriteString("  todosCount")
		// A count selection takes filters only; sort and limit do not apply.
		if len(filterArgs) > 0 {
			fmt.Fprintf(&builder, "(filter: { %s })", strings.Join(filterArgs, ", "))
		}
		builder.WriteString("\n}\n")
		return builder.String(), variables, nil
	}

	writeHeader(&builder, "query", "NaturalLanguageQuery", declarations)
	builder.WriteString("  todos")
	if len(args) > 0 {
		fmt.Fprintf(&builder, "(%s)", strings.Join(args, ", "))
	}
	builder.WriteString(" {\n    items {\n")
	for _, field := range schema.DefaultSelection {
		fmt.Fprintf(&builder, "      %s\n", field)
	}
	builder.WriteString("    }\n    pageInfo {\n      totalCount\n      hasNextPage\n    }\n  }\n}\n")
	return builder.String(), variables, nil
}

func buildCreate(entities []nlq.Entity) (string, map[string]any, error) {
	title := "New todo"
	for _, entity := range entities {
		if entity.Type == nlq.EntityTodo && entity.Value != "" {
			title = entity.Value
			break
		}
	}
	priority := defaultPriority
	for _, entity := range entities {
		if entity.Type == nlq.EntityPriority && entity.Value != "" {
			priority = entity.Value
			break
		}
	}

	variables := map[string]any{
		"title_0":    title,
		"priority_1": priority,
	}
	declarations := []string{"$title_0: String!", "$priority_1: Priority!"}

	var builder strings.Builder
	writeHeader(&builder, "mutation", "CreateTodo", declarations)
	builder.WriteString("  createTodo(input: { title: $title_0, priority: $priority_1 }) {\n")
	for _, field := range schema.DefaultSelection {
		fmt.Fprintf(&builder, "    %s\n", field)
	}
	builder.WriteString("  }\n}\n")
	return builder.String(), variables, nil
}

func writeHeader(builder *strings.Builder, operation, name string, declarations []string) {
	builder.WriteString(operation)
	builder.WriteByte(' ')
	builder.WriteString(name)
	if len(declarations) > 0 {
		fmt.Fprintf(builder, "(%s)", strings.Join(declarations, ", "))
	}
	builder.WriteString(" {\n")
}

func sortParameters(operations []nlq.Operation) (string, string, bool) {
	for _, op := range operations {
		if op.Kind != nlq.OpSort {
			continue
		}
		field, _ := op.Parameters["field"].(string)
		direction, _ := op.Parameters["direction"].(string)
		if field == "" {
			return "", "", false
		}
		if direction != "desc" {
			direction = "asc"
		}
		return field, direction, true
	}
	return "", "", false
}

func limitCount(operations []nlq.Operation) (int, bool) {
	for _, op := range operations {
		if op.Kind != nlq.OpLimit {
			continue
		}
		count, _ := op.Parameters["count"].(int)
		if count > 0 {
			return count, true
		}
	}
	return 0, false
}

func hasCountAggregate(operations []nlq.Operation) bool {
	for _, op := range operations {
		if op.Kind != nlq.OpAggregate {
			continue
		}
		if function, _ := op.Parameters["function"].(string); function == "count" {
			return true
		}
	}
	return false
}
