package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Compile translates a filter tree into a SQL predicate over the metadata
// JSONB column. The returned fragment uses `?` placeholders; args holds the
// bound values in placeholder order. Both the fragment and the argument order
// are deterministic for a given filter.
//
// Compile never touches the database and has no side effects. Errors identify
// the offending field and operator and match ErrMalformed, ErrUnknownOperator
// or ErrInvalidValue with errors.Is.
func Compile(f Filter) (string, []any, error) {
	if f == nil {
		return "", nil, fmt.Errorf("%w: nil filter", ErrMalformed)
	}

	var sb strings.Builder
	var args []any
	if err := compileNode(f, &sb, &args); err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

func compileNode(f Filter, sb *strings.Builder, args *[]any) error {
	switch node := f.(type) {
	case Cond:
		return compileCond(node, sb, args)
	case Logic:
		return compileLogic(node, sb, args)
	default:
		return fmt.Errorf("%w: unsupported node type %T", ErrMalformed, f)
	}
}

func compileLogic(node Logic, sb *strings.Builder, args *[]any) error {
	var connective string
	switch node.Op {
	case OpAnd:
		connective = " AND "
	case OpOr:
		connective = " OR "
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperator, node.Op)
	}

	if len(node.Children) == 0 {
		return fmt.Errorf("%w: %s requires at least one condition", ErrMalformed, node.Op)
	}

	sb.WriteString("(")
	for i, child := range node.Children {
		if i > 0 {
			sb.WriteString(connective)
		}
		if err := compileNode(child, sb, args); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

func compileCond(node Cond, sb *strings.Builder, args *[]any) error {
	if node.Field == "" {
		return fmt.Errorf("%w: empty field name", ErrMalformed)
	}

	switch node.Op {
	case OpEq:
		if isScalar(node.Value) {
			// Scalar equality compiles to containment so a GIN
			// jsonb_path_ops index on the metadata column can serve it.
			// Containment and equality agree for scalar operands.
			bound, err := encodeJSON(map[string]any{node.Field: node.Value}, node)
			if err != nil {
				return err
			}
			sb.WriteString("metadata @> ?::jsonb")
			*args = append(*args, bound)
			return nil
		}
		return compileFieldComparison(node, "=", sb, args)

	case OpNe:
		return compileFieldComparison(node, "<>", sb, args)

	case OpGt, OpGte, OpLt, OpLte:
		if !isNumeric(node.Value) {
			return fmt.Errorf("%w: %s on field %q requires a numeric value, got %T",
				ErrInvalidValue, node.Op, node.Field, node.Value)
		}
		return compileFieldComparison(node, orderingOperator(node.Op), sb, args)

	case OpIn:
		return compileIn(node, sb, args)

	case OpContains:
		return compileContains(node, sb, args)

	default:
		return fmt.Errorf("%w: %q on field %q", ErrUnknownOperator, node.Op, node.Field)
	}
}

// compileFieldComparison emits `metadata -> ? <op> ?::jsonb` with the field
// name and the JSON-encoded operand both bound.
func compileFieldComparison(node Cond, sqlOp string, sb *strings.Builder, args *[]any) error {
	if !isScalar(node.Value) && !isScalarList(node.Value) {
		return fmt.Errorf("%w: %s on field %q requires a JSON scalar or array of scalars, got %T",
			ErrInvalidValue, node.Op, node.Field, node.Value)
	}
	bound, err := encodeJSON(node.Value, node)
	if err != nil {
		return err
	}
	sb.WriteString("metadata -> ? ")
	sb.WriteString(sqlOp)
	sb.WriteString(" ?::jsonb")
	*args = append(*args, node.Field, bound)
	return nil
}

func compileIn(node Cond, sb *strings.Builder, args *[]any) error {
	elems, ok := asAnySlice(node.Value)
	if !ok {
		return fmt.Errorf("%w: $in on field %q requires an array, got %T",
			ErrInvalidValue, node.Field, node.Value)
	}
	if len(elems) == 0 {
		return fmt.Errorf("%w: $in on field %q requires a non-empty array",
			ErrInvalidValue, node.Field)
	}

	sb.WriteString("metadata -> ? IN (")
	*args = append(*args, node.Field)
	for i, elem := range elems {
		if !isScalar(elem) {
			return fmt.Errorf("%w: $in on field %q requires scalar elements, got %T at index %d",
				ErrInvalidValue, node.Field, elem, i)
		}
		bound, err := encodeJSON(elem, node)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?::jsonb")
		*args = append(*args, bound)
	}
	sb.WriteString(")")
	return nil
}

// compileContains restricts the heavily overloaded JSONB @> operator to
// "scalar is an element of an array": the operand must be a scalar and the
// target value must actually be an array, so containment cannot silently
// degrade into scalar equality or object subset matching.
func compileContains(node Cond, sb *strings.Builder, args *[]any) error {
	if !isScalar(node.Value) || node.Value == nil {
		return fmt.Errorf("%w: $contains on field %q requires a non-null scalar, got %T",
			ErrInvalidValue, node.Field, node.Value)
	}
	bound, err := encodeJSON(node.Value, node)
	if err != nil {
		return err
	}
	sb.WriteString("(metadata -> ? @> ?::jsonb AND jsonb_typeof(metadata -> ?) = 'array')")
	*args = append(*args, node.Field, bound, node.Field)
	return nil
}

func orderingOperator(op CompareOp) string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	default:
		return "<="
	}
}

func encodeJSON(v any, node Cond) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s on field %q: %v", ErrInvalidValue, node.Op, node.Field, err)
	}
	return string(data), nil
}

// isScalar reports whether v is a JSON scalar (string, bool, number or null).
func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}

func isScalarList(v any) bool {
	elems, ok := asAnySlice(v)
	if !ok {
		return false
	}
	for _, elem := range elems {
		if !isScalar(elem) {
			return false
		}
	}
	return true
}

func asAnySlice(v any) ([]any, bool) {
	switch vs := v.(type) {
	case []any:
		return vs, true
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(vs))
		for i, n := range vs {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
