package filter

import (
	"errors"
	"fmt"
)

// Common filter errors. Compile and Parse wrap these with the offending
// field and operator so callers can both match with errors.Is and report
// a useful message.
var (
	// ErrMalformed is returned for structurally invalid expressions:
	// wrong arity, empty $and/$or, non-object conditions.
	ErrMalformed = errors.New("filter: malformed expression")

	// ErrUnknownOperator is returned when an operator name is not part of
	// the supported set.
	ErrUnknownOperator = errors.New("filter: unknown operator")

	// ErrInvalidValue is returned when a value's type is incompatible with
	// the operator it is used with.
	ErrInvalidValue = errors.New("filter: invalid value for operator")
)

// CompareOp is a comparison operator applied to a single metadata field.
type CompareOp string

const (
	OpEq       CompareOp = "$eq"
	OpNe       CompareOp = "$ne"
	OpGt       CompareOp = "$gt"
	OpGte      CompareOp = "$gte"
	OpLt       CompareOp = "$lt"
	OpLte      CompareOp = "$lte"
	OpIn       CompareOp = "$in"
	OpContains CompareOp = "$contains"
)

// LogicOp is a boolean connective over child filters.
type LogicOp string

const (
	OpAnd LogicOp = "$and"
	OpOr  LogicOp = "$or"
)

// Filter is the closed interface implemented by Cond and Logic.
// No other implementations exist; the compiler matches exhaustively.
type Filter interface {
	isFilter()
}

// Cond compares the metadata field Field against Value using Op.
type Cond struct {
	Field string
	Op    CompareOp
	Value any
}

func (Cond) isFilter() {}

// Logic combines one or more child filters with Op. Children must be
// non-empty: an empty conjunction/disjunction has no unambiguous identity
// element and is rejected at compile time.
type Logic struct {
	Op       LogicOp
	Children []Filter
}

func (Logic) isFilter() {}

// Eq matches records whose metadata field equals value.
func Eq(field string, value any) Cond { return Cond{Field: field, Op: OpEq, Value: value} }

// Ne matches records whose metadata field does not equal value.
func Ne(field string, value any) Cond { return Cond{Field: field, Op: OpNe, Value: value} }

// Gt matches records whose numeric metadata field is greater than value.
func Gt(field string, value any) Cond { return Cond{Field: field, Op: OpGt, Value: value} }

// Gte matches records whose numeric metadata field is greater than or equal to value.
func Gte(field string, value any) Cond { return Cond{Field: field, Op: OpGte, Value: value} }

// Lt matches records whose numeric metadata field is less than value.
func Lt(field string, value any) Cond { return Cond{Field: field, Op: OpLt, Value: value} }

// Lte matches records whose numeric metadata field is less than or equal to value.
func Lte(field string, value any) Cond { return Cond{Field: field, Op: OpLte, Value: value} }

// In matches records whose metadata field equals one of the provided scalars.
func In(field string, values ...any) Cond { return Cond{Field: field, Op: OpIn, Value: values} }

// Contains matches records whose array-valued metadata field contains value.
func Contains(field string, value any) Cond {
	return Cond{Field: field, Op: OpContains, Value: value}
}

// And combines children so every child must match.
func And(children ...Filter) Logic { return Logic{Op: OpAnd, Children: children} }

// Or combines children so at least one child must match.
func Or(children ...Filter) Logic { return Logic{Op: OpOr, Children: children} }

// Parse converts the JSON filter dialect into a Filter tree.
//
// Every object must contain exactly one key. A key starting the logical
// operators $and/$or takes a non-empty list of sub-filters; any other key
// names a metadata field and takes an object with exactly one comparison
// operator, e.g. {"year": {"$gte": 2000}}.
func Parse(raw map[string]any) (Filter, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one key per filter object, got %d", ErrMalformed, len(raw))
	}

	for key, value := range raw {
		switch LogicOp(key) {
		case OpAnd, OpOr:
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s requires a list of conditions", ErrMalformed, key)
			}
			if len(items) == 0 {
				return nil, fmt.Errorf("%w: %s requires at least one condition", ErrMalformed, key)
			}
			children := make([]Filter, 0, len(items))
			for i, item := range items {
				sub, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: %s condition %d is not an object", ErrMalformed, key, i)
				}
				child, err := Parse(sub)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			return Logic{Op: LogicOp(key), Children: children}, nil
		}

		// Any other key names a metadata field.
		ops, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %q requires an operator object", ErrMalformed, key)
		}
		if len(ops) != 1 {
			return nil, fmt.Errorf("%w: field %q requires exactly one operator, got %d", ErrMalformed, key, len(ops))
		}
		for op, operand := range ops {
			if !knownCompareOp(CompareOp(op)) {
				return nil, fmt.Errorf("%w: %q on field %q", ErrUnknownOperator, op, key)
			}
			return Cond{Field: key, Op: CompareOp(op), Value: operand}, nil
		}
	}

	// len(raw) == 1 guarantees the loop body returned.
	return nil, ErrMalformed
}

func knownCompareOp(op CompareOp) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains:
		return true
	}
	return false
}
