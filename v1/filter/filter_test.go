package filter

import (
	"errors"
	"testing"
)

func TestParse_SimpleCondition(t *testing.T) {
	f, err := Parse(map[string]any{"year": map[string]any{"$eq": 2012}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cond, ok := f.(Cond)
	if !ok {
		t.Fatalf("expected Cond, got %T", f)
	}
	if cond.Field != "year" || cond.Op != OpEq || cond.Value != 2012 {
		t.Errorf("unexpected cond: %+v", cond)
	}
}

func TestParse_AndWithChildren(t *testing.T) {
	f, err := Parse(map[string]any{
		"$and": []any{
			map[string]any{"year": map[string]any{"$gte": 2000}},
			map[string]any{"year": map[string]any{"$lt": 2010}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logic, ok := f.(Logic)
	if !ok {
		t.Fatalf("expected Logic, got %T", f)
	}
	if logic.Op != OpAnd || len(logic.Children) != 2 {
		t.Errorf("unexpected logic node: %+v", logic)
	}
}

func TestParse_NestedOr(t *testing.T) {
	f, err := Parse(map[string]any{
		"$or": []any{
			map[string]any{"$and": []any{
				map[string]any{"a": map[string]any{"$eq": 1}},
			}},
			map[string]any{"b": map[string]any{"$in": []any{1, 2}}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(Logic); !ok {
		t.Fatalf("expected Logic, got %T", f)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want error
	}{
		{"empty object", map[string]any{}, ErrMalformed},
		{"two keys", map[string]any{"a": map[string]any{"$eq": 1}, "b": map[string]any{"$eq": 2}}, ErrMalformed},
		{"empty and", map[string]any{"$and": []any{}}, ErrMalformed},
		{"empty or", map[string]any{"$or": []any{}}, ErrMalformed},
		{"and without list", map[string]any{"$and": "nope"}, ErrMalformed},
		{"and with non-object child", map[string]any{"$and": []any{42}}, ErrMalformed},
		{"field without operator object", map[string]any{"year": 2012}, ErrMalformed},
		{"two operators on one field", map[string]any{"year": map[string]any{"$gt": 1, "$lt": 2}}, ErrMalformed},
		{"unknown operator", map[string]any{"year": map[string]any{"$near": 1}}, ErrUnknownOperator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// Parse then Compile must work end to end for the JSON dialect.
func TestParseCompile_RoundTrip(t *testing.T) {
	raw := map[string]any{
		"$and": []any{
			map[string]any{"year": map[string]any{"$gte": 2000}},
			map[string]any{"year": map[string]any{"$lt": 2010}},
		},
	}
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sql, args, err := Compile(f)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if sql == "" || len(args) != 4 {
		t.Errorf("unexpected compile output: %q %v", sql, args)
	}
}
