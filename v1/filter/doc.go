// Package filter compiles metadata filter expressions into parameterized
// PostgreSQL predicates over a JSONB column.
//
// # Overview
//
// A filter is a recursive tree of conditions. Leaves compare a metadata field
// against a value ([Cond]); internal nodes combine child filters with boolean
// connectives ([Logic]). The set of node types is closed: anything that is not
// a Cond or a Logic is rejected at compile time, so an unknown operator is an
// enumeration miss rather than a runtime string-lookup miss.
//
// Filters can be constructed programmatically:
//
//	f := filter.And(
//	    filter.Gte("year", 2000),
//	    filter.Lt("year", 2010),
//	)
//
// or parsed from the JSON dialect used by client applications:
//
//	f, err := filter.Parse(map[string]any{
//	    "$and": []any{
//	        map[string]any{"year": map[string]any{"$gte": 2000}},
//	        map[string]any{"year": map[string]any{"$lt": 2010}},
//	    },
//	})
//
// # Compilation
//
// [Compile] turns a filter into a SQL fragment with `?` placeholders and a
// matching argument list, suitable for gorm's Where:
//
//	sql, args, err := filter.Compile(f)
//	db.Where(sql, args...)
//
// Field names and values are always bound parameters, never interpolated into
// the fragment. Compilation is pure and deterministic: the same filter always
// yields a byte-identical fragment and the same argument order.
//
// Scalar equality compiles to a JSONB containment predicate (metadata @> ...)
// so it can be answered by a GIN jsonb_path_ops index on the metadata column.
// Containment and per-field equality agree for scalar values, so this is a
// query-plan optimization only. Equality against arrays, and every other
// comparison operator, uses the per-field accessor form (metadata -> field).
package filter
