package vecstore

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// IndexMethod selects the pgvector index type used to accelerate similarity
// search on a collection.
type IndexMethod string

const (
	// IndexMethodAuto picks the best available method: hnsw when the
	// installed pgvector supports it, ivfflat otherwise.
	IndexMethodAuto    IndexMethod = "auto"
	IndexMethodIVFFlat IndexMethod = "ivfflat"
	IndexMethodHNSW    IndexMethod = "hnsw"
)

// IndexMeasure selects the distance measure an index is built for and a
// query is ranked by. An index only accelerates queries using the same
// measure it was built with.
type IndexMeasure string

const (
	MeasureCosineDistance  IndexMeasure = "cosine_distance"
	MeasureL2Distance      IndexMeasure = "l2_distance"
	MeasureMaxInnerProduct IndexMeasure = "max_inner_product"
	MeasureL1Distance      IndexMeasure = "l1_distance"
)

// measureToOps maps measures to the pgvector operator class used in
// `create index` statements.
var measureToOps = map[IndexMeasure]string{
	MeasureCosineDistance:  "vector_cosine_ops",
	MeasureL2Distance:      "vector_l2_ops",
	MeasureMaxInnerProduct: "vector_ip_ops",
	MeasureL1Distance:      "vector_l1_ops",
}

// measureToOperator maps measures to the pgvector distance operator used in
// query ORDER BY clauses.
var measureToOperator = map[IndexMeasure]string{
	MeasureCosineDistance:  "<=>",
	MeasureL2Distance:      "<->",
	MeasureMaxInnerProduct: "<#>",
	MeasureL1Distance:      "<+>",
}

// Ops returns the pgvector operator class for the measure.
func (m IndexMeasure) Ops() (string, bool) {
	ops, ok := measureToOps[m]
	return ops, ok
}

// Operator returns the pgvector distance operator for the measure.
func (m IndexMeasure) Operator() (string, bool) {
	op, ok := measureToOperator[m]
	return op, ok
}

// IndexArgs carries method-specific index build parameters. Implementations
// are IndexArgsIVFFlat and IndexArgsHNSW; the args type must match the
// chosen method and cannot be combined with IndexMethodAuto.
type IndexArgs interface {
	isIndexArgs()
}

// IndexArgsIVFFlat tunes an ivfflat index build.
type IndexArgsIVFFlat struct {
	// Lists is the number of IVF centroids the index uses.
	Lists int
}

func (IndexArgsIVFFlat) isIndexArgs() {}

// IndexArgsHNSW tunes an hnsw index build. Zero fields fall back to the
// pgvector defaults.
type IndexArgsHNSW struct {
	// M is the maximum number of connections per node per layer.
	M int

	// EfConstruction is the size of the dynamic candidate list used while
	// constructing the graph.
	EfConstruction int
}

func (IndexArgsHNSW) isIndexArgs() {}

const (
	defaultHNSWM              = 16
	defaultHNSWEfConstruction = 64
)

// Index describes a vector index on a collection. Build parameters and the
// record count at build time are encoded in the index name, so a descriptor
// can be recovered from the catalog alone in a later session.
type Index struct {
	Name    string
	Method  IndexMethod
	Measure IndexMeasure

	// Lists is set for ivfflat indexes.
	Lists int

	// M and EfConstruction are set for hnsw indexes.
	M              int
	EfConstruction int

	// RecordCountAtBuild is the collection size when the index was built,
	// used by staleness checks.
	RecordCountAtBuild int64

	// BuiltAt is the build time recovered from the name, or the zero time
	// for index names that do not carry one.
	BuiltAt time.Time
}

// ivfflatLists returns the default number of IVF centroids for a collection
// of n records: n/1000 with a floor of 30 below one million records, sqrt(n)
// beyond that.
func ivfflatLists(n int64) int {
	if n < 1_000_000 {
		return int(math.Max(float64(n)/1000, 30))
	}
	return int(math.Sqrt(float64(n)))
}

// encodeIndexName builds the index name for the given parameters. Layout:
//
//	ix_<ops>_<method>_<params>_rc<count>_t<unix>_x<suffix>
//
// where params is nl<lists> for ivfflat and m<m>_efc<efc> for hnsw. The
// random suffix keeps names unique within the schema; its "x" marker keeps
// it from colliding with the parameter tokens during decoding.
func encodeIndexName(ops string, method IndexMethod, idx Index, builtAt time.Time) string {
	var params string
	switch method {
	case IndexMethodIVFFlat:
		params = fmt.Sprintf("nl%d", idx.Lists)
	case IndexMethodHNSW:
		params = fmt.Sprintf("m%d_efc%d", idx.M, idx.EfConstruction)
	}
	return fmt.Sprintf("ix_%s_%s_%s_rc%d_t%d_x%06x",
		ops, method, params, idx.RecordCountAtBuild, builtAt.Unix(), rand.Uint32()&0xffffff)
}

// parseIndexName recovers an Index descriptor from an index name. Names not
// produced by this package decode to a descriptor carrying only the name, so
// foreign indexes on the vec column are still reported.
func parseIndexName(name string) Index {
	idx := Index{Name: name}

	rest, found := strings.CutPrefix(name, "ix_")
	if !found {
		return idx
	}

	for measure, ops := range measureToOps {
		if after, ok := strings.CutPrefix(rest, ops+"_"); ok {
			idx.Measure = measure
			rest = after
			break
		}
	}
	if idx.Measure == "" {
		return idx
	}

	for _, token := range strings.Split(rest, "_") {
		switch {
		case token == string(IndexMethodIVFFlat) || token == string(IndexMethodHNSW):
			idx.Method = IndexMethod(token)
		case strings.HasPrefix(token, "nl"):
			idx.Lists = atoiOrZero(token[2:])
		case strings.HasPrefix(token, "efc"):
			idx.EfConstruction = atoiOrZero(token[3:])
		case strings.HasPrefix(token, "m"):
			idx.M = atoiOrZero(token[1:])
		case strings.HasPrefix(token, "rc"):
			idx.RecordCountAtBuild = int64(atoiOrZero(token[2:]))
		case strings.HasPrefix(token, "t"):
			if unix := atoiOrZero(token[1:]); unix > 0 {
				idx.BuiltAt = time.Unix(int64(unix), 0).UTC()
			}
		}
	}
	return idx
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
