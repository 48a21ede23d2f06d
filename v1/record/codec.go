package record

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Row is the stored shape of a record: a primary-key id, a fixed-width
// pgvector column and a JSONB metadata column. The table name is supplied per
// collection via gorm's Table().
type Row struct {
	ID       string            `gorm:"column:id;primaryKey"`
	Vec      pgvector.Vector   `gorm:"column:vec"`
	Metadata datatypes.JSONMap `gorm:"column:metadata"`
}

// ToRow validates a record and converts it to its stored shape. The record's
// media must be a numeric vector of exactly dimension elements and its
// metadata must pass ValidateMetadata. Errors carry the record id.
func ToRow(r Record, dimension int) (Row, error) {
	vec, ok := AsVector(r.Media)
	if !ok {
		return Row{}, fmt.Errorf("%w: record %q has media of type %T", ErrInvalidMedia, r.ID, r.Media)
	}
	if len(vec) != dimension {
		return Row{}, fmt.Errorf("%w: record %q has %d dimensions, collection expects %d",
			ErrMismatchedDimension, r.ID, len(vec), dimension)
	}
	if err := ValidateMetadata(r.Metadata); err != nil {
		return Row{}, fmt.Errorf("record %q: %w", r.ID, err)
	}

	md := datatypes.JSONMap{}
	for k, v := range r.Metadata {
		md[k] = v
	}
	return Row{
		ID:       r.ID,
		Vec:      pgvector.NewVector(vec),
		Metadata: md,
	}, nil
}

// FromRow converts a stored row back to the external record shape.
func FromRow(row Row) Record {
	md := Metadata{}
	for k, v := range row.Metadata {
		md[k] = v
	}
	return Record{
		ID:       row.ID,
		Media:    row.Vec.Slice(),
		Metadata: md,
	}
}
