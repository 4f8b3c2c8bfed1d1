// Package dataset defines the columnar data the encoding engine reads from,
// and an in-memory implementation built on go-gg tables.
//
// The engine only ever sees the root record batch of a tiled dataset: its
// schema, its typed columns by name, per-column metadata and the label
// lookup of dictionary-encoded columns. Before the first tile has loaded a
// Dataset returns a nil root, and callers are expected to degrade rather
// than fail.
package dataset

import (
	"errors"
	"strconv"
)

// Errors returned by dataset implementations.
var (
	// ErrMissingColumn is returned when a batch has no column of the
	// requested name.
	ErrMissingColumn = errors.New("dataset: no such column")

	// ErrLengthMismatch is returned when a column's length differs from
	// the table length.
	ErrLengthMismatch = errors.New("dataset: column length differs from table length")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("dataset: duplicate column")
)

// MetadataExtent is the column metadata key holding a precomputed
// JSON [min, max] pair.
const MetadataExtent = "extent"

// Type is the logical type of a column.
type Type int

const (
	// TypeFloat is a floating point column.
	TypeFloat Type = iota
	// TypeInt is an integer column.
	TypeInt
	// TypeDictionary is a categorical column stored as integer codes
	// plus a code to label lookup.
	TypeDictionary
	// TypeDate is a calendar date column.
	TypeDate
	// TypeTimestamp is an instant column.
	TypeTimestamp
)

func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeDictionary:
		return "dictionary"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// IsTemporal reports whether values of this type are instants whose
// metadata extents are expressed as milliseconds since the epoch.
func (t Type) IsTemporal() bool {
	return t == TypeDate || t == TypeTimestamp
}

// Field describes one column of a schema.
type Field struct {
	Name     string
	Type     Type
	Metadata map[string]string
}

// Schema lists the fields of a batch in column order.
type Schema struct {
	Fields []Field
}

// Field returns the field called name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Column is one typed column of a loaded batch.
type Column interface {
	// Name returns the column name.
	Name() string
	// Type returns the logical type.
	Type() Type
	// Metadata returns the column metadata. The map must not be modified.
	Metadata() map[string]string
	// Len returns the number of rows.
	Len() int
	// Float returns the numeric value of row i, the code for dictionary
	// columns. It reports false for null rows.
	Float(i int) (float64, bool)
	// Floats returns every value of the column. Nulls are NaN. This is a
	// full scan; the result must not be modified.
	Floats() []float64
	// Dictionary returns the labels of a dictionary column indexed by
	// code, or nil for other types.
	Dictionary() []string
}

// Batch is a loaded record batch.
type Batch interface {
	Schema() Schema
	NumRows() int
	// Column returns the column called name, or an error wrapping
	// ErrMissingColumn.
	Column(name string) (Column, error)
}

// Dataset gives access to the root batch of a tiled dataset.
type Dataset interface {
	// Root returns the root batch, or nil while nothing is loaded.
	Root() Batch
}

// Point is a single data row as seen by per-datum evaluation.
type Point interface {
	// Value returns the value of field on this row: a float64 for
	// numeric columns, a string label for dictionary columns.
	Value(field string) (any, bool)
}

// Row is a Point backed by a map.
type Row map[string]any

// Value implements Point.
func (r Row) Value(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
