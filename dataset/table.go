package dataset

import (
	"fmt"
	"math"
	"sync"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// Table is an in-memory Batch backed by a go-gg table. Every column is
// stored as []float64; dictionary columns store codes and keep their
// labels alongside.
//
// Table counts full column scans so callers can check that extents are
// not recomputed needlessly.
type Table struct {
	tab    *table.Table
	schema Schema
	dicts  map[string][]string

	mu    sync.Mutex
	scans map[string]int
}

// Root implements Dataset: a Table is its own root batch.
func (t *Table) Root() Batch {
	if t == nil {
		return nil
	}
	return t
}

// Schema implements Batch.
func (t *Table) Schema() Schema { return t.schema }

// NumRows implements Batch.
func (t *Table) NumRows() int { return t.tab.Len() }

// Column implements Batch.
func (t *Table) Column(name string) (Column, error) {
	field, ok := t.schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	data, _ := t.tab.Column(name).([]float64)
	return &column{t: t, field: field, data: data}, nil
}

// Scans returns how many full scans of column name have been made.
func (t *Table) Scans(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scans[name]
}

// Row returns row i as a Point: floats for numeric columns and labels for
// dictionary columns. Null cells are omitted.
func (t *Table) Row(i int) Row {
	r := make(Row, len(t.schema.Fields))
	for _, f := range t.schema.Fields {
		data, _ := t.tab.Column(f.Name).([]float64)
		if i < 0 || i >= len(data) || math.IsNaN(data[i]) {
			continue
		}
		if f.Type == TypeDictionary {
			labels := t.dicts[f.Name]
			code := int(data[i])
			if code >= 0 && code < len(labels) {
				r[f.Name] = labels[code]
			}
			continue
		}
		r[f.Name] = data[i]
	}
	return r
}

func (t *Table) countScan(name string) {
	t.mu.Lock()
	t.scans[name]++
	t.mu.Unlock()
}

// column is a view of one Table column.
type column struct {
	t     *Table
	field Field
	data  []float64
}

func (c *column) Name() string                { return c.field.Name }
func (c *column) Type() Type                  { return c.field.Type }
func (c *column) Metadata() map[string]string { return c.field.Metadata }
func (c *column) Len() int                    { return len(c.data) }

func (c *column) Float(i int) (float64, bool) {
	if i < 0 || i >= len(c.data) || math.IsNaN(c.data[i]) {
		return math.NaN(), false
	}
	return c.data[i], true
}

func (c *column) Floats() []float64 {
	c.t.countScan(c.field.Name)
	return c.data
}

func (c *column) Dictionary() []string {
	if c.field.Type != TypeDictionary {
		return nil
	}
	return c.t.dicts[c.field.Name]
}

// Builder assembles a Table column by column. The first error is sticky
// and reported by Build.
type Builder struct {
	b      table.Builder
	fields []Field
	dicts  map[string][]string
	rows   int
	err    error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{dicts: make(map[string][]string), rows: -1}
}

// Add appends a numeric or temporal column. data may be any slice whose
// elements convert to float64, such as []int32 or []float64.
func (b *Builder) Add(f Field, data table.Slice) *Builder {
	if b.err != nil {
		return b
	}
	if f.Type == TypeDictionary {
		b.err = fmt.Errorf("dataset: column %q: use AddDictionary for dictionary columns", f.Name)
		return b
	}
	var vals []float64
	if err := convert(&vals, data); err != nil {
		b.err = fmt.Errorf("dataset: column %q: %w", f.Name, err)
		return b
	}
	return b.add(f, vals)
}

// AddDictionary appends a categorical column. Codes are assigned in order
// of first appearance; empty labels are treated as null.
func (b *Builder) AddDictionary(f Field, labels []string) *Builder {
	if b.err != nil {
		return b
	}
	f.Type = TypeDictionary

	codes := make([]float64, len(labels))
	index := make(map[string]int)
	var dict []string
	for i, l := range labels {
		if l == "" {
			codes[i] = math.NaN()
			continue
		}
		code, ok := index[l]
		if !ok {
			code = len(dict)
			index[l] = code
			dict = append(dict, l)
		}
		codes[i] = float64(code)
	}
	b.dicts[f.Name] = dict
	return b.add(f, codes)
}

func (b *Builder) add(f Field, vals []float64) *Builder {
	for _, g := range b.fields {
		if g.Name == f.Name {
			b.err = fmt.Errorf("%w: %q", ErrDuplicateColumn, f.Name)
			return b
		}
	}
	if b.rows >= 0 && len(vals) != b.rows {
		b.err = fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, f.Name, len(vals), b.rows)
		return b
	}
	b.rows = len(vals)
	b.fields = append(b.fields, f)
	b.b.Add(f.Name, vals)
	return b
}

// Build returns the assembled Table.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Table{
		tab:    b.b.Done(),
		schema: Schema{Fields: append([]Field(nil), b.fields...)},
		dicts:  b.dicts,
		scans:  make(map[string]int),
	}, nil
}

// convert wraps slice.Convert, which panics on element types that do not
// convert to float64.
func convert(dst *[]float64, src table.Slice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot convert %T to []float64: %v", src, r)
		}
	}()
	slice.Convert(dst, src)
	return nil
}
