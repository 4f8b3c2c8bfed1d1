package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ReadCSV reads a header row followed by records into a Table.
//
// A column whose non-empty cells all parse as numbers becomes TypeFloat; one
// whose cells all parse as RFC 3339 instants or YYYY-MM-DD dates becomes
// TypeTimestamp holding epoch milliseconds; anything else becomes a
// dictionary column. Empty cells are null.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: read csv: missing header")
	}

	header, rows := records[0], records[1:]
	b := NewBuilder()
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}

		if vals, ok := parseCells(cells, parseNumber); ok {
			b.Add(Field{Name: name, Type: TypeFloat}, vals)
			continue
		}
		if vals, ok := parseCells(cells, ParseTime); ok {
			b.Add(Field{Name: name, Type: TypeTimestamp}, vals)
			continue
		}
		b.AddDictionary(Field{Name: name}, cells)
	}
	return b.Build()
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseTime parses an RFC 3339 instant or a YYYY-MM-DD date and returns
// milliseconds since the epoch.
func ParseTime(s string) (float64, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli()), nil
		}
	}
	return 0, fmt.Errorf("dataset: %q is not a date or timestamp", s)
}

// parseCells applies parse to every non-empty cell and reports whether
// all of them parsed. A column of only empty cells does not qualify.
func parseCells(cells []string, parse func(string) (float64, error)) ([]float64, bool) {
	vals := make([]float64, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			vals[i] = math.NaN()
			continue
		}
		v, err := parse(c)
		if err != nil {
			return nil, false
		}
		vals[i] = v
		seen = true
	}
	return vals, seen
}
