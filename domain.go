package scatter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-moremath/stats"

	"github.com/gogpu/scatter/dataset"
)

// dictionaryFloor is the lowest code of the dictionary sentinel domain.
// Codes below zero are reserved for missing and out-of-range labels.
const dictionaryFloor = -2047

// InferDomain returns the [min, max] extent of field.
//
// An empty field yields [1, 1]. Results are cached per field until Reset.
// Dictionary columns get a sentinel domain sized to the texture, columns
// with an "extent" metadata entry use it, and anything else is scanned.
// Before any data is loaded the result is [1, 1] and nothing is cached.
func (a *Aesthetic) InferDomain(field string) (Extent, error) {
	if field == "" {
		return Extent{1, 1}, nil
	}
	if ext, ok := a.domains[field]; ok {
		return ext, nil
	}

	root := a.root()
	if root == nil {
		Logger().Debug("scatter: domain requested before data loaded",
			"aesthetic", a.kind, "field", field)
		return Extent{1, 1}, nil
	}
	col, err := root.Column(field)
	if err != nil {
		return Extent{}, fmt.Errorf("scatter: %s: %w", a.kind, err)
	}

	var ext Extent
	switch raw, hasMeta := col.Metadata()[dataset.MetadataExtent]; {
	case col.Type() == dataset.TypeDictionary:
		ext = Extent{dictionaryFloor, float64(a.size/2 - 1)}
	case hasMeta:
		ext, err = parseExtent(raw, col.Type().IsTemporal())
		if err != nil {
			Logger().Warn("scatter: ignoring malformed extent metadata",
				"field", field, "extent", raw, "error", err)
			ext = scan(col)
		}
	default:
		ext = scan(col)
	}

	a.domains[field] = ext
	return ext, nil
}

// scan computes the extent of a column, skipping nulls. A column with no
// values has extent [1, 1].
func scan(col dataset.Column) Extent {
	vals := col.Floats()
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return Extent{1, 1}
	}
	lo, hi := stats.Bounds(present)
	return Extent{lo, hi}
}

// parseExtent decodes a JSON [min, max] pair. Elements may be numbers or
// strings. For temporal columns strings are parsed as dates and numbers
// are taken as milliseconds since the epoch.
func parseExtent(raw string, temporal bool) (Extent, error) {
	var pair []any
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return Extent{}, err
	}
	if len(pair) != 2 {
		return Extent{}, fmt.Errorf("extent has %d elements, want 2", len(pair))
	}

	var ext Extent
	for i, v := range pair {
		switch x := v.(type) {
		case float64:
			ext[i] = x
		case string:
			var err error
			if temporal {
				ext[i], err = dataset.ParseTime(x)
			} else {
				ext[i], err = strconv.ParseFloat(x, 64)
			}
			if err != nil {
				return Extent{}, err
			}
		default:
			return Extent{}, fmt.Errorf("extent element %v is not a number or string", v)
		}
	}
	return ext, nil
}
