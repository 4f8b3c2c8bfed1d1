package scale

import "math"

// Ordinal maps discrete keys onto a list of output values.
//
// Keys given at construction map to the range in order. Keys first seen
// by Map are appended to the domain, so each distinct key keeps a stable
// output, and outputs cycle once the range is exhausted.
//
// Ordinal is not safe for concurrent use: Map may extend the domain.
type Ordinal struct {
	index map[any]int
	keys  []any
	rng   []float64
}

// NewOrdinal builds an ordinal scale. Domain entries may be float64 codes
// or string labels; duplicate entries keep their first position.
func NewOrdinal(domain []any, rng []float64) *Ordinal {
	o := &Ordinal{
		index: make(map[any]int, len(domain)),
		rng:   append([]float64(nil), rng...),
	}
	for _, k := range domain {
		o.lookup(k)
	}
	return o
}

// Map implements Scale for numeric codes.
func (o *Ordinal) Map(x float64) float64 {
	return o.MapKey(x)
}

// MapKey maps a float64 code or string label.
func (o *Ordinal) MapKey(k any) float64 {
	if len(o.rng) == 0 {
		return math.NaN()
	}
	return o.rng[o.lookup(k)%len(o.rng)]
}

// Domain returns the keys seen so far in order.
func (o *Ordinal) Domain() []any {
	return append([]any(nil), o.keys...)
}

func (o *Ordinal) lookup(k any) int {
	if f, ok := k.(float64); ok && math.IsNaN(f) {
		k = "NaN"
	}
	i, ok := o.index[k]
	if !ok {
		i = len(o.keys)
		o.index[k] = i
		o.keys = append(o.keys, k)
	}
	return i
}
