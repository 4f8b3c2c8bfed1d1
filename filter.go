package scatter

import (
	"fmt"
	"math"

	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/lambda"
	"github.com/gogpu/scatter/scale"
)

// Apply evaluates the aesthetic as a predicate on one row. Constants pass
// when non-zero, op channels compare the field value, lambda channels
// pass when the function returns a truthy value. A row without the
// bound field fails. Other channels always pass.
func (a *Aesthetic) Apply(p dataset.Point) (bool, error) {
	switch c := a.cur.encoding.(type) {
	case nil:
		return true, nil

	case ConstantChannel:
		return c.Constant != 0, nil

	case OpChannel:
		v, ok := p.Value(c.Field)
		if !ok {
			return false, nil
		}
		return c.test(lambda.ToNumber(v)), nil

	case LambdaChannel:
		if a.cur.fn == nil {
			return false, fmt.Errorf("scatter: %s: %w", a.kind, ErrUnboundFunction)
		}
		if c.Field == "" {
			return false, fmt.Errorf("scatter: %s: %w", a.kind, ErrUnboundField)
		}
		v, ok := p.Value(c.Field)
		if !ok {
			return false, nil
		}
		out, err := a.cur.fn(v)
		if err != nil {
			return false, fmt.Errorf("scatter: %s: %w", a.kind, err)
		}
		return lambda.Truthy(out), nil

	case BasicChannel:
		v, err := a.Value(p)
		if err != nil {
			return false, err
		}
		return v != 0 && !math.IsNaN(v), nil
	}
	return true, nil
}

func (c OpChannel) test(v float64) bool {
	switch c.Op {
	case OpEq:
		return v == c.A
	case OpGt:
		return v > c.A
	case OpLt:
		return v < c.A
	case OpWithin:
		return c.B != nil && math.Abs(v-c.A) < *c.B
	}
	return false
}

// OpsToArray serializes an op channel as [code, a, b] for the shader.
// Any other channel serializes to [0, 0, 0], which always passes.
func (a *Aesthetic) OpsToArray() [3]float32 {
	c, ok := a.cur.encoding.(OpChannel)
	if !ok {
		return [3]float32{}
	}
	out := [3]float32{float32(c.Op.Code()), float32(c.A), 0}
	if c.B != nil {
		out[2] = float32(*c.B)
	}
	return out
}

// Value evaluates the aesthetic numerically on one row: the constant, the
// scaled field value, the lambda result, or 1/0 for predicates. A row
// without the bound field yields NaN.
func (a *Aesthetic) Value(p dataset.Point) (float64, error) {
	switch c := a.cur.encoding.(type) {
	case OpChannel:
		ok, err := a.Apply(p)
		if ok {
			return 1, err
		}
		return 0, err

	case LambdaChannel:
		if a.cur.fn == nil {
			return 0, fmt.Errorf("scatter: %s: %w", a.kind, ErrUnboundFunction)
		}
		if c.Field == "" {
			return 0, fmt.Errorf("scatter: %s: %w", a.kind, ErrUnboundField)
		}
		v, ok := p.Value(c.Field)
		if !ok {
			return math.NaN(), nil
		}
		out, err := a.cur.fn(v)
		if err != nil {
			return 0, fmt.Errorf("scatter: %s: %w", a.kind, err)
		}
		return lambda.ToNumber(out), nil

	case BasicChannel:
		v, ok := p.Value(c.Field)
		if !ok {
			return math.NaN(), nil
		}
		s, err := a.Scale()
		if err != nil {
			return 0, err
		}
		if o, ok := s.(*scale.Ordinal); ok {
			return o.MapKey(a.dictionaryCode(c.Field, v)), nil
		}
		return s.Map(lambda.ToNumber(v)), nil
	}
	return a.cur.constant, nil
}

// dictionaryCode maps a label back to its code so that labels and codes
// share ordinal outputs.
func (a *Aesthetic) dictionaryCode(field string, v any) any {
	label, ok := v.(string)
	if !ok {
		return lambda.ToNumber(v)
	}
	if col := a.column(field); col != nil {
		for i, l := range col.Dictionary() {
			if l == label {
				return float64(i)
			}
		}
	}
	return label
}
