package scatter

import (
	"fmt"

	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/lambda"
	"github.com/gogpu/scatter/scale"
)

// materialize evaluates b's function across the texture, pushes the
// result to the atlas and commits b. Nothing changes on failure.
func (a *Aesthetic) materialize(b binding) error {
	buf, err := a.evaluate(b)
	if err != nil {
		return fmt.Errorf("scatter: %s: %w", a.kind, err)
	}
	if err := a.atlas.Push(a.id, buf); err != nil {
		return fmt.Errorf("scatter: %s: %w", a.kind, err)
	}
	b.textured = true
	a.commit(b)
	a.texture = buf
	return nil
}

// evaluate fills a texture-sized buffer with b.fn applied to one sample
// per slot. Dictionary fields sample their labels in code order, padded
// with empty strings. Numeric fields sample the domain evenly. Without a
// field or loaded data every slot is 1.
func (a *Aesthetic) evaluate(b binding) ([]float32, error) {
	buf := make([]float32, a.size)

	root := a.root()
	if b.field == "" || root == nil {
		Logger().Debug("scatter: texture filled with placeholder",
			"aesthetic", a.kind, "field", b.field, "loaded", root != nil)
		for i := range buf {
			buf[i] = 1
		}
		return buf, nil
	}

	col, err := root.Column(b.field)
	if err != nil {
		return nil, err
	}
	sample := a.sampler(col, b.domain)
	for i := range buf {
		out, err := b.fn(sample(i))
		if err != nil {
			return nil, fmt.Errorf("texture slot %d: %w", i, err)
		}
		buf[i] = float32(lambda.ToNumber(out))
	}
	return buf, nil
}

func (a *Aesthetic) sampler(col dataset.Column, domain Extent) func(i int) any {
	if col.Type() == dataset.TypeDictionary {
		labels := col.Dictionary()
		return func(i int) any {
			if i < len(labels) {
				return labels[i]
			}
			return ""
		}
	}
	idx := scale.Index(a.size, [2]float64(domain))
	return func(i int) any {
		return idx.Map(float64(i))
	}
}
