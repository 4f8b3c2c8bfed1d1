package scatter

import (
	"fmt"

	"github.com/gogpu/scatter/atlas"
	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/lambda"
	"github.com/gogpu/scatter/scale"
)

// binding is the resolved state of an aesthetic. Update builds a new
// binding and swaps it in only once resolution has succeeded.
type binding struct {
	encoding  Channel
	field     string
	domain    Extent
	rng       Extent
	transform scale.Transform
	constant  float64
	jitter    JitterMethod
	fn        lambda.Func
	// textured is set when the current lambda has been materialized
	// into the aesthetic's atlas row.
	textured bool
}

// Aesthetic is the stateful binding of one visual property to a channel.
// It is not safe for concurrent use.
type Aesthetic struct {
	kind  Kind
	id    string
	def   defaults
	data  dataset.Dataset
	atlas *atlas.Atlas
	size  int

	cur     binding
	version uint64
	texture []float32

	scale        scale.Scale
	scaleVersion uint64

	// domains caches inferred extents by field name. Only Reset clears it.
	domains map[string]Extent
}

func newAesthetic(kind Kind, id string, data dataset.Dataset, a *atlas.Atlas) *Aesthetic {
	ae := &Aesthetic{
		kind:    kind,
		id:      id,
		def:     kindDefaults[kind],
		data:    data,
		atlas:   a,
		size:    a.TextureSize(),
		texture: make([]float32, a.TextureSize()),
		domains: make(map[string]Extent),
	}
	ae.cur = ae.defaultBinding()
	return ae
}

func (a *Aesthetic) defaultBinding() binding {
	return binding{
		encoding:  ConstantChannel{Constant: a.def.constant},
		domain:    a.def.domain,
		rng:       a.def.rng,
		transform: a.def.transform,
		constant:  a.def.constant,
		jitter:    JitterNone,
	}
}

// Reset restores the defaults and clears the domain cache.
func (a *Aesthetic) Reset() {
	a.commit(a.defaultBinding())
	clear(a.domains)
}

func (a *Aesthetic) commit(b binding) {
	a.cur = b
	a.version++
	a.scale = nil
}

// Kind returns the visual property.
func (a *Aesthetic) Kind() Kind { return a.kind }

// ID returns the atlas slot id.
func (a *Aesthetic) ID() string { return a.id }

// Field returns the bound field, or "".
func (a *Aesthetic) Field() string { return a.cur.field }

// Encoding returns the current channel.
func (a *Aesthetic) Encoding() Channel { return a.cur.encoding }

// Domain returns the active domain.
func (a *Aesthetic) Domain() Extent { return a.cur.domain }

// Range returns the active range.
func (a *Aesthetic) Range() Extent { return a.cur.rng }

// Transform returns the active transform.
func (a *Aesthetic) Transform() scale.Transform { return a.cur.transform }

// Constant returns the constant used when no field is bound.
func (a *Aesthetic) Constant() float64 { return a.cur.constant }

// Jitter returns the jitter method.
func (a *Aesthetic) Jitter() JitterMethod { return a.cur.jitter }

// Version is incremented by every Update and Reset.
func (a *Aesthetic) Version() uint64 { return a.version }

// Texture returns a copy of the last materialized lookup buffer.
func (a *Aesthetic) Texture() []float32 {
	return append([]float32(nil), a.texture...)
}

// Scale returns the scale for the current encoding, building it if the
// encoding changed since the last call. Dictionary fields get an ordinal
// scale over their category codes.
func (a *Aesthetic) Scale() (scale.Scale, error) {
	if a.scale != nil && a.scaleVersion == a.version {
		return a.scale, nil
	}

	var s scale.Scale
	if col := a.column(a.cur.field); col != nil && col.Type() == dataset.TypeDictionary {
		Logger().Warn("scatter: ordinal scales are only fully supported for color aesthetics",
			"aesthetic", a.kind, "field", a.cur.field)
		codes := make([]any, len(col.Dictionary()))
		for i := range codes {
			codes[i] = float64(i)
		}
		outputs := []float64{a.cur.rng[0]}
		if a.cur.rng[1] != a.cur.rng[0] {
			outputs = append(outputs, a.cur.rng[1])
		}
		s = scale.NewOrdinal(codes, outputs)
	} else {
		c, err := scale.New(a.cur.transform, [2]float64(a.cur.domain), [2]float64(a.cur.rng))
		if err != nil {
			return nil, fmt.Errorf("scatter: %s: %w", a.kind, err)
		}
		s = c
	}
	a.scale = s
	a.scaleVersion = a.version
	return s, nil
}

// column returns the named column of the loaded root batch, or nil when
// nothing is loaded or the column does not exist.
func (a *Aesthetic) column(field string) dataset.Column {
	root := a.root()
	if field == "" || root == nil {
		return nil
	}
	col, err := root.Column(field)
	if err != nil {
		return nil
	}
	return col
}

func (a *Aesthetic) root() dataset.Batch {
	if a.data == nil {
		return nil
	}
	return a.data.Root()
}
