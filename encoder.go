package scatter

import (
	"fmt"
	"sort"

	"github.com/gogpu/scatter/atlas"
	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/shader"
)

// Encoder owns one Aesthetic per Kind for a scatterplot, all sharing one
// dataset and one atlas. Like Aesthetic it is not safe for concurrent
// use; the atlas it writes to is.
type Encoder struct {
	data       dataset.Dataset
	atlas      *atlas.Atlas
	aesthetics [numKinds]*Aesthetic
}

// New creates an Encoder reading from data. data may be a dataset whose
// root is not loaded yet.
func New(data dataset.Dataset, opts ...Option) (*Encoder, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := o.atlas
	switch {
	case a == nil:
		cfg := atlas.DefaultConfig()
		if o.textureSize != 0 {
			cfg.TextureSize = o.textureSize
		}
		var err error
		if a, err = atlas.New(cfg); err != nil {
			return nil, err
		}
	case o.textureSize != 0 && o.textureSize != a.TextureSize():
		return nil, &atlas.ConfigError{
			Field:  "TextureSize",
			Reason: fmt.Sprintf("%d does not match shared atlas (%d)", o.textureSize, a.TextureSize()),
		}
	}

	e := &Encoder{data: data, atlas: a}
	for _, k := range Kinds() {
		id := k.String()
		if o.id != "" {
			id = o.id + "." + id
		}
		e.aesthetics[k] = newAesthetic(k, id, data, a)
	}
	return e, nil
}

// Aesthetic returns the aesthetic for k.
func (e *Encoder) Aesthetic(k Kind) *Aesthetic {
	if k < 0 || k >= numKinds {
		return nil
	}
	return e.aesthetics[k]
}

// Atlas returns the atlas the encoder pushes textures to.
func (e *Encoder) Atlas() *atlas.Atlas {
	return e.atlas
}

// TextureSize returns the length of every lookup buffer.
func (e *Encoder) TextureSize() int {
	return e.atlas.TextureSize()
}

// Apply updates the aesthetics named in encoding. Keys not present are
// left alone; a nil value resets that aesthetic. Unknown names are
// rejected before anything changes. Aesthetics are updated in name order
// and Apply stops at the first failure.
func (e *Encoder) Apply(encoding map[string]any) error {
	names := make([]string, 0, len(encoding))
	for name := range encoding {
		if _, err := ParseKind(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		k, _ := ParseKind(name)
		if err := e.aesthetics[k].Update(encoding[name]); err != nil {
			return err
		}
	}
	return nil
}

// Refresh re-resolves every aesthetic's current encoding. Call it once
// data has loaded so that inferred domains and textures built from
// placeholders are recomputed.
func (e *Encoder) Refresh() error {
	for _, a := range e.aesthetics {
		if a.cur.encoding == nil {
			continue
		}
		if err := a.resolve(a.cur.encoding); err != nil {
			return err
		}
	}
	return nil
}

// Filter reports whether p passes the filter aesthetic.
func (e *Encoder) Filter(p dataset.Point) (bool, error) {
	return e.aesthetics[Filter].Apply(p)
}

// States returns the renderer state of every aesthetic in Kind order.
func (e *Encoder) States() []State {
	states := make([]State, numKinds)
	for i, a := range e.aesthetics {
		states[i] = a.State()
	}
	return states
}

// Uniforms packs the states into the aesthetic shader's uniform block.
func (e *Encoder) Uniforms() []byte {
	var u shader.Uniforms
	for i, s := range e.States() {
		u.Aesthetics[i] = s.uniform()
	}
	u.FilterOp = e.aesthetics[Filter].OpsToArray()
	u.TextureSize = e.atlas.TextureSize()
	return shader.Pack(u)
}

// Reset restores every aesthetic to its defaults and clears domain caches.
func (e *Encoder) Reset() {
	for _, a := range e.aesthetics {
		a.Reset()
	}
}
