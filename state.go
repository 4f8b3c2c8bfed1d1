package scatter

import (
	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/scale"
	"github.com/gogpu/scatter/shader"
)

// State is what a renderer needs to draw one aesthetic.
type State struct {
	Kind      Kind
	Field     string
	Constant  float64
	Domain    Extent
	Range     Extent
	Transform scale.Transform

	// WebGLDomain is the domain the shader normalizes by. Dictionary
	// fields use the code range [0, texture size - 1].
	WebGLDomain Extent

	// UseAtlasSlot is set when the aesthetic must be sampled from its
	// atlas row rather than computed from Constant or the scale.
	UseAtlasSlot bool

	// AtlasPosition is the atlas row, or -1 when none is allocated.
	AtlasPosition int

	JitterMethod JitterMethod
	FilterOp     [3]float32
}

// State returns the renderer-facing state.
func (a *Aesthetic) State() State {
	s := State{
		Kind:          a.kind,
		Field:         a.cur.field,
		Constant:      a.cur.constant,
		Domain:        a.cur.domain,
		Range:         a.cur.rng,
		Transform:     a.cur.transform,
		WebGLDomain:   a.cur.domain,
		UseAtlasSlot:  a.cur.textured,
		AtlasPosition: -1,
		JitterMethod:  a.cur.jitter,
		FilterOp:      a.OpsToArray(),
	}
	if col := a.column(a.cur.field); col != nil && col.Type() == dataset.TypeDictionary {
		s.WebGLDomain = Extent{0, float64(a.size - 1)}
	}
	if pos, ok := a.atlas.Position(a.id); ok {
		s.AtlasPosition = pos
	}
	return s
}

// uniform converts the state into its slot of the shader uniform block.
func (s State) uniform() shader.Aesthetic {
	u := shader.Aesthetic{
		Domain:    s.WebGLDomain,
		Range:     s.Range,
		Constant:  s.Constant,
		Transform: s.Transform.Code(),
		Mode:      shader.ModeConstant,
	}
	switch {
	case s.UseAtlasSlot && s.AtlasPosition >= 0:
		u.Mode = shader.ModeAtlas
		u.Row = s.AtlasPosition
	case s.Field != "" && s.FilterOp == [3]float32{}:
		u.Mode = shader.ModeScale
	}
	return u
}
