package scatter

import (
	"fmt"

	"github.com/gogpu/scatter/scale"
)

// Kind identifies a visual property.
type Kind int

// Supported aesthetics, in uniform block order.
const (
	Size Kind = iota
	X
	X0
	Y
	Y0
	Filter
	JitterSpeed
	JitterRadius

	numKinds
)

var kindNames = [numKinds]string{
	Size:         "size",
	X:            "x",
	X0:           "x0",
	Y:            "y",
	Y0:           "y0",
	Filter:       "filter",
	JitterSpeed:  "jitter_speed",
	JitterRadius: "jitter_radius",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every aesthetic kind in order.
func Kinds() []Kind {
	ks := make([]Kind, numKinds)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// ParseKind looks up a kind by name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAesthetic, name)
}

// IsJitter reports whether k accepts jitter method channels.
func (k Kind) IsJitter() bool {
	return k == JitterSpeed || k == JitterRadius
}

// defaults are the values an aesthetic returns to on reset.
type defaults struct {
	domain    Extent
	rng       Extent
	constant  float64
	transform scale.Transform
}

var kindDefaults = [numKinds]defaults{
	Size:         {Extent{0, 10}, Extent{0, 1}, 1.5, scale.Sqrt},
	X:            {Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
	X0:           {Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
	Y:            {Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
	Y0:           {Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
	Filter:       {Extent{0, 1}, Extent{0, 1}, 1, scale.Linear},
	JitterSpeed:  {Extent{0, 1}, Extent{0, 1}, 0, scale.Linear},
	JitterRadius: {Extent{0, 1}, Extent{0, 1}, 0, scale.Sqrt},
}
