// Package scale builds the numeric mappings used by aesthetics: continuous
// transforms from a data domain onto an output range, ordinal mappings for
// categorical codes, and the index scale that spreads texture slots across
// a domain.
//
// Continuous scales normalize through go-moremath's scale.Linear, the same
// way go-gg's linear scaler does, after applying the transform's shape
// function to both the domain and the input.
package scale

import (
	"errors"
	"fmt"
	"math"

	mscale "github.com/aclements/go-moremath/scale"
)

// ErrUnknownTransform is returned for transform names other than linear,
// sqrt, log and literal.
var ErrUnknownTransform = errors.New("scale: unknown transform")

// Transform is the functional shape of a continuous scale.
type Transform string

// Supported transforms.
const (
	Linear  Transform = "linear"
	Sqrt    Transform = "sqrt"
	Log     Transform = "log"
	Literal Transform = "literal"
)

// ParseTransform validates a transform name.
func ParseTransform(s string) (Transform, error) {
	switch t := Transform(s); t {
	case Linear, Sqrt, Log, Literal:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransform, s)
}

// Code returns the transform's index in the shader's transform switch.
func (t Transform) Code() int {
	switch t {
	case Linear:
		return 0
	case Sqrt:
		return 1
	case Log:
		return 2
	case Literal:
		return 3
	}
	return -1
}

// Scale maps a domain value onto the output range.
type Scale interface {
	Map(x float64) float64
}

// Continuous is a linear, sqrt, log or literal scale.
// It is immutable and safe for concurrent use.
type Continuous struct {
	transform Transform
	domain    [2]float64
	rng       [2]float64

	shape func(float64) float64
	norm  mscale.Linear
	out   mscale.Linear
}

// New builds a continuous scale mapping domain onto rng.
//
// Log scales whose domain straddles zero are not supported: inputs on the
// far side of zero map to NaN.
func New(t Transform, domain, rng [2]float64) (*Continuous, error) {
	var shape func(float64) float64
	switch t {
	case Linear, Literal:
		shape = identity
	case Sqrt:
		shape = signedSqrt
	case Log:
		shape = math.Log
		if domain[0] < 0 {
			shape = reflectedLog
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, t)
	}

	return &Continuous{
		transform: t,
		domain:    domain,
		rng:       rng,
		shape:     shape,
		norm:      mscale.Linear{Min: shape(domain[0]), Max: shape(domain[1])},
		out:       mscale.Linear{Min: rng[0], Max: rng[1]},
	}, nil
}

// Index returns the scale spreading texture slot indexes [0, size-1]
// affinely across target. size must be at least 2.
func Index(size int, target [2]float64) *Continuous {
	s, _ := New(Linear, [2]float64{0, float64(size - 1)}, target)
	return s
}

// Map implements Scale. Literal scales return x unchanged.
func (s *Continuous) Map(x float64) float64 {
	if s.transform == Literal {
		return x
	}
	return s.out.Unmap(s.norm.Map(s.shape(x)))
}

// Transform returns the scale's transform.
func (s *Continuous) Transform() Transform { return s.transform }

// Domain returns the input interval.
func (s *Continuous) Domain() [2]float64 { return s.domain }

// Range returns the output interval.
func (s *Continuous) Range() [2]float64 { return s.rng }

func (s *Continuous) String() string {
	return fmt.Sprintf("%s [%g,%g] => [%g,%g]", s.transform, s.domain[0], s.domain[1], s.rng[0], s.rng[1])
}

func identity(x float64) float64 { return x }

func signedSqrt(x float64) float64 {
	if x < 0 {
		return -math.Sqrt(-x)
	}
	return math.Sqrt(x)
}

func reflectedLog(x float64) float64 { return -math.Log(-x) }
