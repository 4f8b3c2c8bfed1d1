// Package shader holds the WGSL that resolves aesthetics on the GPU and
// packs the uniform block it reads.
package shader

import (
	_ "embed"
	"encoding/binary"
	"math"
	"sync"

	"github.com/gogpu/naga"
)

// Source is the aesthetic vertex shader.
//
//go:embed aesthetic.wgsl
var Source string

// EntryPoint is the vertex entry point in Source.
const EntryPoint = "vs_main"

// Slots is the number of aesthetics in the uniform block, in the order
// size, x, x0, y, y0, filter, jitter_speed, jitter_radius.
const Slots = 8

// Mode selects how the shader resolves an aesthetic.
type Mode uint32

const (
	// ModeConstant uses the constant.
	ModeConstant Mode = iota
	// ModeScale evaluates the continuous scale.
	ModeScale
	// ModeAtlas samples the aesthetic's atlas row.
	ModeAtlas
)

// Aesthetic is the per-aesthetic part of the uniform block.
type Aesthetic struct {
	Domain    [2]float64
	Range     [2]float64
	Constant  float64
	Transform int
	Mode      Mode
	Row       int
}

// Uniforms is the whole uniform block.
type Uniforms struct {
	Aesthetics  [Slots]Aesthetic
	FilterOp    [3]float32
	TextureSize int
}

const (
	aestheticStride = 32
	filterOpOffset  = Slots * aestheticStride
	textureOffset   = filterOpOffset + 16

	// UniformSize is the byte size of the packed uniform block.
	UniformSize = textureOffset + 16
)

// Pack lays out u as the shader's Uniforms struct.
func Pack(u Uniforms) []byte {
	buf := make([]byte, UniformSize)
	putF32 := func(off int, v float64) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
	}
	putU32 := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(buf[off:], v)
	}

	for i, a := range u.Aesthetics {
		base := i * aestheticStride
		putF32(base, a.Domain[0])
		putF32(base+4, a.Domain[1])
		putF32(base+8, a.Range[0])
		putF32(base+12, a.Range[1])
		putF32(base+16, a.Constant)
		putU32(base+20, uint32(a.Transform))
		putU32(base+24, uint32(a.Mode))
		putU32(base+28, uint32(a.Row))
	}
	for i, v := range u.FilterOp {
		putF32(filterOpOffset+4*i, float64(v))
	}
	putF32(textureOffset, float64(u.TextureSize))
	return buf
}

var compiled = sync.OnceValues(func() ([]byte, error) {
	return naga.Compile(Source)
})

// Compile translates Source to SPIR-V. The result is computed once.
func Compile() ([]byte, error) {
	return compiled()
}
