// Package atlas implements the shared texture atlas that holds one float32
// lookup row per aesthetic.
//
// The atlas is a single R32Float texture, TextureSize texels wide and
// MaxSlots rows tall. Each aesthetic id owns one row. Writers replace a
// whole row with Push; renderers read a consistent snapshot with Data or
// upload it with Flush.
package atlas

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Errors returned by the atlas.
var (
	// ErrAtlasFull is returned when every row is already allocated.
	ErrAtlasFull = errors.New("atlas: texture atlas is full")

	// ErrLengthMismatch is returned when a pushed buffer is not exactly
	// one row long.
	ErrLengthMismatch = errors.New("atlas: buffer length differs from texture size")

	// ErrUnknownSlot is returned by Row for ids that were never allocated.
	ErrUnknownSlot = errors.New("atlas: no slot allocated for id")
)

// Config holds atlas configuration.
type Config struct {
	// TextureSize is the row length in texels. Must be a power of 2.
	// Default: 4096
	TextureSize int

	// MaxSlots is the number of rows.
	// Default: 64
	MaxSlots int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TextureSize: 4096,
		MaxSlots:    64,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.TextureSize < 16 {
		return &ConfigError{Field: "TextureSize", Reason: "must be at least 16"}
	}
	if c.TextureSize > 16384 {
		return &ConfigError{Field: "TextureSize", Reason: "must be at most 16384"}
	}
	if c.TextureSize&(c.TextureSize-1) != 0 {
		return &ConfigError{Field: "TextureSize", Reason: "must be power of 2"}
	}
	if c.MaxSlots < 1 {
		return &ConfigError{Field: "MaxSlots", Reason: "must be at least 1"}
	}
	if c.MaxSlots > 2048 {
		return &ConfigError{Field: "MaxSlots", Reason: "must be at most 2048"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Atlas is the shared texture. It is safe for concurrent use.
type Atlas struct {
	mu     sync.Mutex
	config Config
	slots  map[string]int
	data   []float32
	dirty  bool
	target gpucontext.TextureUpdater

	pushes  uint64
	uploads uint64
}

// New creates an atlas. All texels start at zero.
func New(config Config) (*Atlas, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Atlas{
		config: config,
		slots:  make(map[string]int),
		data:   make([]float32, config.TextureSize*config.MaxSlots),
	}, nil
}

// NewDefault creates an atlas with DefaultConfig.
func NewDefault() *Atlas {
	a, _ := New(DefaultConfig())
	return a
}

// Config returns the atlas configuration.
func (a *Atlas) Config() Config {
	return a.config
}

// TextureSize returns the row length.
func (a *Atlas) TextureSize() int {
	return a.config.TextureSize
}

// Allocate returns the row owned by id, allocating the next free row on
// first use.
func (a *Atlas) Allocate(id string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocateLocked(id)
}

func (a *Atlas) allocateLocked(id string) (int, error) {
	if slot, ok := a.slots[id]; ok {
		return slot, nil
	}
	if len(a.slots) >= a.config.MaxSlots {
		return 0, fmt.Errorf("%w: cannot allocate %q (%d slots)", ErrAtlasFull, id, a.config.MaxSlots)
	}
	slot := len(a.slots)
	a.slots[id] = slot
	slogger().Debug("atlas: slot allocated", "id", id, "slot", slot)
	return slot, nil
}

// Position returns the row owned by id.
func (a *Atlas) Position(id string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot, ok := a.slots[id]
	return slot, ok
}

// Push replaces the row owned by id with buf, allocating it if needed.
// The row is written in one step: a concurrent Data or Flush sees either
// the old row or the new one.
func (a *Atlas) Push(id string, buf []float32) error {
	if len(buf) != a.config.TextureSize {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(buf), a.config.TextureSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	slot, err := a.allocateLocked(id)
	if err != nil {
		return err
	}
	copy(a.data[slot*a.config.TextureSize:], buf)
	a.dirty = true
	a.pushes++
	return nil
}

// Row returns a copy of the row owned by id.
func (a *Atlas) Row(id string) ([]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, ok := a.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, id)
	}
	n := a.config.TextureSize
	return append([]float32(nil), a.data[slot*n:(slot+1)*n]...), nil
}

// Data returns a copy of the whole texture, row-major.
func (a *Atlas) Data() []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float32(nil), a.data...)
}

// TextureDescriptor describes the GPU texture backing the atlas.
type TextureDescriptor struct {
	Label         string
	Size          gputypes.Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Dimension     gputypes.TextureDimension
	Format        gputypes.TextureFormat
	Usage         gputypes.TextureUsage
}

// Descriptor returns the descriptor a renderer should create the atlas
// texture with.
func (a *Atlas) Descriptor() TextureDescriptor {
	return TextureDescriptor{
		Label: "scatter-aesthetic-atlas",
		Size: gputypes.Extent3D{
			Width:              uint32(a.config.TextureSize),
			Height:             uint32(a.config.MaxSlots),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR32Float,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// Bind sets the GPU texture that Flush uploads to. Binding marks the
// atlas dirty so the next Flush uploads everything.
func (a *Atlas) Bind(target gpucontext.TextureUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = target
	a.dirty = target != nil
}

// Flush uploads the texture to the bound target if anything changed since
// the last upload. It is a no-op when nothing is bound.
func (a *Atlas) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.target == nil || !a.dirty {
		return nil
	}
	if err := a.target.UpdateData(encode(a.data)); err != nil {
		return fmt.Errorf("atlas: texture update failed: %w", err)
	}
	a.dirty = false
	a.uploads++
	return nil
}

// encode lays out texels as little-endian float32, the R32Float layout.
func encode(data []float32) []byte {
	out := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// Stats contains atlas statistics.
type Stats struct {
	// Slots is the number of allocated rows.
	Slots int
	// Capacity is MaxSlots.
	Capacity int
	// Pushes counts successful Push calls.
	Pushes uint64
	// Uploads counts Flush calls that reached the GPU.
	Uploads uint64
	// Dirty reports whether the texture changed since the last upload.
	Dirty bool
}

// Stats returns atlas statistics.
func (a *Atlas) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Slots:    len(a.slots),
		Capacity: a.config.MaxSlots,
		Pushes:   a.pushes,
		Uploads:  a.uploads,
		Dirty:    a.dirty,
	}
}
