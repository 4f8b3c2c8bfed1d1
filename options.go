package scatter

import "github.com/gogpu/scatter/atlas"

// Option configures an Encoder during creation.
//
// Example:
//
//	enc, err := scatter.New(table, scatter.WithTextureSize(1024), scatter.WithID("plot1"))
type Option func(*options)

type options struct {
	textureSize int
	atlas       *atlas.Atlas
	id          string
}

func defaultOptions() options {
	return options{}
}

// WithTextureSize sets the texture resolution, the length of every
// aesthetic's lookup buffer. It must be a power of 2. Default: 4096, or
// the atlas row length when WithAtlas is given.
func WithTextureSize(n int) Option {
	return func(o *options) {
		o.textureSize = n
	}
}

// WithAtlas shares an existing atlas, for example between several
// scatterplots drawn by one renderer. Combine with WithID so their slot
// ids do not collide.
func WithAtlas(a *atlas.Atlas) Option {
	return func(o *options) {
		o.atlas = a
	}
}

// WithID prefixes every aesthetic's atlas slot id.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}
