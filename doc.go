// Package scatter encodes scatterplot aesthetics for GPU rendering.
//
// # Overview
//
// Every visual property of a point (size, x/y position, filter, jitter
// speed and radius) is an Aesthetic. An Aesthetic is assigned a Channel
// describing where its value comes from, and resolves it into something
// a renderer can use directly: a constant, a continuous scale over a data
// field, a predicate descriptor, or a lookup row in a shared float32
// texture atlas.
//
// # Quick Start
//
//	table, _ := dataset.ReadCSV(f)
//	enc, _ := scatter.New(table, scatter.WithTextureSize(4096))
//
//	err := enc.Apply(map[string]any{
//	    "size":   map[string]any{"field": "mass", "transform": "sqrt"},
//	    "filter": map[string]any{"field": "year", "op": "gt", "a": 2000},
//	    "y":      map[string]any{"field": "name", "lambda": "d => d.length"},
//	})
//
//	states := enc.States()    // per-aesthetic renderer state
//	uniforms := enc.Uniforms() // packed block for shader.Source
//	enc.Atlas().Flush()        // upload changed lookup rows
//
// # Channels
//
// Channels are ConstantChannel, BasicChannel (field, domain, range,
// transform), OpChannel (eq, gt, lt, within), LambdaChannel and
// JitterChannel. Decoded JSON or YAML maps are accepted wherever a
// Channel is, see ParseChannel.
//
// Lambda channels take a string such as "d => d * 2". The body is parsed
// and compiled by package lambda into a sandboxed function: it sees only
// its parameter and a few ambient globals such as Math. The compiled
// function is sampled across the texture and the result pushed to the
// aesthetic's atlas row.
//
// # Data
//
// Domains are inferred from the dataset's root batch: dictionary columns
// get a sentinel code domain, columns with "extent" metadata use it, and
// other columns are scanned once and cached. Before any data is loaded
// domains are [1, 1] and lambda textures are filled with 1, so rendering
// never has to wait on data. Call Encoder.Refresh once data arrives.
//
// # Logging
//
// scatter logs through log/slog and is silent by default, see SetLogger.
package scatter
