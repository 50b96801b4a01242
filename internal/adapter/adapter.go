// Package adapter defines the trace-source abstraction: a common lifecycle
// over heterogeneous collectors, plus a registry that picks and manages one
// active source at a time.
package adapter

import (
	"context"
	"time"

	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Pattern pairs a browser-binary path fragment with a priority used to break
// ties during auto-detection. Higher priority wins.
type Pattern struct {
	Fragment string
	Priority int
}

// Metadata is the immutable descriptor every adapter declares.
type Metadata struct {
	// Type is the stable identifier the registry keys on.
	Type string

	// Name is the human-readable adapter name.
	Name string

	// Capabilities lists what this source can provide.
	Capabilities []trace.Capability

	// Patterns is the ordered list of path fragments used for
	// auto-detection from a browser binary path.
	Patterns []Pattern

	// Priority breaks ties among adapters whose patterns all match.
	Priority int
}

// CollectOptions tunes one collection run.
type CollectOptions struct {
	// Window is the sampling duration for live sources. The collect call
	// blocks for the whole window by design.
	Window time.Duration

	// TargetFps sets the frame budget used for drop detection.
	TargetFps int

	// Name labels the resulting snapshot.
	Name string

	// Source is adapter-specific: a DevTools URL for live sources, a file
	// path for file-based sources.
	Source string
}

// Adapter is one trace source. The lifecycle is Connect, then any number of
// Collect calls, then Disconnect; collecting before connecting is a usage
// error. Adapters are stateful, single-owner objects.
type Adapter interface {
	Metadata() Metadata
	Connect(ctx context.Context) error
	Collect(ctx context.Context, opts CollectOptions) (*trace.Snapshot, error)
	Disconnect() error
	Connected() bool
}

// Factory constructs a fresh adapter instance.
type Factory func() Adapter
