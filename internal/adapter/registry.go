package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Confidence grades how sure the registry is about an auto-detection result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // matched a binary path pattern
	ConfidenceMedium Confidence = "medium" // matched a browser name hint
	ConfidenceLow    Confidence = "low"    // fell back to the default
)

// DetectResult is the outcome of adapter auto-detection.
type DetectResult struct {
	Type       string
	Confidence Confidence
}

// SelectOptions controls adapter selection.
type SelectOptions struct {
	// Type selects an adapter explicitly; empty means auto-detect.
	Type string

	// BrowserPath and BrowserName are auto-detection hints.
	BrowserPath string
	BrowserName string
}

// nameHints maps browser-name substrings onto adapter types for
// medium-confidence detection.
var nameHints = []struct {
	substring string
	adapter   string
}{
	{"chrome", "cdp"},
	{"chromium", "cdp"},
	{"edge", "cdp"},
	{"brave", "cdp"},
	{"sdk", "sdk-file"},
	{"file", "sdk-file"},
}

// Registry keeps adapter factories keyed by type and manages at most one
// live connection. The active reference is the only cross-call mutable state
// in the core and is mutex-guarded.
type Registry struct {
	mu          sync.Mutex
	factories   map[string]Factory
	metadata    map[string]Metadata
	order       []string
	defaultType string
	active      Adapter

	// Logf receives diagnostics (overwrite warnings, disconnect errors).
	Logf func(format string, args ...any)
}

// NewRegistry creates an empty registry. The first registered type becomes
// the fallback unless SetDefault is called.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		metadata:  make(map[string]Metadata),
	}
}

// Register adds an adapter factory under its metadata type. Registering an
// existing type overwrites it silently apart from a warning.
func (r *Registry) Register(meta Metadata, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[meta.Type]; exists {
		r.logf("adapter type %q re-registered, overwriting", meta.Type)
	} else {
		r.order = append(r.order, meta.Type)
	}
	r.factories[meta.Type] = factory
	r.metadata[meta.Type] = meta
}

// SetDefault marks the fallback type for low-confidence detection.
func (r *Registry) SetDefault(adapterType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultType = adapterType
}

// Types returns the registered adapter types in registration order.
func (r *Registry) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// MetadataFor returns the metadata registered for a type.
func (r *Registry) MetadataFor(adapterType string) (Metadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.metadata[adapterType]
	return m, ok
}

// Detect picks an adapter type from the given hints. A binary path beats a
// name hint beats the fallback; confidence reflects which tier matched.
func (r *Registry) Detect(browserPath, browserName string) (DetectResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) == 0 {
		return DetectResult{}, fmt.Errorf("no adapters registered")
	}

	if browserPath != "" {
		if typ, ok := r.matchPath(browserPath); ok {
			return DetectResult{Type: typ, Confidence: ConfidenceHigh}, nil
		}
	}

	if browserName != "" {
		lower := strings.ToLower(browserName)
		for _, hint := range nameHints {
			if strings.Contains(lower, hint.substring) {
				if _, registered := r.factories[hint.adapter]; registered {
					return DetectResult{Type: hint.adapter, Confidence: ConfidenceMedium}, nil
				}
			}
		}
	}

	fallback := r.defaultType
	if _, registered := r.factories[fallback]; !registered {
		fallback = r.order[0]
	}
	return DetectResult{Type: fallback, Confidence: ConfidenceLow}, nil
}

// matchPath tests the path against every adapter's ordered pattern list and
// returns the highest-priority match.
func (r *Registry) matchPath(browserPath string) (string, bool) {
	lower := strings.ToLower(browserPath)
	bestType := ""
	bestPriority := -1
	for _, typ := range r.order {
		meta := r.metadata[typ]
		for _, p := range meta.Patterns {
			if !strings.Contains(lower, strings.ToLower(p.Fragment)) {
				continue
			}
			priority := p.Priority + meta.Priority
			if priority > bestPriority {
				bestType = typ
				bestPriority = priority
			}
		}
	}
	return bestType, bestType != ""
}

// Select instantiates an adapter. An explicit type must be registered;
// otherwise detection runs on the hints.
func (r *Registry) Select(opts SelectOptions) (Adapter, error) {
	typ := opts.Type
	if typ != "" {
		r.mu.Lock()
		_, ok := r.factories[typ]
		r.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("unknown adapter type %q", typ)
		}
	} else {
		detected, err := r.Detect(opts.BrowserPath, opts.BrowserName)
		if err != nil {
			return nil, err
		}
		typ = detected.Type
	}

	r.mu.Lock()
	factory := r.factories[typ]
	r.mu.Unlock()
	return factory(), nil
}

// GetActive returns a connected adapter for the options, reusing the cached
// one when its type matches and it is still connected. Requesting a
// different type disconnects the old adapter first. A connection failure is
// fatal for that instance and leaves nothing cached.
func (r *Registry) GetActive(ctx context.Context, opts SelectOptions) (Adapter, error) {
	wanted := opts.Type
	if wanted == "" {
		detected, err := r.Detect(opts.BrowserPath, opts.BrowserName)
		if err != nil {
			return nil, err
		}
		wanted = detected.Type
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		if r.active.Metadata().Type == wanted && r.active.Connected() {
			return r.active, nil
		}
		r.disconnectActiveLocked()
	}

	factory, ok := r.factories[wanted]
	if !ok {
		return nil, fmt.Errorf("unknown adapter type %q", wanted)
	}
	a := factory()
	if err := a.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting %s adapter: %w", wanted, err)
	}
	r.active = a
	return a, nil
}

// DisconnectActive tears down the cached adapter. Safe to call repeatedly;
// disconnect errors are logged, not returned.
func (r *Registry) DisconnectActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectActiveLocked()
}

func (r *Registry) disconnectActiveLocked() {
	if r.active == nil {
		return
	}
	if err := r.active.Disconnect(); err != nil {
		r.logf("disconnecting %s adapter: %v", r.active.Metadata().Type, err)
	}
	r.active = nil
}

func (r *Registry) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
