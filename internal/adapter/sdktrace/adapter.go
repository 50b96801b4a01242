// Package sdktrace reads sanitized trace files exported by the on-device
// profiling SDK. The files carry frame timings, long tasks, and optionally
// DOM signals; GPU and paint data never appear, so analysis of these traces
// runs degraded.
package sdktrace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/blackwell-systems/renderlens/internal/adapter"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Type is the registry identifier for this adapter.
const Type = "sdk-file"

// Meta describes the adapter: file-based, degraded capability set, low
// detection priority so a live source wins when both match.
var Meta = adapter.Metadata{
	Type:     Type,
	Name:     "SDK trace file",
	Priority: 1,
	Patterns: []adapter.Pattern{
		{Fragment: ".rltrace", Priority: 5},
		{Fragment: ".json", Priority: 1},
	},
	Capabilities: []trace.Capability{
		trace.CapFrameTiming,
		trace.CapLongTasks,
		trace.CapDOMSignals,
	},
}

// Adapter loads snapshots from sanitized SDK trace files. Connect is a no-op
// apart from state tracking; there is no remote endpoint.
type Adapter struct {
	connected bool

	// Warnf receives non-fatal parse warnings (schema-version drift).
	Warnf func(format string, args ...any)
}

// New constructs a disconnected file adapter.
func New() *Adapter { return &Adapter{} }

// Factory is the registry constructor.
func Factory() adapter.Adapter { return New() }

func (a *Adapter) Metadata() adapter.Metadata { return Meta }

func (a *Adapter) Connect(ctx context.Context) error {
	a.connected = true
	return nil
}

func (a *Adapter) Disconnect() error {
	a.connected = false
	return nil
}

func (a *Adapter) Connected() bool { return a.connected }

// Collect reads the trace file named by opts.Source and normalizes it.
func (a *Adapter) Collect(ctx context.Context, opts adapter.CollectOptions) (*trace.Snapshot, error) {
	if !a.connected {
		return nil, fmt.Errorf("sdk-file adapter not connected")
	}
	if opts.Source == "" {
		return nil, fmt.Errorf("sdk-file adapter requires a file path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := a.Load(opts.Source)
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		snap.Name = opts.Name
	}
	if opts.TargetFps > 0 {
		snap.Meta.TargetFps = opts.TargetFps
	}
	return snap, nil
}

// Load parses and validates one trace file into a normalized snapshot.
// Validation failures return a *ValidationError naming every bad field.
func (a *Adapter) Load(path string) (*trace.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing trace file %s: %w", path, err)
	}

	warnings, fieldErrs := file.Validate()
	for _, w := range warnings {
		a.warnf("%s: %s", path, w)
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Path: path, Fields: fieldErrs}
	}

	return normalize(&file), nil
}

// normalize maps the file schema onto the canonical snapshot. A frame counts
// as dropped when the file says so or when its duration exceeds the frame
// budget implied by the file's fps target.
func normalize(f *File) *trace.Snapshot {
	budget := trace.FrameBudgetMs(f.Metadata.FpsTarget)

	snap := &trace.Snapshot{
		ID:         f.TraceID,
		Name:       f.Name,
		DurationMs: f.DurationMs,
		Meta: trace.SnapshotMetadata{
			Browser:     f.Metadata.Browser,
			OS:          f.Metadata.OS,
			ViewportW:   f.Metadata.ViewportW,
			ViewportH:   f.Metadata.ViewportH,
			CollectedAt: f.Metadata.Timestamp,
			TargetFps:   f.Metadata.FpsTarget,
			AdapterType: Type,
			Platform:    f.Metadata.Platform,
			URL:         f.Metadata.URL,
		},
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}

	snap.Frames = make([]trace.FrameTiming, 0, len(f.Frames))
	for _, fr := range f.Frames {
		snap.Frames = append(snap.Frames, trace.FrameTiming{
			FrameID:    fr.ID,
			StartUs:    fr.StartUs,
			EndUs:      fr.EndUs,
			DurationMs: fr.DurationMs,
			Dropped:    fr.Dropped || fr.DurationMs > budget,
		})
	}

	snap.LongTasks = make([]trace.LongTaskInfo, 0, len(f.LongTasks))
	for _, lt := range f.LongTasks {
		frameID := -1
		if lt.FrameID != nil {
			frameID = *lt.FrameID
		}
		snap.LongTasks = append(snap.LongTasks, trace.LongTaskInfo{
			StartUs:      lt.StartUs,
			DurationMs:   lt.DurationMs,
			FunctionName: lt.FunctionName,
			File:         lt.File,
			Line:         lt.Line,
			Column:       lt.Column,
			Stack:        lt.Stack,
			FrameID:      frameID,
		})
	}

	for _, s := range f.DOMSignals {
		snap.DOMSignals = append(snap.DOMSignals, trace.DOMSignal{
			Type:       signalType(s.Type),
			StartUs:    s.StartUs,
			DurationMs: s.DurationMs,
			Selector:   s.Selector,
			NodeCount:  s.NodeCount,
			Stack:      s.Stack,
		})
	}

	snap.Metrics = trace.CalculateFrameMetrics(snap.Frames, f.Metadata.FpsTarget)
	return snap
}

// signalType maps a file signal type onto the canonical enum, passing unknown
// values through so a newer SDK does not lose data.
func signalType(s string) trace.DOMSignalType {
	switch s {
	case "forced-reflow", "forcedReflow":
		return trace.SignalForcedReflow
	case "style-recalc", "styleRecalc":
		return trace.SignalStyleRecalc
	case "layout-invalidation", "layoutInvalidation":
		return trace.SignalLayoutInvalidation
	case "dom-mutation", "domMutation":
		return trace.SignalDOMMutation
	default:
		return trace.DOMSignalType(s)
	}
}

func (a *Adapter) warnf(format string, args ...any) {
	if a.Warnf != nil {
		a.Warnf(format, args...)
	}
}
