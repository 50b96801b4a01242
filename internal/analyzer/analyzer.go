package analyzer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/blackwell-systems/renderlens/internal/detect"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Analyzer runs the registered detectors over normalized trace data. It holds
// no per-call state; one Analyzer may serve many analyses.
type Analyzer struct {
	detectors []detect.Detector

	// Logf receives diagnostics (detector failures, skips). Nil means
	// silent; commands wire this to stderr.
	Logf func(format string, args ...any)
}

// New creates an analyzer with the built-in detectors wired to the given
// thresholds and scoring weights.
func New(cfg detect.Config, weights scoring.Weights) *Analyzer {
	return NewWithDetectors(detect.All(cfg, scoring.NewEngine(weights)))
}

// NewWithDetectors creates an analyzer over an explicit detector list.
func NewWithDetectors(detectors []detect.Detector) *Analyzer {
	return &Analyzer{detectors: detectors}
}

// Analyze runs detection over a raw protocol event list (legacy mode). The
// capability set defaults to the full-protocol assumption unless overridden.
func (a *Analyzer) Analyze(events []trace.Event, opts Options) (*Result, error) {
	fps := opts.TargetFps
	if fps <= 0 {
		fps = 60
	}

	caps := opts.Capabilities
	if len(caps) == 0 {
		caps = defaultRawCapabilities
	}
	capSet := trace.NewCapabilitySet(caps...)

	startUs, endUs := eventBounds(events)
	ctx := &detect.Context{
		TargetFps:     fps,
		FrameBudgetMs: trace.FrameBudgetMs(fps),
		TraceStartUs:  startUs,
		TraceEndUs:    endUs,
		Capabilities:  capSet,
		DegradedMode:  !capSet.Has(trace.CapFullProtocol),
	}
	ctx.Metrics.FrameBudgetMs = ctx.FrameBudgetMs

	detections, warnings := a.run(ctx, detect.Input{Events: events})

	adapterType := opts.AdapterType
	if adapterType == "" {
		adapterType = "raw"
	}
	summary := Summary{
		ID:           uuid.NewString(),
		Name:         "raw-trace",
		DurationMs:   trace.Round2(float64(endUs-startUs) / 1000.0),
		FrameMetrics: ctx.Metrics,
		Phases:       phasesFromEvents(events),
		Hotspots:     finding.GroupHotspots(detections),
		Meta: trace.SnapshotMetadata{
			TargetFps:   fps,
			AdapterType: adapterType,
			Platform:    opts.Platform,
		},
	}
	return &Result{Summary: summary, Detections: detections, Warnings: warnings}, nil
}

// AnalyzeSnapshot runs detection over a normalized snapshot. Frame metrics
// are always recomputed from the frame timings, never trusted from the
// snapshot itself.
func (a *Analyzer) AnalyzeSnapshot(snap *trace.Snapshot, opts Options) (*Result, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}

	fps := opts.TargetFps
	if fps <= 0 {
		fps = snap.Meta.TargetFps
	}
	if fps <= 0 {
		fps = 60
	}

	var capSet trace.CapabilitySet
	if len(opts.Capabilities) > 0 {
		capSet = trace.NewCapabilitySet(opts.Capabilities...)
	} else {
		capSet = inferSnapshotCapabilities(snap)
	}

	metrics := trace.CalculateFrameMetrics(snap.Frames, fps)

	startUs, endUs := snapshotBounds(snap)
	sctx := &detect.SnapshotContext{
		Context: detect.Context{
			TargetFps:     fps,
			FrameBudgetMs: trace.FrameBudgetMs(fps),
			Metrics:       metrics,
			TraceStartUs:  startUs,
			TraceEndUs:    endUs,
			Capabilities:  capSet,
			DegradedMode:  !capSet.Has(trace.CapFullProtocol),
		},
		AdapterType: snap.Meta.AdapterType,
		Platform:    snap.Meta.Platform,
	}

	detections, warnings := a.run(&sctx.Context, detect.Input{Snapshot: snap})

	summary := Summary{
		ID:           snap.ID,
		Name:         snap.Name,
		URL:          snap.Meta.URL,
		DurationMs:   trace.Round2(snap.DurationMs),
		FrameMetrics: metrics,
		Phases:       phasesFromSnapshot(snap),
		Hotspots:     finding.GroupHotspots(detections),
		Meta:         snap.Meta,
	}
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	return &Result{Summary: summary, Detections: detections, Warnings: warnings}, nil
}

// run executes every eligible detector, isolating individual failures, and
// returns ranked detections plus at most one degraded-analysis warning.
func (a *Analyzer) run(ctx *detect.Context, in detect.Input) ([]finding.Detection, []Warning) {
	var detections []finding.Detection
	var skipped []string

	for _, d := range a.detectors {
		if !eligible(d, ctx.Capabilities) {
			skipped = append(skipped, d.Name())
			continue
		}
		// GPU-stall detection has a stricter rule than its declared
		// requirements; the override lives here so it stays testable.
		if d.Name() == "gpu-stall" && !gpuStallEligible(ctx.Capabilities) {
			skipped = append(skipped, d.Name())
			continue
		}
		detections = append(detections, a.safeDetect(d, ctx, in)...)
	}

	var warnings []Warning
	if len(skipped) > 0 {
		warnings = append(warnings, Warning{
			Code: WarningDegradedAnalysis,
			Message: fmt.Sprintf("%d detector(s) skipped: the trace source lacks the capabilities they require",
				len(skipped)),
			Detectors: skipped,
			Suggestions: []string{
				"collect with a source that has full remote-debugging-protocol access",
				"re-run against a live browser session instead of a sanitized trace file",
			},
		})
	}

	return finding.Rank(detections), warnings
}

// safeDetect runs one detector, converting a panic into a logged skip so one
// faulty detector cannot take down the analysis.
func (a *Analyzer) safeDetect(d detect.Detector, ctx *detect.Context, in detect.Input) (out []finding.Detection) {
	defer func() {
		if r := recover(); r != nil {
			if a.Logf != nil {
				a.Logf("detector %s failed: %v", d.Name(), r)
			}
			out = nil
		}
	}()
	return d.Detect(ctx, in)
}

// eventBounds returns the [min start, max end] of the event list.
func eventBounds(events []trace.Event) (int64, int64) {
	if len(events) == 0 {
		return 0, 0
	}
	start, end := events[0].TimestampUs, events[0].EndUs()
	for _, e := range events[1:] {
		if e.TimestampUs < start {
			start = e.TimestampUs
		}
		if e.EndUs() > end {
			end = e.EndUs()
		}
	}
	return start, end
}

// snapshotBounds derives the trace interval from the declared duration,
// falling back to the frame timings.
func snapshotBounds(snap *trace.Snapshot) (int64, int64) {
	if snap.DurationMs > 0 {
		return 0, int64(snap.DurationMs * 1000)
	}
	if len(snap.Frames) == 0 {
		return 0, 0
	}
	start, end := snap.Frames[0].StartUs, snap.Frames[0].EndUs
	for _, f := range snap.Frames[1:] {
		if f.StartUs < start {
			start = f.StartUs
		}
		if f.EndUs > end {
			end = f.EndUs
		}
	}
	return start, end
}
