// Package detect implements the performance-bottleneck detectors. Each
// detector is an independent pattern-matcher over the normalized event
// streams; all of them share one scoring engine so findings are comparable.
package detect

import (
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Context is the read-only environment one analysis call shares across all
// detectors. Detectors must not mutate it, so a caller may run them
// concurrently.
type Context struct {
	TargetFps     int
	FrameBudgetMs float64
	Metrics       trace.FrameMetricsSummary
	TraceStartUs  int64
	TraceEndUs    int64
	Capabilities  trace.CapabilitySet

	// DegradedMode is true whenever the capability set lacks full-protocol
	// access; some detectors will have been skipped.
	DegradedMode bool
}

// SnapshotContext extends Context with snapshot-only fields. Detectors see
// only the embedded Context; the extras are for the orchestrator and
// reporters.
type SnapshotContext struct {
	Context
	AdapterType string
	Platform    string
}

// TraceDurationMs returns the trace length in milliseconds.
func (c *Context) TraceDurationMs() float64 {
	return float64(c.TraceEndUs-c.TraceStartUs) / 1000.0
}

// Input carries the data one analysis call offers to detectors. Snapshot is
// nil in legacy raw-event mode; Events is always populated (adapters convert
// snapshots back to a flat event list for detectors that want one).
type Input struct {
	Snapshot *trace.Snapshot
	Events   []trace.Event
}

// Detector is one pattern-matcher. Detectors declaring required capabilities
// are only run when the context's capability set satisfies all of them.
type Detector interface {
	Name() string
	RequiredCapabilities() []trace.Capability
	Detect(ctx *Context, in Input) []finding.Detection
}

// Config holds the tunable detection thresholds. The defaults are load-
// bearing: existing traces were calibrated against them, so overriding is
// supported but re-deriving "better" values is not.
type Config struct {
	// LongTaskThresholdMs is the minimum duration for a JS task to count
	// as a long task.
	LongTaskThresholdMs float64 `mapstructure:"long_task_threshold_ms"`

	// ThrashGapFraction is the fraction of a frame budget below which two
	// adjacent layout events count as synchronous read-after-write.
	ThrashGapFraction float64 `mapstructure:"thrash_gap_fraction"`

	// MinThrashOccurrences and MinThrashCostMs gate layout-thrash emission.
	MinThrashOccurrences int     `mapstructure:"min_thrash_occurrences"`
	MinThrashCostMs      float64 `mapstructure:"min_thrash_cost_ms"`

	// HeavyPaintMinCombinedMs and HeavyPaintMaxLayers qualify a frame group
	// as a heavy paint.
	HeavyPaintMinCombinedMs float64 `mapstructure:"heavy_paint_min_combined_ms"`
	HeavyPaintMaxLayers     int     `mapstructure:"heavy_paint_max_layers"`

	// HeavyPaintCollapseThreshold caps noisy output: more qualifying frame
	// groups than this collapse into a single aggregated finding.
	HeavyPaintCollapseThreshold int `mapstructure:"heavy_paint_collapse_threshold"`
}

// DefaultConfig returns the calibrated default thresholds.
func DefaultConfig() Config {
	return Config{
		LongTaskThresholdMs:         50,
		ThrashGapFraction:           0.25,
		MinThrashOccurrences:        2,
		MinThrashCostMs:             1.0,
		HeavyPaintMinCombinedMs:     2.0,
		HeavyPaintMaxLayers:         10,
		HeavyPaintCollapseThreshold: 5,
	}
}

// All returns the built-in detectors wired to the given config and scoring
// engine, in the order they are run.
func All(cfg Config, engine *scoring.Engine) []Detector {
	return []Detector{
		NewLayoutThrashDetector(cfg, engine),
		NewLongTaskDetector(cfg, engine),
		NewGPUStallDetector(cfg, engine),
		NewHeavyPaintDetector(cfg, engine),
	}
}
