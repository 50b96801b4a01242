// Package analyzer orchestrates an analysis run: it resolves capabilities,
// filters detectors, executes them with failure isolation, and aggregates
// findings into a summary.
package analyzer

import (
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// WarningDegradedAnalysis is emitted once per analysis when detectors were
// skipped for missing capabilities.
const WarningDegradedAnalysis = "DEGRADED_ANALYSIS"

// Warning describes a non-fatal condition encountered during analysis.
type Warning struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Detectors   []string `json:"detectors,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Summary is the stable contract consumed by reporters, the comparator, and
// downstream tooling.
type Summary struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	URL          string                    `json:"url,omitempty"`
	DurationMs   float64                   `json:"duration_ms"`
	FrameMetrics trace.FrameMetricsSummary `json:"frame_metrics"`
	Phases       trace.PhaseBreakdown      `json:"phases"`
	Hotspots     finding.Hotspots          `json:"hotspots"`
	Meta         trace.SnapshotMetadata    `json:"meta"`
}

// Result is what one analysis call returns. It is always produced for
// structurally valid input, even when every detector was skipped.
type Result struct {
	Summary    Summary             `json:"summary"`
	Detections []finding.Detection `json:"detections"`
	Warnings   []Warning           `json:"warnings,omitempty"`
}

// Options tunes one analysis call.
type Options struct {
	// TargetFps defaults to 60 when zero.
	TargetFps int

	// Capabilities overrides capability inference when non-empty.
	Capabilities []trace.Capability

	// AdapterType and Platform annotate raw-event analyses whose events
	// did not come from a snapshot.
	AdapterType string
	Platform    string
}
