package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/compare"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/output"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

func TestMain(m *testing.M) {
	output.SetNoColor(true)
	m.Run()
}

func sampleResult() *analyzer.Result {
	return &analyzer.Result{
		Summary: analyzer.Summary{
			ID:         "t-1",
			Name:       "checkout",
			DurationMs: 5000,
			FrameMetrics: trace.FrameMetricsSummary{
				TotalFrames: 280, DroppedFrames: 14, AvgFps: 56,
				P95FrameTimeMs: 22.4, MaxFrameTimeMs: 48.1, FrameBudgetMs: 16.67,
			},
			Phases: trace.PhaseBreakdown{LayoutMs: 120.5, PaintMs: 88.2},
			Meta:   trace.SnapshotMetadata{AdapterType: "cdp", TargetFps: 60},
		},
		Detections: []finding.Detection{{
			Type:        finding.TypeLayoutThrash,
			Severity:    finding.SeverityHigh,
			Description: "Layout thrashing on .grid-cell",
			Location:    finding.Location{Selector: ".grid-cell"},
			Metrics: finding.Metrics{
				DurationMs: 42.5, Occurrences: 7, ImpactScore: 68,
				Confidence:          finding.ConfidenceHigh,
				EstimatedSpeedupPct: 25,
				SpeedupExplanation:  "batching DOM reads and writes",
				FrameBudgetImpact:   255,
				Risk:                finding.RiskAssessment{FixPriority: 7},
			},
		}},
		Warnings: []analyzer.Warning{{
			Code:        analyzer.WarningDegradedAnalysis,
			Message:     "2 detectors skipped",
			Suggestions: []string{"use the cdp adapter for full coverage"},
		}},
	}
}

func TestTerminal_IncludesEverything(t *testing.T) {
	var buf bytes.Buffer
	Terminal(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"checkout",
		"Average FPS",
		"14 of 280",
		"layout-thrashing",
		".grid-cell",
		"HIGH",
		"68/100",
		"Fix priority",
		"7/10",
		"DEGRADED_ANALYSIS",
		"use the cdp adapter for full coverage",
		"layout",
		"120.50ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTerminal_CleanResult(t *testing.T) {
	res := &analyzer.Result{Summary: analyzer.Summary{Name: "fast-page", Meta: trace.SnapshotMetadata{AdapterType: "cdp", TargetFps: 60}}}
	var buf bytes.Buffer
	Terminal(&buf, res)
	if !strings.Contains(buf.String(), "No issues detected") {
		t.Errorf("clean result should say so:\n%s", buf.String())
	}
}

func TestJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded analyzer.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Summary.Name != "checkout" || len(decoded.Detections) != 1 {
		t.Errorf("round-trip lost data: %+v", decoded.Summary)
	}
}

func TestComparison_ShowsVerdictAndDeltas(t *testing.T) {
	rep := compare.Report{
		BaselineID:  "a",
		CandidateID: "b",
		Verdict:     compare.DirectionRegressed,
		Metrics: []compare.MetricDelta{
			{Name: "avg_fps", Before: 58, After: 41, DeltaPct: -29.3, Direction: compare.DirectionRegressed, HigherIsBetter: true},
		},
		Detections: []compare.DetectionDelta{
			{Type: finding.TypeLongTask, BeforeCount: 0, AfterCount: 2, AfterScore: 80, Direction: compare.DirectionRegressed},
		},
	}

	var buf bytes.Buffer
	Comparison(&buf, rep)
	out := buf.String()

	for _, want := range []string{"regressed", "avg_fps", "58.00", "41.00", "long-task", "2 (80.0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison missing %q:\n%s", want, out)
		}
	}
}
