package compare

import (
	"testing"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

func resultWith(id string, metrics trace.FrameMetricsSummary, detections ...finding.Detection) *analyzer.Result {
	return &analyzer.Result{
		Summary:    analyzer.Summary{ID: id, Name: "checkout", FrameMetrics: metrics},
		Detections: detections,
	}
}

func TestResults_RegressionWins(t *testing.T) {
	baseline := resultWith("a", trace.FrameMetricsSummary{AvgFps: 58, DroppedFrames: 2, P95FrameTimeMs: 18})
	candidate := resultWith("b", trace.FrameMetricsSummary{AvgFps: 59, DroppedFrames: 9, P95FrameTimeMs: 30})

	r := Results(baseline, candidate)
	if r.Verdict != DirectionRegressed {
		t.Fatalf("any regression must dominate the verdict, got %s", r.Verdict)
	}

	byName := map[string]MetricDelta{}
	for _, m := range r.Metrics {
		byName[m.Name] = m
	}
	if byName["dropped_frames"].Direction != DirectionRegressed {
		t.Errorf("dropped frames 2 -> 9 is a regression, got %s", byName["dropped_frames"].Direction)
	}
	if byName["p95_frame_time_ms"].Direction != DirectionRegressed {
		t.Errorf("p95 18 -> 30 is a regression, got %s", byName["p95_frame_time_ms"].Direction)
	}
	if byName["avg_fps"].Direction != DirectionUnchanged {
		t.Errorf("58 -> 59 fps is below the noise floor, got %s", byName["avg_fps"].Direction)
	}
}

func TestResults_ImprovedWithoutRegressions(t *testing.T) {
	baseline := resultWith("a", trace.FrameMetricsSummary{AvgFps: 40, DroppedFrames: 10, P95FrameTimeMs: 35, MaxFrameTimeMs: 80})
	candidate := resultWith("b", trace.FrameMetricsSummary{AvgFps: 58, DroppedFrames: 1, P95FrameTimeMs: 17, MaxFrameTimeMs: 25})

	r := Results(baseline, candidate)
	if r.Verdict != DirectionImproved {
		t.Fatalf("expected improved verdict, got %s", r.Verdict)
	}
}

func TestResults_IdenticalRunsAreUnchanged(t *testing.T) {
	m := trace.FrameMetricsSummary{AvgFps: 60, DroppedFrames: 0, P95FrameTimeMs: 16.5}
	r := Results(resultWith("a", m), resultWith("b", m))
	if r.Verdict != DirectionUnchanged {
		t.Fatalf("expected unchanged verdict, got %s", r.Verdict)
	}
	for _, md := range r.Metrics {
		if md.Direction != DirectionUnchanged {
			t.Errorf("metric %s should be unchanged, got %s", md.Name, md.Direction)
		}
	}
}

func TestResults_NewDetectionTypeIsRegression(t *testing.T) {
	baseline := resultWith("a", trace.FrameMetricsSummary{AvgFps: 60})
	candidate := resultWith("b", trace.FrameMetricsSummary{AvgFps: 60},
		finding.Detection{Type: finding.TypeLayoutThrash, Metrics: finding.Metrics{ImpactScore: 45}},
	)

	r := Results(baseline, candidate)
	if len(r.Detections) != 1 {
		t.Fatalf("expected 1 detection delta, got %d", len(r.Detections))
	}
	d := r.Detections[0]
	if d.Type != finding.TypeLayoutThrash || d.Direction != DirectionRegressed {
		t.Errorf("new detection type must regress, got %+v", d)
	}
	if d.BeforeCount != 0 || d.AfterCount != 1 {
		t.Errorf("counts wrong: %+v", d)
	}
	if r.Verdict != DirectionRegressed {
		t.Errorf("expected regressed verdict, got %s", r.Verdict)
	}
}

func TestResults_ResolvedDetectionIsImprovement(t *testing.T) {
	baseline := resultWith("a", trace.FrameMetricsSummary{AvgFps: 60},
		finding.Detection{Type: finding.TypeLongTask, Metrics: finding.Metrics{ImpactScore: 62}},
	)
	candidate := resultWith("b", trace.FrameMetricsSummary{AvgFps: 60})

	r := Results(baseline, candidate)
	if len(r.Detections) != 1 || r.Detections[0].Direction != DirectionImproved {
		t.Fatalf("resolved detection must improve, got %+v", r.Detections)
	}
	if r.Verdict != DirectionImproved {
		t.Errorf("expected improved verdict, got %s", r.Verdict)
	}
}

func TestMetricDelta_ZeroBaseline(t *testing.T) {
	d := metricDelta("dropped_frames", 0, 4, false)
	if d.Direction != DirectionRegressed {
		t.Errorf("0 -> 4 dropped frames must regress, got %s", d.Direction)
	}
}
