// Package compare diffs two analysis results, classifying every metric and
// detection change so regressions surface before they reach users.
package compare

import (
	"math"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// Direction classifies how a metric moved between two runs.
type Direction string

const (
	DirectionImproved  Direction = "improved"
	DirectionRegressed Direction = "regressed"
	DirectionUnchanged Direction = "unchanged"
)

// unchangedPct is the relative-change floor below which a metric counts as
// unchanged, absorbing run-to-run noise.
const unchangedPct = 2.0

// MetricDelta is one metric compared across the baseline and candidate runs.
type MetricDelta struct {
	Name      string    `json:"name"`
	Before    float64   `json:"before"`
	After     float64   `json:"after"`
	Delta     float64   `json:"delta"`
	DeltaPct  float64   `json:"delta_pct"`
	Direction Direction `json:"direction"`

	// HigherIsBetter records the metric's polarity so renderers can color
	// the delta without re-deriving it.
	HigherIsBetter bool `json:"higher_is_better"`
}

// DetectionDelta tracks one finding type's presence across the two runs.
type DetectionDelta struct {
	Type        finding.Type `json:"type"`
	BeforeCount int          `json:"before_count"`
	AfterCount  int          `json:"after_count"`
	BeforeScore float64      `json:"before_score"`
	AfterScore  float64      `json:"after_score"`
	Direction   Direction    `json:"direction"`
}

// Report is the full comparison between a baseline and a candidate run.
type Report struct {
	BaselineID   string `json:"baseline_id"`
	BaselineName string `json:"baseline_name"`
	CandidateID  string `json:"candidate_id"`

	Metrics    []MetricDelta    `json:"metrics"`
	Detections []DetectionDelta `json:"detections"`

	// Verdict is regressed when anything regressed, improved when something
	// improved with no regressions, unchanged otherwise.
	Verdict Direction `json:"verdict"`
}

// Results compares two analysis results. The first argument is the baseline;
// deltas read as candidate-minus-baseline.
func Results(baseline, candidate *analyzer.Result) Report {
	r := Report{
		BaselineID:   baseline.Summary.ID,
		BaselineName: baseline.Summary.Name,
		CandidateID:  candidate.Summary.ID,
	}
	r.Metrics = frameMetricDeltas(baseline.Summary.FrameMetrics, candidate.Summary.FrameMetrics)
	r.Detections = detectionDeltas(baseline.Detections, candidate.Detections)
	r.Verdict = verdict(r)
	return r
}

func frameMetricDeltas(before, after trace.FrameMetricsSummary) []MetricDelta {
	return []MetricDelta{
		metricDelta("avg_fps", before.AvgFps, after.AvgFps, true),
		metricDelta("dropped_frames", float64(before.DroppedFrames), float64(after.DroppedFrames), false),
		metricDelta("p95_frame_time_ms", before.P95FrameTimeMs, after.P95FrameTimeMs, false),
		metricDelta("max_frame_time_ms", before.MaxFrameTimeMs, after.MaxFrameTimeMs, false),
	}
}

func metricDelta(name string, before, after float64, higherIsBetter bool) MetricDelta {
	d := MetricDelta{
		Name:           name,
		Before:         before,
		After:          after,
		Delta:          trace.Round2(after - before),
		HigherIsBetter: higherIsBetter,
	}
	if before != 0 {
		d.DeltaPct = trace.Round2((after - before) / math.Abs(before) * 100)
	} else if after != 0 {
		d.DeltaPct = 100
	}
	d.Direction = classify(d.DeltaPct, higherIsBetter)
	return d
}

func classify(deltaPct float64, higherIsBetter bool) Direction {
	if math.Abs(deltaPct) < unchangedPct {
		return DirectionUnchanged
	}
	if (deltaPct > 0) == higherIsBetter {
		return DirectionImproved
	}
	return DirectionRegressed
}

// detectionDeltas aggregates detections by type on each side and diffs the
// aggregates. A type present on only one side still produces an entry.
func detectionDeltas(before, after []finding.Detection) []DetectionDelta {
	type agg struct {
		count int
		score float64
	}
	aggregate := func(ds []finding.Detection) map[finding.Type]agg {
		m := make(map[finding.Type]agg)
		for _, d := range ds {
			a := m[d.Type]
			a.count++
			a.score += d.Metrics.ImpactScore
			m[d.Type] = a
		}
		return m
	}
	b := aggregate(before)
	a := aggregate(after)

	ordered := []finding.Type{
		finding.TypeLayoutThrash, finding.TypeForcedReflow, finding.TypeLongTask,
		finding.TypeGPUStall, finding.TypeHeavyPaint,
	}
	var out []DetectionDelta
	for _, typ := range ordered {
		ba, bOK := b[typ]
		aa, aOK := a[typ]
		if !bOK && !aOK {
			continue
		}
		dd := DetectionDelta{
			Type:        typ,
			BeforeCount: ba.count,
			AfterCount:  aa.count,
			BeforeScore: trace.Round2(ba.score),
			AfterScore:  trace.Round2(aa.score),
		}
		switch {
		case aa.score > ba.score && aa.score-ba.score > 1:
			dd.Direction = DirectionRegressed
		case ba.score > aa.score && ba.score-aa.score > 1:
			dd.Direction = DirectionImproved
		default:
			dd.Direction = DirectionUnchanged
		}
		out = append(out, dd)
	}
	return out
}

func verdict(r Report) Direction {
	regressed, improved := false, false
	for _, m := range r.Metrics {
		switch m.Direction {
		case DirectionRegressed:
			regressed = true
		case DirectionImproved:
			improved = true
		}
	}
	for _, d := range r.Detections {
		switch d.Direction {
		case DirectionRegressed:
			regressed = true
		case DirectionImproved:
			improved = true
		}
	}
	switch {
	case regressed:
		return DirectionRegressed
	case improved:
		return DirectionImproved
	default:
		return DirectionUnchanged
	}
}
