package trace

import "sort"

// FrameBudgetMs returns the per-frame budget in milliseconds for a target
// frame rate. Defaults to 60fps when the target is zero or negative.
func FrameBudgetMs(targetFps int) float64 {
	if targetFps <= 0 {
		targetFps = 60
	}
	return 1000.0 / float64(targetFps)
}

// CalculateFrameMetrics derives the aggregate frame statistics from a frame
// timing list and the target frame rate. Both adapters route through this one
// function so the aggregates are comparable across sources.
//
// Average fps is frameCount / totalDurationMs * 1000, not the mean of
// per-frame fps values, which would be skewed by very short frames. With zero
// frames every aggregate is zero.
func CalculateFrameMetrics(frames []FrameTiming, targetFps int) FrameMetricsSummary {
	budget := FrameBudgetMs(targetFps)
	m := FrameMetricsSummary{FrameBudgetMs: budget}
	if len(frames) == 0 {
		return m
	}

	durations := make([]float64, 0, len(frames))
	total := 0.0
	for _, f := range frames {
		durations = append(durations, f.DurationMs)
		total += f.DurationMs
		if f.Dropped {
			m.DroppedFrames++
		}
	}
	sort.Float64s(durations)

	m.TotalFrames = len(frames)
	m.MinFrameTimeMs = round2(durations[0])
	m.MaxFrameTimeMs = round2(durations[len(durations)-1])
	m.P95FrameTimeMs = round2(durations[p95Index(len(durations))])
	if total > 0 {
		m.AvgFps = round2(float64(len(frames)) / total * 1000.0)
	}
	return m
}

// p95Index returns the index of the 95th-percentile element in a sorted
// slice of length n.
func p95Index(n int) int {
	idx := int(float64(n) * 0.95)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// round2 rounds to 2 decimal places. All millisecond aggregates exposed to
// consumers use this rounding so the raw-event and snapshot paths agree.
func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

// Round2 is the exported form used by other packages computing summary
// millisecond fields.
func Round2(v float64) float64 { return round2(v) }
