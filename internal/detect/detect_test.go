package detect

import (
	"testing"

	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

func testContext(traceMs float64) *Context {
	return &Context{
		TargetFps:     60,
		FrameBudgetMs: trace.FrameBudgetMs(60),
		TraceStartUs:  0,
		TraceEndUs:    int64(traceMs * 1000),
		Capabilities:  trace.NewCapabilitySet(trace.CapFullProtocol),
	}
}

func testEngine() *scoring.Engine {
	return scoring.NewEngine(scoring.DefaultWeights)
}

// --- long-task ---

func TestLongTask_SingleTaskOverlappingDroppedFrame(t *testing.T) {
	// One 75ms task overlapping a 35ms reconstructed frame that blew the
	// budget: exactly one detection, one occurrence, at least one
	// correlated drop.
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{
			{FrameID: 1, StartUs: 10_000, EndUs: 45_000, DurationMs: 35, Dropped: true},
		},
		LongTasks: []trace.LongTaskInfo{
			{StartUs: 5_000, DurationMs: 75, FunctionName: "renderList", File: "app.js", Line: 42},
		},
	}

	d := NewLongTaskDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Snapshot: snap})

	if len(out) != 1 {
		t.Fatalf("expected exactly 1 detection, got %d", len(out))
	}
	det := out[0]
	if det.Type != finding.TypeLongTask {
		t.Errorf("expected long-task type, got %s", det.Type)
	}
	if det.Metrics.Occurrences != 1 {
		t.Errorf("expected 1 occurrence, got %d", det.Metrics.Occurrences)
	}
	if det.LongTask == nil {
		t.Fatal("expected long-task detail payload")
	}
	if det.LongTask.CorrelatedFrameDrops < 1 {
		t.Errorf("expected at least 1 correlated frame drop, got %d", det.LongTask.CorrelatedFrameDrops)
	}
	if det.Location.File != "app.js" || det.Location.Line != 42 {
		t.Errorf("unexpected location: %+v", det.Location)
	}
}

func TestLongTask_BelowThresholdIgnored(t *testing.T) {
	snap := &trace.Snapshot{
		LongTasks: []trace.LongTaskInfo{
			{StartUs: 0, DurationMs: 30, FunctionName: "quick"},
		},
	}
	d := NewLongTaskDetector(DefaultConfig(), testEngine())
	if out := d.Detect(testContext(1000), Input{Snapshot: snap}); len(out) != 0 {
		t.Fatalf("expected no detections for 30ms task, got %d", len(out))
	}
}

func TestLongTask_MergesByFunctionKey(t *testing.T) {
	snap := &trace.Snapshot{
		LongTasks: []trace.LongTaskInfo{
			{StartUs: 0, DurationMs: 60, FunctionName: "tick", File: "a.js", Line: 1, Stack: []string{"tick"}},
			{StartUs: 100_000, DurationMs: 80, FunctionName: "tick", File: "a.js", Line: 1, Stack: []string{"tick", "loop", "main"}},
			{StartUs: 200_000, DurationMs: 55, FunctionName: "other", File: "b.js", Line: 9},
		},
	}
	d := NewLongTaskDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Snapshot: snap})
	if len(out) != 2 {
		t.Fatalf("expected 2 merged detections, got %d", len(out))
	}
	for _, det := range out {
		if det.LongTask.FunctionName == "tick" {
			if det.Metrics.Occurrences != 2 {
				t.Errorf("expected 2 occurrences for tick, got %d", det.Metrics.Occurrences)
			}
			if det.LongTask.CPUTimeMs != 140 {
				t.Errorf("expected summed 140ms cpu time, got %f", det.LongTask.CPUTimeMs)
			}
			if len(det.LongTask.Stack) != 3 {
				t.Errorf("expected longest stack kept, got %v", det.LongTask.Stack)
			}
		}
	}
}

func TestLongTask_RawEventMode(t *testing.T) {
	events := []trace.Event{
		{Name: "FunctionCall", TimestampUs: 0, DurationUs: 60_000, Args: trace.EventArgs{FunctionName: "work", File: "w.js", Line: 3}},
		{Name: "Layout", TimestampUs: 70_000, DurationUs: 60_000}, // not a JS event
	}
	d := NewLongTaskDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Events: events})
	if len(out) != 1 {
		t.Fatalf("expected 1 detection from raw events, got %d", len(out))
	}
	if out[0].LongTask.FunctionName != "work" {
		t.Errorf("unexpected function name %q", out[0].LongTask.FunctionName)
	}
}

// --- heavy-paint ---

func heavyPaintSnapshot(groups int) *trace.Snapshot {
	budgetUs := int64(16_667)
	snap := &trace.Snapshot{}
	for i := 0; i < groups; i++ {
		start := int64(i) * budgetUs
		snap.Frames = append(snap.Frames, trace.FrameTiming{
			FrameID: i, StartUs: start, EndUs: start + budgetUs, DurationMs: 16.67,
		})
		snap.Paints = append(snap.Paints, trace.PaintEvent{
			StartUs: start + 1000, PaintMs: 3, RasterMs: 2, LayerCount: 4,
		})
	}
	return snap
}

func TestHeavyPaint_CollapsesAboveThreshold(t *testing.T) {
	snap := heavyPaintSnapshot(8) // 8 qualifying groups > threshold of 5
	d := NewHeavyPaintDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(8*16.67), Input{Snapshot: snap})

	if len(out) != 1 {
		t.Fatalf("expected exactly 1 aggregated detection, got %d", len(out))
	}
	det := out[0]
	if det.HeavyPaint == nil {
		t.Fatal("expected heavy-paint detail payload")
	}
	if det.Metrics.Occurrences != 8 {
		t.Errorf("expected 8 occurrences in the aggregate, got %d", det.Metrics.Occurrences)
	}
	if det.HeavyPaint.PaintMs != 24 || det.HeavyPaint.RasterMs != 16 {
		t.Errorf("expected summed durations 24/16, got %f/%f", det.HeavyPaint.PaintMs, det.HeavyPaint.RasterMs)
	}
}

func TestHeavyPaint_IndividualFindingsBelowThreshold(t *testing.T) {
	snap := heavyPaintSnapshot(3)
	d := NewHeavyPaintDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(3*16.67), Input{Snapshot: snap})
	if len(out) != 3 {
		t.Fatalf("expected 3 individual detections, got %d", len(out))
	}
}

func TestHeavyPaint_CheapFramesIgnored(t *testing.T) {
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		Paints: []trace.PaintEvent{{StartUs: 100, PaintMs: 0.5, RasterMs: 0.5, LayerCount: 2}},
	}
	d := NewHeavyPaintDetector(DefaultConfig(), testEngine())
	if out := d.Detect(testContext(16.67), Input{Snapshot: snap}); len(out) != 0 {
		t.Fatalf("expected no detections for cheap paints, got %d", len(out))
	}
}

func TestHeavyPaint_LayerCountAloneQualifies(t *testing.T) {
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		Paints: []trace.PaintEvent{{StartUs: 100, PaintMs: 0.5, LayerCount: 14}},
	}
	d := NewHeavyPaintDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(16.67), Input{Snapshot: snap})
	if len(out) != 1 {
		t.Fatalf("expected layer-count qualification, got %d detections", len(out))
	}
	if out[0].HeavyPaint.LayerCount != 14 {
		t.Errorf("expected 14 layers, got %d", out[0].HeavyPaint.LayerCount)
	}
}

// --- layout-thrash ---

func TestLayoutThrash_AdjacentTightEvents(t *testing.T) {
	// Three layout passes on the same selector within one frame, each gap
	// far below a quarter of the 16.67ms budget.
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		DOMSignals: []trace.DOMSignal{
			{Type: trace.SignalStyleRecalc, StartUs: 0, DurationMs: 1, Selector: ".list", NodeCount: 40,
				Stack: []string{"get offsetHeight at list.js:10", "set style.height at list.js:11"}},
			{Type: trace.SignalStyleRecalc, StartUs: 1_500, DurationMs: 1.2, Selector: ".list", NodeCount: 55},
			{Type: trace.SignalStyleRecalc, StartUs: 3_100, DurationMs: 0.9, Selector: ".list", NodeCount: 30},
		},
	}
	d := NewLayoutThrashDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Snapshot: snap})

	if len(out) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(out))
	}
	det := out[0]
	if det.Type != finding.TypeLayoutThrash {
		t.Errorf("expected layout-thrashing, got %s", det.Type)
	}
	if det.LayoutThrash.AffectedNodes != 55 {
		t.Errorf("expected max node count 55, got %d", det.LayoutThrash.AffectedNodes)
	}
	if det.Metrics.Occurrences != 3 {
		t.Errorf("expected 3 thrashing events, got %d", det.Metrics.Occurrences)
	}
	if len(det.LayoutThrash.Accesses) != 3 {
		t.Fatalf("expected one access pattern per event, got %d", len(det.LayoutThrash.Accesses))
	}
	// First event's stack names the real read/write.
	if det.LayoutThrash.Accesses[0].Read != "offsetHeight" {
		t.Errorf("expected offsetHeight read from stack, got %q", det.LayoutThrash.Accesses[0].Read)
	}
	// Events with no stack fall back to the generic pattern.
	if det.LayoutThrash.Accesses[1].Read != "offsetWidth" || det.LayoutThrash.Accesses[1].Write != "style" {
		t.Errorf("expected generic fallback pattern, got %+v", det.LayoutThrash.Accesses[1])
	}
}

func TestLayoutThrash_WideGapsIgnored(t *testing.T) {
	// Two layout events 10ms apart: gap exceeds a quarter of the budget.
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		DOMSignals: []trace.DOMSignal{
			{Type: trace.SignalStyleRecalc, StartUs: 0, DurationMs: 1, Selector: ".a"},
			{Type: trace.SignalStyleRecalc, StartUs: 11_000, DurationMs: 1, Selector: ".a"},
		},
	}
	d := NewLayoutThrashDetector(DefaultConfig(), testEngine())
	if out := d.Detect(testContext(1000), Input{Snapshot: snap}); len(out) != 0 {
		t.Fatalf("expected no detections for wide gaps, got %d", len(out))
	}
}

func TestLayoutThrash_MinimumEmissionThresholds(t *testing.T) {
	// A single tight pair whose total cost is under 1ms must not emit.
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		DOMSignals: []trace.DOMSignal{
			{Type: trace.SignalStyleRecalc, StartUs: 0, DurationMs: 0.3, Selector: ".b"},
			{Type: trace.SignalStyleRecalc, StartUs: 500, DurationMs: 0.3, Selector: ".b"},
		},
	}
	d := NewLayoutThrashDetector(DefaultConfig(), testEngine())
	if out := d.Detect(testContext(1000), Input{Snapshot: snap}); len(out) != 0 {
		t.Fatalf("expected no detections below cost floor, got %d", len(out))
	}
}

func TestLayoutThrash_ForcedReflowMajorityChangesType(t *testing.T) {
	snap := &trace.Snapshot{
		Frames: []trace.FrameTiming{{FrameID: 0, StartUs: 0, EndUs: 16_667, DurationMs: 16.67}},
		DOMSignals: []trace.DOMSignal{
			{Type: trace.SignalForcedReflow, StartUs: 0, DurationMs: 2, Selector: "#hero", NodeCount: 12},
			{Type: trace.SignalForcedReflow, StartUs: 2_500, DurationMs: 2, Selector: "#hero", NodeCount: 12},
		},
	}
	d := NewLayoutThrashDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Snapshot: snap})
	if len(out) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(out))
	}
	if out[0].Type != finding.TypeForcedReflow {
		t.Errorf("expected forced-reflow type, got %s", out[0].Type)
	}
}

// --- gpu-stall ---

func TestGPUStall_GroupsByElementAndType(t *testing.T) {
	snap := &trace.Snapshot{
		GPUEvents: []trace.GPUEvent{
			{Type: trace.GPUSync, StartUs: 0, DurationMs: 4, Element: "canvas#game"},
			{Type: trace.GPUSync, StartUs: 20_000, DurationMs: 6, Element: "canvas#game"},
			{Type: trace.GPUTextureUpload, StartUs: 40_000, DurationMs: 8, Element: "canvas#game"},
			{Type: trace.GPUComposite, StartUs: 60_000, DurationMs: 2, Element: "canvas#game"},
		},
	}
	d := NewGPUStallDetector(DefaultConfig(), testEngine())
	out := d.Detect(testContext(1000), Input{Snapshot: snap})

	// sync and texture-upload groups; composite is not a stall.
	if len(out) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(out))
	}
	for _, det := range out {
		if det.GPUStall == nil {
			t.Fatal("expected gpu-stall detail payload")
		}
		if det.GPUStall.StallType == "sync" {
			if det.GPUStall.StallMs != 10 {
				t.Errorf("expected summed 10ms sync stall, got %f", det.GPUStall.StallMs)
			}
			if det.Metrics.Occurrences != 2 {
				t.Errorf("expected 2 sync occurrences, got %d", det.Metrics.Occurrences)
			}
		}
	}
}

func TestGPUStall_EmptyForDegradedSource(t *testing.T) {
	// File-based sources have no GPU events at all; the detector emits
	// nothing rather than guessing.
	d := NewGPUStallDetector(DefaultConfig(), testEngine())
	if out := d.Detect(testContext(1000), Input{Snapshot: &trace.Snapshot{}}); len(out) != 0 {
		t.Fatalf("expected no detections without gpu events, got %d", len(out))
	}
}

func TestAll_ReturnsFourDetectors(t *testing.T) {
	detectors := All(DefaultConfig(), testEngine())
	if len(detectors) != 4 {
		t.Fatalf("expected 4 built-in detectors, got %d", len(detectors))
	}
	names := map[string]bool{}
	for _, d := range detectors {
		names[d.Name()] = true
	}
	for _, want := range []string{"layout-thrash", "long-task", "gpu-stall", "heavy-paint"} {
		if !names[want] {
			t.Errorf("missing detector %q", want)
		}
	}
}
