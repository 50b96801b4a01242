package cdp

import (
	"testing"

	"github.com/blackwell-systems/renderlens/internal/trace"
)

func markerEvent(name string, tsUs, durUs int64, frameID int) trace.Event {
	return trace.Event{Name: name, TimestampUs: tsUs, DurationUs: durUs, Args: trace.EventArgs{FrameID: frameID}}
}

func TestReconstruct_FramePairing(t *testing.T) {
	events := []trace.Event{
		markerEvent("BeginFrame", 0, 0, 1),
		markerEvent("DrawFrame", 15_500, 500, 1),
		markerEvent("BeginFrame", 16_667, 0, 2),
		markerEvent("DrawFrame", 56_000, 667, 2),
	}
	snap := Reconstruct(events, "pairing", 60)

	if len(snap.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(snap.Frames))
	}
	f1, f2 := snap.Frames[0], snap.Frames[1]
	if f1.DurationMs != 16 || f1.Dropped {
		t.Errorf("frame 1: want 16ms not dropped, got %.2fms dropped=%v", f1.DurationMs, f1.Dropped)
	}
	if f2.DurationMs != 40 || !f2.Dropped {
		t.Errorf("frame 2: want 40ms dropped, got %.2fms dropped=%v", f2.DurationMs, f2.Dropped)
	}
	if snap.Metrics.TotalFrames != 2 || snap.Metrics.DroppedFrames != 1 {
		t.Errorf("metrics not derived from frames: %+v", snap.Metrics)
	}
}

func TestReconstruct_BeginWithoutCommitUsesNextBegin(t *testing.T) {
	events := []trace.Event{
		markerEvent("BeginFrame", 0, 0, 1),
		markerEvent("BeginFrame", 33_334, 0, 2),
		markerEvent("DrawFrame", 40_000, 500, 2),
	}
	snap := Reconstruct(events, "", 60)

	if len(snap.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(snap.Frames))
	}
	if snap.Frames[0].EndUs != 33_334 {
		t.Errorf("uncommitted frame must close at next begin, got end %d", snap.Frames[0].EndUs)
	}
	if !snap.Frames[0].Dropped {
		t.Error("a 33ms frame at 60fps is dropped")
	}
}

func TestReconstruct_TrailingBeginWithoutCommitIsDiscarded(t *testing.T) {
	events := []trace.Event{
		markerEvent("BeginFrame", 0, 0, 1),
		markerEvent("DrawFrame", 10_000, 500, 1),
		markerEvent("BeginFrame", 16_667, 0, 2),
	}
	snap := Reconstruct(events, "", 60)
	if len(snap.Frames) != 1 {
		t.Fatalf("trailing open frame must be discarded, got %d frames", len(snap.Frames))
	}
}

func TestReconstruct_LongTaskCorrelation(t *testing.T) {
	events := []trace.Event{
		markerEvent("BeginFrame", 0, 0, 1),
		markerEvent("DrawFrame", 15_000, 500, 1),
		markerEvent("BeginFrame", 16_667, 0, 2),
		markerEvent("DrawFrame", 56_000, 667, 2),
		{Name: "FunctionCall", TimestampUs: 17_000, DurationUs: 62_000, Args: trace.EventArgs{FunctionName: "renderGrid", File: "grid.js", Line: 42}},
		{Name: "FunctionCall", TimestampUs: 200_000, DurationUs: 70_000, Args: trace.EventArgs{FunctionName: "lateTask"}},
		{Name: "FunctionCall", TimestampUs: 5_000, DurationUs: 8_000, Args: trace.EventArgs{FunctionName: "cheap"}},
	}
	snap := Reconstruct(events, "", 60)

	if len(snap.LongTasks) != 2 {
		t.Fatalf("expected 2 long tasks (8ms task is below threshold), got %d", len(snap.LongTasks))
	}
	if snap.LongTasks[0].FunctionName != "renderGrid" || snap.LongTasks[0].FrameID != 2 {
		t.Errorf("expected renderGrid correlated to frame 2, got %+v", snap.LongTasks[0])
	}
	if snap.LongTasks[1].FrameID != -1 {
		t.Errorf("task outside any frame must have frame id -1, got %d", snap.LongTasks[1].FrameID)
	}
}

func TestReconstruct_PhaseAccumulationAndSignals(t *testing.T) {
	events := []trace.Event{
		markerEvent("BeginFrame", 0, 0, 1),
		{Name: "UpdateLayoutTree", TimestampUs: 1_000, DurationUs: 2_000, Args: trace.EventArgs{Selector: ".grid", NodeCount: 40}},
		{Name: "Paint", TimestampUs: 3_500, DurationUs: 3_000, Args: trace.EventArgs{LayerCount: 3}},
		markerEvent("DrawFrame", 15_000, 500, 1),
		markerEvent("BeginFrame", 16_667, 0, 2),
		{Name: "GPUTask", Category: gpuCategory, TimestampUs: 20_000, DurationUs: 5_000, Args: trace.EventArgs{Element: "canvas", LayerID: 7}},
		markerEvent("DrawFrame", 30_000, 500, 2),
	}
	snap := Reconstruct(events, "", 60)

	if len(snap.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(snap.Frames))
	}
	p1 := snap.Frames[0].Phases
	if p1 == nil || p1.LayoutMs != 2 || p1.PaintMs != 3 {
		t.Errorf("frame 1 phases wrong: %+v", p1)
	}
	p2 := snap.Frames[1].Phases
	if p2 == nil || p2.GPUMs != 5 {
		t.Errorf("frame 2 phases wrong: %+v", p2)
	}

	if len(snap.DOMSignals) != 1 || snap.DOMSignals[0].Type != trace.SignalLayoutInvalidation {
		t.Fatalf("expected one layout-invalidation signal, got %+v", snap.DOMSignals)
	}
	if snap.DOMSignals[0].NodeCount != 40 {
		t.Errorf("signal node count lost: %+v", snap.DOMSignals[0])
	}

	if len(snap.GPUEvents) != 1 || snap.GPUEvents[0].Type != trace.GPURaster {
		t.Fatalf("expected one raster gpu event, got %+v", snap.GPUEvents)
	}
	if len(snap.Paints) != 1 || snap.Paints[0].LayerCount != 3 {
		t.Fatalf("expected one paint event with 3 layers, got %+v", snap.Paints)
	}
}

func TestReconstruct_EmptyStream(t *testing.T) {
	snap := Reconstruct(nil, "empty", 0)
	if snap.Meta.TargetFps != 60 {
		t.Errorf("fps must default to 60, got %d", snap.Meta.TargetFps)
	}
	if snap.Metrics.FrameBudgetMs == 0 {
		t.Error("budget must be set even with no frames")
	}
	if snap.ID == "" {
		t.Error("snapshot must get an id")
	}
}

func TestDecodeEvents(t *testing.T) {
	batches := [][]byte{
		[]byte(`[
			{"name": "Layout", "cat": "devtools.timeline", "ph": "X", "ts": 2000, "dur": 300, "args": {"data": {"nodeCount": 12, "selector": ".row"}}},
			{"name": "", "ts": 1}
		]`),
		[]byte(`not-json`),
		[]byte(`[
			{"name": "FunctionCall", "ts": 1000, "dur": 60000, "args": {"data": {"functionName": "boot", "url": "app.js", "lineNumber": 7}}}
		]`),
	}
	events := decodeEvents(batches)

	if len(events) != 2 {
		t.Fatalf("expected 2 events (nameless and malformed skipped), got %d", len(events))
	}
	if events[0].Name != "FunctionCall" {
		t.Errorf("events must be sorted by timestamp, got %q first", events[0].Name)
	}
	if events[0].Args.FunctionName != "boot" || events[0].Args.File != "app.js" || events[0].Args.Line != 7 {
		t.Errorf("nested data args lost: %+v", events[0].Args)
	}
	if events[1].Args.NodeCount != 12 || events[1].Args.Selector != ".row" {
		t.Errorf("layout args lost: %+v", events[1].Args)
	}
}
