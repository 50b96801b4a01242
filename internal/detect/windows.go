package detect

import "github.com/blackwell-systems/renderlens/internal/trace"

// frameWindow is one grouping bucket: an explicit frame interval when the
// source reconstructed frames, or a fixed budget-width time slice otherwise.
type frameWindow struct {
	FrameID int
	StartUs int64
	EndUs   int64
}

// frameWindows returns the grouping windows for an analysis call. With frame
// timings available they are used directly; otherwise the trace is cut into
// consecutive windows one frame budget wide.
func frameWindows(ctx *Context, in Input) []frameWindow {
	if in.Snapshot != nil && len(in.Snapshot.Frames) > 0 {
		windows := make([]frameWindow, 0, len(in.Snapshot.Frames))
		for _, f := range in.Snapshot.Frames {
			windows = append(windows, frameWindow{FrameID: f.FrameID, StartUs: f.StartUs, EndUs: f.EndUs})
		}
		return windows
	}

	budgetUs := int64(ctx.FrameBudgetMs * 1000)
	if budgetUs <= 0 || ctx.TraceEndUs <= ctx.TraceStartUs {
		return nil
	}
	var windows []frameWindow
	id := 0
	for start := ctx.TraceStartUs; start < ctx.TraceEndUs; start += budgetUs {
		end := start + budgetUs
		if end > ctx.TraceEndUs {
			end = ctx.TraceEndUs
		}
		windows = append(windows, frameWindow{FrameID: id, StartUs: start, EndUs: end})
		id++
	}
	return windows
}

// windowFor returns the index of the window containing the timestamp, or -1.
func windowFor(windows []frameWindow, tsUs int64) int {
	for i, w := range windows {
		if tsUs >= w.StartUs && tsUs < w.EndUs {
			return i
		}
	}
	return -1
}

// droppedIntervals returns the [start, end) intervals of dropped frames.
func droppedIntervals(frames []trace.FrameTiming) [][2]int64 {
	var out [][2]int64
	for _, f := range frames {
		if f.Dropped {
			out = append(out, [2]int64{f.StartUs, f.EndUs})
		}
	}
	return out
}

// overlapsInterval is the half-open interval overlap test used when
// correlating tasks with dropped frames.
func overlapsInterval(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && aEnd > bStart
}
