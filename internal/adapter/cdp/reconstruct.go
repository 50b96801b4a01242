package cdp

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/blackwell-systems/renderlens/internal/trace"
)

// wireEvent is one raw trace event as delivered by Tracing.dataCollected.
type wireEvent struct {
	Name string          `json:"name"`
	Cat  string          `json:"cat"`
	Ph   string          `json:"ph"`
	Ts   int64           `json:"ts"`
	Dur  int64           `json:"dur"`
	Args json.RawMessage `json:"args"`
}

// wireArgs is the subset of event arguments the pipeline reads. The protocol
// nests most of them under "data".
type wireArgs struct {
	FrameID int `json:"frameId"`
	Data    struct {
		FrameID      int      `json:"frameId"`
		Selector     string   `json:"selector"`
		NodeCount    int      `json:"nodeCount"`
		FunctionName string   `json:"functionName"`
		URL          string   `json:"url"`
		LineNumber   int      `json:"lineNumber"`
		ColumnNumber int      `json:"columnNumber"`
		Stack        []string `json:"stack"`
		ElementID    string   `json:"elementId"`
		LayerID      int      `json:"layerId"`
		LayerCount   int      `json:"layerCount"`
	} `json:"data"`
}

// decodeEvents converts a Tracing.dataCollected payload batch into normalized
// raw events. Malformed entries are skipped, not fatal; one bad event must
// not discard a whole trace.
func decodeEvents(batches [][]byte) []trace.Event {
	var out []trace.Event
	for _, batch := range batches {
		var wires []wireEvent
		if err := json.Unmarshal(batch, &wires); err != nil {
			continue
		}
		for _, w := range wires {
			if w.Name == "" {
				continue
			}
			e := trace.Event{
				Name:        w.Name,
				Category:    w.Cat,
				Phase:       w.Ph,
				TimestampUs: w.Ts,
				DurationUs:  w.Dur,
			}
			if len(w.Args) > 0 {
				var a wireArgs
				if err := json.Unmarshal(w.Args, &a); err == nil {
					e.Args = trace.EventArgs{
						FrameID:      firstNonZero(a.Data.FrameID, a.FrameID),
						Selector:     a.Data.Selector,
						NodeCount:    a.Data.NodeCount,
						FunctionName: a.Data.FunctionName,
						File:         a.Data.URL,
						Line:         a.Data.LineNumber,
						Column:       a.Data.ColumnNumber,
						Stack:        a.Data.Stack,
						Element:      a.Data.ElementID,
						LayerID:      a.Data.LayerID,
						LayerCount:   a.Data.LayerCount,
					}
				}
			}
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimestampUs < out[j].TimestampUs })
	return out
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Event-name tables for reconstruction. These mirror the renderer's trace
// vocabulary, not the analysis pipeline's.
var (
	frameMarkerNames = map[string]bool{
		"BeginFrame":     true,
		"BeginMainFrame": true,
	}
	frameCommitNames = map[string]bool{
		"DrawFrame":   true,
		"CommitFrame": true,
	}
	phaseStyleNames = map[string]bool{
		"RecalculateStyles":          true,
		"ScheduleStyleRecalculation": true,
	}
	phaseLayoutNames = map[string]bool{
		"Layout":           true,
		"UpdateLayoutTree": true,
		"InvalidateLayout": true,
		"ForcedReflow":     true,
	}
	phasePaintNames = map[string]bool{
		"Paint":       true,
		"PaintImage":  true,
		"DecodeImage": true,
		"RasterTask":  true,
	}
	phaseCompositeNames = map[string]bool{
		"CompositeLayers": true,
		"SwapBuffers":     true,
	}
	gpuNames = map[string]trace.GPUStallType{
		"GPUTask":         trace.GPURaster,
		"Rasterize":       trace.GPURaster,
		"UploadTexture":   trace.GPUTextureUpload,
		"GLFence":         trace.GPUSync,
		"SwapBuffers":     trace.GPUComposite,
		"CompositeLayers": trace.GPUComposite,
	}
	jsTaskNames = map[string]bool{
		"EvaluateScript": true,
		"FunctionCall":   true,
		"RunTask":        true,
		"TimerFire":      true,
		"RunMicrotasks":  true,
		"v8.run":         true,
	}
	domSignalNames = map[string]trace.DOMSignalType{
		"ForcedReflow":               trace.SignalForcedReflow,
		"RecalculateStyles":          trace.SignalStyleRecalc,
		"ScheduleStyleRecalculation": trace.SignalStyleRecalc,
		"InvalidateLayout":           trace.SignalLayoutInvalidation,
		"UpdateLayoutTree":           trace.SignalLayoutInvalidation,
	}
)

const (
	gpuCategory     = "disabled-by-default-gpu"
	longTaskFloorMs = 50.0
)

// Reconstruct builds a normalized snapshot from a raw full-protocol event
// stream. Frames come from begin/commit marker pairs; phase costs accumulate
// from events contained in each frame's interval; everything the degraded
// path lacks (GPU, paint) is populated here.
func Reconstruct(events []trace.Event, name string, targetFps int) *trace.Snapshot {
	if targetFps <= 0 {
		targetFps = 60
	}
	budget := trace.FrameBudgetMs(targetFps)

	snap := &trace.Snapshot{
		ID:   uuid.NewString(),
		Name: name,
		Meta: trace.SnapshotMetadata{
			AdapterType: Type,
			TargetFps:   targetFps,
		},
	}
	if len(events) == 0 {
		snap.Metrics = trace.CalculateFrameMetrics(nil, targetFps)
		return snap
	}

	start := events[0].TimestampUs
	end := start
	for _, e := range events {
		if e.EndUs() > end {
			end = e.EndUs()
		}
	}
	snap.DurationMs = trace.Round2(float64(end-start) / 1000.0)

	snap.Frames = reconstructFrames(events, budget)
	for i := range snap.Frames {
		snap.Frames[i].Phases = framePhases(events, snap.Frames[i])
	}

	for _, e := range events {
		ms := e.DurationMs()

		if jsTaskNames[e.Name] && ms > longTaskFloorMs {
			snap.LongTasks = append(snap.LongTasks, trace.LongTaskInfo{
				StartUs:      e.TimestampUs,
				DurationMs:   trace.Round2(ms),
				FunctionName: e.Args.FunctionName,
				File:         e.Args.File,
				Line:         e.Args.Line,
				Column:       e.Args.Column,
				Stack:        e.Args.Stack,
				FrameID:      frameIDFor(snap.Frames, e),
			})
		}

		if sig, ok := domSignalNames[e.Name]; ok {
			snap.DOMSignals = append(snap.DOMSignals, trace.DOMSignal{
				Type:       sig,
				StartUs:    e.TimestampUs,
				DurationMs: trace.Round2(ms),
				Selector:   e.Args.Selector,
				NodeCount:  e.Args.NodeCount,
				Stack:      e.Args.Stack,
			})
		}

		if e.Category == gpuCategory {
			if typ, ok := gpuNames[e.Name]; ok {
				snap.GPUEvents = append(snap.GPUEvents, trace.GPUEvent{
					Type:       typ,
					StartUs:    e.TimestampUs,
					DurationMs: trace.Round2(ms),
					Element:    e.Args.Element,
					LayerID:    e.Args.LayerID,
				})
			}
		}

		if e.Name == "Paint" || e.Name == "PaintImage" {
			snap.Paints = append(snap.Paints, trace.PaintEvent{
				StartUs:    e.TimestampUs,
				PaintMs:    trace.Round2(ms),
				LayerCount: e.Args.LayerCount,
			})
		}
	}

	snap.Metrics = trace.CalculateFrameMetrics(snap.Frames, targetFps)
	return snap
}

// reconstructFrames pairs begin markers with the following commit marker.
// A begin marker with no commit before the next begin produces a frame
// bounded by that next begin, which covers renderers that skip the commit
// event for dropped frames.
func reconstructFrames(events []trace.Event, budgetMs float64) []trace.FrameTiming {
	var begins []trace.Event
	var commits []trace.Event
	for _, e := range events {
		switch {
		case frameMarkerNames[e.Name]:
			begins = append(begins, e)
		case frameCommitNames[e.Name]:
			commits = append(commits, e)
		}
	}
	if len(begins) == 0 {
		return nil
	}

	frames := make([]trace.FrameTiming, 0, len(begins))
	ci := 0
	for i, b := range begins {
		var endUs int64
		nextBegin := int64(-1)
		if i+1 < len(begins) {
			nextBegin = begins[i+1].TimestampUs
		}

		for ci < len(commits) && commits[ci].TimestampUs < b.TimestampUs {
			ci++
		}
		if ci < len(commits) && (nextBegin < 0 || commits[ci].TimestampUs <= nextBegin) {
			endUs = commits[ci].EndUs()
			ci++
		} else if nextBegin >= 0 {
			endUs = nextBegin
		} else {
			// Last begin with no commit: no frame boundary to close it.
			continue
		}

		durationMs := trace.Round2(float64(endUs-b.TimestampUs) / 1000.0)
		id := b.Args.FrameID
		if id == 0 {
			id = i + 1
		}
		frames = append(frames, trace.FrameTiming{
			FrameID:    id,
			StartUs:    b.TimestampUs,
			EndUs:      endUs,
			DurationMs: durationMs,
			Dropped:    durationMs > budgetMs,
		})
	}
	return frames
}

// framePhases accumulates phase costs from events contained in the frame
// interval. Containment is by event start timestamp; an event straddling a
// frame boundary is charged to the frame it started in.
func framePhases(events []trace.Event, f trace.FrameTiming) *trace.PhaseBreakdown {
	var p trace.PhaseBreakdown
	var any bool
	for _, e := range events {
		if e.TimestampUs < f.StartUs || e.TimestampUs >= f.EndUs {
			continue
		}
		ms := e.DurationMs()
		switch {
		case phaseStyleNames[e.Name]:
			p.StyleMs += ms
		case phaseLayoutNames[e.Name]:
			p.LayoutMs += ms
		case e.Category == gpuCategory:
			p.GPUMs += ms
		case phasePaintNames[e.Name]:
			p.PaintMs += ms
		case phaseCompositeNames[e.Name]:
			p.CompositeMs += ms
		default:
			continue
		}
		any = true
	}
	if !any {
		return nil
	}
	p.StyleMs = trace.Round2(p.StyleMs)
	p.LayoutMs = trace.Round2(p.LayoutMs)
	p.PaintMs = trace.Round2(p.PaintMs)
	p.CompositeMs = trace.Round2(p.CompositeMs)
	p.GPUMs = trace.Round2(p.GPUMs)
	return &p
}

func frameIDFor(frames []trace.FrameTiming, e trace.Event) int {
	for _, f := range frames {
		if e.TimestampUs >= f.StartUs && e.TimestampUs < f.EndUs {
			return f.FrameID
		}
	}
	return -1
}
