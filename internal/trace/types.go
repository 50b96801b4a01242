// Package trace defines the normalized, adapter-independent representation of
// a single browser profiling run, plus the capability model describing what a
// given source can provide.
package trace

// Snapshot is the canonical unit of one profiling run. Every adapter maps its
// native representation into this shape; consumers never see adapter-specific
// data. A Snapshot is constructed once per collection and never mutated.
type Snapshot struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	DurationMs float64             `json:"duration_ms"`
	Frames     []FrameTiming       `json:"frames"`
	LongTasks  []LongTaskInfo      `json:"long_tasks"`
	DOMSignals []DOMSignal         `json:"dom_signals"`
	GPUEvents  []GPUEvent          `json:"gpu_events"`
	Paints     []PaintEvent        `json:"paints"`
	Metrics    FrameMetricsSummary `json:"metrics"`
	Meta       SnapshotMetadata    `json:"meta"`
}

// FrameTiming describes one rendered (or dropped) frame.
// Timestamps are in microseconds since the trace origin; DurationMs is the
// frame's wall time in milliseconds.
type FrameTiming struct {
	FrameID    int     `json:"frame_id"`
	StartUs    int64   `json:"start_us"`
	EndUs      int64   `json:"end_us"`
	DurationMs float64 `json:"duration_ms"`
	Dropped    bool    `json:"dropped"`

	// Phases holds the per-phase cost breakdown in milliseconds when the
	// source can provide it (full-protocol only). Nil otherwise.
	Phases *PhaseBreakdown `json:"phases,omitempty"`
}

// PhaseBreakdown splits a frame's cost into the five pipeline phases.
type PhaseBreakdown struct {
	StyleMs     float64 `json:"style_ms"`
	LayoutMs    float64 `json:"layout_ms"`
	PaintMs     float64 `json:"paint_ms"`
	CompositeMs float64 `json:"composite_ms"`
	GPUMs       float64 `json:"gpu_ms"`
}

// LongTaskInfo describes one JS task that exceeded the long-task threshold.
type LongTaskInfo struct {
	StartUs      int64    `json:"start_us"`
	DurationMs   float64  `json:"duration_ms"`
	FunctionName string   `json:"function_name,omitempty"`
	File         string   `json:"file,omitempty"`
	Line         int      `json:"line,omitempty"`
	Column       int      `json:"column,omitempty"`
	Stack        []string `json:"stack,omitempty"`

	// FrameID correlates the task with a frame when known; -1 when unknown.
	FrameID int `json:"frame_id"`
}

// DOMSignalType classifies DOM-level signals.
type DOMSignalType string

const (
	SignalForcedReflow       DOMSignalType = "forced-reflow"
	SignalStyleRecalc        DOMSignalType = "style-recalc"
	SignalLayoutInvalidation DOMSignalType = "layout-invalidation"
	SignalDOMMutation        DOMSignalType = "dom-mutation"
)

// DOMSignal is one DOM-level observation tied to a point in the trace.
type DOMSignal struct {
	Type       DOMSignalType `json:"type"`
	StartUs    int64         `json:"start_us"`
	DurationMs float64       `json:"duration_ms"`
	Selector   string        `json:"selector,omitempty"`
	NodeCount  int           `json:"node_count,omitempty"`
	Stack      []string      `json:"stack,omitempty"`
}

// GPUStallType classifies GPU events.
type GPUStallType string

const (
	GPUSync          GPUStallType = "sync"
	GPUTextureUpload GPUStallType = "texture-upload"
	GPURaster        GPUStallType = "raster"
	GPUComposite     GPUStallType = "composite"
)

// GPUEvent is one GPU-side event observed during the trace.
type GPUEvent struct {
	Type       GPUStallType `json:"type"`
	StartUs    int64        `json:"start_us"`
	DurationMs float64      `json:"duration_ms"`
	Element    string       `json:"element,omitempty"`
	LayerID    int          `json:"layer_id,omitempty"`
}

// PaintEvent is one paint (plus optional raster) record.
type PaintEvent struct {
	StartUs    int64   `json:"start_us"`
	PaintMs    float64 `json:"paint_ms"`
	RasterMs   float64 `json:"raster_ms,omitempty"`
	Bounds     Rect    `json:"bounds"`
	LayerCount int     `json:"layer_count"`
}

// Rect is a pixel-space rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FrameMetricsSummary holds aggregate frame statistics. It is always derived
// from the Frames slice via CalculateFrameMetrics and never trusted from an
// upstream source.
type FrameMetricsSummary struct {
	TotalFrames    int     `json:"total_frames"`
	DroppedFrames  int     `json:"dropped_frames"`
	AvgFps         float64 `json:"avg_fps"`
	FrameBudgetMs  float64 `json:"frame_budget_ms"`
	P95FrameTimeMs float64 `json:"p95_frame_time_ms"`
	MaxFrameTimeMs float64 `json:"max_frame_time_ms"`
	MinFrameTimeMs float64 `json:"min_frame_time_ms"`
}

// SnapshotMetadata identifies where and how a snapshot was collected.
type SnapshotMetadata struct {
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
	ViewportW   int    `json:"viewport_w,omitempty"`
	ViewportH   int    `json:"viewport_h,omitempty"`
	CollectedAt string `json:"collected_at"`
	TargetFps   int    `json:"target_fps"`
	AdapterType string `json:"adapter_type"`
	Platform    string `json:"platform,omitempty"`
	URL         string `json:"url,omitempty"`
}
