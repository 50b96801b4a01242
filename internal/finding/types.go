// Package finding defines the scored performance findings produced by the
// detectors, plus the grouping and ranking helpers used for presentation.
package finding

// Type tags the kind of performance issue a detection describes.
type Type string

const (
	TypeLayoutThrash Type = "layout-thrashing"
	TypeForcedReflow Type = "forced-reflow"
	TypeGPUStall     Type = "gpu-stall"
	TypeLongTask     Type = "long-task"
	TypeHeavyPaint   Type = "heavy-paint"
)

// Severity buckets a detection by urgency.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities from least to most severe.
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// MaxSeverity returns the more severe of two severities.
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// Confidence describes how certain the scoring engine is that a detection is
// a real, actionable issue.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Location points at where in the page or source an issue was observed.
// All fields are optional; detectors fill what their source can provide.
type Location struct {
	Selector string `json:"selector,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Element  string `json:"element,omitempty"`
}

// Metrics carries the scored measurements shared by every detection type.
type Metrics struct {
	DurationMs          float64        `json:"duration_ms"`
	Occurrences         int            `json:"occurrences"`
	ImpactScore         float64        `json:"impact_score"` // 0-100
	Confidence          Confidence     `json:"confidence"`
	EstimatedSpeedupPct float64        `json:"estimated_speedup_pct"`
	SpeedupExplanation  string         `json:"speedup_explanation,omitempty"`
	FrameBudgetImpact   float64        `json:"frame_budget_impact_pct"`
	Risk                RiskAssessment `json:"risk"`
}

// RiskAssessment is derived by the scoring engine for each detection and
// never stored or mutated afterward.
type RiskAssessment struct {
	UserExperienceImpact string   `json:"user_experience_impact"` // "low", "medium", "high", "critical"
	RegressionRisk       string   `json:"regression_risk"`        // "low", "medium", "high"
	FixPriority          int      `json:"fix_priority"`           // 1-10, 10 = fix first
	Factors              []string `json:"factors,omitempty"`
}

// AccessPattern records one layout read/write pair observed inside a frame.
type AccessPattern struct {
	FrameID int    `json:"frame_id"`
	Read    string `json:"read"`
	Write   string `json:"write"`
}

// Detection is one scored performance finding. It is a tagged union: Type
// selects which of the detail pointers is set; exactly one is non-nil.
type Detection struct {
	Type        Type     `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Metrics     Metrics  `json:"metrics"`

	// Evidence holds raw detector measurements for downstream tooling.
	Evidence map[string]any `json:"evidence,omitempty"`

	LayoutThrash *LayoutThrashDetail `json:"layout_thrash,omitempty"`
	GPUStall     *GPUStallDetail     `json:"gpu_stall,omitempty"`
	LongTask     *LongTaskDetail     `json:"long_task,omitempty"`
	HeavyPaint   *HeavyPaintDetail   `json:"heavy_paint,omitempty"`
}

// LayoutThrashDetail is the payload for layout-thrashing and forced-reflow
// detections.
type LayoutThrashDetail struct {
	Selector      string          `json:"selector"`
	ReflowCostMs  float64         `json:"reflow_cost_ms"`
	AffectedNodes int             `json:"affected_nodes"`
	Accesses      []AccessPattern `json:"accesses,omitempty"`
}

// GPUStallDetail is the payload for gpu-stall detections.
type GPUStallDetail struct {
	Element   string  `json:"element,omitempty"`
	StallType string  `json:"stall_type"`
	StallMs   float64 `json:"stall_ms"`
	LayerID   int     `json:"layer_id,omitempty"`
}

// LongTaskDetail is the payload for long-task detections.
type LongTaskDetail struct {
	FunctionName        string   `json:"function_name,omitempty"`
	File                string   `json:"file,omitempty"`
	Line                int      `json:"line,omitempty"`
	Column              int      `json:"column,omitempty"`
	CPUTimeMs           float64  `json:"cpu_time_ms"`
	CorrelatedFrameDrops int     `json:"correlated_frame_drops"`
	Stack               []string `json:"stack,omitempty"`
}

// HeavyPaintDetail is the payload for heavy-paint detections.
type HeavyPaintDetail struct {
	PaintMs    float64 `json:"paint_ms"`
	RasterMs   float64 `json:"raster_ms"`
	LayerCount int     `json:"layer_count"`
}

// Hotspots groups detections by type for summary presentation. It is a
// derived view over the detection list, not a separate model.
type Hotspots struct {
	LayoutThrashing []Detection `json:"layout_thrashing,omitempty"`
	GPUStalls       []Detection `json:"gpu_stalls,omitempty"`
	LongTasks       []Detection `json:"long_tasks,omitempty"`
	HeavyPaints     []Detection `json:"heavy_paints,omitempty"`
}

// GroupHotspots partitions detections by type tag.
func GroupHotspots(detections []Detection) Hotspots {
	var h Hotspots
	for _, d := range detections {
		switch d.Type {
		case TypeLayoutThrash, TypeForcedReflow:
			h.LayoutThrashing = append(h.LayoutThrashing, d)
		case TypeGPUStall:
			h.GPUStalls = append(h.GPUStalls, d)
		case TypeLongTask:
			h.LongTasks = append(h.LongTasks, d)
		case TypeHeavyPaint:
			h.HeavyPaints = append(h.HeavyPaints, d)
		}
	}
	return h
}
