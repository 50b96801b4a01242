// Package store persists analysis runs and their detections in SQLite so
// runs can be listed, reloaded, and compared across time.
package store

import "time"

// Run is one persisted analysis run.
type Run struct {
	ID          int64     `json:"id"`
	TraceID     string    `json:"trace_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url,omitempty"`
	AdapterType string    `json:"adapter_type"`
	Platform    string    `json:"platform,omitempty"`
	SavedAt     time.Time `json:"saved_at"`

	DurationMs     float64 `json:"duration_ms"`
	TotalFrames    int     `json:"total_frames"`
	DroppedFrames  int     `json:"dropped_frames"`
	AvgFps         float64 `json:"avg_fps"`
	P95FrameTimeMs float64 `json:"p95_frame_time_ms"`
	MaxFrameTimeMs float64 `json:"max_frame_time_ms"`
	FrameBudgetMs  float64 `json:"frame_budget_ms"`
}

// DetectionRow is one persisted detection. The full detail payload is stored
// as JSON so nothing is lost round-tripping through the database.
type DetectionRow struct {
	ID    int64  `json:"id"`
	RunID int64  `json:"run_id"`

	Type              string  `json:"type"`
	Severity          string  `json:"severity"`
	Confidence        string  `json:"confidence"`
	Description       string  `json:"description"`
	ImpactScore       float64 `json:"impact_score"`
	DurationMs        float64 `json:"duration_ms"`
	Occurrences       int     `json:"occurrences"`
	FrameBudgetImpact float64 `json:"frame_budget_impact_pct"`
	SpeedupPct        float64 `json:"estimated_speedup_pct"`
	FixPriority       int     `json:"fix_priority"`
	LocationSelector  string  `json:"location_selector,omitempty"`
	LocationFile      string  `json:"location_file,omitempty"`
	LocationLine      int     `json:"location_line,omitempty"`
	Payload           string  `json:"payload"`
}
