package trace

// Event is one raw, protocol-native trace event. Full-protocol adapters emit
// a stream of these; the legacy analysis entry point consumes them directly.
type Event struct {
	Name        string    `json:"name"`
	Category    string    `json:"cat,omitempty"`
	Phase       string    `json:"ph,omitempty"`
	TimestampUs int64     `json:"ts"`
	DurationUs  int64     `json:"dur,omitempty"`
	Args        EventArgs `json:"args,omitempty"`
}

// EventArgs carries the subset of protocol event arguments the analysis
// pipeline reads. Unknown argument fields are dropped at decode time.
type EventArgs struct {
	FrameID      int      `json:"frame_id,omitempty"`
	Selector     string   `json:"selector,omitempty"`
	NodeCount    int      `json:"node_count,omitempty"`
	FunctionName string   `json:"function_name,omitempty"`
	File         string   `json:"file,omitempty"`
	Line         int      `json:"line,omitempty"`
	Column       int      `json:"column,omitempty"`
	Stack        []string `json:"stack,omitempty"`
	Element      string   `json:"element,omitempty"`
	LayerID      int      `json:"layer_id,omitempty"`
	LayerCount   int      `json:"layer_count,omitempty"`
}

// DurationMs returns the event duration in milliseconds.
func (e Event) DurationMs() float64 {
	return float64(e.DurationUs) / 1000.0
}

// EndUs returns the event end timestamp in microseconds.
func (e Event) EndUs() int64 {
	return e.TimestampUs + e.DurationUs
}

// Overlaps reports whether the event's [start, end) interval overlaps the
// given [startUs, endUs) interval.
func (e Event) Overlaps(startUs, endUs int64) bool {
	return e.TimestampUs < endUs && e.EndUs() > startUs
}
