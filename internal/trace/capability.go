package trace

// Capability names a guarantee about what data a trace source can supply.
// Detectors declare the capabilities they require; the analyzer only runs a
// detector when every required capability is present in the effective set.
type Capability string

const (
	// CapFullProtocol means the source has full remote-debugging-protocol
	// access: raw trace events with phase breakdowns and stable timestamps.
	CapFullProtocol Capability = "full-protocol"

	// CapFrameTiming means per-frame begin/end timings are available.
	CapFrameTiming Capability = "frame-timing"

	// CapLongTasks means long-running JS task entries are available.
	CapLongTasks Capability = "long-tasks"

	// CapDOMSignals means DOM-level signals (forced reflow, style recalc,
	// layout invalidation, mutation) are available.
	CapDOMSignals Capability = "dom-signals"

	// CapGPUEvents means GPU-side events (sync, upload, raster, composite)
	// are available.
	CapGPUEvents Capability = "gpu-events"

	// CapPaintEvents means paint/raster events with bounds are available.
	CapPaintEvents Capability = "paint-events"

	// CapSourceMaps means script locations can be mapped back to original
	// source files.
	CapSourceMaps Capability = "source-maps"

	// CapLiveMonitoring means the source can stream continuously rather
	// than deliver a single finished document.
	CapLiveMonitoring Capability = "live-monitoring"
)

// CapabilitySet is an immutable-by-convention set of capabilities.
type CapabilitySet map[Capability]bool

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Has reports whether the set contains the given capability.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// HasAll reports whether every given capability is present.
func (s CapabilitySet) HasAll(caps ...Capability) bool {
	for _, c := range caps {
		if !s[c] {
			return false
		}
	}
	return true
}

// List returns the capabilities in a stable order.
func (s CapabilitySet) List() []Capability {
	ordered := []Capability{
		CapFullProtocol, CapFrameTiming, CapLongTasks, CapDOMSignals,
		CapGPUEvents, CapPaintEvents, CapSourceMaps, CapLiveMonitoring,
	}
	var out []Capability
	for _, c := range ordered {
		if s[c] {
			out = append(out, c)
		}
	}
	return out
}
