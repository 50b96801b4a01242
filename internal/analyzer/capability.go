package analyzer

import (
	"github.com/blackwell-systems/renderlens/internal/detect"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// defaultRawCapabilities is assumed for raw protocol event lists when the
// caller supplies no explicit capability set: a full-protocol source provides
// everything except source maps.
var defaultRawCapabilities = []trace.Capability{
	trace.CapFullProtocol,
	trace.CapFrameTiming,
	trace.CapLongTasks,
	trace.CapDOMSignals,
	trace.CapGPUEvents,
	trace.CapPaintEvents,
}

// inferSnapshotCapabilities presence-tests each snapshot array, plus an
// adapter-type check for full-protocol access.
func inferSnapshotCapabilities(snap *trace.Snapshot) trace.CapabilitySet {
	set := trace.NewCapabilitySet()
	if len(snap.Frames) > 0 {
		set[trace.CapFrameTiming] = true
	}
	if len(snap.LongTasks) > 0 {
		set[trace.CapLongTasks] = true
	}
	if len(snap.DOMSignals) > 0 {
		set[trace.CapDOMSignals] = true
	}
	if len(snap.GPUEvents) > 0 {
		set[trace.CapGPUEvents] = true
	}
	if len(snap.Paints) > 0 {
		set[trace.CapPaintEvents] = true
	}
	if snap.Meta.AdapterType == "cdp" {
		set[trace.CapFullProtocol] = true
	}
	return set
}

// eligible applies the generic required-capability subset test.
func eligible(d detect.Detector, caps trace.CapabilitySet) bool {
	for _, required := range d.RequiredCapabilities() {
		if !caps.Has(required) {
			return false
		}
	}
	return true
}

// gpuStallEligible is the deliberate extra rule for GPU-stall detection: it
// needs full-protocol or gpu-event capability specifically, whatever the
// detector itself declares. Kept as a second explicit predicate so the
// override stays visible.
func gpuStallEligible(caps trace.CapabilitySet) bool {
	return caps.Has(trace.CapFullProtocol) || caps.Has(trace.CapGPUEvents)
}
