package analyzer

import "github.com/blackwell-systems/renderlens/internal/trace"

// phaseForEvent buckets a raw protocol event name into one of the five
// pipeline phases. Returns an empty string for events outside the pipeline.
func phaseForEvent(name string) string {
	switch name {
	case "RecalculateStyles", "ScheduleStyleRecalculation":
		return "style"
	case "Layout", "UpdateLayoutTree", "InvalidateLayout", "ForcedReflow":
		return "layout"
	case "Paint", "PaintImage", "DecodeImage":
		return "paint"
	case "CompositeLayers", "SwapBuffers":
		return "composite"
	case "GPUTask", "Rasterize", "RasterTask", "UploadTexture", "GLFence":
		return "gpu"
	default:
		return ""
	}
}

// phasesFromEvents accumulates event durations by name into the five phase
// buckets. Rounding matches the snapshot path: 2 decimal places.
func phasesFromEvents(events []trace.Event) trace.PhaseBreakdown {
	var p trace.PhaseBreakdown
	for _, e := range events {
		switch phaseForEvent(e.Name) {
		case "style":
			p.StyleMs += e.DurationMs()
		case "layout":
			p.LayoutMs += e.DurationMs()
		case "paint":
			p.PaintMs += e.DurationMs()
		case "composite":
			p.CompositeMs += e.DurationMs()
		case "gpu":
			p.GPUMs += e.DurationMs()
		}
	}
	return roundPhases(p)
}

// phasesFromSnapshot sums the per-frame phase breakdowns and folds in the
// standalone GPU and paint event durations.
func phasesFromSnapshot(snap *trace.Snapshot) trace.PhaseBreakdown {
	var p trace.PhaseBreakdown
	for _, f := range snap.Frames {
		if f.Phases == nil {
			continue
		}
		p.StyleMs += f.Phases.StyleMs
		p.LayoutMs += f.Phases.LayoutMs
		p.PaintMs += f.Phases.PaintMs
		p.CompositeMs += f.Phases.CompositeMs
		p.GPUMs += f.Phases.GPUMs
	}
	for _, g := range snap.GPUEvents {
		p.GPUMs += g.DurationMs
	}
	for _, pe := range snap.Paints {
		p.PaintMs += pe.PaintMs + pe.RasterMs
	}
	return roundPhases(p)
}

func roundPhases(p trace.PhaseBreakdown) trace.PhaseBreakdown {
	p.StyleMs = trace.Round2(p.StyleMs)
	p.LayoutMs = trace.Round2(p.LayoutMs)
	p.PaintMs = trace.Round2(p.PaintMs)
	p.CompositeMs = trace.Round2(p.CompositeMs)
	p.GPUMs = trace.Round2(p.GPUMs)
	return p
}
