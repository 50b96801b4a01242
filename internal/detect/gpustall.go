package detect

import (
	"fmt"

	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// gpuCategory is the raw protocol category for GPU-side events.
const gpuCategory = "disabled-by-default-gpu"

// gpuEventTypes maps raw event names onto stall types.
var gpuEventTypes = map[string]trace.GPUStallType{
	"GPUTask":         trace.GPURaster,
	"Rasterize":       trace.GPURaster,
	"UploadTexture":   trace.GPUTextureUpload,
	"GLFence":         trace.GPUSync,
	"SwapBuffers":     trace.GPUComposite,
	"CompositeLayers": trace.GPUComposite,
}

// GPUStallDetector groups GPU events by element/layer and stall type. The
// orchestrator additionally gates this detector on full-protocol or
// gpu-event capability; that rule lives there, not here.
type GPUStallDetector struct {
	cfg    Config
	engine *scoring.Engine
}

// NewGPUStallDetector creates the detector.
func NewGPUStallDetector(cfg Config, engine *scoring.Engine) *GPUStallDetector {
	return &GPUStallDetector{cfg: cfg, engine: engine}
}

func (d *GPUStallDetector) Name() string { return "gpu-stall" }

func (d *GPUStallDetector) RequiredCapabilities() []trace.Capability {
	return []trace.Capability{trace.CapGPUEvents}
}

// Detect emits one aggregated finding per (element/layer, stall type) key.
func (d *GPUStallDetector) Detect(ctx *Context, in Input) []finding.Detection {
	events := d.extract(in)
	if len(events) == 0 {
		return nil
	}

	type stallKey struct {
		element string
		layerID int
		typ     trace.GPUStallType
	}
	type stallStats struct {
		stallMs float64
		count   int
	}
	stats := make(map[stallKey]*stallStats)

	for _, ev := range events {
		if ev.Type == trace.GPUComposite {
			// Composites are the normal pipeline tail, only the other
			// types represent stalls.
			continue
		}
		key := stallKey{element: ev.Element, layerID: ev.LayerID, typ: ev.Type}
		st := stats[key]
		if st == nil {
			st = &stallStats{}
			stats[key] = st
		}
		st.stallMs += ev.DurationMs
		st.count++
	}

	var out []finding.Detection
	for key, st := range stats {
		res := d.engine.Calculate(scoring.Input{
			Type:            finding.TypeGPUStall,
			DurationMs:      st.stallMs,
			Occurrences:     st.count,
			StallType:       string(key.typ),
			FrameBudgetMs:   ctx.FrameBudgetMs,
			TraceDurationMs: ctx.TraceDurationMs(),
		})

		element := key.element
		if element == "" {
			element = fmt.Sprintf("layer %d", key.layerID)
		}
		out = append(out, finding.Detection{
			Type:     finding.TypeGPUStall,
			Severity: res.Severity,
			Description: fmt.Sprintf("GPU %s stall on %s: %.1fms across %d events",
				key.typ, element, st.stallMs, st.count),
			Location: finding.Location{Element: key.element},
			Metrics: finding.Metrics{
				DurationMs:          trace.Round2(st.stallMs),
				Occurrences:         st.count,
				ImpactScore:         res.Score,
				Confidence:          res.Confidence,
				EstimatedSpeedupPct: res.EstimatedSpeedupPct,
				SpeedupExplanation:  res.SpeedupExplanation,
				FrameBudgetImpact:   res.FrameBudgetImpact,
				Risk:                res.Risk,
			},
			GPUStall: &finding.GPUStallDetail{
				Element:   key.element,
				StallType: string(key.typ),
				StallMs:   trace.Round2(st.stallMs),
				LayerID:   key.layerID,
			},
		})
	}
	return out
}

// extract reduces both input modes to GPU events.
func (d *GPUStallDetector) extract(in Input) []trace.GPUEvent {
	if in.Snapshot != nil {
		return in.Snapshot.GPUEvents
	}

	var out []trace.GPUEvent
	for _, e := range in.Events {
		typ, known := gpuEventTypes[e.Name]
		if !known && e.Category != gpuCategory {
			continue
		}
		if !known {
			typ = trace.GPURaster
		}
		out = append(out, trace.GPUEvent{
			Type:       typ,
			StartUs:    e.TimestampUs,
			DurationMs: e.DurationMs(),
			Element:    e.Args.Element,
			LayerID:    e.Args.LayerID,
		})
	}
	return out
}
