package detect

import (
	"fmt"

	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// paintEventNames are the raw protocol names for paint and raster work.
var paintEventNames = map[string]bool{
	"Paint":       true,
	"PaintImage":  true,
	"RasterTask":  true,
	"DecodeImage": true,
}

// HeavyPaintDetector finds frames dominated by paint and raster work. To cap
// noisy output on heavily-animated pages, many qualifying frames collapse
// into one aggregated finding.
type HeavyPaintDetector struct {
	cfg    Config
	engine *scoring.Engine
}

// NewHeavyPaintDetector creates the detector.
func NewHeavyPaintDetector(cfg Config, engine *scoring.Engine) *HeavyPaintDetector {
	return &HeavyPaintDetector{cfg: cfg, engine: engine}
}

func (d *HeavyPaintDetector) Name() string { return "heavy-paint" }

func (d *HeavyPaintDetector) RequiredCapabilities() []trace.Capability {
	return []trace.Capability{trace.CapPaintEvents}
}

// paintGroup accumulates paint work inside one frame window.
type paintGroup struct {
	frameID   int
	paintMs   float64
	rasterMs  float64
	maxLayers int
}

func (g paintGroup) combinedMs() float64 { return g.paintMs + g.rasterMs }

// Detect groups paint events by frame window and emits either per-frame
// findings or, past the collapse threshold, a single aggregate.
func (d *HeavyPaintDetector) Detect(ctx *Context, in Input) []finding.Detection {
	paints := d.extract(in)
	if len(paints) == 0 {
		return nil
	}

	windows := frameWindows(ctx, in)
	groups := make(map[int]*paintGroup)
	for _, p := range paints {
		w := windowFor(windows, p.StartUs)
		if w < 0 {
			continue
		}
		g := groups[w]
		if g == nil {
			g = &paintGroup{frameID: windows[w].FrameID}
			groups[w] = g
		}
		g.paintMs += p.PaintMs
		g.rasterMs += p.RasterMs
		if p.LayerCount > g.maxLayers {
			g.maxLayers = p.LayerCount
		}
	}

	var qualifying []paintGroup
	for _, g := range groups {
		if g.combinedMs() > d.cfg.HeavyPaintMinCombinedMs || g.maxLayers > d.cfg.HeavyPaintMaxLayers {
			qualifying = append(qualifying, *g)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	if len(qualifying) > d.cfg.HeavyPaintCollapseThreshold {
		return []finding.Detection{d.aggregate(ctx, qualifying)}
	}

	var out []finding.Detection
	for _, g := range qualifying {
		out = append(out, d.emit(ctx, g.combinedMs(), 1, g.maxLayers, g.paintMs, g.rasterMs,
			fmt.Sprintf("Heavy paint in frame %d: %.1fms paint+raster, %d layers", g.frameID, g.combinedMs(), g.maxLayers)))
	}
	return out
}

// aggregate collapses all qualifying groups into one finding with summed
// durations and the max layer count seen.
func (d *HeavyPaintDetector) aggregate(ctx *Context, groups []paintGroup) finding.Detection {
	var paintMs, rasterMs float64
	maxLayers := 0
	for _, g := range groups {
		paintMs += g.paintMs
		rasterMs += g.rasterMs
		if g.maxLayers > maxLayers {
			maxLayers = g.maxLayers
		}
	}
	total := paintMs + rasterMs
	return d.emit(ctx, total, len(groups), maxLayers, paintMs, rasterMs,
		fmt.Sprintf("Heavy paint across %d frames: %.1fms paint+raster total, up to %d layers",
			len(groups), total, maxLayers))
}

func (d *HeavyPaintDetector) emit(ctx *Context, totalMs float64, occurrences, layers int, paintMs, rasterMs float64, description string) finding.Detection {
	res := d.engine.Calculate(scoring.Input{
		Type:            finding.TypeHeavyPaint,
		DurationMs:      totalMs,
		Occurrences:     occurrences,
		LayerCount:      layers,
		FrameBudgetMs:   ctx.FrameBudgetMs,
		TraceDurationMs: ctx.TraceDurationMs(),
	})
	return finding.Detection{
		Type:        finding.TypeHeavyPaint,
		Severity:    res.Severity,
		Description: description,
		Metrics: finding.Metrics{
			DurationMs:          trace.Round2(totalMs),
			Occurrences:         occurrences,
			ImpactScore:         res.Score,
			Confidence:          res.Confidence,
			EstimatedSpeedupPct: res.EstimatedSpeedupPct,
			SpeedupExplanation:  res.SpeedupExplanation,
			FrameBudgetImpact:   res.FrameBudgetImpact,
			Risk:                res.Risk,
		},
		HeavyPaint: &finding.HeavyPaintDetail{
			PaintMs:    trace.Round2(paintMs),
			RasterMs:   trace.Round2(rasterMs),
			LayerCount: layers,
		},
	}
}

// extract reduces both input modes to paint events.
func (d *HeavyPaintDetector) extract(in Input) []trace.PaintEvent {
	if in.Snapshot != nil {
		return in.Snapshot.Paints
	}

	var out []trace.PaintEvent
	for _, e := range in.Events {
		if !paintEventNames[e.Name] {
			continue
		}
		p := trace.PaintEvent{StartUs: e.TimestampUs, LayerCount: e.Args.LayerCount}
		if e.Name == "RasterTask" {
			p.RasterMs = e.DurationMs()
		} else {
			p.PaintMs = e.DurationMs()
		}
		out = append(out, p)
	}
	return out
}
