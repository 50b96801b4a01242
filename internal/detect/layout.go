package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// layoutEventNames are the raw protocol event names that indicate layout or
// style-recalculation work.
var layoutEventNames = map[string]bool{
	"Layout":                     true,
	"UpdateLayoutTree":           true,
	"RecalculateStyles":          true,
	"InvalidateLayout":           true,
	"ScheduleStyleRecalculation": true,
	"ForcedReflow":               true,
}

// layoutReadProps and layoutWriteProps are the fixed vocabulary of
// layout-triggering property names matched against call-stack strings to
// infer read/write access patterns.
var layoutReadProps = []string{
	"offsetWidth", "offsetHeight", "offsetTop", "offsetLeft",
	"clientWidth", "clientHeight", "scrollTop", "scrollHeight",
	"getBoundingClientRect", "getComputedStyle",
}

var layoutWriteProps = []string{
	"style", "className", "classList", "innerHTML",
	"appendChild", "insertBefore", "setAttribute",
}

// LayoutThrashDetector finds frames where layout work is invalidated and
// re-run synchronously: adjacent layout events separated by less than a
// quarter of the frame budget, a proxy for read-after-write cycles.
type LayoutThrashDetector struct {
	cfg    Config
	engine *scoring.Engine
}

// NewLayoutThrashDetector creates the detector.
func NewLayoutThrashDetector(cfg Config, engine *scoring.Engine) *LayoutThrashDetector {
	return &LayoutThrashDetector{cfg: cfg, engine: engine}
}

func (d *LayoutThrashDetector) Name() string { return "layout-thrash" }

func (d *LayoutThrashDetector) RequiredCapabilities() []trace.Capability {
	return []trace.Capability{trace.CapDOMSignals}
}

// layoutEvent is the unified shape both input modes reduce to.
type layoutEvent struct {
	startUs  int64
	endUs    int64
	costMs   float64
	selector string
	nodes    int
	stack    []string
	forced   bool
}

// Detect groups layout events by frame, flags tight adjacent pairs as
// thrashing, and emits one aggregated finding per selector key.
func (d *LayoutThrashDetector) Detect(ctx *Context, in Input) []finding.Detection {
	events := d.extract(in)
	if len(events) == 0 {
		return nil
	}

	windows := frameWindows(ctx, in)
	byWindow := make(map[int][]layoutEvent)
	for _, ev := range events {
		if w := windowFor(windows, ev.startUs); w >= 0 {
			byWindow[w] = append(byWindow[w], ev)
		}
	}

	gapLimitUs := int64(ctx.FrameBudgetMs * d.cfg.ThrashGapFraction * 1000)

	type keyStats struct {
		costMs   float64
		count    int
		maxNodes int
		forced   int
		accesses []finding.AccessPattern
	}
	stats := make(map[string]*keyStats)

	for w, evs := range byWindow {
		sort.Slice(evs, func(i, j int) bool { return evs[i].startUs < evs[j].startUs })
		thrashing := make([]bool, len(evs))
		for i := 1; i < len(evs); i++ {
			gap := evs[i].startUs - evs[i-1].endUs
			if gap < gapLimitUs {
				thrashing[i-1] = true
				thrashing[i] = true
			}
		}
		for i, ev := range evs {
			if !thrashing[i] {
				continue
			}
			key := ev.selector
			if key == "" {
				key = "(unknown)"
			}
			st := stats[key]
			if st == nil {
				st = &keyStats{}
				stats[key] = st
			}
			st.costMs += ev.costMs
			st.count++
			if ev.nodes > st.maxNodes {
				st.maxNodes = ev.nodes
			}
			if ev.forced {
				st.forced++
			}
			read, write := inferAccess(ev.stack)
			st.accesses = append(st.accesses, finding.AccessPattern{
				FrameID: windows[w].FrameID,
				Read:    read,
				Write:   write,
			})
		}
	}

	var out []finding.Detection
	for selector, st := range stats {
		if st.count < d.cfg.MinThrashOccurrences || st.costMs < d.cfg.MinThrashCostMs {
			continue
		}

		typ := finding.TypeLayoutThrash
		if st.forced*2 > st.count {
			typ = finding.TypeForcedReflow
		}

		res := d.engine.Calculate(scoring.Input{
			Type:            typ,
			DurationMs:      st.costMs,
			Occurrences:     st.count,
			AffectedNodes:   st.maxNodes,
			FrameBudgetMs:   ctx.FrameBudgetMs,
			TraceDurationMs: ctx.TraceDurationMs(),
		})

		out = append(out, finding.Detection{
			Type:     typ,
			Severity: res.Severity,
			Description: fmt.Sprintf("%s on %q: %d synchronous layout passes costing %.1fms",
				describeThrashType(typ), selector, st.count, st.costMs),
			Location: finding.Location{Selector: selector},
			Metrics: finding.Metrics{
				DurationMs:          trace.Round2(st.costMs),
				Occurrences:         st.count,
				ImpactScore:         res.Score,
				Confidence:          res.Confidence,
				EstimatedSpeedupPct: res.EstimatedSpeedupPct,
				SpeedupExplanation:  res.SpeedupExplanation,
				FrameBudgetImpact:   res.FrameBudgetImpact,
				Risk:                res.Risk,
			},
			Evidence: map[string]any{
				"forced_count": st.forced,
				"gap_limit_us": gapLimitUs,
			},
			LayoutThrash: &finding.LayoutThrashDetail{
				Selector:      selector,
				ReflowCostMs:  trace.Round2(st.costMs),
				AffectedNodes: st.maxNodes,
				Accesses:      st.accesses,
			},
		})
	}
	return out
}

// extract reduces either input mode to the unified layout event shape.
func (d *LayoutThrashDetector) extract(in Input) []layoutEvent {
	if in.Snapshot != nil && len(in.Snapshot.DOMSignals) > 0 {
		var out []layoutEvent
		for _, s := range in.Snapshot.DOMSignals {
			if s.Type == trace.SignalDOMMutation {
				continue
			}
			out = append(out, layoutEvent{
				startUs:  s.StartUs,
				endUs:    s.StartUs + int64(s.DurationMs*1000),
				costMs:   s.DurationMs,
				selector: s.Selector,
				nodes:    s.NodeCount,
				stack:    s.Stack,
				forced:   s.Type == trace.SignalForcedReflow,
			})
		}
		return out
	}

	var out []layoutEvent
	for _, e := range in.Events {
		if !layoutEventNames[e.Name] {
			continue
		}
		selector := e.Args.Selector
		if selector == "" {
			selector = e.Args.FunctionName
		}
		out = append(out, layoutEvent{
			startUs:  e.TimestampUs,
			endUs:    e.EndUs(),
			costMs:   e.DurationMs(),
			selector: selector,
			nodes:    e.Args.NodeCount,
			stack:    e.Args.Stack,
			forced:   e.Name == "ForcedReflow",
		})
	}
	return out
}

// inferAccess matches the layout property vocabulary against a call stack to
// name the read and write driving a thrash cycle. Falls back to one generic
// read and one generic write when nothing matches.
func inferAccess(stack []string) (read, write string) {
	for _, frame := range stack {
		if read == "" {
			for _, prop := range layoutReadProps {
				if strings.Contains(frame, prop) {
					read = prop
					break
				}
			}
		}
		if write == "" {
			for _, prop := range layoutWriteProps {
				if strings.Contains(frame, prop) {
					write = prop
					break
				}
			}
		}
		if read != "" && write != "" {
			break
		}
	}
	if read == "" {
		read = "offsetWidth"
	}
	if write == "" {
		write = "style"
	}
	return read, write
}

func describeThrashType(t finding.Type) string {
	if t == finding.TypeForcedReflow {
		return "Forced reflow"
	}
	return "Layout thrashing"
}
