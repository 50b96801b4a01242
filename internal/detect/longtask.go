package detect

import (
	"fmt"

	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/scoring"
	"github.com/blackwell-systems/renderlens/internal/trace"
)

// jsExecEventNames are the raw protocol event names that represent JS
// execution on the main thread.
var jsExecEventNames = map[string]bool{
	"EvaluateScript": true,
	"FunctionCall":   true,
	"RunTask":        true,
	"TimerFire":      true,
	"RunMicrotasks":  true,
	"v8.run":         true,
}

// LongTaskDetector finds main-thread JS tasks exceeding the long-task
// threshold and correlates them with dropped frames.
type LongTaskDetector struct {
	cfg    Config
	engine *scoring.Engine
}

// NewLongTaskDetector creates the detector.
func NewLongTaskDetector(cfg Config, engine *scoring.Engine) *LongTaskDetector {
	return &LongTaskDetector{cfg: cfg, engine: engine}
}

func (d *LongTaskDetector) Name() string { return "long-task" }

func (d *LongTaskDetector) RequiredCapabilities() []trace.Capability {
	return []trace.Capability{trace.CapLongTasks}
}

// Detect merges long tasks sharing a (function, file, line) key, summing CPU
// time and correlated frame drops and keeping the longest known call stack.
func (d *LongTaskDetector) Detect(ctx *Context, in Input) []finding.Detection {
	tasks := d.extract(in)
	if len(tasks) == 0 {
		return nil
	}

	var dropped [][2]int64
	if in.Snapshot != nil {
		dropped = droppedIntervals(in.Snapshot.Frames)
	}

	type taskKey struct {
		fn   string
		file string
		line int
	}
	type taskStats struct {
		cpuMs   float64
		count   int
		drops   int
		stack   []string
		column  int
	}
	stats := make(map[taskKey]*taskStats)

	for _, task := range tasks {
		key := taskKey{fn: task.FunctionName, file: task.File, line: task.Line}
		st := stats[key]
		if st == nil {
			st = &taskStats{}
			stats[key] = st
		}
		st.cpuMs += task.DurationMs
		st.count++
		if len(task.Stack) > len(st.stack) {
			st.stack = task.Stack
		}
		if task.Column != 0 {
			st.column = task.Column
		}

		taskEnd := task.StartUs + int64(task.DurationMs*1000)
		for _, iv := range dropped {
			if overlapsInterval(task.StartUs, taskEnd, iv[0], iv[1]) {
				st.drops++
			}
		}
	}

	var out []finding.Detection
	for key, st := range stats {
		res := d.engine.Calculate(scoring.Input{
			Type:                 finding.TypeLongTask,
			DurationMs:           st.cpuMs,
			Occurrences:          st.count,
			CorrelatedFrameDrops: st.drops,
			FrameBudgetMs:        ctx.FrameBudgetMs,
			TraceDurationMs:      ctx.TraceDurationMs(),
		})

		name := key.fn
		if name == "" {
			name = "(anonymous)"
		}
		out = append(out, finding.Detection{
			Type:     finding.TypeLongTask,
			Severity: res.Severity,
			Description: fmt.Sprintf("Long task %s: %.1fms across %d occurrences, %d correlated frame drops",
				name, st.cpuMs, st.count, st.drops),
			Location: finding.Location{File: key.file, Line: key.line, Column: st.column},
			Metrics: finding.Metrics{
				DurationMs:          trace.Round2(st.cpuMs),
				Occurrences:         st.count,
				ImpactScore:         res.Score,
				Confidence:          res.Confidence,
				EstimatedSpeedupPct: res.EstimatedSpeedupPct,
				SpeedupExplanation:  res.SpeedupExplanation,
				FrameBudgetImpact:   res.FrameBudgetImpact,
				Risk:                res.Risk,
			},
			Evidence: map[string]any{
				"threshold_ms": d.cfg.LongTaskThresholdMs,
			},
			LongTask: &finding.LongTaskDetail{
				FunctionName:         key.fn,
				File:                 key.file,
				Line:                 key.line,
				Column:               st.column,
				CPUTimeMs:            trace.Round2(st.cpuMs),
				CorrelatedFrameDrops: st.drops,
				Stack:                st.stack,
			},
		})
	}
	return out
}

// extract reduces both input modes to LongTaskInfo values above threshold.
func (d *LongTaskDetector) extract(in Input) []trace.LongTaskInfo {
	if in.Snapshot != nil && len(in.Snapshot.LongTasks) > 0 {
		var out []trace.LongTaskInfo
		for _, t := range in.Snapshot.LongTasks {
			if t.DurationMs > d.cfg.LongTaskThresholdMs {
				out = append(out, t)
			}
		}
		return out
	}

	var out []trace.LongTaskInfo
	for _, e := range in.Events {
		if !jsExecEventNames[e.Name] || e.DurationMs() <= d.cfg.LongTaskThresholdMs {
			continue
		}
		out = append(out, trace.LongTaskInfo{
			StartUs:      e.TimestampUs,
			DurationMs:   e.DurationMs(),
			FunctionName: e.Args.FunctionName,
			File:         e.Args.File,
			Line:         e.Args.Line,
			Column:       e.Args.Column,
			Stack:        e.Args.Stack,
			FrameID:      -1,
		})
	}
	return out
}
