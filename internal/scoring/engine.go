// Package scoring turns raw detector evidence into calibrated, comparable
// scores. Every detector routes through the same engine so a score of 60
// means the same thing regardless of which detector produced it.
package scoring

import (
	"fmt"
	"math"

	"github.com/blackwell-systems/renderlens/internal/finding"
)

// Weights controls the blend of the three sub-scores. They should sum to 1.
type Weights struct {
	Duration  float64 `mapstructure:"duration"`
	Frequency float64 `mapstructure:"frequency"`
	Impact    float64 `mapstructure:"impact"`
}

// DefaultWeights is the calibrated default blend.
var DefaultWeights = Weights{Duration: 0.45, Frequency: 0.30, Impact: 0.25}

// Input is the raw evidence a detector hands to the engine.
type Input struct {
	Type        finding.Type
	DurationMs  float64 // total time attributed to the issue
	Occurrences int

	// Context of the trace the issue was observed in.
	FrameBudgetMs    float64
	TraceDurationMs  float64

	// Type-specific impact inputs; detectors fill the ones that apply.
	AffectedNodes        int
	CorrelatedFrameDrops int
	LayerCount           int
	StallType            string
}

// Result is everything the engine derives from one Input.
type Result struct {
	Score               float64
	Severity            finding.Severity
	Confidence          finding.Confidence
	FrameBudgetImpact   float64 // percent
	EstimatedSpeedupPct float64
	SpeedupExplanation  string
	Risk                finding.RiskAssessment
}

// Engine computes scores from detector evidence. It is stateless and safe
// for concurrent use.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine with the given weights. Zero weights fall back
// to the defaults.
func NewEngine(w Weights) *Engine {
	if w.Duration == 0 && w.Frequency == 0 && w.Impact == 0 {
		w = DefaultWeights
	}
	return &Engine{weights: w}
}

// Calculate derives the full score result for one detection's evidence.
func (e *Engine) Calculate(in Input) Result {
	budget := in.FrameBudgetMs
	if budget <= 0 {
		budget = 1000.0 / 60.0
	}
	occurrences := in.Occurrences
	if occurrences < 1 {
		occurrences = 1
	}
	avgMs := in.DurationMs / float64(occurrences)

	durationScore := e.durationScore(in.DurationMs, budget, in.TraceDurationMs)
	frequencyScore := e.frequencyScore(occurrences, budget, in.TraceDurationMs)
	impactScore := e.impactScore(in)

	composite := durationScore*e.weights.Duration +
		frequencyScore*e.weights.Frequency +
		impactScore*e.weights.Impact

	if mod, ok := typeModifiers[in.Type]; ok {
		composite *= mod
	}
	composite = clamp(composite, 0, 100)

	budgetImpact := avgMs / budget * 100

	res := Result{
		Score:             composite,
		Severity:          severityFor(composite, budgetImpact),
		Confidence:        confidenceFor(avgMs, occurrences),
		FrameBudgetImpact: budgetImpact,
	}
	res.EstimatedSpeedupPct, res.SpeedupExplanation = e.estimateSpeedup(in.Type, budgetImpact)
	res.Risk = e.assessRisk(in.Type, composite, budgetImpact, occurrences)
	return res
}

// durationScore blends a log-scaled "frame budgets consumed" term with a
// capped linear "share of the whole trace" term. The log term dominates for
// pathological single outliers; the linear term rewards sustained cost.
func (e *Engine) durationScore(durationMs, budgetMs, traceMs float64) float64 {
	if durationMs <= 0 {
		return 0
	}
	budgetsConsumed := durationMs / budgetMs
	logTerm := math.Log2(1+budgetsConsumed) * 15
	if logTerm > 70 {
		logTerm = 70
	}

	linearTerm := 0.0
	if traceMs > 0 {
		linearTerm = durationMs / traceMs * 100
		if linearTerm > 30 {
			linearTerm = 30
		}
	}
	return clamp(logTerm+linearTerm, 0, 100)
}

// frequencyScore blends log-scaled occurrence count with a capped
// occurrences-per-expected-frame rate.
func (e *Engine) frequencyScore(occurrences int, budgetMs, traceMs float64) float64 {
	logTerm := math.Log2(1+float64(occurrences)) * 18
	if logTerm > 70 {
		logTerm = 70
	}

	rateTerm := 0.0
	if traceMs > 0 {
		expectedFrames := traceMs / budgetMs
		if expectedFrames > 0 {
			rateTerm = float64(occurrences) / expectedFrames * 100
			if rateTerm > 30 {
				rateTerm = 30
			}
		}
	}
	return clamp(logTerm+rateTerm, 0, 100)
}

// impactScore is the type-specific sub-score.
func (e *Engine) impactScore(in Input) float64 {
	switch in.Type {
	case finding.TypeLayoutThrash:
		return clamp(float64(in.AffectedNodes)*2, 0, 100)
	case finding.TypeForcedReflow:
		// Forced reflows hurt even at low node counts: fixed floor plus
		// the node term.
		return clamp(30+float64(in.AffectedNodes)*2, 0, 100)
	case finding.TypeLongTask:
		return clamp(float64(in.CorrelatedFrameDrops)*15, 0, 100)
	case finding.TypeHeavyPaint:
		return clamp(float64(in.LayerCount)*5, 0, 100)
	case finding.TypeGPUStall:
		return clamp(gpuStallBonus[in.StallType], 0, 100)
	default:
		return 0
	}
}

// severityFor is the more severe of two independent judgments: composite
// score thresholds and frame-budget-impact thresholds.
func severityFor(score, budgetImpactPct float64) finding.Severity {
	byScore := finding.SeverityInfo
	switch {
	case score >= 80:
		byScore = finding.SeverityCritical
	case score >= 60:
		byScore = finding.SeverityHigh
	case score >= 35:
		byScore = finding.SeverityWarning
	}

	byBudget := finding.SeverityInfo
	switch {
	case budgetImpactPct > 100:
		byBudget = finding.SeverityCritical
	case budgetImpactPct > 50:
		byBudget = finding.SeverityHigh
	case budgetImpactPct > 25:
		byBudget = finding.SeverityWarning
	}

	return finding.MaxSeverity(byScore, byBudget)
}

// confidenceFor applies the fixed confidence rules: high needs both a
// meaningful average duration and repetition.
func confidenceFor(avgMs float64, occurrences int) finding.Confidence {
	if avgMs >= 10 && occurrences >= 3 {
		return finding.ConfidenceHigh
	}
	if avgMs >= 5 || occurrences >= 2 {
		return finding.ConfidenceMedium
	}
	return finding.ConfidenceLow
}

// estimateSpeedup returns a conservative speedup percentage for applying the
// recommended fix, hard-capped at 80%.
func (e *Engine) estimateSpeedup(t finding.Type, budgetImpactPct float64) (float64, string) {
	fix := recommendedFix[t]
	efficiency, ok := fixEfficiency[fix]
	if !ok {
		return 0, ""
	}
	speedup := efficiency * budgetImpactPct
	if speedup > 80 {
		speedup = 80
	}
	if speedup < 0 {
		speedup = 0
	}
	explanation := fmt.Sprintf("%s typically recovers ~%.0f%% of the measured cost", fix, efficiency*100)
	return speedup, explanation
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
