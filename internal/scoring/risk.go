package scoring

import (
	"fmt"
	"math"

	"github.com/blackwell-systems/renderlens/internal/finding"
)

// assessRisk derives a fresh RiskAssessment for one detection. The UX-impact
// and regression-risk tiers are judged independently from the same inputs,
// then combined into a 1-10 fix priority.
func (e *Engine) assessRisk(t finding.Type, score, budgetImpactPct float64, occurrences int) finding.RiskAssessment {
	risk := finding.RiskAssessment{}

	// UX impact: how visible the issue is to a user looking at the page.
	switch {
	case budgetImpactPct > 100:
		risk.UserExperienceImpact = "critical"
		risk.Factors = append(risk.Factors, "single occurrences exceed an entire frame budget")
	case budgetImpactPct > 50 || score >= 70:
		risk.UserExperienceImpact = "high"
		risk.Factors = append(risk.Factors, "issue consumes over half a frame budget per occurrence")
	case budgetImpactPct > 25 || score >= 40:
		risk.UserExperienceImpact = "medium"
		risk.Factors = append(risk.Factors, "noticeable per-frame cost under load")
	default:
		risk.UserExperienceImpact = "low"
		risk.Factors = append(risk.Factors, "cost is small relative to the frame budget")
	}

	// Regression risk comes from the remediation, not the symptom.
	fix := recommendedFix[t]
	risk.RegressionRisk = regressionRiskByFix[fix]
	if risk.RegressionRisk == "" {
		risk.RegressionRisk = "medium"
	}
	risk.Factors = append(risk.Factors, fmt.Sprintf("recommended fix %q carries %s regression risk", fix, risk.RegressionRisk))

	if occurrences >= 10 {
		risk.Factors = append(risk.Factors, fmt.Sprintf("recurs %d times in one trace", occurrences))
	}

	// Priority starts from the score and is boosted for urgent, risky work
	// so it gets scheduled deliberately rather than slipped in.
	priority := int(math.Ceil(score / 10))
	if risk.UserExperienceImpact == "critical" {
		priority += 2
		risk.Factors = append(risk.Factors, "priority boosted for critical user-experience impact")
	}
	if risk.RegressionRisk == "high" {
		priority++
		risk.Factors = append(risk.Factors, "priority boosted so high-risk fix is planned early")
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	risk.FixPriority = priority

	return risk
}
