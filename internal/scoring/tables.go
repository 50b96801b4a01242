package scoring

import "github.com/blackwell-systems/renderlens/internal/finding"

// typeModifiers scales the composite score per detection type. Layout work
// invalidates the most downstream pipeline stages, so it weighs heaviest.
var typeModifiers = map[finding.Type]float64{
	finding.TypeLayoutThrash: 1.2,
	finding.TypeForcedReflow: 1.15,
	finding.TypeGPUStall:     1.1,
	finding.TypeLongTask:     1.0,
	finding.TypeHeavyPaint:   0.9,
}

// recommendedFix maps each detection type to the remediation the speedup
// estimate assumes.
var recommendedFix = map[finding.Type]string{
	finding.TypeLayoutThrash: "batch-dom-reads-writes",
	finding.TypeForcedReflow: "defer-layout-reads",
	finding.TypeGPUStall:     "reduce-gpu-churn",
	finding.TypeLongTask:     "split-long-task",
	finding.TypeHeavyPaint:   "reduce-paint-area",
}

// fixEfficiency estimates what fraction of the measured cost each fix
// recovers. Deliberately conservative: no fix claims full elimination.
var fixEfficiency = map[string]float64{
	"batch-dom-reads-writes": 0.7,
	"defer-layout-reads":     0.65,
	"reduce-gpu-churn":       0.6,
	"split-long-task":        0.5,
	"reduce-paint-area":      0.55,
}

// gpuStallBonus is the fixed impact sub-score per GPU stall type. Sync
// stalls block the whole pipeline; composites are mostly off the main thread.
var gpuStallBonus = map[string]float64{
	"sync":           70,
	"texture-upload": 55,
	"raster":         40,
	"composite":      30,
}

// regressionRiskByFix tiers how likely each remediation is to break existing
// behavior when applied.
var regressionRiskByFix = map[string]string{
	"batch-dom-reads-writes": "medium",
	"defer-layout-reads":     "high",
	"reduce-gpu-churn":       "medium",
	"split-long-task":        "medium",
	"reduce-paint-area":      "low",
}

// RecommendedFix returns the remediation name the engine assumes for a type.
func RecommendedFix(t finding.Type) string {
	return recommendedFix[t]
}
