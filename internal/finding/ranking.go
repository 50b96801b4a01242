package finding

import "sort"

// Rank sorts detections by impact score descending, breaking ties by total
// duration so the costlier issue surfaces first. The input is not modified.
func Rank(detections []Detection) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Metrics.ImpactScore != sorted[j].Metrics.ImpactScore {
			return sorted[i].Metrics.ImpactScore > sorted[j].Metrics.ImpactScore
		}
		return sorted[i].Metrics.DurationMs > sorted[j].Metrics.DurationMs
	})
	return sorted
}
