// Package stats holds the small statistics helpers the KPI summarizer
// needs beyond what gonum covers.
package stats

// Percentile returns the p-th percentile of a slice sorted in ascending
// order, using the nearest-rank method. An empty slice yields 0.
func Percentile(sorted []float64, p int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := (p * n) / 100
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
