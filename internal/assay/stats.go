package assay

import (
	"math"
	"sort"
)

// mean sums in ascending order so the result does not depend on input order.
func mean(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	var sum float64
	for _, x := range sorted {
		sum += x
	}
	return sum / float64(len(sorted))
}

// sampleStdev is the Bessel-corrected (n-1) standard deviation. ok is false
// for fewer than two values.
func sampleStdev(xs []float64, m float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}

// cvPercent is 100*stdev/mean. A zero mean yields a non-finite value.
func cvPercent(stdev, m float64) float64 {
	return 100 * stdev / m
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
