// Package stats holds the small numeric helpers used when aggregating
// tempo detection results.
package stats

import (
	"errors"
	"math"
	"slices"
)

// ErrEmptySamples is returned when a summary is requested over no values.
// A zero would be indistinguishable from a real 0% accuracy.
var ErrEmptySamples = errors.New("stats: empty sample set")

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySamples
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Median returns the middle value of values, or the average of the two
// middle values for an even count. values is not modified.
func Median(values []float64) (float64, error) {
	switch len(values) {
	case 0:
		return 0, ErrEmptySamples
	case 1:
		return values[0], nil
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0, nil
	}
	return sorted[n/2], nil
}

// Mode returns the most frequent value after rounding each value to the
// nearest multiple of resolution. Ties go to the smaller value. A
// non-positive resolution compares values exactly.
func Mode(values []float64, resolution float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySamples
	}

	quantize := func(v float64) float64 {
		if resolution <= 0 {
			return v
		}
		return math.Round(v/resolution) * resolution
	}

	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[quantize(v)]++
	}

	best, bestCount := 0.0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, nil
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WithinTolerance reports whether value lies within tolerance of target,
// bounds included.
func WithinTolerance(value, target, tolerance float64) bool {
	return math.Abs(value-target) <= tolerance
}
