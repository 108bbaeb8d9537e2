// Package stats contains the numeric helpers used to summarise timing
// distributions. All functions operate on float64 slices of milliseconds,
// but nothing here depends on the unit.
package stats

import (
	"math"
	"sort"
)

// integerTolerance is how close len(xs)*p must be to an integer for
// Percentile to treat it as one.
const integerTolerance = 1e-4

// Sum returns the sum of xs, 0 for an empty slice.
func Sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

// Mean returns the arithmetic mean of xs, NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return Sum(xs) / float64(len(xs))
}

// Min returns the smallest value of xs, +Inf for an empty slice.
func Min(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

// Percentile returns the CDF based p-quantile of xs. xs is sorted in place.
//
// With np = len(xs)*p, an integer np yields the average of the np-th and
// (np+1)-th smallest values, otherwise the ceil(np)-th smallest value is
// returned (positions are 1-indexed and clamped to the sample).
func Percentile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(xs)

	np := float64(n) * p
	if math.Abs(np-math.Round(np)) < integerTolerance {
		lo := position(math.Ceil(np), n)
		hi := position(math.Floor(np+1), n)
		return (xs[lo] + xs[hi]) / 2
	}
	return xs[position(math.Ceil(np), n)]
}

// position converts a 1-indexed position into a slice index inside [0, n).
func position(pos float64, n int) int {
	i := int(pos) - 1
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Quartile returns the q-th quartile of xs for q in 0..4. xs is sorted in place.
func Quartile(xs []float64, q int) float64 {
	return Percentile(xs, 0.25*float64(q))
}

// StandardDeviation returns the corrected sample standard deviation
// (n-1 denominator). NaN for fewer than two values.
func StandardDeviation(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(xs)
	var squares float64
	for _, x := range xs {
		squares += (x - mean) * (x - mean)
	}
	return math.Sqrt(squares / float64(n-1))
}

// StandardError returns StandardDeviation(xs) / sqrt(len(xs)).
func StandardError(xs []float64) float64 {
	return StandardDeviation(xs) / math.Sqrt(float64(len(xs)))
}

// InterQuartileMean returns the mean of the central half of xs. When
// len(xs) is not a multiple of four the two boundary values of the central
// slice contribute fractionally, so that exactly len(xs)/2 values worth of
// weight are averaged. xs is sorted in place.
func InterQuartileMean(xs []float64) float64 {
	n := len(xs)
	switch n {
	case 0:
		return math.NaN()
	case 1:
		return xs[0]
	}
	sort.Float64s(xs)

	q := n / 4
	if n%4 == 0 {
		return Mean(xs[q : n-q])
	}

	central := xs[q : n-q]
	iqrSpan := float64(n) / 4 * 2
	fullCount := float64(len(central) - 2)
	fraction := (iqrSpan - fullCount) / 2

	sum := Sum(central[1:len(central)-1]) + fraction*(central[0]+central[len(central)-1])
	return sum / iqrSpan
}

// Round rounds x to precision decimal digits, halves rounding up.
func Round(x float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Floor(x*scale+0.5) / scale
}
