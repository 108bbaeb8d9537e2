package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Summary condenses one timing distribution for reports.
type Summary struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	IQM    float64 `json:"iqm"`
	StdDev float64 `json:"stddev"`
	StdErr float64 `json:"stderr"`
	P95    float64 `json:"p95"`
}

// Summarize computes a Summary without reordering xs. Statistics that are
// undefined for the sample size are reported as 0 so the summary stays
// JSON encodable.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), xs...)

	s := Summary{
		N:      len(xs),
		Min:    Min(sorted),
		Mean:   finite(Mean(sorted)),
		IQM:    finite(InterQuartileMean(sorted)),
		StdDev: finite(StandardDeviation(sorted)),
		StdErr: finite(StandardError(sorted)),
		P95:    finite(Percentile(sorted, 0.95)),
	}
	if v, err := mstats.Median(mstats.Float64Data(sorted)); err == nil {
		s.Median = v
	}
	if v, err := mstats.Max(mstats.Float64Data(sorted)); err == nil {
		s.Max = v
	}
	return s
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
