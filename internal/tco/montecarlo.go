package tco

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultMonteCarloTrials = 1000
	MonteCarloLowFactor     = 0.90
	MonteCarloHighFactor    = 1.15
	defaultHistogramBins    = 20
)

// MonteCarlo scales total by an independent U[0.90, 1.15) factor per trial.
// A nil rng draws from the unseeded global source, so results differ between
// runs.
func MonteCarlo(total float64, trials int, rng *rand.Rand) []float64 {
	if trials <= 0 {
		return nil
	}
	draw := rand.Float64
	if rng != nil {
		draw = rng.Float64
	}
	span := MonteCarloHighFactor - MonteCarloLowFactor
	out := make([]float64, trials)
	for i := range out {
		out[i] = total * (MonteCarloLowFactor + span*draw())
	}
	return out
}

// SampleSummary describes a sample set for histogram rendering.
type SampleSummary struct {
	Count    int       `json:"count"`
	Mean     float64   `json:"mean"`
	StdDev   float64   `json:"std_dev"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	P5       float64   `json:"p5"`
	P50      float64   `json:"p50"`
	P95      float64   `json:"p95"`
	BinEdges []float64 `json:"bin_edges"`
	Counts   []float64 `json:"counts"`
}

// SummarizeSamples computes moments, quantiles and an equal-width histogram.
// bins <= 0 uses 20 bins. Non-finite samples yield only the count.
func SummarizeSamples(samples []float64, bins int) SampleSummary {
	if len(samples) == 0 {
		return SampleSummary{}
	}
	if bins <= 0 {
		bins = defaultHistogramBins
	}
	x := append([]float64(nil), samples...)
	sort.Float64s(x)
	// NaN sorts first, so the two ends cover every non-finite case.
	if !isFinite(x[0]) || !isFinite(x[len(x)-1]) {
		return SampleSummary{Count: len(x)}
	}

	s := SampleSummary{
		Count: len(x),
		Mean:  stat.Mean(x, nil),
		Min:   x[0],
		Max:   x[len(x)-1],
		P5:    stat.Quantile(0.05, stat.Empirical, x, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, x, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, x, nil),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	if !isFinite(s.Mean) || !isFinite(s.StdDev) {
		return SampleSummary{Count: len(x)}
	}

	lo, hi := s.Min, s.Max
	if hi <= lo {
		hi = lo + math.Max(1, math.Abs(lo)*1e-9)
	}
	s.BinEdges = make([]float64, bins+1)
	floats.Span(s.BinEdges, lo, hi)
	// Histogram bins are half-open; widen the last edge so Max is counted.
	dividers := append([]float64(nil), s.BinEdges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	s.Counts = stat.Histogram(nil, dividers, x, nil)
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
