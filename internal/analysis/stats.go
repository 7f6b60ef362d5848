package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/stat"
)

// SummaryStatistics describes a sample. Variance is the population variance
// and Kurtosis is excess kurtosis (0 for a normal distribution). Skewness and
// Kurtosis are NaN for a constant sample.
type SummaryStatistics struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	N        int     `json:"n"`
}

// Summarize computes SummaryStatistics using biased (divide by n) moments.
func Summarize(sample []float64) (SummaryStatistics, error) {
	if len(sample) == 0 {
		return SummaryStatistics{}, fmt.Errorf("%w: empty sample", stoch.ErrInvalidParameter)
	}

	mean, variance := stat.PopMeanVariance(sample, nil)
	m3 := stat.Moment(3, sample, nil)
	m4 := stat.Moment(4, sample, nil)

	skew, kurt := math.NaN(), math.NaN()
	if variance > 0 {
		skew = m3 / math.Pow(variance, 1.5)
		kurt = m4/(variance*variance) - 3
	}

	return SummaryStatistics{
		Mean:     mean,
		Variance: variance,
		Median:   Median(sample),
		StdDev:   math.Sqrt(variance),
		Skewness: skew,
		Kurtosis: kurt,
		N:        len(sample),
	}, nil
}

// Median returns the middle value, averaging the two middle values for an
// even-length sample. The input is not modified.
func Median(sample []float64) float64 {
	n := len(sample)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
