package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Comparison puts the empirical statistics of a sample next to the closed-form
// moments of the lognormal reference.
type Comparison struct {
	Params             LognormalParams   `json:"params"`
	Empirical          SummaryStatistics `json:"empirical"`
	AnalyticalMean     float64           `json:"analytical_mean"`
	AnalyticalVariance float64           `json:"analytical_variance"`
	AnalyticalMedian   float64           `json:"analytical_median"`
	MeanDiff           float64           `json:"mean_diff"`
	VarianceDiff       float64           `json:"variance_diff"`
}

func Compare(sample []float64, p LognormalParams) (Comparison, error) {
	if err := p.Validate(); err != nil {
		return Comparison{}, err
	}
	emp, err := Summarize(sample)
	if err != nil {
		return Comparison{}, err
	}
	c := Comparison{
		Params:             p,
		Empirical:          emp,
		AnalyticalMean:     p.Mean(),
		AnalyticalVariance: p.Variance(),
		AnalyticalMedian:   p.Median(),
	}
	c.MeanDiff = emp.Mean - c.AnalyticalMean
	c.VarianceDiff = emp.Variance - c.AnalyticalVariance
	return c, nil
}

// Correlation converts a covariance matrix to a correlation matrix.
func Correlation(cov mat.Matrix) (*mat.SymDense, error) {
	if err := stoch.CheckSymmetric(cov); err != nil {
		return nil, err
	}
	n, _ := cov.Dims()
	sd := make([]float64, n)
	for i := range sd {
		v := cov.At(i, i)
		if !(v > 0) {
			return nil, fmt.Errorf("%w: variance of component %d is %v", stoch.ErrInvalidParameter, i, v)
		}
		sd[i] = math.Sqrt(v)
	}
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				corr.SetSym(i, j, 1)
				continue
			}
			corr.SetSym(i, j, cov.At(i, j)/(sd[i]*sd[j]))
		}
	}
	return corr, nil
}

// EmpiricalCorrelation estimates the correlation between the columns of x.
func EmpiricalCorrelation(x mat.Matrix) (*mat.SymDense, error) {
	r, c := x.Dims()
	if r < 2 || c < 1 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %dx%d", stoch.ErrInvalidParameter, r, c)
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)
	return &corr, nil
}
