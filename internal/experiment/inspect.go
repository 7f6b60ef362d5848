package experiment

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/fxsim/internal/analysis"
	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/mat"
)

// Inspection summarises whether a covariance matrix can drive a simulation.
type Inspection struct {
	Dim         int
	Symmetric   bool
	Eigenvalues []float64
	Condition   float64
	Cholesky    error
	Eigen       error
	Correlation *mat.SymDense
}

// PositiveDefinite reports whether the strict factorization succeeds.
func (in *Inspection) PositiveDefinite() bool { return in.Cholesky == nil }

// Inspect checks a covariance matrix with both factorization methods.
// Only shape errors are returned; numerical failures are recorded.
func Inspect(cov mat.Matrix) (*Inspection, error) {
	if cov == nil {
		return nil, fmt.Errorf("%w: missing covariance matrix", stoch.ErrInvalidDimension)
	}
	r, c := cov.Dims()
	if r != c || r == 0 {
		return nil, fmt.Errorf("%w: covariance is %dx%d", stoch.ErrInvalidDimension, r, c)
	}

	out := &Inspection{Dim: r, Condition: math.Inf(1)}
	if err := stoch.CheckSymmetric(cov); err != nil {
		if errors.Is(err, stoch.ErrInvalidDimension) {
			return nil, err
		}
		out.Cholesky = err
		out.Eigen = err
		return out, nil
	}
	out.Symmetric = true

	sym := stoch.Symmetrize(cov)

	var es mat.EigenSym
	if es.Factorize(sym, false) {
		out.Eigenvalues = es.Values(nil)
	}

	_, out.Cholesky = sampler.Factorize(sym, sampler.Cholesky)
	_, out.Eigen = sampler.Factorize(sym, sampler.Eigen)

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		out.Condition = chol.Cond()
	}

	if corr, err := analysis.Correlation(sym); err == nil {
		out.Correlation = corr
	}
	return out, nil
}
