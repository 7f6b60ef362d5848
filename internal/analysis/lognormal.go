package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultV0 is the starting value assumed by the reference model.
const DefaultV0 = 1.0

// LognormalParams describes a lognormal variable with location 0:
// log(X) ~ N(log(Scale), Shape²).
type LognormalParams struct {
	Scale float64 `json:"scale" yaml:"scale"`
	Shape float64 `json:"shape" yaml:"shape"`
}

// DeriveLognormalParameters models the terminal value of a geometric process
// with annualised drift muAnnual and volatility sigmaAnnual started at v0.
func DeriveLognormalParameters(muAnnual, sigmaAnnual, v0 float64) (LognormalParams, error) {
	if !(v0 > 0) || math.IsInf(v0, 0) {
		return LognormalParams{}, fmt.Errorf("%w: V0 must be positive, got %v", stoch.ErrInvalidParameter, v0)
	}
	if !(sigmaAnnual > 0) || math.IsInf(sigmaAnnual, 0) {
		return LognormalParams{}, fmt.Errorf("%w: sigma_annual must be positive, got %v", stoch.ErrInvalidParameter, sigmaAnnual)
	}
	if math.IsNaN(muAnnual) || math.IsInf(muAnnual, 0) {
		return LognormalParams{}, fmt.Errorf("%w: mu_annual must be finite, got %v", stoch.ErrInvalidParameter, muAnnual)
	}
	p := LognormalParams{Scale: v0 * math.Exp(muAnnual), Shape: sigmaAnnual}
	if err := p.Validate(); err != nil {
		return LognormalParams{}, err
	}
	return p, nil
}

// Validate checks that scale and shape are positive and finite.
func (p LognormalParams) Validate() error {
	if !(p.Scale > 0) || math.IsInf(p.Scale, 0) {
		return fmt.Errorf("%w: scale must be positive and finite, got %v", stoch.ErrInvalidParameter, p.Scale)
	}
	if !(p.Shape > 0) || math.IsInf(p.Shape, 0) {
		return fmt.Errorf("%w: shape must be positive and finite, got %v", stoch.ErrInvalidParameter, p.Shape)
	}
	return nil
}

func (p LognormalParams) dist() distuv.LogNormal {
	return distuv.LogNormal{Mu: math.Log(p.Scale), Sigma: p.Shape}
}

// Density evaluates the pdf at x. It is 0 for x <= 0.
func (p LognormalParams) Density(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return p.dist().Prob(x)
}

// Mean returns scale·exp(shape²/2).
func (p LognormalParams) Mean() float64 {
	return p.Scale * math.Exp(p.Shape*p.Shape/2)
}

// Variance returns scale²·(exp(shape²) − 1)·exp(shape²).
func (p LognormalParams) Variance() float64 {
	s2 := p.Shape * p.Shape
	return p.Scale * p.Scale * (math.Exp(s2) - 1) * math.Exp(s2)
}

// Median returns scale.
func (p LognormalParams) Median() float64 { return p.Scale }

// LognormalDensity is the lenient pointwise pdf: 0 outside the support.
func LognormalDensity(x float64, p LognormalParams) float64 {
	return p.Density(x)
}

// LognormalDensityStrict returns ErrDomain for x <= 0.
func LognormalDensityStrict(x float64, p LognormalParams) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !(x > 0) {
		return 0, fmt.Errorf("%w: lognormal density undefined at x=%v", stoch.ErrDomain, x)
	}
	return p.dist().Prob(x), nil
}

// DensityCurve evaluates the pdf on n evenly spaced points in [lo, hi].
func DensityCurve(p LognormalParams, lo, hi float64, n int) (xs, ys []float64, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 points, got %d", stoch.ErrInvalidParameter, n)
	}
	if !(hi > lo) {
		return nil, nil, fmt.Errorf("%w: empty interval [%v, %v]", stoch.ErrInvalidParameter, lo, hi)
	}
	xs = floats.Span(make([]float64, n), lo, hi)
	ys = make([]float64, n)
	for i, x := range xs {
		ys[i] = p.Density(x)
	}
	return xs, ys, nil
}

// DensityMass integrates the pdf over [lo, hi] with the trapezoidal rule on
// n points.
func DensityMass(p LognormalParams, lo, hi float64, n int) (float64, error) {
	xs, ys, err := DensityCurve(p, lo, hi, n)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(xs, ys), nil
}

// AnnualizedReference derives the reference inputs for one asset:
// mu_annual = mu[asset]·periodsPerYear and sigma_annual = sqrt(cov[asset, asset]).
func AnnualizedReference(mu []float64, cov mat.Matrix, asset int, periodsPerYear float64) (muAnnual, sigmaAnnual float64, err error) {
	if cov == nil {
		return 0, 0, fmt.Errorf("%w: missing covariance matrix", stoch.ErrInvalidDimension)
	}
	r, c := cov.Dims()
	if asset < 0 || asset >= len(mu) || asset >= r || asset >= c {
		return 0, 0, fmt.Errorf("%w: asset %d out of range for %d drifts and %dx%d covariance", stoch.ErrInvalidDimension, asset, len(mu), r, c)
	}
	if !(periodsPerYear > 0) {
		return 0, 0, fmt.Errorf("%w: periods per year must be positive, got %v", stoch.ErrInvalidParameter, periodsPerYear)
	}
	v := cov.At(asset, asset)
	if v < 0 {
		return 0, 0, fmt.Errorf("%w: negative variance %v for asset %d", stoch.ErrInvalidParameter, v, asset)
	}
	return mu[asset] * periodsPerYear, math.Sqrt(v), nil
}
