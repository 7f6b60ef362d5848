// Package sampler draws jointly correlated Gaussian increments.
//
// A Sampler factors sigma·dt once and reuses the factor for every draw, so
// the O(n³) cost is paid once per (covariance, dt) pair. Random numbers come
// from a caller-owned generator that is passed to every call.
package sampler

import (
	"fmt"

	"github.com/san-kum/fxsim/internal/stoch"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Sampler produces increments with mean mu·dt and covariance sigma·dt.
type Sampler struct {
	n      int
	dt     float64
	drift  []float64
	factor *Factor
}

// New validates the inputs and factors sigma·dt.
func New(mu []float64, sigma mat.Matrix, dt float64, method Method) (*Sampler, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: delta_t must be positive, got %v", stoch.ErrInvalidParameter, dt)
	}
	if sigma == nil {
		return nil, fmt.Errorf("%w: missing covariance matrix", stoch.ErrInvalidDimension)
	}
	if err := stoch.CheckSymmetric(sigma); err != nil {
		return nil, err
	}
	n, _ := sigma.Dims()
	if len(mu) != n {
		return nil, fmt.Errorf("%w: drift has %d elements, covariance is %dx%d", stoch.ErrInvalidDimension, len(mu), n, n)
	}

	scaled := stoch.Symmetrize(sigma)
	scaled.ScaleSym(dt, scaled)

	factor, err := Factorize(scaled, method)
	if err != nil {
		return nil, err
	}

	drift := make([]float64, n)
	for i, m := range mu {
		drift[i] = m * dt
	}

	return &Sampler{n: n, dt: dt, drift: drift, factor: factor}, nil
}

// Dim returns the number of correlated components per draw.
func (s *Sampler) Dim() int { return s.n }

// DeltaT returns the time increment the factor was scaled by.
func (s *Sampler) DeltaT() float64 { return s.dt }

// Factor returns the shared factor of sigma·dt.
func (s *Sampler) Factor() *Factor { return s.factor }

// Mean returns a copy of mu·dt.
func (s *Sampler) Mean() []float64 {
	return append([]float64(nil), s.drift...)
}

// Draw writes one correlated increment into dst. z is scratch space of
// length Dim and is overwritten with the standard normals used.
func (s *Sampler) Draw(rng *rand.Rand, dst, z []float64) {
	for i := range z[:s.n] {
		z[i] = rng.NormFloat64()
	}
	s.factor.MulVecAdd(dst, s.drift, z)
}

// Sample draws a batch of independent increments, one per row.
func (s *Sampler) Sample(rng *rand.Rand, batch int) (*mat.Dense, error) {
	if batch < 1 {
		return nil, fmt.Errorf("%w: batch size must be >= 1, got %d", stoch.ErrInvalidParameter, batch)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil generator", stoch.ErrInvalidParameter)
	}

	out := mat.NewDense(batch, s.n, nil)
	raw := out.RawMatrix()
	z := make([]float64, s.n)
	for b := 0; b < batch; b++ {
		row := raw.Data[b*raw.Stride : b*raw.Stride+s.n]
		s.Draw(rng, row, z)
	}
	return out, nil
}
