package stoch

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SymmetryTol is the relative tolerance used when checking a covariance
// matrix for symmetry.
const SymmetryTol = 1e-9

// Inputs holds the structural inputs of a simulation. Drift is per unit of
// time; it is scaled by the time increment at sampling.
type Inputs struct {
	Drift      []float64
	Covariance mat.Matrix
	Initial    []float64
}

// Dim returns the number of tracked quantities.
func (in Inputs) Dim() int {
	return len(in.Initial)
}

// Validate checks that all sizes agree and the covariance is square and symmetric.
func (in Inputs) Validate() error {
	if in.Covariance == nil {
		return inputErr("covariance", ErrInvalidDimension, "missing covariance matrix")
	}
	r, c := in.Covariance.Dims()
	if r != c {
		return inputErr("covariance", ErrInvalidDimension, "matrix is %dx%d, expected square", r, c)
	}
	if r == 0 {
		return inputErr("covariance", ErrInvalidDimension, "empty matrix")
	}
	if len(in.Initial) != r {
		return inputErr("initial", ErrInvalidDimension, "got %d values for %dx%d covariance", len(in.Initial), r, c)
	}
	if len(in.Drift) != r {
		return inputErr("drift", ErrInvalidDimension, "got %d values for %dx%d covariance", len(in.Drift), r, c)
	}
	if err := CheckSymmetric(in.Covariance); err != nil {
		return err
	}
	for i, v := range in.Drift {
		if !finite(v) {
			return inputErr("drift", ErrInvalidParameter, "element %d is %v", i, v)
		}
	}
	for i, v := range in.Initial {
		if !finite(v) {
			return inputErr("initial", ErrInvalidParameter, "element %d is %v", i, v)
		}
	}
	return nil
}

// CheckSymmetric reports whether m is symmetric within SymmetryTol and free
// of NaN/Inf entries.
func CheckSymmetric(m mat.Matrix) error {
	n, c := m.Dims()
	if n != c {
		return inputErr("covariance", ErrInvalidDimension, "matrix is %dx%d, expected square", n, c)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := m.At(i, j)
			if !finite(a) {
				return inputErr("covariance", ErrInvalidParameter, "entry (%d,%d) is %v", i, j, a)
			}
			if j <= i {
				continue
			}
			b := m.At(j, i)
			scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
			if math.Abs(a-b) > SymmetryTol*scale {
				return inputErr("covariance", ErrInvalidParameter, "entries (%d,%d)=%g and (%d,%d)=%g differ", i, j, a, j, i, b)
			}
		}
	}
	return nil
}

// Symmetrize copies a validated square matrix into a SymDense.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}
	return s
}

// Params holds the per-run simulation parameters.
type Params struct {
	Steps       int
	Simulations int
	DeltaT      float64
}

// Validate checks Steps, Simulations and DeltaT.
func (p Params) Validate() error {
	if p.Steps < 1 {
		return inputErr("n_steps", ErrInvalidParameter, "must be >= 1, got %d", p.Steps)
	}
	if p.Simulations < 1 {
		return inputErr("n_simulations", ErrInvalidParameter, "must be >= 1, got %d", p.Simulations)
	}
	if !(p.DeltaT > 0) || math.IsInf(p.DeltaT, 0) {
		return inputErr("delta_t", ErrInvalidParameter, "must be positive and finite, got %v", p.DeltaT)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
