package sampler

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/mat"
)

// Method selects how a covariance matrix is factored.
type Method int

const (
	// Cholesky is the strict decomposition. It fails on any matrix that is
	// not numerically positive definite, including exact zero eigenvalues.
	Cholesky Method = iota

	// Eigen factors through the symmetric eigendecomposition V·sqrt(Λ).
	// Zero eigenvalues, and negative ones within EigenTol of zero, are
	// clipped to zero. Opt-in only.
	Eigen
)

const (
	// StrictCondLimit is the largest condition number a strict Cholesky
	// factor may have before the matrix is treated as singular.
	StrictCondLimit = 1e14

	// EigenTol is the relative tolerance below zero accepted for an
	// eigenvalue before the matrix is rejected as indefinite.
	EigenTol = 1e-10
)

func (m Method) String() string {
	switch m {
	case Cholesky:
		return "cholesky"
	case Eigen:
		return "eigen"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cholesky", "strict":
		return Cholesky, nil
	case "eigen", "eig":
		return Eigen, nil
	default:
		return 0, fmt.Errorf("%w: unknown factorization %q", stoch.ErrInvalidParameter, name)
	}
}

// Factor is a square matrix F with F·Fᵗ equal to the factored covariance.
// It is read-only after construction and safe for concurrent use.
type Factor struct {
	n      int
	data   []float64 // row-major n×n
	lower  bool
	method Method
}

// Factorize computes F for cov using the given method.
func Factorize(cov mat.Symmetric, method Method) (*Factor, error) {
	switch method {
	case Cholesky:
		return factorCholesky(cov)
	case Eigen:
		return factorEigen(cov)
	default:
		return nil, fmt.Errorf("%w: unknown factorization %v", stoch.ErrInvalidParameter, method)
	}
}

func factorCholesky(cov mat.Symmetric) (*Factor, error) {
	n := cov.SymmetricDim()

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, fmt.Errorf("%w: matrix is not positive definite", stoch.ErrSingularCovariance)
	}
	if c := chol.Cond(); math.IsInf(c, 1) || math.IsNaN(c) || c > StrictCondLimit {
		return nil, fmt.Errorf("%w: condition number %.3g exceeds %.0g", stoch.ErrSingularCovariance, c, StrictCondLimit)
	}

	L := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(L)

	f := &Factor{n: n, data: make([]float64, n*n), lower: true, method: Cholesky}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			f.data[i*n+j] = L.At(i, j)
		}
	}
	return f, nil
}

func factorEigen(cov mat.Symmetric) (*Factor, error) {
	n := cov.SymmetricDim()

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition did not converge", stoch.ErrSingularCovariance)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	maxAbs := 0.0
	for _, v := range vals {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	tol := EigenTol * math.Max(1, maxAbs)

	roots := make([]float64, n)
	for k, v := range vals {
		if v < -tol {
			return nil, fmt.Errorf("%w: negative eigenvalue %g", stoch.ErrSingularCovariance, v)
		}
		roots[k] = math.Sqrt(math.Max(v, 0))
	}

	f := &Factor{n: n, data: make([]float64, n*n), method: Eigen}
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			f.data[i*n+k] = vecs.At(i, k) * roots[k]
		}
	}
	return f, nil
}

// Dim returns the matrix dimension.
func (f *Factor) Dim() int { return f.n }

// Method returns the decomposition that produced f.
func (f *Factor) Method() Method { return f.method }

// Matrix returns a copy of F.
func (f *Factor) Matrix() *mat.Dense {
	return mat.NewDense(f.n, f.n, append([]float64(nil), f.data...))
}

// MulVecAdd sets dst[i] = base[i] + (F·z)[i].
func (f *Factor) MulVecAdd(dst, base, z []float64) {
	n := f.n
	for i := 0; i < n; i++ {
		row := f.data[i*n : (i+1)*n]
		end := n
		if f.lower {
			end = i + 1
		}
		sum := base[i]
		for j := 0; j < end; j++ {
			sum += row[j] * z[j]
		}
		dst[i] = sum
	}
}
