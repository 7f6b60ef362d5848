package sim

import (
	"fmt"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/mat"
)

// PathTensor is the full set of simulated trajectories with shape
// (simulations, assets, steps+1). It has no mutating methods; every
// accessor returns copies.
type PathTensor struct {
	sims   int
	assets int
	points int
	data   []float64 // index ((sim*assets)+asset)*points + t
}

func newPathTensor(sims, assets, steps int) (*PathTensor, error) {
	points := steps + 1
	total := sims * assets * points
	if sims <= 0 || assets <= 0 || points <= 1 || total/sims/assets != points {
		return nil, fmt.Errorf("%w: tensor shape (%d, %d, %d) is not representable", stoch.ErrInvalidParameter, sims, assets, points)
	}
	return &PathTensor{
		sims:   sims,
		assets: assets,
		points: points,
		data:   make([]float64, total),
	}, nil
}

func (p *PathTensor) offset(sim, asset int) int {
	return (sim*p.assets + asset) * p.points
}

// Shape returns (simulations, assets, steps+1).
func (p *PathTensor) Shape() (sims, assets, points int) {
	return p.sims, p.assets, p.points
}

// Steps returns the number of time steps after the initial point.
func (p *PathTensor) Steps() int { return p.points - 1 }

// At returns X[sim, asset, t]. It panics on an out-of-range index.
func (p *PathTensor) At(sim, asset, t int) float64 {
	if sim < 0 || sim >= p.sims || asset < 0 || asset >= p.assets || t < 0 || t >= p.points {
		panic(fmt.Sprintf("sim: index (%d, %d, %d) out of range for shape (%d, %d, %d)", sim, asset, t, p.sims, p.assets, p.points))
	}
	return p.data[p.offset(sim, asset)+t]
}

// Path returns a copy of one trajectory X[sim, asset, :].
func (p *PathTensor) Path(sim, asset int) ([]float64, error) {
	if sim < 0 || sim >= p.sims {
		return nil, fmt.Errorf("%w: simulation %d out of range [0, %d)", stoch.ErrInvalidDimension, sim, p.sims)
	}
	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}
	off := p.offset(sim, asset)
	return append([]float64(nil), p.data[off:off+p.points]...), nil
}

// Series returns X[:, asset, :] as a simulations × (steps+1) matrix.
func (p *PathTensor) Series(asset int) (*mat.Dense, error) {
	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}
	out := mat.NewDense(p.sims, p.points, nil)
	for s := 0; s < p.sims; s++ {
		off := p.offset(s, asset)
		out.SetRow(s, p.data[off:off+p.points])
	}
	return out, nil
}

// LogSeries selects X[:, asset, :] under its conventional name for
// quantities stored as log-levels. It is the same selection as Series: no
// logarithm or exponential is applied.
func (p *PathTensor) LogSeries(asset int) (*mat.Dense, error) {
	return p.Series(asset)
}

// Column returns X[:, asset, t].
func (p *PathTensor) Column(asset, t int) ([]float64, error) {
	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}
	if t < 0 || t >= p.points {
		return nil, fmt.Errorf("%w: step %d out of range [0, %d]", stoch.ErrInvalidDimension, t, p.points-1)
	}
	out := make([]float64, p.sims)
	for s := range out {
		out[s] = p.data[p.offset(s, asset)+t]
	}
	return out, nil
}

// Terminal returns X[:, asset, steps].
func (p *PathTensor) Terminal(asset int) ([]float64, error) {
	return p.Column(asset, p.points-1)
}

// Increments returns X[:, asset, t] - X[:, asset, t-1] for t >= 1.
func (p *PathTensor) Increments(asset, t int) ([]float64, error) {
	if err := p.checkAsset(asset); err != nil {
		return nil, err
	}
	if t < 1 || t >= p.points {
		return nil, fmt.Errorf("%w: step %d out of range [1, %d]", stoch.ErrInvalidDimension, t, p.points-1)
	}
	out := make([]float64, p.sims)
	for s := range out {
		off := p.offset(s, asset)
		out[s] = p.data[off+t] - p.data[off+t-1]
	}
	return out, nil
}

// Step returns X[:, :, t] as a simulations × assets matrix.
func (p *PathTensor) Step(t int) (*mat.Dense, error) {
	if t < 0 || t >= p.points {
		return nil, fmt.Errorf("%w: step %d out of range [0, %d]", stoch.ErrInvalidDimension, t, p.points-1)
	}
	out := mat.NewDense(p.sims, p.assets, nil)
	for s := 0; s < p.sims; s++ {
		for a := 0; a < p.assets; a++ {
			out.Set(s, a, p.data[p.offset(s, a)+t])
		}
	}
	return out, nil
}

// Equal reports whether both tensors have the same shape and bit-identical values.
func (p *PathTensor) Equal(o *PathTensor) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.sims != o.sims || p.assets != o.assets || p.points != o.points {
		return false
	}
	for i, v := range p.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}

func (p *PathTensor) checkAsset(asset int) error {
	if asset < 0 || asset >= p.assets {
		return fmt.Errorf("%w: asset %d out of range [0, %d)", stoch.ErrInvalidDimension, asset, p.assets)
	}
	return nil
}
