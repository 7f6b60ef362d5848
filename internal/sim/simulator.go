// Package sim accumulates correlated random-walk paths.
//
// A Simulator owns its generator. Each Run draws n_steps batches of
// increments from a sampler built once for the run's delta_t and adds them
// to the previous column of a pre-sized PathTensor:
//
//	X[:, :, 0] = initial
//	X[:, :, t] = X[:, :, t-1] + increment_t
//
// The model is additive; no exponential or logarithm is applied.
//
// Simulator instances are NOT safe for concurrent use. ModeSplit runs blocks
// concurrently inside a single Run.
package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/stoch"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type Simulator struct {
	drift   []float64
	cov     *mat.SymDense
	initial []float64
	cfg     Config
	seed    uint64
	rng     *rand.Rand
	cached  *sampler.Sampler
	metrics []Metric
}

// New validates the inputs and seeds the simulator's generator.
func New(in stoch.Inputs, cfg Config) (*Simulator, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = uint64(time.Now().UnixNano())
	}

	return &Simulator{
		drift:   append([]float64(nil), in.Drift...),
		cov:     stoch.Symmetrize(in.Covariance),
		initial: append([]float64(nil), in.Initial...),
		cfg:     cfg,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		metrics: make([]Metric, 0),
	}, nil
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Seed returns the seed the generator was last seeded with.
func (s *Simulator) Seed() uint64 { return s.seed }

// Dim returns the number of tracked quantities.
func (s *Simulator) Dim() int { return len(s.initial) }

// Reseed resets the generator so the next Run starts a fresh stream.
func (s *Simulator) Reseed(seed uint64) {
	s.seed = seed
	s.rng = rand.New(rand.NewSource(seed))
}

// Sampler returns the sampler for dt, reusing the previous factorization
// when dt is unchanged.
func (s *Simulator) Sampler(dt float64) (*sampler.Sampler, error) {
	if s.cached != nil && s.cached.DeltaT() == dt {
		return s.cached, nil
	}
	smp, err := sampler.New(s.drift, s.cov, dt, s.cfg.Factorization)
	if err != nil {
		return nil, err
	}
	s.cached = smp
	return smp, nil
}

// Run simulates p.Simulations paths of p.Steps steps. All inputs are
// validated and the covariance factored before any draw; on error no tensor
// is returned. Consecutive runs continue the same generator stream.
func (s *Simulator) Run(p stoch.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	smp, err := s.Sampler(p.DeltaT)
	if err != nil {
		return nil, err
	}

	paths, err := newPathTensor(p.Simulations, len(s.initial), p.Steps)
	if err != nil {
		return nil, err
	}
	for sim := 0; sim < paths.sims; sim++ {
		for a, x0 := range s.initial {
			paths.data[paths.offset(sim, a)] = x0
		}
	}

	switch s.cfg.Mode {
	case ModeSplit:
		s.runSplit(smp, paths)
	default:
		s.runSerial(smp, paths)
	}

	result := &Result{
		Paths:         paths,
		Params:        p,
		Seed:          s.seed,
		Mode:          s.cfg.Mode,
		Factorization: smp.Factor().Method(),
		Metrics:       make(map[string]float64, len(s.metrics)),
	}

	for _, m := range s.metrics {
		v, err := m.Value(paths)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Name(), err)
		}
		result.Metrics[m.Name()] = v
	}

	return result, nil
}

func (s *Simulator) runSerial(smp *sampler.Sampler, paths *PathTensor) {
	accumulate(smp, s.rng, paths, 0, paths.sims, make([]float64, paths.assets), make([]float64, paths.assets))
}

// accumulate fills simulations [from, to) for every step, drawing one
// increment per simulation per step from rng in step-major order.
func accumulate(smp *sampler.Sampler, rng *rand.Rand, paths *PathTensor, from, to int, inc, z []float64) {
	for t := 1; t < paths.points; t++ {
		for sim := from; sim < to; sim++ {
			smp.Draw(rng, inc, z)
			for a, d := range inc {
				off := paths.offset(sim, a) + t
				paths.data[off] = paths.data[off-1] + d
			}
		}
	}
}
