// Package automation runs parameter sweeps: the same inputs simulated under
// a series of values of one configuration parameter, recording how the
// empirical terminal distribution tracks the lognormal reference.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/fxsim/internal/config"
	"github.com/san-kum/fxsim/internal/experiment"
	"github.com/san-kum/fxsim/internal/loader"
	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/floats"
)

// Sweepable parameters.
const (
	ParamSimulations = "n_simulations"
	ParamSteps       = "n_steps"
	ParamDeltaT      = "delta_t"
	ParamBlockSize   = "block_size"
)

// ParameterSweep runs one experiment per value of Param.
type ParameterSweep struct {
	Param  string
	Values []float64
}

// SweepResult holds the outcome of one sweep point.
type SweepResult struct {
	Value        float64
	Seed         uint64
	Mean         float64
	Variance     float64
	MeanDiff     float64
	VarianceDiff float64
	Elapsed      time.Duration
}

// NewParameterSweep spans n evenly spaced values over [min, max]. Integer
// parameters are rounded.
func NewParameterSweep(param string, min, max float64, n int) (*ParameterSweep, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one point, got %d", stoch.ErrInvalidParameter, n)
	}
	if max < min {
		return nil, fmt.Errorf("%w: sweep range [%v, %v] is empty", stoch.ErrInvalidParameter, min, max)
	}

	values := []float64{min}
	if n > 1 {
		values = floats.Span(make([]float64, n), min, max)
	}
	if param != ParamDeltaT {
		for i, v := range values {
			values[i] = math.Round(v)
		}
	}

	s := &ParameterSweep{Param: param, Values: values}
	if err := apply(config.DefaultConfig(), param, values[0]); err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes the sweep. Each point uses a copy of base with the swept
// parameter replaced; base itself is not modified.
func (s *ParameterSweep) Run(ctx context.Context, base *config.Config, tabs *loader.Tables, log *slog.Logger) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(s.Values))

	for i, v := range s.Values {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.Info("sweep point", "index", i+1, "of", len(s.Values), "param", s.Param, "value", v)

		cfg := *base
		if base.RandomSeed != nil {
			seed := *base.RandomSeed
			cfg.RandomSeed = &seed
		}
		if err := apply(&cfg, s.Param, v); err != nil {
			return results, err
		}

		exp := experiment.New(&cfg, log)
		if err := exp.Setup(tabs, nil); err != nil {
			return results, fmt.Errorf("point %d setup: %w", i+1, err)
		}
		rep, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("point %d run: %w", i+1, err)
		}

		c := rep.Comparison
		results = append(results, SweepResult{
			Value:        v,
			Seed:         rep.Result.Seed,
			Mean:         c.Empirical.Mean,
			Variance:     c.Empirical.Variance,
			MeanDiff:     c.MeanDiff,
			VarianceDiff: c.VarianceDiff,
			Elapsed:      rep.Elapsed,
		})
	}

	return results, nil
}

func apply(cfg *config.Config, param string, v float64) error {
	switch param {
	case ParamSimulations:
		cfg.Simulation.Simulations = int(v)
	case ParamSteps:
		cfg.Simulation.Steps = int(v)
	case ParamDeltaT:
		cfg.Simulation.DeltaT = v
	case ParamBlockSize:
		cfg.Parallel.BlockSize = int(v)
	default:
		return fmt.Errorf("%w: cannot sweep %q", stoch.ErrInvalidParameter, param)
	}
	return nil
}
