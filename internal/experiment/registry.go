package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fxsim/internal/metrics"
	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
)

// MetricOptions parameterises a metric factory. Expected is the mean
// increment mu·dt of Asset.
type MetricOptions struct {
	Asset     int
	Step      int
	Threshold float64
	Expected  float64
}

// Registry maps metric names to factories.
type Registry struct {
	metrics map[string]func(MetricOptions) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(MetricOptions) sim.Metric),
	}

	r.metrics["increment_mean"] = func(s MetricOptions) sim.Metric {
		return metrics.NewIncrementMean(s.Asset, s.Step)
	}
	r.metrics["increment_stderr"] = func(s MetricOptions) sim.Metric {
		return metrics.NewIncrementStdErr(s.Asset, s.Step)
	}
	r.metrics["increment_z"] = func(s MetricOptions) sim.Metric {
		return metrics.NewIncrementZScore(s.Asset, s.Step, s.Expected)
	}
	r.metrics["terminal_mean"] = func(s MetricOptions) sim.Metric {
		return metrics.NewTerminalMean(s.Asset)
	}
	r.metrics["stability"] = func(s MetricOptions) sim.Metric {
		return metrics.NewStability(s.Asset, s.Threshold)
	}

	return r
}

func (r *Registry) GetMetric(name string, opts MetricOptions) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q (available: %v)", stoch.ErrInvalidParameter, name, r.ListMetrics())
	}
	return fn(opts), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics reported after every run: the mean,
// standard error and z-score of the first increment and the terminal mean
// of asset. expected is the asset's mean increment mu·dt.
func (r *Registry) DefaultMetrics(asset int, expected float64) []sim.Metric {
	return []sim.Metric{
		metrics.NewIncrementMean(asset, 1),
		metrics.NewIncrementStdErr(asset, 1),
		metrics.NewIncrementZScore(asset, 1, expected),
		metrics.NewTerminalMean(asset),
	}
}
