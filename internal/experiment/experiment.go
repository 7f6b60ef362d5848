package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fxsim/internal/analysis"
	"github.com/san-kum/fxsim/internal/config"
	"github.com/san-kum/fxsim/internal/loader"
	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CurvePoints is the number of grid points of the reference density curve.
const CurvePoints = 1000

// Report is everything a run produces for display or export.
type Report struct {
	Result      *sim.Result
	Labels      []string
	Asset       int
	PathAsset   int
	MuAnnual    float64
	SigmaAnnual float64
	Reference   analysis.LognormalParams
	Terminal    []float64
	Comparison  analysis.Comparison
	Histogram   *analysis.Histogram
	CurveX      []float64
	CurveY      []float64
	Correlation *mat.SymDense
	Elapsed     time.Duration
}

// Label returns the name of an asset, falling back to its index.
func (r *Report) Label(asset int) string {
	if asset >= 0 && asset < len(r.Labels) && r.Labels[asset] != "" {
		return r.Labels[asset]
	}
	return fmt.Sprintf("x%d", asset)
}

type Experiment struct {
	cfg       *config.Config
	log       *slog.Logger
	registry  *Registry
	inputs    stoch.Inputs
	labels    []string
	simulator *sim.Simulator
}

func New(cfg *config.Config, log *slog.Logger) *Experiment {
	return &Experiment{
		cfg:      cfg,
		log:      log,
		registry: NewRegistry(),
	}
}

// Load reads the data files named in the configuration and calls Setup.
func (e *Experiment) Load() error {
	tabs, err := loader.Load(e.cfg.DataFiles.CovarianceMatrix, e.cfg.DataFiles.InitValues)
	if err != nil {
		return err
	}
	e.log.Debug("inputs loaded",
		"covariance", e.cfg.DataFiles.CovarianceMatrix,
		"init_values", e.cfg.DataFiles.InitValues,
		"dim", len(tabs.Initial))
	return e.Setup(tabs, nil)
}

// Setup builds the simulator from loaded tables. Metrics named in the
// configuration are attached after the defaults, then extra.
func (e *Experiment) Setup(tabs *loader.Tables, extra []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	n := len(tabs.Initial)
	drift, err := e.cfg.DriftVector(n)
	if err != nil {
		return err
	}
	if len(e.cfg.Simulation.Mu) < n {
		e.log.Warn("drift padded with zeros", "given", len(e.cfg.Simulation.Mu), "dim", n)
	}

	a := e.cfg.Analysis
	if a.Asset >= n {
		return &stoch.InputError{Field: "analysis.asset", Err: stoch.ErrInvalidDimension, Msg: fmt.Sprintf("asset %d out of range for %d quantities", a.Asset, n)}
	}
	if a.PathAsset >= n {
		return &stoch.InputError{Field: "analysis.path_asset", Err: stoch.ErrInvalidDimension, Msg: fmt.Sprintf("asset %d out of range for %d quantities", a.PathAsset, n)}
	}

	simCfg, err := e.cfg.SimConfig()
	if err != nil {
		return err
	}

	in := stoch.Inputs{Drift: drift, Covariance: tabs.Covariance.Data, Initial: tabs.Initial}
	s, err := sim.New(in, simCfg)
	if err != nil {
		return err
	}

	dt := e.cfg.Simulation.DeltaT
	for _, m := range e.registry.DefaultMetrics(a.Asset, drift[a.Asset]*dt) {
		s.AddMetric(m)
	}
	for i, mc := range e.cfg.Metrics {
		if mc.Asset >= n {
			return &stoch.InputError{Field: fmt.Sprintf("metrics[%d].asset", i), Err: stoch.ErrInvalidDimension, Msg: fmt.Sprintf("asset %d out of range for %d quantities", mc.Asset, n)}
		}
		opts := MetricOptions{Asset: mc.Asset, Step: mc.Step, Threshold: mc.Threshold, Expected: drift[mc.Asset] * dt}
		if opts.Step == 0 {
			opts.Step = 1
		}
		m, err := e.registry.GetMetric(mc.Name, opts)
		if err != nil {
			return err
		}
		s.AddMetric(m)
	}
	for _, m := range extra {
		s.AddMetric(m)
	}

	e.inputs = in
	e.labels = tabs.Labels
	e.simulator = s
	return nil
}

// Run simulates and compares the terminal distribution of the analysis
// asset against its lognormal reference. The context is checked before the
// simulation starts; a started simulation runs to completion.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := e.cfg.Params()
	e.log.Info("simulating",
		"steps", p.Steps,
		"simulations", p.Simulations,
		"delta_t", p.DeltaT,
		"dim", e.simulator.Dim(),
		"mode", e.cfg.Parallel.Mode)

	start := time.Now()
	res, err := e.simulator.Run(p)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	e.log.Info("simulation complete", "seed", res.Seed, "elapsed", elapsed)

	rep, err := e.analyze(res)
	if err != nil {
		return nil, err
	}
	rep.Elapsed = elapsed
	return rep, nil
}

func (e *Experiment) analyze(res *sim.Result) (*Report, error) {
	a := e.cfg.Analysis

	terminal, err := res.Paths.Terminal(a.Asset)
	if err != nil {
		return nil, err
	}

	muA, sigmaA, err := analysis.AnnualizedReference(e.inputs.Drift, e.inputs.Covariance, a.Asset, a.PeriodsPerYear)
	if err != nil {
		return nil, err
	}
	ref, err := analysis.DeriveLognormalParameters(muA, sigmaA, a.V0)
	if err != nil {
		return nil, fmt.Errorf("reference model: %w", err)
	}
	e.log.Debug("reference model", "mu_annual", muA, "sigma_annual", sigmaA, "scale", ref.Scale, "shape", ref.Shape)

	cmp, err := analysis.Compare(terminal, ref)
	if err != nil {
		return nil, err
	}

	hist, err := analysis.NewHistogram(terminal, a.Bins)
	if err != nil {
		return nil, err
	}

	lo, hi := floats.Min(terminal), floats.Max(terminal)
	if lo == hi {
		lo, hi = hist.Range()
	}
	xs, ys, err := analysis.DensityCurve(ref, lo, hi, CurvePoints)
	if err != nil {
		return nil, err
	}

	corr, err := analysis.Correlation(e.inputs.Covariance)
	if err != nil {
		e.log.Warn("correlation matrix unavailable", "err", err)
		corr = nil
	}

	return &Report{
		Result:      res,
		Labels:      e.labels,
		Asset:       a.Asset,
		PathAsset:   a.PathAsset,
		MuAnnual:    muA,
		SigmaAnnual: sigmaA,
		Reference:   ref,
		Terminal:    terminal,
		Comparison:  cmp,
		Histogram:   hist,
		CurveX:      xs,
		CurveY:      ys,
		Correlation: corr,
	}, nil
}

// GetSimulator returns the underlying simulator.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Inputs returns the validated inputs the simulator was built from.
func (e *Experiment) Inputs() stoch.Inputs {
	return e.inputs
}
