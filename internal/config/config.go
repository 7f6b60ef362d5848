package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSteps          = 52
	DefaultSimulations    = 1000
	DefaultDeltaT         = 1.0
	DefaultAsset          = 1
	DefaultPeriodsPerYear = 52.0
	DefaultBins           = 100
	DefaultFormat         = "svg"
)

type Config struct {
	DataFiles     DataFiles            `yaml:"data_files"`
	Simulation    SimulationParameters `yaml:"simulation_parameters"`
	RandomSeed    *uint64              `yaml:"random_seed,omitempty"`
	PadDrift      bool                 `yaml:"pad_drift"`
	Factorization string               `yaml:"factorization"`
	Parallel      ParallelConfig       `yaml:"parallel"`
	Analysis      AnalysisConfig       `yaml:"analysis"`
	Output        OutputConfig         `yaml:"output"`
	Metrics       []MetricConfig       `yaml:"metrics,omitempty"`
}

type DataFiles struct {
	CovarianceMatrix string `yaml:"covariance_matrix"`
	InitValues       string `yaml:"init_values"`
}

type SimulationParameters struct {
	Mu          []float64 `yaml:"mu"`
	Steps       int       `yaml:"n_steps"`
	Simulations int       `yaml:"n_simulations"`
	DeltaT      float64   `yaml:"delta_t"`
}

type ParallelConfig struct {
	Mode      string `yaml:"mode"`
	Workers   int    `yaml:"workers"`
	BlockSize int    `yaml:"block_size"`
}

// AnalysisConfig selects the quantities examined after a run. Asset is
// compared against the lognormal reference; PathAsset is the one plotted.
type AnalysisConfig struct {
	Asset          int     `yaml:"asset"`
	PathAsset      int     `yaml:"path_asset"`
	PeriodsPerYear float64 `yaml:"periods_per_year"`
	V0             float64 `yaml:"v0"`
	Bins           int     `yaml:"bins"`
}

// OutputConfig controls image export. An empty Dir disables it.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// MetricConfig requests an extra metric by registry name. A zero Step
// means the first increment.
type MetricConfig struct {
	Name      string  `yaml:"name"`
	Asset     int     `yaml:"asset"`
	Step      int     `yaml:"step"`
	Threshold float64 `yaml:"threshold"`
}

// ParseMetric reads "name" or "name:asset[,step[,threshold]]".
func ParseMetric(s string) (MetricConfig, error) {
	name, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	m := MetricConfig{Name: strings.TrimSpace(name)}
	if m.Name == "" {
		return m, field("metrics", stoch.ErrInvalidParameter, "empty metric name in %q", s)
	}
	if args == "" {
		return m, nil
	}
	parts := strings.Split(args, ",")
	if len(parts) > 3 {
		return m, field("metrics", stoch.ErrInvalidParameter, "too many arguments in %q", s)
	}
	var err error
	if m.Asset, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return m, field("metrics", stoch.ErrInvalidParameter, "bad asset in %q", s)
	}
	if len(parts) > 1 {
		if m.Step, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
			return m, field("metrics", stoch.ErrInvalidParameter, "bad step in %q", s)
		}
	}
	if len(parts) > 2 {
		if m.Threshold, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
			return m, field("metrics", stoch.ErrInvalidParameter, "bad threshold in %q", s)
		}
	}
	return m, nil
}

func DefaultConfig() *Config {
	return &Config{
		DataFiles: DataFiles{
			CovarianceMatrix: "data/covariance_matrix.csv",
			InitValues:       "data/init_values.csv",
		},
		Simulation: SimulationParameters{
			Steps:       DefaultSteps,
			Simulations: DefaultSimulations,
			DeltaT:      DefaultDeltaT,
		},
		Factorization: sampler.Cholesky.String(),
		Parallel: ParallelConfig{
			Mode:      sim.ModeSerial.String(),
			BlockSize: sim.DefaultBlockSize,
		},
		Analysis: AnalysisConfig{
			Asset:          DefaultAsset,
			PeriodsPerYear: DefaultPeriodsPerYear,
			V0:             1.0,
			Bins:           DefaultBins,
		},
		Output: OutputConfig{Format: DefaultFormat},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so keys absent from the file keep
// base's values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every field that does not depend on the loaded data.
func (c *Config) Validate() error {
	if c.DataFiles.CovarianceMatrix == "" {
		return field("data_files.covariance_matrix", stoch.ErrInvalidParameter, "path is empty")
	}
	if c.DataFiles.InitValues == "" {
		return field("data_files.init_values", stoch.ErrInvalidParameter, "path is empty")
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if _, err := c.SimConfig(); err != nil {
		return err
	}
	a := c.Analysis
	if a.Asset < 0 {
		return field("analysis.asset", stoch.ErrInvalidParameter, "must be >= 0, got %d", a.Asset)
	}
	if a.PathAsset < 0 {
		return field("analysis.path_asset", stoch.ErrInvalidParameter, "must be >= 0, got %d", a.PathAsset)
	}
	if !(a.PeriodsPerYear > 0) {
		return field("analysis.periods_per_year", stoch.ErrInvalidParameter, "must be positive, got %v", a.PeriodsPerYear)
	}
	if !(a.V0 > 0) {
		return field("analysis.v0", stoch.ErrInvalidParameter, "must be positive, got %v", a.V0)
	}
	if a.Bins < 1 {
		return field("analysis.bins", stoch.ErrInvalidParameter, "must be >= 1, got %d", a.Bins)
	}
	for i, m := range c.Metrics {
		name := fmt.Sprintf("metrics[%d]", i)
		if m.Name == "" {
			return field(name+".name", stoch.ErrInvalidParameter, "is empty")
		}
		if m.Asset < 0 {
			return field(name+".asset", stoch.ErrInvalidParameter, "must be >= 0, got %d", m.Asset)
		}
		if m.Step < 0 {
			return field(name+".step", stoch.ErrInvalidParameter, "must be >= 0, got %d", m.Step)
		}
	}
	switch strings.ToLower(c.Output.Format) {
	case "svg", "png":
	default:
		return field("output.format", stoch.ErrInvalidParameter, "unknown format %q", c.Output.Format)
	}
	return nil
}

func (c *Config) Params() stoch.Params {
	return stoch.Params{
		Steps:       c.Simulation.Steps,
		Simulations: c.Simulation.Simulations,
		DeltaT:      c.Simulation.DeltaT,
	}
}

func (c *Config) SimConfig() (sim.Config, error) {
	method, err := sampler.ParseMethod(c.Factorization)
	if err != nil {
		return sim.Config{}, err
	}
	mode, err := sim.ParseMode(c.Parallel.Mode)
	if err != nil {
		return sim.Config{}, err
	}
	if c.Parallel.Workers < 0 {
		return sim.Config{}, field("parallel.workers", stoch.ErrInvalidParameter, "must be >= 0, got %d", c.Parallel.Workers)
	}
	if c.Parallel.BlockSize < 0 {
		return sim.Config{}, field("parallel.block_size", stoch.ErrInvalidParameter, "must be >= 0, got %d", c.Parallel.BlockSize)
	}

	out := sim.Config{
		Factorization: method,
		Mode:          mode,
		Workers:       c.Parallel.Workers,
		BlockSize:     c.Parallel.BlockSize,
	}
	if out.BlockSize == 0 {
		out.BlockSize = sim.DefaultBlockSize
	}
	if c.RandomSeed != nil {
		seed := *c.RandomSeed
		out.Seed = &seed
	}
	return out, nil
}

// DriftVector returns mu sized to n quantities. A short mu is an error
// unless PadDrift is set, in which case it is padded with zeros.
func (c *Config) DriftVector(n int) ([]float64, error) {
	mu := c.Simulation.Mu
	switch {
	case len(mu) > n:
		return nil, field("simulation_parameters.mu", stoch.ErrInvalidDimension, "%d values for %d quantities", len(mu), n)
	case len(mu) < n && !c.PadDrift:
		return nil, field("simulation_parameters.mu", stoch.ErrInvalidDimension, "%d values for %d quantities (set pad_drift to zero-fill)", len(mu), n)
	}
	out := make([]float64, n)
	copy(out, mu)
	return out, nil
}

func field(name string, err error, format string, args ...any) error {
	return &stoch.InputError{Field: name, Err: err, Msg: fmt.Sprintf(format, args...)}
}
