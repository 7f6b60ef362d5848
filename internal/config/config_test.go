package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Simulation.Steps != DefaultSteps {
		t.Errorf("expected %d steps, got %d", DefaultSteps, cfg.Simulation.Steps)
	}
	if cfg.Simulation.DeltaT <= 0 {
		t.Error("delta_t should be positive")
	}
	if cfg.RandomSeed != nil {
		t.Error("default config should not fix a seed")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
data_files:
  covariance_matrix: cov.xlsx
  init_values: init.xlsx
simulation_parameters:
  mu: [0.0005, 0.001]
  n_steps: 10
  n_simulations: 200
  delta_t: 0.5
random_seed: 42
parallel:
  mode: split
  workers: 4
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DataFiles.CovarianceMatrix != "cov.xlsx" {
		t.Errorf("unexpected covariance path %q", cfg.DataFiles.CovarianceMatrix)
	}
	p := cfg.Params()
	if p.Steps != 10 || p.Simulations != 200 || p.DeltaT != 0.5 {
		t.Errorf("unexpected params %+v", p)
	}
	if cfg.RandomSeed == nil || *cfg.RandomSeed != 42 {
		t.Errorf("expected seed 42, got %v", cfg.RandomSeed)
	}
	// unset keys keep their defaults
	if cfg.Analysis.Bins != DefaultBins {
		t.Errorf("expected default bins, got %d", cfg.Analysis.Bins)
	}
	if cfg.Parallel.BlockSize != sim.DefaultBlockSize {
		t.Errorf("expected default block size, got %d", cfg.Parallel.BlockSize)
	}

	sc, err := cfg.SimConfig()
	if err != nil {
		t.Fatalf("sim config: %v", err)
	}
	if sc.Mode != sim.ModeSplit || sc.Workers != 4 {
		t.Errorf("unexpected sim config %+v", sc)
	}
	if sc.Seed == nil || *sc.Seed != 42 {
		t.Error("seed not carried into sim config")
	}
	if sc.Factorization != sampler.Cholesky {
		t.Errorf("expected cholesky, got %v", sc.Factorization)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	seed := uint64(7)
	cfg.RandomSeed = &seed
	cfg.Simulation.Mu = []float64{0.1, 0.2}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RandomSeed == nil || *got.RandomSeed != 7 {
		t.Errorf("seed lost: %v", got.RandomSeed)
	}
	if len(got.Simulation.Mu) != 2 || got.Simulation.Mu[1] != 0.2 {
		t.Errorf("mu lost: %v", got.Simulation.Mu)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
		want   error
	}{
		{"no steps", func(c *Config) { c.Simulation.Steps = 0 }, "n_steps", stoch.ErrInvalidParameter},
		{"no simulations", func(c *Config) { c.Simulation.Simulations = 0 }, "n_simulations", stoch.ErrInvalidParameter},
		{"zero dt", func(c *Config) { c.Simulation.DeltaT = 0 }, "delta_t", stoch.ErrInvalidParameter},
		{"bad factorization", func(c *Config) { c.Factorization = "qr" }, "", stoch.ErrInvalidParameter},
		{"bad mode", func(c *Config) { c.Parallel.Mode = "mpi" }, "", stoch.ErrInvalidParameter},
		{"negative workers", func(c *Config) { c.Parallel.Workers = -1 }, "parallel.workers", stoch.ErrInvalidParameter},
		{"no bins", func(c *Config) { c.Analysis.Bins = 0 }, "analysis.bins", stoch.ErrInvalidParameter},
		{"zero v0", func(c *Config) { c.Analysis.V0 = 0 }, "analysis.v0", stoch.ErrInvalidParameter},
		{"bad format", func(c *Config) { c.Output.Format = "gif" }, "output.format", stoch.ErrInvalidParameter},
		{"no covariance path", func(c *Config) { c.DataFiles.CovarianceMatrix = "" }, "data_files.covariance_matrix", stoch.ErrInvalidParameter},
		{"unnamed metric", func(c *Config) { c.Metrics = []MetricConfig{{Asset: 1}} }, "metrics[0].name", stoch.ErrInvalidParameter},
		{"negative metric step", func(c *Config) { c.Metrics = []MetricConfig{{Name: "increment_z", Step: -1}} }, "metrics[0].step", stoch.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.field == "" {
				return
			}
			var ie *stoch.InputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want MetricConfig
	}{
		{"terminal_mean", MetricConfig{Name: "terminal_mean"}},
		{"terminal_mean:2", MetricConfig{Name: "terminal_mean", Asset: 2}},
		{"increment_z:1,5", MetricConfig{Name: "increment_z", Asset: 1, Step: 5}},
		{" stability:0, 0, 0.25 ", MetricConfig{Name: "stability", Threshold: 0.25}},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", ":1", "stability:x", "stability:0,y", "stability:0,1,z", "stability:0,1,2,3"} {
		if _, err := ParseMetric(bad); !errors.Is(err, stoch.ErrInvalidParameter) {
			t.Errorf("%q: expected ErrInvalidParameter, got %v", bad, err)
		}
	}
}

func TestLoadMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.yaml")
	data := "metrics:\n  - name: increment_z\n    asset: 1\n    step: 3\n  - name: stability\n    threshold: 0.5\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %+v", cfg.Metrics)
	}
	if cfg.Metrics[0] != (MetricConfig{Name: "increment_z", Asset: 1, Step: 3}) || cfg.Metrics[1].Threshold != 0.5 {
		t.Errorf("unexpected metrics %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestSimConfigDefaultBlockSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallel.Mode = "split"
	cfg.Parallel.BlockSize = 0

	sc, err := cfg.SimConfig()
	if err != nil {
		t.Fatalf("sim config: %v", err)
	}
	if sc.BlockSize != sim.DefaultBlockSize {
		t.Errorf("expected block size %d, got %d", sim.DefaultBlockSize, sc.BlockSize)
	}
}

func TestDriftVector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.Mu = []float64{0.1}

	if _, err := cfg.DriftVector(3); !errors.Is(err, stoch.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension without pad_drift, got %v", err)
	}

	cfg.PadDrift = true
	mu, err := cfg.DriftVector(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mu) != 3 || mu[0] != 0.1 || mu[1] != 0 || mu[2] != 0 {
		t.Errorf("expected [0.1 0 0], got %v", mu)
	}

	mu[0] = 9
	if cfg.Simulation.Mu[0] != 0.1 {
		t.Error("DriftVector must not alias the config")
	}

	if _, err := cfg.DriftVector(0); !errors.Is(err, stoch.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension for a long mu, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("daily")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Simulation.Steps != 252 || cfg.Analysis.PeriodsPerYear != 252 {
		t.Errorf("unexpected daily preset %+v", cfg.Simulation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}

	cfg.Simulation.Steps = 1
	if GetPreset("daily").Simulation.Steps != 252 {
		t.Error("GetPreset must return a fresh copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"daily", "stress", "weekly"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
		if err := GetPreset(names[i]).Validate(); err != nil {
			t.Errorf("preset %s: %v", names[i], err)
		}
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("simulation_parameters:\n  n_simulations: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOver(path, GetPreset("daily"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.Simulations != 10 {
		t.Errorf("file value not applied: %d", cfg.Simulation.Simulations)
	}
	if cfg.Simulation.Steps != 252 {
		t.Errorf("preset value lost: %d", cfg.Simulation.Steps)
	}
}
