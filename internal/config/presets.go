package config

import "sort"

func weekly() *Config {
	return DefaultConfig()
}

func daily() *Config {
	cfg := DefaultConfig()
	cfg.Simulation.Steps = 252
	cfg.Analysis.PeriodsPerYear = 252
	return cfg
}

func stress() *Config {
	cfg := DefaultConfig()
	cfg.Simulation.Simulations = 100000
	cfg.Parallel.Mode = "split"
	cfg.Factorization = "eigen"
	return cfg
}

// Presets are named starting points. Data files and mu still come from the
// user's config or flags.
var Presets = map[string]func() *Config{
	"weekly": weekly,
	"daily":  daily,
	"stress": stress,
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
