package sim

import (
	"fmt"
	"strings"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/stoch"
)

// Mode selects how draws are distributed over the simulation axis.
type Mode int

const (
	// ModeSerial draws every increment from the simulator's single generator,
	// step by step and simulation by simulation.
	ModeSerial Mode = iota

	// ModeSplit partitions simulations into blocks of Config.BlockSize. Each
	// block gets its own generator seeded by a value drawn, in block order,
	// from the simulator's generator. Blocks run concurrently; the output
	// depends on the seed and BlockSize but not on Workers.
	ModeSplit
)

func (m Mode) String() string {
	switch m {
	case ModeSerial:
		return "serial"
	case ModeSplit:
		return "split"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "serial":
		return ModeSerial, nil
	case "split", "parallel":
		return ModeSplit, nil
	default:
		return 0, fmt.Errorf("%w: unknown run mode %q", stoch.ErrInvalidParameter, name)
	}
}

// DefaultBlockSize is the number of simulations per block in ModeSplit
// when Config.BlockSize is zero.
const DefaultBlockSize = 1024

// Config controls generator seeding, factorization and execution mode.
type Config struct {
	// Seed fixes the generator. When nil a time-derived seed is used and
	// reported in Result.Seed.
	Seed          *uint64
	Factorization sampler.Method
	Mode          Mode
	// Workers bounds concurrent blocks in ModeSplit; 0 means GOMAXPROCS.
	Workers   int
	BlockSize int
}

// DefaultConfig returns a serial Cholesky configuration with a
// time-derived seed.
func DefaultConfig() Config {
	return Config{
		Factorization: sampler.Cholesky,
		Mode:          ModeSerial,
		BlockSize:     DefaultBlockSize,
	}
}

func (c Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", stoch.ErrInvalidParameter, c.Workers)
	}
	if c.Mode == ModeSplit && c.BlockSize < 1 {
		return fmt.Errorf("%w: block size must be >= 1, got %d", stoch.ErrInvalidParameter, c.BlockSize)
	}
	if c.Mode != ModeSerial && c.Mode != ModeSplit {
		return fmt.Errorf("%w: unknown run mode %v", stoch.ErrInvalidParameter, c.Mode)
	}
	return nil
}

// Metric is evaluated once on a finished tensor.
type Metric interface {
	Name() string
	Value(p *PathTensor) (float64, error)
}

// Result holds the paths of one Run together with the seed, mode and
// factorization that produced them and the evaluated metrics.
type Result struct {
	Paths         *PathTensor
	Params        stoch.Params
	Seed          uint64
	Mode          Mode
	Factorization sampler.Method
	Metrics       map[string]float64
}
