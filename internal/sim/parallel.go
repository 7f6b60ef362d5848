package sim

import (
	"runtime"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"
)

// BlockSeeds draws one seed per block of blockSize simulations from rng,
// in block order.
func BlockSeeds(rng *rand.Rand, sims, blockSize int) []uint64 {
	n := (sims + blockSize - 1) / blockSize
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return seeds
}

func (s *Simulator) runSplit(smp *sampler.Sampler, paths *PathTensor) {
	block := s.cfg.BlockSize
	seeds := BlockSeeds(s.rng, paths.sims, block)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(seeds) {
		workers = len(seeds)
	}

	buffers := newScratchPool(paths.assets)
	p := pool.New().WithMaxGoroutines(workers)

	for b, seed := range seeds {
		from := b * block
		to := from + block
		if to > paths.sims {
			to = paths.sims
		}

		seed := seed
		p.Go(func() {
			buf := buffers.Get()
			defer buffers.Put(buf)

			rng := rand.New(rand.NewSource(seed))
			accumulate(smp, rng, paths, from, to, buf.inc, buf.z)
		})
	}

	p.Wait()
}
