package sim

import "sync"

// scratch holds the per-draw buffers of one worker.
type scratch struct {
	z   []float64
	inc []float64
}

type scratchPool struct {
	pool sync.Pool
	size int
}

func newScratchPool(dim int) *scratchPool {
	return &scratchPool{
		size: dim,
		pool: sync.Pool{
			New: func() interface{} {
				return &scratch{z: make([]float64, dim), inc: make([]float64, dim)}
			},
		},
	}
}

func (p *scratchPool) Get() *scratch {
	return p.pool.Get().(*scratch)
}

func (p *scratchPool) Put(s *scratch) {
	if len(s.z) == p.size && len(s.inc) == p.size {
		p.pool.Put(s)
	}
}
