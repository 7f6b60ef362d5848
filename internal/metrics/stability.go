package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/fxsim/internal/sim"
)

// Stability is the fraction of paths of one asset that never leave the band
// |X[t] - X[0]| <= threshold.
type Stability struct {
	name      string
	asset     int
	threshold float64
}

func NewStability(asset int, threshold float64) *Stability {
	return &Stability{
		name:      fmt.Sprintf("stability[%d]", asset),
		asset:     asset,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Value(p *sim.PathTensor) (float64, error) {
	series, err := p.Series(s.asset)
	if err != nil {
		return 0, err
	}
	rows, cols := series.Dims()
	violations := 0
	for r := 0; r < rows; r++ {
		x0 := series.At(r, 0)
		for c := 1; c < cols; c++ {
			if math.Abs(series.At(r, c)-x0) > s.threshold {
				violations++
				break
			}
		}
	}
	return 1.0 - float64(violations)/float64(rows), nil
}
