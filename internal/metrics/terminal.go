package metrics

import (
	"fmt"

	"github.com/san-kum/fxsim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

type TerminalMean struct {
	name  string
	asset int
}

func NewTerminalMean(asset int) *TerminalMean {
	return &TerminalMean{
		name:  fmt.Sprintf("terminal_mean[%d]", asset),
		asset: asset,
	}
}

func (t *TerminalMean) Name() string {
	return t.name
}

func (t *TerminalMean) Value(p *sim.PathTensor) (float64, error) {
	x, err := p.Terminal(t.asset)
	if err != nil {
		return 0, err
	}
	return stat.Mean(x, nil), nil
}
