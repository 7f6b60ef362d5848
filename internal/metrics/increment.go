package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/fxsim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

// IncrementMean is the sample mean of X[:, asset, step] - X[:, asset, step-1].
type IncrementMean struct {
	name  string
	asset int
	step  int
}

func NewIncrementMean(asset, step int) *IncrementMean {
	return &IncrementMean{
		name:  fmt.Sprintf("increment_mean[%d,%d]", asset, step),
		asset: asset,
		step:  step,
	}
}

func (m *IncrementMean) Name() string { return m.name }

func (m *IncrementMean) Value(p *sim.PathTensor) (float64, error) {
	inc, err := p.Increments(m.asset, m.step)
	if err != nil {
		return 0, err
	}
	return stat.Mean(inc, nil), nil
}

// IncrementStdErr is the standard error of IncrementMean.
type IncrementStdErr struct {
	name  string
	asset int
	step  int
}

func NewIncrementStdErr(asset, step int) *IncrementStdErr {
	return &IncrementStdErr{
		name:  fmt.Sprintf("increment_stderr[%d,%d]", asset, step),
		asset: asset,
		step:  step,
	}
}

func (m *IncrementStdErr) Name() string { return m.name }

func (m *IncrementStdErr) Value(p *sim.PathTensor) (float64, error) {
	inc, err := p.Increments(m.asset, m.step)
	if err != nil {
		return 0, err
	}
	return stdErr(inc), nil
}

// IncrementZScore measures how many standard errors the mean increment lies
// from its expected value mu·dt.
type IncrementZScore struct {
	name     string
	asset    int
	step     int
	expected float64
}

func NewIncrementZScore(asset, step int, expected float64) *IncrementZScore {
	return &IncrementZScore{
		name:     fmt.Sprintf("increment_z[%d,%d]", asset, step),
		asset:    asset,
		step:     step,
		expected: expected,
	}
}

func (m *IncrementZScore) Name() string { return m.name }

func (m *IncrementZScore) Value(p *sim.PathTensor) (float64, error) {
	inc, err := p.Increments(m.asset, m.step)
	if err != nil {
		return 0, err
	}
	se := stdErr(inc)
	if se == 0 {
		return 0, nil
	}
	return (stat.Mean(inc, nil) - m.expected) / se, nil
}

func stdErr(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil) / math.Sqrt(float64(len(x)))
}
