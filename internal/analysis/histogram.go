package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fxsim/internal/stoch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is a density-normalised histogram: the bars integrate to 1.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
	Density []float64 `json:"density"`
}

// NewHistogram bins sample into bins equal-width bins spanning [min, max].
func NewHistogram(sample []float64, bins int) (*Histogram, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("%w: empty sample", stoch.ErrInvalidParameter)
	}
	if bins < 1 {
		return nil, fmt.Errorf("%w: bins must be >= 1, got %d", stoch.ErrInvalidParameter, bins)
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: sample contains non-finite values", stoch.ErrInvalidParameter)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	n := float64(len(sample))
	density := make([]float64, bins)
	for i, c := range counts {
		density[i] = c / (n * (edges[i+1] - edges[i]))
	}

	return &Histogram{Edges: edges, Counts: counts, Density: density}, nil
}

// Centers returns the midpoint of each bin.
func (h *Histogram) Centers() []float64 {
	c := make([]float64, len(h.Density))
	for i := range c {
		c[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return c
}

// Range returns the outer edges.
func (h *Histogram) Range() (lo, hi float64) {
	return h.Edges[0], h.Edges[len(h.Edges)-1]
}
