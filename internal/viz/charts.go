package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fxsim/internal/analysis"
	"gonum.org/v1/gonum/mat"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Green, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Red, asciigraph.Blue,
}

// PathChart plots up to maxPaths rows of series, one line per simulation.
func PathChart(series mat.Matrix, maxPaths, width, height int, caption string) string {
	rows, cols := series.Dims()
	if rows == 0 || cols == 0 {
		return ""
	}
	if maxPaths > 0 && rows > maxPaths {
		rows = maxPaths
	}

	data := make([][]float64, rows)
	colors := make([]asciigraph.AnsiColor, rows)
	for r := 0; r < rows; r++ {
		data[r] = mat.Row(nil, r, series)
		colors[r] = seriesColors[r%len(seriesColors)]
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption))
}

// DistributionChart plots the histogram density and, when ref is
// non-nil, the reference density at the bin centres.
func DistributionChart(h *analysis.Histogram, ref *analysis.LognormalParams, width, height int, caption string) string {
	if h == nil || len(h.Density) == 0 {
		return ""
	}

	data := [][]float64{h.Density}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan}
	if ref != nil {
		centers := h.Centers()
		pdf := make([]float64, len(centers))
		for i, x := range centers {
			pdf[i] = ref.Density(x)
		}
		data = append(data, pdf)
		colors = append(colors, asciigraph.Red)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption))
}
