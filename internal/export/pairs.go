package export

import (
	"fmt"
	"os"

	"github.com/san-kum/fxsim/internal/analysis"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PairBins is the number of histogram bins on the diagonal of a pair grid.
const PairBins = 30

// WritePairsPNG draws a scatter grid of the columns of values (simulations ×
// quantities). Cell (i, j) plots column j against column i and is titled
// with their empirical correlation; the diagonal holds a histogram of each
// column. At most maxPoints rows are scattered, all rows enter the
// correlation. It returns the correlation matrix.
func WritePairsPNG(path string, values mat.Matrix, labels []string, maxPoints int) (*mat.SymDense, error) {
	rows, n := values.Dims()
	corr, err := analysis.EmpiricalCorrelation(values)
	if err != nil {
		return nil, err
	}
	shown := rows
	if maxPoints > 0 && shown > maxPoints {
		shown = maxPoints
	}

	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = mat.Col(nil, j, values)
	}
	label := func(j int) string {
		if j < len(labels) && labels[j] != "" {
			return labels[j]
		}
		return fmt.Sprintf("x%d", j)
	}

	plots := make([][]*plot.Plot, n)
	for i := 0; i < n; i++ {
		plots[i] = make([]*plot.Plot, n)
		for j := 0; j < n; j++ {
			p := plot.New()
			if i == n-1 {
				p.X.Label.Text = label(j)
			}
			if j == 0 {
				p.Y.Label.Text = label(i)
			}

			if i == j {
				p.Title.Text = label(i)
				if floats.Max(cols[i]) > floats.Min(cols[i]) {
					h, err := plotter.NewHist(plotter.Values(cols[i]), PairBins)
					if err != nil {
						return nil, err
					}
					h.FillColor = histFill
					h.Normalize(1)
					p.Add(h)
				}
			} else {
				p.Title.Text = fmt.Sprintf("r = %.2f", corr.At(i, j))
				pts := make(plotter.XYs, shown)
				for r := 0; r < shown; r++ {
					pts[r].X = cols[j][r]
					pts[r].Y = cols[i][r]
				}
				sc, err := plotter.NewScatter(pts)
				if err != nil {
					return nil, err
				}
				sc.GlyphStyle.Color = plotutil.Color(0)
				sc.GlyphStyle.Radius = vg.Points(1)
				sc.GlyphStyle.Shape = draw.CircleGlyph{}
				p.Add(sc)
			}
			plots[i][j] = p
		}
	}

	side := vg.Length(n) * 2.5 * vg.Inch
	img := vgimg.New(side, side)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows:      n,
		Cols:      n,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, t, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return nil, err
	}
	return corr, w.Close()
}
