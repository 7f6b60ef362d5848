package export

import (
	"fmt"
	"image/color"
	"os"

	"github.com/san-kum/fxsim/internal/analysis"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	histFill  = color.RGBA{R: 0x00, G: 0xcc, B: 0xff, A: 0x80}
	curveLine = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
)

// WritePathsPNG plots up to maxPaths rows of series against the time index.
func WritePathsPNG(path string, series mat.Matrix, maxPaths int, title string) error {
	rows, cols := series.Dims()
	if rows == 0 || cols < 2 {
		return fmt.Errorf("export: nothing to plot (%dx%d)", rows, cols)
	}
	if maxPaths > 0 && rows > maxPaths {
		rows = maxPaths
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = "Value"

	for r := 0; r < rows; r++ {
		pts := make(plotter.XYs, cols)
		for c := 0; c < cols; c++ {
			pts[c].X = float64(c)
			pts[c].Y = series.At(r, c)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(r)
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// WriteDistributionPNG plots a density histogram with the reference
// density curve on top.
func WriteDistributionPNG(path string, h *analysis.Histogram, xs, ys []float64, title, xlabel string) error {
	if h == nil || len(h.Density) == 0 {
		return fmt.Errorf("export: empty histogram")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Density"

	bins := make([]plotter.HistogramBin, len(h.Density))
	for i, d := range h.Density {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: d}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		FillColor: histFill,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)
	p.Legend.Add("Simulated", hist)

	if len(xs) >= 2 && len(xs) == len(ys) {
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i].X = xs[i]
			pts[i].Y = ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = curveLine
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("Analytical PDF", line)
	}
	p.Legend.Top = true

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

type corrGrid struct {
	m mat.Matrix
	n int
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(g.n-1-r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// WriteCorrelationPNG draws a correlation matrix as a heat map on [-1, 1]
// with a colour legend. Row 0 is drawn at the top.
func WriteCorrelationPNG(path string, corr mat.Matrix, labels []string, title string) error {
	r, c := corr.Dims()
	if r != c || r == 0 {
		return fmt.Errorf("export: correlation matrix is %dx%d", r, c)
	}

	pal := palette.Heat(12, 1)
	hm := plotter.NewHeatMap(corrGrid{m: corr, n: r}, pal)
	hm.Min = -1
	hm.Max = 1

	p := plot.New()
	p.Title.Text = title
	p.Add(hm)
	p.X.Padding = 0
	p.Y.Padding = 0

	if len(labels) == r {
		rev := make([]string, r)
		for i := range labels {
			rev[r-1-i] = labels[i]
		}
		p.NominalX(labels...)
		p.NominalY(rev...)
	}

	l := plot.NewLegend()
	thumbs := plotter.PaletteThumbnailers(pal)
	for i := len(thumbs) - 1; i >= 0; i-- {
		t := thumbs[i]
		if i != 0 && i != len(thumbs)-1 {
			l.Add("", t)
			continue
		}
		val := hm.Min
		if i == len(thumbs)-1 {
			val = hm.Max
		}
		l.Add(fmt.Sprintf("%.1f", val), t)
	}

	img := vgimg.New(6*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)

	l.Top = true
	rect := l.Rectangle(dc)
	legendWidth := rect.Max.X - rect.Min.X
	l.YOffs = -p.Title.TextStyle.FontExtents().Height

	l.Draw(dc)
	dc = draw.Crop(dc, 0, -legendWidth-vg.Millimeter, 0, 0)
	p.Draw(dc)

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return err
	}
	return w.Close()
}
