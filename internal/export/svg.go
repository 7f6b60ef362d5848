package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fxsim/internal/analysis"
	"gonum.org/v1/gonum/mat"
)

// pathColors cycles through path colours.
var pathColors = []string{"#00ccff", "#00ff88", "#ffcc00", "#ff00ff", "#ff4444", "#8888ff"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) pad() {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.05
	b.maxX += rangeX * 0.05
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func header(sb *strings.Builder, width, height int, title string) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
	if title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="8" y="16" fill="#888899" font-family="monospace" font-size="12">%s</text>
`, escape(title)))
	}
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// PathsSVG draws up to maxPaths rows of series (simulations × time points)
// as polylines. maxPaths <= 0 draws every row.
func PathsSVG(series mat.Matrix, width, height, maxPaths int, title string) string {
	rows, cols := series.Dims()
	if rows == 0 || cols < 2 {
		return ""
	}
	if maxPaths > 0 && rows > maxPaths {
		rows = maxPaths
	}

	b := bounds{minX: 0, maxX: float64(cols - 1), minY: math.Inf(1), maxY: math.Inf(-1)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := series.At(r, c)
			b.minY = math.Min(b.minY, v)
			b.maxY = math.Max(b.maxY, v)
		}
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height, title)

	for r := 0; r < rows; r++ {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-opacity="0.6" stroke-width="1" d="M`, pathColors[r%len(pathColors)]))
		for c := 0; c < cols; c++ {
			x, y := b.project(float64(c), series.At(r, c), width, height)
			if c == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// DistributionSVG draws a density histogram with the reference density
// curve (xs, ys) on top.
func DistributionSVG(h *analysis.Histogram, xs, ys []float64, width, height int, title string) string {
	if h == nil || len(h.Density) == 0 {
		return ""
	}

	lo, hi := h.Range()
	b := bounds{minX: lo, maxX: hi, minY: 0, maxY: 0}
	for _, d := range h.Density {
		b.maxY = math.Max(b.maxY, d)
	}
	for i, x := range xs {
		b.minX = math.Min(b.minX, x)
		b.maxX = math.Max(b.maxX, x)
		b.maxY = math.Max(b.maxY, ys[i])
	}
	b.pad()
	b.minY = 0

	var sb strings.Builder
	header(&sb, width, height, title)

	sb.WriteString("<g fill=\"#00ccff\" fill-opacity=\"0.5\">\n")
	for i, d := range h.Density {
		x0, y0 := b.project(h.Edges[i], d, width, height)
		x1, base := b.project(h.Edges[i+1], 0, width, height)
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, x0, y0, math.Max(x1-x0, 0.5), base-y0))
	}
	sb.WriteString("</g>\n")

	if len(xs) >= 2 && len(xs) == len(ys) {
		sb.WriteString(`<path fill="none" stroke="#ff4444" stroke-width="2" d="M`)
		for i := range xs {
			x, y := b.project(xs[i], ys[i], width, height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
