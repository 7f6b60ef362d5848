package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/fxsim/internal/analysis"
	"gonum.org/v1/gonum/mat"
)

// Row is one label/value line of a table.
type Row struct {
	Label string
	Value string
}

// Table aligns rows into two columns.
func Table(rows []Row) string {
	width := 0
	for _, r := range rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}
	var sb strings.Builder
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, r.Label)))
		sb.WriteString("  ")
		sb.WriteString(MetricValue.Render(r.Value))
	}
	return sb.String()
}

func f4(v float64) string { return fmt.Sprintf("%.4f", v) }

// StatisticsRows lists summary statistics in the order mean, variance,
// median, std dev, skewness, kurtosis.
func StatisticsRows(s analysis.SummaryStatistics) []Row {
	return []Row{
		{"Mean", f4(s.Mean)},
		{"Variance", f4(s.Variance)},
		{"Median", f4(s.Median)},
		{"Std_dev", f4(s.StdDev)},
		{"Skewness", f4(s.Skewness)},
		{"Kurtosis", f4(s.Kurtosis)},
	}
}

// ComparisonRows lists the analytical reference next to the empirical
// moments.
func ComparisonRows(c analysis.Comparison) []Row {
	return []Row{
		{"Scale", f4(c.Params.Scale)},
		{"Shape", f4(c.Params.Shape)},
		{"Analytical Mean", f4(c.AnalyticalMean)},
		{"Analytical Variance", f4(c.AnalyticalVariance)},
		{"Analytical Median", f4(c.AnalyticalMedian)},
		{"Mean Diff", f4(c.MeanDiff)},
		{"Variance Diff", f4(c.VarianceDiff)},
	}
}

// MetricRows lists metrics sorted by name.
func MetricRows(m map[string]float64) []Row {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]Row, len(names))
	for i, name := range names {
		rows[i] = Row{name, fmt.Sprintf("%.6f", m[name])}
	}
	return rows
}

// Matrix formats m with optional row and column labels.
func Matrix(m mat.Matrix, labels []string) string {
	r, c := m.Dims()
	if len(labels) != r || r != c {
		labels = nil
	}

	width := 8
	for _, l := range labels {
		if len(l) > width {
			width = len(l)
		}
	}

	var sb strings.Builder
	if labels != nil {
		sb.WriteString(strings.Repeat(" ", width))
		for _, l := range labels {
			sb.WriteString(fmt.Sprintf(" %*s", width, l))
		}
		sb.WriteByte('\n')
	}
	for i := 0; i < r; i++ {
		if labels != nil {
			sb.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, labels[i])))
		}
		for j := 0; j < c; j++ {
			sb.WriteString(fmt.Sprintf(" %*.4f", width, m.At(i, j)))
		}
		if i < r-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
