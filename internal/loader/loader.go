// Package loader reads the tabular inputs of a run: a covariance matrix and
// a vector of initial values. Files are CSV or XLSX. The first row is a
// header and the first column is an index, matching spreadsheets exported
// from pandas.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/fxsim/internal/stoch"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMalformedTable indicates a file that is not a header row plus
	// index-labelled numeric rows.
	ErrMalformedTable = errors.New("loader: malformed table")

	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")
)

// Table is a labelled numeric table.
type Table struct {
	Columns []string
	Index   []string
	Data    *mat.Dense
}

// Tables holds the inputs of a run as loaded from disk.
type Tables struct {
	Covariance *Table
	Initial    []float64
	Labels     []string
}

// Load reads both input files and checks that their sizes agree.
func Load(covPath, initPath string) (*Tables, error) {
	cov, err := LoadCovariance(covPath)
	if err != nil {
		return nil, fmt.Errorf("load covariance: %w", err)
	}
	initial, err := LoadInitialValues(initPath)
	if err != nil {
		return nil, fmt.Errorf("load initial values: %w", err)
	}
	n, _ := cov.Data.Dims()
	if len(initial) != n {
		return nil, fmt.Errorf("%w: %d initial values for a %dx%d covariance", stoch.ErrInvalidDimension, len(initial), n, n)
	}
	return &Tables{Covariance: cov, Initial: initial, Labels: cov.Columns}, nil
}

// LoadCovariance reads a square table.
func LoadCovariance(path string) (*Table, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	r, c := t.Data.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: covariance in %s is %dx%d", stoch.ErrInvalidDimension, path, r, c)
	}
	return t, nil
}

// LoadInitialValues reads a table and flattens it in row order.
func LoadInitialValues(path string) ([]float64, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	r, c := t.Data.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, t.Data.RawRowView(i)...)
	}
	return out, nil
}

// ReadTable dispatches on the file extension.
func ReadTable(path string) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return parseTable(path, records)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return r.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrMalformedTable, path)
	}
	return f.GetRows(sheet)
}

func parseTable(path string, records [][]string) (*Table, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		if !blank(rec) {
			rows = append(rows, rec)
		}
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s needs a header and at least one data row", ErrMalformedTable, path)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: %s header has no data columns", ErrMalformedTable, path)
	}
	cols := len(header) - 1

	t := &Table{
		Columns: trimAll(header[1:]),
		Index:   make([]string, 0, len(rows)-1),
		Data:    mat.NewDense(len(rows)-1, cols, nil),
	}

	for i, rec := range rows[1:] {
		if len(rec) != cols+1 {
			return nil, fmt.Errorf("%w: %s row %d has %d fields, want %d", ErrMalformedTable, path, i+2, len(rec), cols+1)
		}
		t.Index = append(t.Index, strings.TrimSpace(rec[0]))
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %q: %v", ErrMalformedTable, path, i+2, t.Columns[j], err)
			}
			t.Data.Set(i, j, v)
		}
	}

	return t, nil
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
