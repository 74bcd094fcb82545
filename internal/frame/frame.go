// Package frame provides the tabular dataset type the pipeline operates on:
// ordered named columns of float64 samples, decoded from CSV or Excel files.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame is a rows-by-named-columns table. Column order is preserved from the
// source file. Columns whose cells do not all parse as numbers are kept for
// shape but flagged non-numeric and exempt from numeric transforms.
type Frame struct {
	columns []string
	values  map[string][]float64
	numeric map[string]bool
	rows    int
}

// New creates an empty frame with the given row count.
func New(rows int) *Frame {
	return &Frame{
		values:  make(map[string][]float64),
		numeric: make(map[string]bool),
		rows:    rows,
	}
}

// FromRecords builds a frame from a header row and data rows of string
// cells. Empty header cells become "Unnamed: N" placeholders, mirroring how
// spreadsheet tools label them. Cells with thousands separators are
// accepted; an unparseable non-empty cell makes the whole column
// non-numeric. Empty cells in otherwise numeric columns read as zero.
func FromRecords(header []string, records [][]string) *Frame {
	f := New(len(records))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		vals := make([]float64, len(records))
		isNumeric := true
		for j, row := range records {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
			if err != nil {
				isNumeric = false
				continue
			}
			vals[j] = v
		}
		f.columns = append(f.columns, name)
		f.values[name] = vals
		f.numeric[name] = isNumeric
	}
	return f
}

// Columns returns the column names in source order. The returned slice must
// not be modified.
func (f *Frame) Columns() []string { return f.columns }

// Rows returns the number of data rows.
func (f *Frame) Rows() int { return f.rows }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.values[name]
	return ok
}

// IsNumeric reports whether every cell of the named column parsed as a
// number.
func (f *Frame) IsNumeric(name string) bool { return f.numeric[name] }

// Column returns the values of the named column. The returned slice is the
// frame's backing storage; callers that need an owned copy must use
// ColumnCopy.
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.values[name]
	return v, ok
}

// ColumnCopy returns an owned copy of the named column's values.
func (f *Frame) ColumnCopy(name string) ([]float64, bool) {
	v, ok := f.values[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// SetColumn replaces or adds a column. A new column is appended to the
// order and assumed numeric.
func (f *Frame) SetColumn(name string, vals []float64) {
	if _, exists := f.values[name]; !exists {
		f.columns = append(f.columns, name)
		f.numeric[name] = true
	}
	f.values[name] = vals
	if len(vals) > f.rows {
		f.rows = len(vals)
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := New(f.rows)
	c.columns = append([]string(nil), f.columns...)
	for name, vals := range f.values {
		c.values[name] = append([]float64(nil), vals...)
		c.numeric[name] = f.numeric[name]
	}
	return c
}

// TimeValues returns the x axis for this frame: the "Time" column when
// present, otherwise row index divided by the sampling frequency.
func (f *Frame) TimeValues(samplingFreq float64) []float64 {
	if v, ok := f.ColumnCopy("Time"); ok {
		return v
	}
	t := make([]float64, f.rows)
	if samplingFreq <= 0 {
		samplingFreq = 1
	}
	for i := range t {
		t[i] = float64(i) / samplingFreq
	}
	return t
}
