// Package normalize implements the two trace normalizations: relative to
// the column mean, and baseline-relative dF/F0. Both are pure: they take a
// frame and return a new frame of identical shape, never touching the
// input. Degenerate inputs (zero mean, zero or inverted baseline window)
// are recovered with a warning instead of aborting the refresh, and the
// zero-guards fire before any division so no Inf/NaN can reach the output.
package normalize

import (
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"tracevis/internal/frame"
)

// Warning reasons for degenerate conditions.
const (
	ReasonZeroMean      = "zero_mean"
	ReasonZeroBaseline  = "zero_baseline"
	ReasonInvalidWindow = "invalid_window"
)

// Warning records a non-fatal degenerate condition hit during a transform.
// The affected column (empty for window-level warnings) is left unchanged.
type Warning struct {
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

// ByMean rescales every numeric non-Time column to percent of its own mean.
// Columns with an exactly zero mean are left unchanged and reported.
func ByMean(f *frame.Frame) (*frame.Frame, []Warning) {
	out := f.Clone()
	var warnings []Warning
	for _, col := range f.Columns() {
		vals, ok := transformable(f, col)
		if !ok {
			continue
		}
		mean := stat.Mean(vals, nil)
		if mean == 0 {
			warnings = append(warnings, Warning{Column: col, Reason: ReasonZeroMean})
			slog.Warn("column has zero mean, skipping normalization", slog.String("column", col))
			continue
		}
		scaled := make([]float64, len(vals))
		for i, v := range vals {
			scaled[i] = v / mean * 100
		}
		out.SetColumn(col, scaled)
	}
	return out, warnings
}

// Baseline applies dF/F0 normalization: each value becomes its percent
// change relative to F0, the mean of a baseline window given in seconds.
// The window is converted to row indices with the sampling frequency and
// clamped to the frame; an empty or inverted window falls back to the first
// 10% of rows with a warning. Columns whose F0 is exactly zero are left
// unchanged and reported.
func Baseline(f *frame.Frame, baselineStartS, baselineDurationS, samplingFreq float64) (*frame.Frame, []Warning) {
	out := f.Clone()
	var warnings []Warning

	startIdx := int(math.Floor(baselineStartS * samplingFreq))
	endIdx := int(math.Floor((baselineStartS + baselineDurationS) * samplingFreq))
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > f.Rows() {
		endIdx = f.Rows()
	}
	if startIdx >= endIdx {
		slog.Warn("invalid baseline window, using first 10% of data",
			slog.Int("start_idx", startIdx),
			slog.Int("end_idx", endIdx))
		warnings = append(warnings, Warning{Reason: ReasonInvalidWindow})
		startIdx = 0
		endIdx = f.Rows() / 10
		if endIdx < 1 {
			endIdx = 1
		}
	}

	for _, col := range f.Columns() {
		vals, ok := transformable(f, col)
		if !ok {
			continue
		}
		// Columns replaced via SetColumn may be shorter than the frame's
		// row count; the window shrinks to what the column actually has.
		end := endIdx
		if end > len(vals) {
			end = len(vals)
		}
		if startIdx >= end {
			warnings = append(warnings, Warning{Column: col, Reason: ReasonInvalidWindow})
			slog.Warn("baseline window past end of column, skipping normalization",
				slog.String("column", col))
			continue
		}
		f0 := stat.Mean(vals[startIdx:end], nil)
		if f0 == 0 {
			warnings = append(warnings, Warning{Column: col, Reason: ReasonZeroBaseline})
			slog.Warn("zero baseline, skipping normalization", slog.String("column", col))
			continue
		}
		scaled := make([]float64, len(vals))
		for i, v := range vals {
			scaled[i] = (v - f0) / f0 * 100
		}
		out.SetColumn(col, scaled)
	}
	return out, warnings
}

// transformable returns the values of a column that normalization applies
// to: numeric, non-empty, and not a time column.
func transformable(f *frame.Frame, col string) ([]float64, bool) {
	if strings.Contains(col, "Time") || !f.IsNumeric(col) {
		return nil, false
	}
	vals, ok := f.Column(col)
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals, true
}
