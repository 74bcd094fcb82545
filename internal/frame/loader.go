package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Error kinds surfaced by Load. Wrapping preserves the underlying cause;
// callers match with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrDecode            = errors.New("failed to decode file")
)

// Load reads a tabular data file into a frame. The extension selects the
// decoder: .xlsx and .xls go through excelize, .csv through encoding/csv;
// anything else fails with ErrUnsupportedFormat. The first row is the
// header.
func Load(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return loadExcel(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s (use .xlsx, .xls or .csv)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadExcel(path string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecode)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrDecode, sheet)
	}

	slog.Debug("decoded excel sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)-1))

	return FromRecords(rows[0], rows[1:]), nil
}

func loadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrDecode)
	}

	slog.Debug("decoded csv file",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", len(records)-1))

	return FromRecords(records[0], records[1:]), nil
}
