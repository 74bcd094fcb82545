// Package segment parses the column-naming and filename conventions of
// calcium-imaging trace recordings.
//
// A signal column follows the pattern Mean(<segment><side>) where side is a
// lowercase l or r, e.g. Mean(a1l) or Mean(t2r). Columns that do not match
// but are not time columns or auto-generated placeholders are still signal
// columns, just without segment/side identity. Filenames carry the sample
// name and an optional trailing region word, e.g. RP3_May_14_n5_soma.xlsx.
package segment

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"tracevis/pkg/contracts/domain"
)

// sidePattern is the naming contract for sided signal columns. The
// non-greedy capture and lowercase side letters are deliberate: existing
// data files depend on them.
var sidePattern = regexp.MustCompile(`Mean\((.*?)([lr])\)`)

// regionVocabulary is the fixed set of filename suffixes recognized as
// anatomical regions.
var regionVocabulary = []string{
	"soma", "axon", "axons", "dendrite", "dendrites", "dend", "spine", "spines", "mix",
}

// Segments groups a file's signal columns by laterality. All contains every
// signal column including sideless ones; Left and Right contain only the
// matching Mean(...) columns. Each list is sorted ascending.
type Segments struct {
	All   []string `json:"all"`
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// Identify classifies the given column names. Time columns (any name
// containing "Time") and unnamed placeholder columns are excluded from the
// signal set; zero matches is not an error.
func Identify(columns []string) Segments {
	var segs Segments
	for _, col := range columns {
		if strings.Contains(col, "Time") {
			continue
		}
		if m := sidePattern.FindStringSubmatch(col); m != nil {
			segs.All = append(segs.All, col)
			if m[2] == "l" {
				segs.Left = append(segs.Left, col)
			} else {
				segs.Right = append(segs.Right, col)
			}
			continue
		}
		if !strings.HasPrefix(col, "Unnamed:") {
			segs.All = append(segs.All, col)
		}
	}
	sort.Strings(segs.All)
	sort.Strings(segs.Left)
	sort.Strings(segs.Right)
	return segs
}

// ExtractSide returns the segment name and side of a sided signal column.
// ok is false when the column does not match the naming contract.
func ExtractSide(column string) (seg string, side domain.Side, ok bool) {
	m := sidePattern.FindStringSubmatch(column)
	if m == nil {
		return "", "", false
	}
	return m[1], domain.Side(m[2]), true
}

// ParseFilename extracts the sample name and optional region from a
// recording filename. The extension is stripped, the base name is split on
// underscores, and a last part matching the region vocabulary
// (case-insensitively) becomes the region; the rest rejoin as the sample.
// Without a recognized suffix, the whole base name is the sample.
func ParseFilename(filename string) domain.FileInfo {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "_")
	last := strings.ToLower(parts[len(parts)-1])
	for _, region := range regionVocabulary {
		if last == region {
			return domain.FileInfo{
				Sample: strings.Join(parts[:len(parts)-1], "_"),
				Region: last,
				Class:  domain.ClassifyRegion(last),
			}
		}
	}
	return domain.FileInfo{Sample: base, Class: domain.RegionUnknown}
}
