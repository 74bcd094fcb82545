package domain

import "sort"

// Normalization selects the transform applied to working data on each
// display refresh.
type Normalization string

const (
	NormalizationNone     Normalization = "none"
	NormalizationMean     Normalization = "mean"
	NormalizationBaseline Normalization = "baseline"
)

// Valid reports whether the normalization mode is one of the known values.
func (n Normalization) Valid() bool {
	switch n {
	case NormalizationNone, NormalizationMean, NormalizationBaseline:
		return true
	}
	return false
}

// ViewMode selects the chart layout.
type ViewMode string

const (
	ViewOverlay ViewMode = "overlay"
	ViewStacked ViewMode = "stacked"
)

// Valid reports whether the view mode is one of the known values.
func (v ViewMode) Valid() bool {
	return v == ViewOverlay || v == ViewStacked
}

// PlotDataset maps segment names to the traces selected for them. It is the
// sole artifact handed to the renderer; a segment never appears with an
// empty trace list.
type PlotDataset struct {
	Segments map[string][]Trace `json:"segments"`
}

// Empty reports whether the dataset contains no traces at all.
func (d PlotDataset) Empty() bool {
	return len(d.Segments) == 0
}

// TraceCount returns the total number of traces across all segments.
func (d PlotDataset) TraceCount() int {
	n := 0
	for _, traces := range d.Segments {
		n += len(traces)
	}
	return n
}

// OrderedNames returns segment names in display order: names starting with
// "t" first, then the rest, each group alphabetical.
func (d PlotDataset) OrderedNames() []string {
	names := make([]string, 0, len(d.Segments))
	for name := range d.Segments {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti := len(names[i]) > 0 && names[i][0] == 't'
		tj := len(names[j]) > 0 && names[j][0] == 't'
		if ti != tj {
			return ti
		}
		return names[i] < names[j]
	})
	return names
}

// RenderOptions carries everything the renderer needs beyond the dataset
// itself.
type RenderOptions struct {
	Normalization Normalization `json:"normalization"`
	View          ViewMode      `json:"view"`
	SamplingFreq  float64       `json:"sampling_freq"`
	ShowMean      bool          `json:"show_mean"`
	ShowDelta     bool          `json:"show_delta"`
	DeltaSegments []string      `json:"delta_segments,omitempty"`
}
