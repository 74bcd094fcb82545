package domain

import "strings"

// Side is the laterality of a segment trace, encoded as the trailing
// l/r inside a Mean(...) column name.
type Side string

const (
	SideLeft  Side = "l"
	SideRight Side = "r"
)

// Label returns the display form used in legends.
func (s Side) Label() string {
	switch s {
	case SideLeft:
		return "L"
	case SideRight:
		return "R"
	default:
		return ""
	}
}

// RegionClass is the enumerated anatomical category of a recording file.
// It is computed once when a filename is parsed and carried on every trace,
// so downstream consumers never re-derive it from raw strings.
type RegionClass string

const (
	RegionSoma     RegionClass = "soma"
	RegionAxon     RegionClass = "axon"
	RegionDendrite RegionClass = "dendrite"
	RegionSpine    RegionClass = "spine"
	RegionMix      RegionClass = "mix"
	RegionUnknown  RegionClass = "unknown"
)

// ClassifyRegion maps a parsed region suffix to its class. Unrecognized or
// empty strings classify as RegionUnknown.
func ClassifyRegion(region string) RegionClass {
	switch strings.ToLower(region) {
	case "soma":
		return RegionSoma
	case "axon", "axons":
		return RegionAxon
	case "dendrite", "dendrites", "dend":
		return RegionDendrite
	case "spine", "spines":
		return RegionSpine
	case "mix":
		return RegionMix
	default:
		return RegionUnknown
	}
}

// FileInfo is the metadata parsed from a recording filename.
type FileInfo struct {
	Sample string      `json:"sample"`
	Region string      `json:"region,omitempty"`
	Class  RegionClass `json:"region_class"`
}

// DisplayName returns "sample - region" when a region was recognized,
// otherwise the given fallback (normally the bare file name).
func (i FileInfo) DisplayName(fallback string) string {
	if i.Region != "" {
		return i.Sample + " - " + i.Region
	}
	return fallback
}

// ColumnRef points at one signal column inside one loaded file.
type ColumnRef struct {
	FileID string `json:"file_id"`
	Column string `json:"column"`
}

// Trace is one time series selected for display. It is a value object:
// Data and Time are copies owned by the trace, and transformations produce
// new traces rather than mutating existing ones.
type Trace struct {
	FileID  string      `json:"file_id"`
	Column  string      `json:"column"`
	Segment string      `json:"segment"`
	Side    Side        `json:"side,omitempty"`
	Region  string      `json:"region,omitempty"`
	Class   RegionClass `json:"region_class"`
	Sample  string      `json:"sample"`
	Data    []float64   `json:"data"`
	Time    []float64   `json:"time"`
}

// Clone returns a deep copy of the trace.
func (t Trace) Clone() Trace {
	c := t
	c.Data = append([]float64(nil), t.Data...)
	c.Time = append([]float64(nil), t.Time...)
	return c
}
