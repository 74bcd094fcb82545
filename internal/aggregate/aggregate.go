// Package aggregate turns the registry plus a user selection into the
// dataset handed to the renderer. Segments with the same name in different
// files merge into one entry, so the same anatomical segment can be
// compared across samples.
package aggregate

import (
	"tracevis/internal/registry"
	"tracevis/internal/segment"
	"tracevis/pkg/contracts/domain"
)

// SideRefs groups the column references of one segment by laterality.
type SideRefs struct {
	Left  []domain.ColumnRef `json:"left"`
	Right []domain.ColumnRef `json:"right"`
}

// Selection is the user's current choice of files, segments and sides.
type Selection struct {
	FileIDs   []string
	Segments  []string
	ShowLeft  bool
	ShowRight bool
}

// AllSegments scans the given files' working columns and groups sided
// signal columns by segment name, irrespective of source file. Unknown file
// IDs are skipped.
func AllSegments(reg *registry.Registry, fileIDs []string) map[string]SideRefs {
	out := make(map[string]SideRefs)
	for _, id := range fileIDs {
		f, ok := reg.Get(id)
		if !ok {
			continue
		}
		for _, col := range f.Working().Columns() {
			seg, side, ok := segment.ExtractSide(col)
			if !ok {
				continue
			}
			refs := out[seg]
			ref := domain.ColumnRef{FileID: id, Column: col}
			if side == domain.SideLeft {
				refs.Left = append(refs.Left, ref)
			} else {
				refs.Right = append(refs.Right, ref)
			}
			out[seg] = refs
		}
	}
	return out
}

// BuildPlotDataset collects one trace per selected column reference. A
// reference whose file is gone or whose column no longer exists in the
// file's working data is silently pruned; a segment left with no traces is
// omitted entirely rather than emitted empty. Trace data is copied out of
// the working frames, so later refreshes never patch a returned dataset in
// place.
func BuildPlotDataset(reg *registry.Registry, sel Selection) domain.PlotDataset {
	available := AllSegments(reg, sel.FileIDs)
	selected := make(map[string]bool, len(sel.FileIDs))
	for _, id := range sel.FileIDs {
		selected[id] = true
	}

	ds := domain.PlotDataset{Segments: make(map[string][]domain.Trace)}
	for _, segName := range sel.Segments {
		refs, ok := available[segName]
		if !ok {
			continue
		}
		var traces []domain.Trace
		if sel.ShowLeft {
			traces = appendTraces(reg, traces, refs.Left, segName, selected)
		}
		if sel.ShowRight {
			traces = appendTraces(reg, traces, refs.Right, segName, selected)
		}
		if len(traces) > 0 {
			ds.Segments[segName] = traces
		}
	}
	return ds
}

func appendTraces(reg *registry.Registry, traces []domain.Trace, refs []domain.ColumnRef, segName string, selected map[string]bool) []domain.Trace {
	for _, ref := range refs {
		if !selected[ref.FileID] {
			continue
		}
		f, ok := reg.Get(ref.FileID)
		if !ok {
			continue
		}
		data, ok := f.Working().ColumnCopy(ref.Column)
		if !ok {
			// Stale reference: the column vanished from the working
			// data since the selection was made.
			continue
		}
		_, side, _ := segment.ExtractSide(ref.Column)
		traces = append(traces, domain.Trace{
			FileID:  ref.FileID,
			Column:  ref.Column,
			Segment: segName,
			Side:    side,
			Region:  f.Info.Region,
			Class:   f.Info.Class,
			Sample:  f.Info.Sample,
			Data:    data,
			Time:    f.Working().TimeValues(f.SamplingFreq),
		})
	}
	return traces
}
