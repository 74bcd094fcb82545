// Package registry keeps the loaded recording files for the lifetime of a
// session. Entries are keyed by file path; loading the same path again
// overwrites the prior entry.
package registry

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"tracevis/internal/frame"
	"tracevis/internal/segment"
	"tracevis/pkg/contracts/domain"
)

// LoadedFile is one registry entry: the immutable raw data as loaded, the
// working copy the normalization pipeline replaces on each refresh, and the
// metadata parsed at load time.
type LoadedFile struct {
	ID           string
	Name         string
	Info         domain.FileInfo
	Segments     segment.Segments
	SamplingFreq float64

	raw     *frame.Frame
	working *frame.Frame
}

// Raw returns the immutable as-loaded frame. Callers must not modify it;
// use RawClone for a mutable copy.
func (f *LoadedFile) Raw() *frame.Frame { return f.raw }

// RawClone returns a mutable deep copy of the as-loaded frame.
func (f *LoadedFile) RawClone() *frame.Frame { return f.raw.Clone() }

// Working returns the current working frame.
func (f *LoadedFile) Working() *frame.Frame { return f.working }

// SetWorking replaces the working frame, typically with a freshly
// normalized clone of the raw data.
func (f *LoadedFile) SetWorking(fr *frame.Frame) { f.working = fr }

// ResetWorking discards all transforms, restoring the working frame to the
// as-loaded values.
func (f *LoadedFile) ResetWorking() { f.working = f.raw.Clone() }

// DisplayName returns the list label for this file: "sample - region" when
// a region was parsed, else the bare file name.
func (f *LoadedFile) DisplayName() string { return f.Info.DisplayName(f.Name) }

// Registry is the in-memory file store. It is owned by the session service
// and passed by reference to the aggregator; there is no ambient global
// state. The mutex guards against concurrent HTTP callers; each individual
// operation is synchronous.
type Registry struct {
	mu     sync.RWMutex
	files  map[string]*LoadedFile
	order  []string
	logger *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		files:  make(map[string]*LoadedFile),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Load reads the file at path and stores it under its path as ID.
// A previous entry for the same path is overwritten, sampling frequency
// included.
func (r *Registry) Load(path string, samplingFreq float64) (*LoadedFile, error) {
	fr, err := frame.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return r.Put(path, fr, samplingFreq), nil
}

// Put stores already-decoded tabular data under the given ID, computing
// filename metadata and the segment index. Overwrite wins on duplicate IDs.
func (r *Registry) Put(id string, fr *frame.Frame, samplingFreq float64) *LoadedFile {
	name := filepath.Base(id)
	entry := &LoadedFile{
		ID:           id,
		Name:         name,
		Info:         segment.ParseFilename(name),
		Segments:     segment.Identify(fr.Columns()),
		SamplingFreq: samplingFreq,
		raw:          fr,
		working:      fr.Clone(),
	}

	r.mu.Lock()
	if _, exists := r.files[id]; !exists {
		r.order = append(r.order, id)
	}
	r.files[id] = entry
	r.mu.Unlock()

	r.logger.Info("file loaded",
		slog.String("file", name),
		slog.String("sample", entry.Info.Sample),
		slog.String("region", entry.Info.Region),
		slog.Int("signal_columns", len(entry.Segments.All)),
		slog.Float64("sampling_freq", samplingFreq))

	return entry
}

// Get returns the entry for the given file ID.
func (r *Registry) Get(id string) (*LoadedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	return f, ok
}

// Len returns the number of loaded files.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// IDs returns all file IDs in insertion order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Samples returns the sorted distinct sample names across all entries.
func (r *Registry) Samples() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var samples []string
	for _, f := range r.files {
		if !seen[f.Info.Sample] {
			seen[f.Info.Sample] = true
			samples = append(samples, f.Info.Sample)
		}
	}
	sort.Strings(samples)
	return samples
}

// FilesForSample returns the IDs of all entries belonging to the given
// sample, in insertion order.
func (r *Registry) FilesForSample(sample string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.order {
		if r.files[id].Info.Sample == sample {
			ids = append(ids, id)
		}
	}
	return ids
}

// SegmentNames returns the sorted distinct segment names (side ignored)
// found across the given files' columns. Unknown IDs are skipped.
func (r *Registry) SegmentNames(fileIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, id := range fileIDs {
		f, ok := r.files[id]
		if !ok {
			continue
		}
		for _, col := range f.working.Columns() {
			if seg, _, ok := segment.ExtractSide(col); ok && !seen[seg] {
				seen[seg] = true
				names = append(names, seg)
			}
		}
	}
	sort.Strings(names)
	return names
}

// ColumnsForSegment returns the column names in one file matching a segment
// name. An empty side matches both sides.
func (r *Registry) ColumnsForSegment(fileID, segmentName string, side domain.Side) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[fileID]
	if !ok {
		return nil
	}
	var columns []string
	for _, col := range f.working.Columns() {
		seg, colSide, ok := segment.ExtractSide(col)
		if !ok || seg != segmentName {
			continue
		}
		if side == "" || colSide == side {
			columns = append(columns, col)
		}
	}
	return columns
}
