// Package services orchestrates the core pipeline for the transport layer:
// registry lookups, selection aggregation, normalization, smoothing, and
// rendering.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"tracevis/internal/aggregate"
	"tracevis/internal/config"
	"tracevis/internal/normalize"
	"tracevis/internal/registry"
	"tracevis/internal/render"
	"tracevis/internal/smoothing"
	"tracevis/pkg/contracts/domain"
)

// TraceService owns the session's file registry and runs the
// select -> normalize -> aggregate -> smooth pipeline on each refresh.
// Every refresh recomputes and returns a fresh dataset by value; nothing
// previously returned is ever patched in place.
type TraceService struct {
	registry *registry.Registry
	renderer *render.Renderer
	defaults config.DefaultsConfig
	logger   *slog.Logger
}

// NewTraceService creates the session service.
func NewTraceService(reg *registry.Registry, renderer *render.Renderer, defaults config.DefaultsConfig, logger *slog.Logger) *TraceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TraceService{
		registry: reg,
		renderer: renderer,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "trace_service")),
	}
}

// Registry exposes the underlying registry for read-side queries.
func (s *TraceService) Registry() *registry.Registry { return s.registry }

// FileResult describes one file after a load attempt.
type FileResult struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Sample      string   `json:"sample"`
	Region      string   `json:"region,omitempty"`
	Segments    []string `json:"segments"`
	Error       string   `json:"error,omitempty"`
	ErrorCode   string   `json:"error_code,omitempty"`
}

// LoadFile loads one file into the registry, using the configured default
// sampling frequency when the caller passes zero. Load failures affect only
// this file.
func (s *TraceService) LoadFile(ctx context.Context, path string, samplingFreq float64) (*registry.LoadedFile, error) {
	if samplingFreq == 0 {
		samplingFreq = s.defaults.SamplingFreq
	}
	if samplingFreq <= 0 {
		return nil, fmt.Errorf("load %s: sampling frequency must be positive, got %g", path, samplingFreq)
	}
	f, err := s.registry.Load(path, samplingFreq)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "file loaded",
		"file", f.Name,
		"segments", s.registry.SegmentNames([]string{f.ID}))
	return f, nil
}

// ListFiles describes all loaded files in insertion order.
func (s *TraceService) ListFiles() []FileResult {
	ids := s.registry.IDs()
	out := make([]FileResult, 0, len(ids))
	for _, id := range ids {
		f, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		out = append(out, FileResult{
			ID:          f.ID,
			DisplayName: f.DisplayName(),
			Sample:      f.Info.Sample,
			Region:      f.Info.Region,
			Segments:    s.registry.SegmentNames([]string{f.ID}),
		})
	}
	return out
}

// PlotRequest is the full parameter set of one display refresh.
type PlotRequest struct {
	FileIDs          []string
	Segments         []string
	ShowLeft         bool
	ShowRight        bool
	Normalization    domain.Normalization
	BaselineStart    float64
	BaselineDuration float64
	View             domain.ViewMode
	SigmaPercent     float64
	ShowMean         bool
	ShowDelta        bool
}

// PlotResult bundles the dataset with the options the renderer needs and
// any non-fatal warnings raised during normalization.
type PlotResult struct {
	Dataset  domain.PlotDataset   `json:"dataset"`
	Options  domain.RenderOptions `json:"options"`
	Warnings []normalize.Warning  `json:"warnings,omitempty"`
}

// BuildPlot runs one display refresh: each selected file's working copy is
// replaced by a freshly normalized clone of its raw data, the selection is
// aggregated into traces, and smoothing is applied when requested. The raw
// copies are never touched.
func (s *TraceService) BuildPlot(ctx context.Context, req PlotRequest) (PlotResult, error) {
	if req.Normalization == "" {
		req.Normalization = domain.NormalizationNone
	}
	if !req.Normalization.Valid() {
		return PlotResult{}, fmt.Errorf("unknown normalization mode %q", req.Normalization)
	}
	if req.View == "" {
		req.View = domain.ViewOverlay
	}
	if !req.View.Valid() {
		return PlotResult{}, fmt.Errorf("unknown view mode %q", req.View)
	}

	var warnings []normalize.Warning
	for _, id := range req.FileIDs {
		f, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		working := f.RawClone()
		switch req.Normalization {
		case domain.NormalizationMean:
			var w []normalize.Warning
			working, w = normalize.ByMean(working)
			warnings = append(warnings, w...)
		case domain.NormalizationBaseline:
			start, duration := req.BaselineStart, req.BaselineDuration
			if duration == 0 {
				start, duration = s.defaults.BaselineStart, s.defaults.BaselineDuration
			}
			var w []normalize.Warning
			working, w = normalize.Baseline(working, start, duration, f.SamplingFreq)
			warnings = append(warnings, w...)
		}
		f.SetWorking(working)
	}

	ds := aggregate.BuildPlotDataset(s.registry, aggregate.Selection{
		FileIDs:   req.FileIDs,
		Segments:  req.Segments,
		ShowLeft:  req.ShowLeft,
		ShowRight: req.ShowRight,
	})

	if req.SigmaPercent > 0 {
		for name, traces := range ds.Segments {
			smoothed := make([]domain.Trace, len(traces))
			for i, t := range traces {
				smoothed[i] = smoothing.Smooth(t, req.SigmaPercent)
			}
			ds.Segments[name] = smoothed
		}
	}

	opts := domain.RenderOptions{
		Normalization: req.Normalization,
		View:          req.View,
		SamplingFreq:  s.samplingFreq(req.FileIDs),
		ShowMean:      req.ShowMean,
		ShowDelta:     req.ShowDelta,
	}
	if req.ShowDelta && len(req.Segments) >= 2 {
		opts.DeltaSegments = req.Segments[:2]
	}

	s.logger.DebugContext(ctx, "plot refreshed",
		"segments", len(ds.Segments),
		"traces", ds.TraceCount(),
		"normalization", string(req.Normalization),
		"warnings", len(warnings))

	return PlotResult{Dataset: ds, Options: opts, Warnings: warnings}, nil
}

// ResetFilters discards normalization and smoothing for the given files by
// restoring their working copies from raw, then rebuilds the selection from
// the raw values. Normalization is deliberately not reapplied; the caller
// triggers another refresh when it wants normalized data again.
func (s *TraceService) ResetFilters(ctx context.Context, sel aggregate.Selection) domain.PlotDataset {
	for _, id := range sel.FileIDs {
		if f, ok := s.registry.Get(id); ok {
			f.ResetWorking()
		}
	}
	ds := aggregate.BuildPlotDataset(s.registry, sel)
	s.logger.DebugContext(ctx, "filters reset", "files", len(sel.FileIDs), "traces", ds.TraceCount())
	return ds
}

// Export renders the given refresh and writes it as a PDF document.
func (s *TraceService) Export(ctx context.Context, req PlotRequest, outputPath string) (string, error) {
	result, err := s.BuildPlot(ctx, req)
	if err != nil {
		return "", err
	}
	if result.Dataset.Empty() {
		return "", fmt.Errorf("export: selection matches no traces")
	}
	path, err := s.renderer.ExportPDF(result.Dataset, result.Options, outputPath)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "figure exported", "path", path)
	return path, nil
}

// samplingFreq returns the sampling frequency shared by the selection,
// falling back to the configured default when files disagree or none are
// selected.
func (s *TraceService) samplingFreq(fileIDs []string) float64 {
	freq := 0.0
	for _, id := range fileIDs {
		f, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		if freq == 0 {
			freq = f.SamplingFreq
		} else if freq != f.SamplingFreq {
			return s.defaults.SamplingFreq
		}
	}
	if freq == 0 {
		return s.defaults.SamplingFreq
	}
	return freq
}
