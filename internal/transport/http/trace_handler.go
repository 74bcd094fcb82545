// Package http exposes the core pipeline over chi routes. It is the "UI
// caller" of the core: handlers validate parameters, invoke service
// operations, and render structured results.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"tracevis/internal/aggregate"
	apierrors "tracevis/internal/errors"
	"tracevis/internal/normalize"
	"tracevis/internal/services"
	"tracevis/pkg/contracts/domain"
)

// TraceHandler handles all trace-pipeline HTTP requests.
type TraceHandler struct {
	service  *services.TraceService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTraceHandler creates a new trace handler.
func NewTraceHandler(service *services.TraceService, logger *slog.Logger) *TraceHandler {
	return &TraceHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "trace_handler")),
	}
}

// Routes returns the trace routes.
func (h *TraceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/files", h.LoadFiles)
	r.Get("/files", h.ListFiles)
	r.Get("/samples", h.GetSamples)
	r.Get("/samples/{sample}/files", h.GetSampleFiles)
	r.Post("/segments", h.GetSegments)
	r.Post("/plot", h.BuildPlot)
	r.Post("/plot/reset", h.ResetFilters)
	r.Post("/export", h.Export)

	return r
}

// LoadFileRequest is one file in a load request.
type LoadFileRequest struct {
	Path         string  `json:"path" validate:"required"`
	SamplingFreq float64 `json:"sampling_freq" validate:"omitempty,gt=0"`
}

// LoadFilesRequest is the body of POST /files.
type LoadFilesRequest struct {
	Files []LoadFileRequest `json:"files" validate:"required,min=1,dive"`
}

// LoadFilesResponse reports the outcome per file.
type LoadFilesResponse struct {
	Success bool                  `json:"success"`
	Files   []services.FileResult `json:"files"`
}

// LoadFiles handles POST /files. Each file loads independently: a failure
// is reported in that file's result and leaves other files untouched.
func (h *TraceHandler) LoadFiles(w http.ResponseWriter, r *http.Request) {
	var req LoadFilesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	resp := LoadFilesResponse{Success: true}
	for _, fr := range req.Files {
		f, err := h.service.LoadFile(r.Context(), fr.Path, fr.SamplingFreq)
		if err != nil {
			apiErr := apierrors.LoadError(err)
			resp.Success = false
			resp.Files = append(resp.Files, services.FileResult{
				ID:        fr.Path,
				Error:     apiErr.Message,
				ErrorCode: apiErr.ErrorCode,
			})
			h.logger.WarnContext(r.Context(), "file load failed",
				"path", fr.Path, "error", err)
			continue
		}
		resp.Files = append(resp.Files, services.FileResult{
			ID:          f.ID,
			DisplayName: f.DisplayName(),
			Sample:      f.Info.Sample,
			Region:      f.Info.Region,
			Segments:    h.service.Registry().SegmentNames([]string{f.ID}),
		})
	}
	render.JSON(w, r, resp)
}

// ListFiles handles GET /files.
func (h *TraceHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"files":   h.service.ListFiles(),
	})
}

// GetSamples handles GET /samples.
func (h *TraceHandler) GetSamples(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"samples": h.service.Registry().Samples(),
	})
}

// GetSampleFiles handles GET /samples/{sample}/files.
func (h *TraceHandler) GetSampleFiles(w http.ResponseWriter, r *http.Request) {
	sample := chi.URLParam(r, "sample")
	if sample == "" {
		h.renderError(w, r, apierrors.ErrValidation("sample", "Sample name is required"))
		return
	}
	ids := h.service.Registry().FilesForSample(sample)
	if len(ids) == 0 {
		h.renderError(w, r, apierrors.NotFoundError("sample"))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"success":  true,
		"sample":   sample,
		"file_ids": ids,
	})
}

// SegmentsRequest is the body of POST /segments.
type SegmentsRequest struct {
	FileIDs []string `json:"file_ids" validate:"required,min=1"`
}

// GetSegments handles POST /segments: the union of segment names across
// the given files.
func (h *TraceHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	var req SegmentsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"success":  true,
		"segments": h.service.Registry().SegmentNames(req.FileIDs),
	})
}

// PlotRequest is the body of POST /plot and POST /export.
type PlotRequest struct {
	FileIDs          []string `json:"file_ids" validate:"required,min=1"`
	Segments         []string `json:"segments" validate:"required,min=1"`
	ShowLeft         bool     `json:"show_left"`
	ShowRight        bool     `json:"show_right"`
	Normalization    string   `json:"normalization" validate:"omitempty,oneof=none mean baseline"`
	BaselineStart    float64  `json:"baseline_start"`
	BaselineDuration float64  `json:"baseline_duration" validate:"gte=0"`
	View             string   `json:"view" validate:"omitempty,oneof=overlay stacked"`
	SigmaPercent     float64  `json:"sigma_percent" validate:"gte=0,lte=100"`
	ShowMean         bool     `json:"show_mean"`
	ShowDelta        bool     `json:"show_delta"`
	OutputPath       string   `json:"output_path,omitempty"`
}

func (req PlotRequest) toService() services.PlotRequest {
	return services.PlotRequest{
		FileIDs:          req.FileIDs,
		Segments:         req.Segments,
		ShowLeft:         req.ShowLeft,
		ShowRight:        req.ShowRight,
		Normalization:    domain.Normalization(req.Normalization),
		BaselineStart:    req.BaselineStart,
		BaselineDuration: req.BaselineDuration,
		View:             domain.ViewMode(req.View),
		SigmaPercent:     req.SigmaPercent,
		ShowMean:         req.ShowMean,
		ShowDelta:        req.ShowDelta,
	}
}

// PlotResponse is the body returned by POST /plot.
type PlotResponse struct {
	Success  bool                 `json:"success"`
	Dataset  domain.PlotDataset   `json:"dataset"`
	Options  domain.RenderOptions `json:"options"`
	Warnings []normalize.Warning  `json:"warnings,omitempty"`
}

// BuildPlot handles POST /plot: one display refresh.
func (h *TraceHandler) BuildPlot(w http.ResponseWriter, r *http.Request) {
	var req PlotRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.service.BuildPlot(r.Context(), req.toService())
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	render.JSON(w, r, PlotResponse{
		Success:  true,
		Dataset:  result.Dataset,
		Options:  result.Options,
		Warnings: result.Warnings,
	})
}

// ResetRequest is the body of POST /plot/reset.
type ResetRequest struct {
	FileIDs   []string `json:"file_ids" validate:"required,min=1"`
	Segments  []string `json:"segments" validate:"required,min=1"`
	ShowLeft  bool     `json:"show_left"`
	ShowRight bool     `json:"show_right"`
}

// ResetFilters handles POST /plot/reset: working data is restored from the
// raw copies and returned without normalization; clients refresh again to
// reapply it.
func (h *TraceHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ds := h.service.ResetFilters(r.Context(), aggregate.Selection{
		FileIDs:   req.FileIDs,
		Segments:  req.Segments,
		ShowLeft:  req.ShowLeft,
		ShowRight: req.ShowRight,
	})
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"dataset": ds,
	})
}

// Export handles POST /export: renders the refresh and writes the PDF.
func (h *TraceHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req PlotRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.OutputPath == "" {
		h.renderError(w, r, apierrors.ErrValidation("output_path", "Output path is required"))
		return
	}
	path, err := h.service.Export(r.Context(), req.toService(), req.OutputPath)
	if err != nil {
		h.renderError(w, r, apierrors.RenderError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"path":    path,
	})
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, rendering the error response itself on failure.
func (h *TraceHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			h.renderError(w, r, apierrors.ErrValidation(verrs[0].Field(), verrs[0].Tag()))
		} else {
			h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return false
	}
	return true
}

func (h *TraceHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response", "error", err)
	}
}
