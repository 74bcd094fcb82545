// Package render draws plot datasets as overlay or stacked charts and
// exports them to PDF documents.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tracevis/pkg/contracts/domain"
)

// regionOffset is the vertical spacing between region groups within one
// stacked panel.
const regionOffset = 20.0

// Color families per side; within a family the shade encodes the region.
var (
	leftColors = map[domain.RegionClass]drawing.Color{
		domain.RegionSoma:     {R: 255, G: 0, B: 0, A: 255},    // red
		domain.RegionAxon:     {R: 139, G: 0, B: 0, A: 255},    // darkred
		domain.RegionDendrite: {R: 205, G: 92, B: 92, A: 255},  // indianred
		domain.RegionMix:      {R: 178, G: 34, B: 34, A: 255},  // firebrick
	}
	rightColors = map[domain.RegionClass]drawing.Color{
		domain.RegionSoma:     {R: 0, G: 0, B: 255, A: 255},    // blue
		domain.RegionAxon:     {R: 0, G: 0, B: 139, A: 255},    // darkblue
		domain.RegionDendrite: {R: 65, G: 105, B: 225, A: 255}, // royalblue
		domain.RegionMix:      {R: 70, G: 130, B: 180, A: 255}, // steelblue
	}
	leftDefault   = drawing.Color{R: 255, G: 0, B: 0, A: 255}
	rightDefault  = drawing.Color{R: 0, G: 0, B: 255, A: 255}
	sidelessColor = drawing.Color{R: 0, G: 128, B: 0, A: 255} // green
	meanColor     = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	deltaColor    = drawing.Color{R: 128, G: 0, B: 128, A: 255}
)

// regionOrder fixes the stacking order of region groups within a panel.
var regionOrder = []domain.RegionClass{
	domain.RegionSoma,
	domain.RegionAxon,
	domain.RegionDendrite,
	domain.RegionSpine,
	domain.RegionMix,
	domain.RegionUnknown,
}

// Options sizes the rendered charts.
type Options struct {
	Width  int
	Height int
	DPI    float64
}

// Renderer draws plot datasets. It is stateless apart from its
// configuration; every call renders from scratch.
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a renderer.
func New(opts Options, logger *slog.Logger) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 1200
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.DPI <= 0 {
		opts.DPI = chart.DefaultDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{opts: opts, logger: logger.With(slog.String("component", "renderer"))}
}

// RenderPNG renders the dataset into one or more PNG pages: a single chart
// in overlay mode, one panel per segment in stacked mode. An empty dataset
// is an error; callers should skip the refresh instead.
func (r *Renderer) RenderPNG(ds domain.PlotDataset, opts domain.RenderOptions) ([][]byte, error) {
	if ds.Empty() {
		return nil, fmt.Errorf("render: dataset has no traces")
	}
	if opts.View == domain.ViewStacked {
		return r.renderStacked(ds, opts)
	}
	return r.renderOverlay(ds, opts)
}

func (r *Renderer) renderOverlay(ds domain.PlotDataset, opts domain.RenderOptions) ([][]byte, error) {
	var series []chart.Series
	for _, segName := range ds.OrderedNames() {
		for _, t := range ds.Segments[segName] {
			series = append(series, chart.ContinuousSeries{
				Name:    traceLabel(t),
				XValues: t.Time,
				YValues: t.Data,
				Style: chart.Style{
					StrokeColor: traceColor(t),
					StrokeWidth: 1.5,
				},
			})
		}
		if opts.ShowMean {
			if mean, times, ok := meanTrace(ds.Segments[segName]); ok {
				series = append(series, chart.ContinuousSeries{
					Name:    fmt.Sprintf("%s mean", segName),
					XValues: times,
					YValues: mean,
					Style: chart.Style{
						StrokeColor: meanColor,
						StrokeWidth: 2.5,
					},
				})
			}
		}
	}
	if opts.ShowDelta {
		if d, times, label, ok := deltaSeries(ds, opts.DeltaSegments); ok {
			series = append(series, chart.ContinuousSeries{
				Name:    label,
				XValues: times,
				YValues: d,
				Style: chart.Style{
					StrokeColor:     deltaColor,
					StrokeWidth:     2,
					StrokeDashArray: []float64{4, 2},
				},
			})
		}
	}

	c := chart.Chart{
		Width:  r.opts.Width,
		Height: r.opts.Height,
		DPI:    r.opts.DPI,
		XAxis:  chart.XAxis{Name: "Time (s)", Range: paddedTimeRange(series)},
		YAxis:  chart.YAxis{Name: yAxisLabel(opts.Normalization)},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.LegendThin(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render overlay: %w", err)
	}
	r.logger.Debug("rendered overlay chart", slog.Int("series", len(series)))
	return [][]byte{buf.Bytes()}, nil
}

func (r *Renderer) renderStacked(ds domain.PlotDataset, opts domain.RenderOptions) ([][]byte, error) {
	names := ds.OrderedNames()
	panelHeight := r.opts.Height / len(names)
	if panelHeight < 160 {
		panelHeight = 160
	}

	var pages [][]byte
	for _, segName := range names {
		series := stackedPanelSeries(ds.Segments[segName], opts)

		c := chart.Chart{
			Title:  segName,
			Width:  r.opts.Width,
			Height: panelHeight,
			DPI:    r.opts.DPI,
			XAxis:  chart.XAxis{Name: "Time (s)", Range: paddedTimeRange(series)},
			YAxis:  chart.YAxis{Name: yAxisLabel(opts.Normalization)},
			Series: series,
		}

		var buf bytes.Buffer
		if err := c.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render stacked panel %s: %w", segName, err)
		}
		pages = append(pages, buf.Bytes())
	}
	r.logger.Debug("rendered stacked chart", slog.Int("panels", len(pages)))
	return pages, nil
}

// stackedPanelSeries orders a segment's traces by region group and offsets
// each group vertically so regions read as separate bands.
func stackedPanelSeries(traces []domain.Trace, opts domain.RenderOptions) []chart.Series {
	grouped := make(map[domain.RegionClass][]domain.Trace)
	for _, t := range traces {
		grouped[t.Class] = append(grouped[t.Class], t)
	}

	var series []chart.Series
	offset := 0.0
	for _, class := range regionOrder {
		group := grouped[class]
		if len(group) == 0 {
			continue
		}
		for _, t := range group {
			shifted := make([]float64, len(t.Data))
			for i, v := range t.Data {
				shifted[i] = v + offset
			}
			series = append(series, chart.ContinuousSeries{
				Name:    traceLabel(t),
				XValues: t.Time,
				YValues: shifted,
				Style: chart.Style{
					StrokeColor: traceColor(t),
					StrokeWidth: 1.0,
				},
			})
		}
		if opts.ShowMean {
			if mean, times, ok := meanTrace(group); ok {
				shifted := make([]float64, len(mean))
				for i, v := range mean {
					shifted[i] = v + offset
				}
				series = append(series, chart.ContinuousSeries{
					XValues: times,
					YValues: shifted,
					Style: chart.Style{
						StrokeColor: meanColor,
						StrokeWidth: 2.0,
					},
				})
			}
		}
		offset += regionOffset
	}
	return series
}

// paddedTimeRange extends the x axis 10% of the data span past the last
// sample so the trace end is not drawn on the frame. Returns nil (auto
// range) when there is no usable span.
func paddedTimeRange(series []chart.Series) chart.Range {
	min, max := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		cs, ok := s.(chart.ContinuousSeries)
		if !ok {
			continue
		}
		for _, x := range cs.XValues {
			if x < min {
				min = x
			}
			if x > max {
				max = x
			}
		}
	}
	if min >= max {
		return nil
	}
	return &chart.ContinuousRange{Min: min, Max: max + (max-min)*0.1}
}

// meanTrace computes the pointwise mean of a segment's traces, truncated to
// the shortest trace. ok is false when there is nothing to average.
func meanTrace(traces []domain.Trace) (mean, times []float64, ok bool) {
	if len(traces) == 0 {
		return nil, nil, false
	}
	n := len(traces[0].Data)
	for _, t := range traces {
		if len(t.Data) < n {
			n = len(t.Data)
		}
	}
	if n == 0 {
		return nil, nil, false
	}
	mean = make([]float64, n)
	for _, t := range traces {
		for i := 0; i < n; i++ {
			mean[i] += t.Data[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(traces))
	}
	times = traces[0].Time
	if len(times) > n {
		times = times[:n]
	}
	return mean, times, true
}

// deltaSeries computes the difference of the first two delta segments' mean
// traces, truncated to the shorter of the two.
func deltaSeries(ds domain.PlotDataset, deltaSegments []string) (delta, times []float64, label string, ok bool) {
	if len(deltaSegments) < 2 {
		return nil, nil, "", false
	}
	a, aTimes, okA := meanTrace(ds.Segments[deltaSegments[0]])
	b, _, okB := meanTrace(ds.Segments[deltaSegments[1]])
	if !okA || !okB {
		return nil, nil, "", false
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	delta = make([]float64, n)
	for i := 0; i < n; i++ {
		delta[i] = a[i] - b[i]
	}
	times = aTimes
	if len(times) > n {
		times = times[:n]
	}
	return delta, times, fmt.Sprintf("delta %s-%s", deltaSegments[0], deltaSegments[1]), true
}

// traceColor picks the line color from side and region class: red family
// for left, blue family for right, green for sideless columns.
func traceColor(t domain.Trace) drawing.Color {
	switch t.Side {
	case domain.SideLeft:
		if c, ok := leftColors[t.Class]; ok {
			return c
		}
		return leftDefault
	case domain.SideRight:
		if c, ok := rightColors[t.Class]; ok {
			return c
		}
		return rightDefault
	default:
		return sidelessColor
	}
}

// traceLabel builds the legend label: segment, side, region, and a short
// sample prefix.
func traceLabel(t domain.Trace) string {
	var b strings.Builder
	b.WriteString(t.Segment)
	if lbl := t.Side.Label(); lbl != "" {
		b.WriteString(" (" + lbl + ")")
	}
	if t.Region != "" {
		b.WriteString(" (" + t.Region + ")")
	}
	sample := t.Sample
	if parts := strings.Split(sample, "_"); len(parts) > 3 {
		sample = strings.Join(parts[:3], "_")
	}
	if sample != "" {
		b.WriteString(" - " + sample)
	}
	return b.String()
}

// yAxisLabel returns the y axis caption for the active normalization mode.
func yAxisLabel(n domain.Normalization) string {
	switch n {
	case domain.NormalizationMean:
		return "Signal (% of mean)"
	case domain.NormalizationBaseline:
		return "dF/F0 (%)"
	default:
		return "Signal"
	}
}
