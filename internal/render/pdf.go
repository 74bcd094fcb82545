package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"tracevis/pkg/contracts/domain"
)

// ExportPDF renders the dataset and writes it as a PDF document to
// outputPath. Overlay mode produces a single page; stacked mode stacks the
// segment panels down the page, spilling onto further pages as needed.
// A missing .pdf extension is appended.
func (r *Renderer) ExportPDF(ds domain.PlotDataset, opts domain.RenderOptions, outputPath string) (string, error) {
	pages, err := r.RenderPNG(ds, opts)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(outputPath), ".pdf") {
		outputPath += ".pdf"
	}

	// Landscape A4 in millimeters; images are scaled to the printable
	// width at the configured DPI.
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()
	const margin = 10.0
	printableW := pageW - 2*margin

	y := pageH // force a page on the first image
	for i, png := range pages {
		name := fmt.Sprintf("panel-%d", i)
		info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		if pdf.Err() {
			return "", fmt.Errorf("export pdf: %v", pdf.Error())
		}
		h := printableW * info.Height() / info.Width()
		if y+h > pageH-margin {
			pdf.AddPage()
			y = margin
		}
		pdf.ImageOptions(name, margin, y, printableW, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		y += h
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("export pdf: write %s: %w", outputPath, err)
	}
	r.logger.Info("exported figure",
		slog.String("path", outputPath),
		slog.Int("pages", len(pages)),
		slog.Float64("dpi", r.opts.DPI))
	return outputPath, nil
}
