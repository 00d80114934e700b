// Package renderer turns a presentation into one raster image per slide.
//
// Rendering sits outside the packaging core: the engine only needs a
// directory of images in slide order afterwards.
package renderer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/errs"
)

// Renderer writes the slides of input as images into outDir, one file per
// slide, named so that natural order is slide order.
type Renderer interface {
	Render(ctx context.Context, input, outDir string) error
}

// ForInput picks a renderer by the input's extension.
func ForInput(input string, cfg config.RenderConfig, logger *log.Logger) (Renderer, error) {
	pdf := NewFitzRenderer(cfg, logger)
	switch strings.ToLower(filepath.Ext(input)) {
	case ".pdf":
		return pdf, nil
	case ".pptx", ".ppt", ".odp", ".key":
		return &OfficeRenderer{Binary: cfg.Office, PDF: pdf, Logger: pdf.Logger}, nil
	default:
		return nil, fmt.Errorf("%w: no renderer for %s", errs.ErrValidation, filepath.Base(input))
	}
}

// SlideName is the file name of slide index (0-based).
func SlideName(index int) string {
	return fmt.Sprintf("Slide%d.jpg", index+1)
}
