package renderer

import (
	"bufio"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/system"
)

// FitzRenderer rasterizes PDF pages with MuPDF.
type FitzRenderer struct {
	DPI     int
	Quality int
	Workers int // 0 = sized from the host
	Logger  *log.Logger
}

func NewFitzRenderer(cfg config.RenderConfig, logger *log.Logger) *FitzRenderer {
	if logger == nil {
		logger = log.Default()
	}
	return &FitzRenderer{
		DPI:     cfg.DPI,
		Quality: cfg.Quality,
		Workers: cfg.Workers,
		Logger:  logger,
	}
}

func (r *FitzRenderer) Render(ctx context.Context, input, outDir string) error {
	doc, err := fitz.New(input)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", errs.ErrExternalToolUnavailable, input, err)
	}
	pageCount := doc.NumPage()
	var frameBytes uint64
	if pageCount > 0 {
		if rect, err := doc.Bound(0); err == nil {
			scale := float64(r.DPI) / 72
			frameBytes = uint64(float64(rect.Dx())*scale) * uint64(float64(rect.Dy())*scale) * 4
		}
	}
	doc.Close()

	if pageCount == 0 {
		return fmt.Errorf("%w: %s has no pages", errs.ErrEmptyImageSet, input)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	workers := system.RenderWorkers(r.Workers, frameBytes)
	if workers > pageCount {
		workers = pageCount
	}
	r.Logger.Info("rendering pages", "pages", pageCount, "dpi", r.DPI, "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.renderPage(input, i, filepath.Join(outDir, SlideName(i))); err != nil {
				return err
			}
			r.Logger.Debug("page ready", "page", i+1, "of", pageCount)
			return nil
		})
	}
	return g.Wait()
}

// renderPage opens its own document so workers never share MuPDF state.
func (r *FitzRenderer) renderPage(input string, index int, dst string) error {
	doc, err := fitz.New(input)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", errs.ErrExternalToolUnavailable, input, err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(index, float64(r.DPI))
	if err != nil {
		return fmt.Errorf("%w: rendering page %d: %w", errs.ErrExternalToolUnavailable, index+1, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	w := bufio.NewWriter(f)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: r.Quality}); err != nil {
		f.Close()
		return fmt.Errorf("%w: encoding %s: %w", errs.ErrIO, dst, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %w", errs.ErrIO, dst, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: writing %s: %w", errs.ErrIO, dst, err)
	}
	return nil
}
