package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/pack"
	"github.com/ivlev/pptx2h5p/internal/renderer"
	"github.com/ivlev/pptx2h5p/internal/source"
	"github.com/ivlev/pptx2h5p/internal/template"
)

// PackageExt is the extension of generated packages.
const PackageExt = ".h5p"

// RendererFactory chooses a renderer for an input file.
type RendererFactory func(input string) (renderer.Renderer, error)

// Project runs one conversion: render, inventory, layout, expansion and
// assembly, strictly in that order.
type Project struct {
	Config    *config.Config
	Template  *template.Template
	Renderers RendererFactory
	Assembler *pack.Assembler
	Logger    *log.Logger
}

func NewProject(cfg *config.Config, tmpl *template.Template, renderers RendererFactory, logger *log.Logger) *Project {
	if logger == nil {
		logger = log.Default()
	}
	return &Project{
		Config:    cfg,
		Template:  tmpl,
		Renderers: renderers,
		Assembler: pack.NewAssembler(cfg, tmpl, logger),
		Logger:    logger,
	}
}

// Result describes a finished conversion.
type Result struct {
	Output   string
	ImageDir string
	Title    string
	Slides   int
}

// Run converts input, a presentation file or a directory of already
// rendered slide images, and returns where the package was written.
// Rendered images are left in place, also on failure.
func (p *Project) Run(ctx context.Context, input string) (*Result, error) {
	startTime := time.Now()

	input, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	fi, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrInputNotFound, input)
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	res := &Result{}
	var renderTime time.Duration
	if fi.IsDir() {
		res.ImageDir = input
		res.Title = filepath.Base(input)
	} else {
		res.Title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		res.ImageDir = filepath.Join(filepath.Dir(input), res.Title)

		if p.Renderers == nil {
			return nil, fmt.Errorf("%w: no renderer configured", errs.ErrExternalToolUnavailable)
		}
		r, err := p.Renderers(input)
		if err != nil {
			return nil, err
		}
		p.Logger.Info("extracting images", "input", input, "dir", res.ImageDir)
		renderStart := time.Now()
		if err := r.Render(ctx, input, res.ImageDir); err != nil {
			return nil, err
		}
		renderTime = time.Since(renderStart)
	}
	res.Output = p.outputPath(input, res.Title)
	if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	assembleStart := time.Now()
	src, err := source.NewImageSource(res.ImageDir)
	if err != nil {
		return nil, err
	}
	assets, err := src.Assets()
	if err != nil {
		return nil, err
	}
	res.Slides = len(assets)
	p.Logger.Info("adding images", "dir", res.ImageDir, "count", len(assets))

	p.Logger.Info("building package", "output", res.Output)
	err = p.Assembler.Assemble(pack.Request{
		Output:   res.Output,
		ImageDir: res.ImageDir,
		Images:   assets,
		Title:    res.Title,
	})
	if err != nil {
		return nil, err
	}

	if p.Config.ShowStats {
		p.Logger.Info("performance report",
			"build", p.Config.BuildVersion,
			"slides", res.Slides,
			"render", renderTime.Round(time.Millisecond),
			"assemble", time.Since(assembleStart).Round(time.Millisecond),
			"total", time.Since(startTime).Round(time.Millisecond),
		)
	}
	return res, nil
}

// outputPath places the package next to the absolute source path, or in
// Output.Dir when one is configured.
func (p *Project) outputPath(input, title string) string {
	dir := filepath.Dir(input)
	if p.Config.Output.Dir != "" {
		dir = p.Config.Output.Dir
	}
	return filepath.Join(dir, title+PackageExt)
}
