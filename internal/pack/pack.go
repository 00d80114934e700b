// Package pack assembles an interactive presentation package from a template
// and a set of slide images.
package pack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/content"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/expand"
	"github.com/ivlev/pptx2h5p/internal/layout"
	"github.com/ivlev/pptx2h5p/internal/source"
	"github.com/ivlev/pptx2h5p/internal/template"
)

// Request names one package to build.
type Request struct {
	Output   string              // archive path
	ImageDir string              // directory holding the images
	Images   []source.ImageAsset // slide order
	Title    string
}

// Package is the generated part of an archive.
type Package struct {
	Document *content.Document
	Manifest *content.Manifest
	Box      layout.BoundingBox
}

// Build computes the generated entries without touching the disk.
//
// The layout box comes from the first image and is applied to every slide.
func Build(tmpl *template.Template, exp *expand.Expander, targetRatio float64, images []source.ImageAsset, title string) (*Package, error) {
	if len(images) == 0 {
		return nil, errs.ErrEmptyImageSet
	}
	box, err := layout.Fit(images[0].Width, images[0].Height, targetRatio)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", images[0].Name, err)
	}
	doc, err := exp.Expand(tmpl.Seed(), images, box)
	if err != nil {
		return nil, err
	}
	return &Package{
		Document: doc,
		Manifest: tmpl.Manifest().WithTitle(title),
		Box:      box,
	}, nil
}

// Assembler writes packages. It holds no per-run state and may be reused.
type Assembler struct {
	Config   *config.Config
	Template *template.Template
	Expander *expand.Expander
	Logger   *log.Logger
}

func NewAssembler(cfg *config.Config, tmpl *template.Template, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{
		Config:   cfg,
		Template: tmpl,
		Expander: expand.New(cfg.Images.RefPrefix),
		Logger:   logger,
	}
}

// Assemble builds the package for req and writes it to req.Output.
// The archive only appears at req.Output once it is complete; on failure
// nothing is left behind.
func (a *Assembler) Assemble(req Request) error {
	pkg, err := Build(a.Template, a.Expander, a.Config.Layout.TargetRatio, req.Images, req.Title)
	if err != nil {
		return err
	}
	a.Logger.Debug("layout", "x", pkg.Box.X, "y", pkg.Box.Y, "width", pkg.Box.Width, "height", pkg.Box.Height)

	return writeAtomic(req.Output, func(w io.Writer) error {
		return a.write(w, req, pkg)
	})
}

func (a *Assembler) write(w io.Writer, req Request, pkg *Package) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: finishing archive: %w", errs.ErrIO, cerr)
		}
	}()

	generated := make(map[string]bool, len(req.Images))
	for _, img := range req.Images {
		generated[a.Config.ImageEntry(img.Name)] = true
	}

	copied := 0
	err = a.Template.WalkStatic(func(name string, info fs.FileInfo) error {
		if generated[name] {
			return nil
		}
		copied++
		return a.copyTemplateFile(zw, name, info)
	})
	if err != nil {
		return err
	}
	a.Logger.Debug("copied template files", "count", copied)

	docData, err := pkg.Document.Encode()
	if err != nil {
		return fmt.Errorf("%w: encoding content: %w", errs.ErrValidation, err)
	}
	if err := writeEntry(zw, a.Template.ContentEntry(), docData); err != nil {
		return err
	}

	for _, img := range req.Images {
		if err := addImage(zw, filepath.Join(req.ImageDir, img.Name), a.Config.ImageEntry(img.Name)); err != nil {
			return err
		}
	}
	a.Logger.Debug("added images", "count", len(req.Images))

	manifestData, err := pkg.Manifest.Encode()
	if err != nil {
		return fmt.Errorf("%w: encoding manifest: %w", errs.ErrValidation, err)
	}
	return writeEntry(zw, a.Template.ManifestEntry(), manifestData)
}

func (a *Assembler) copyTemplateFile(zw *zip.Writer, name string, info fs.FileInfo) error {
	src, err := a.Template.Open(name)
	if err != nil {
		return fmt.Errorf("%w: template %s: %w", errs.ErrIO, name, err)
	}
	defer src.Close()

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrIO, name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrIO, name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("%w: copying %s: %w", errs.ErrIO, name, err)
	}
	return nil
}

func addImage(zw *zip.Writer, p, entry string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("%w: image %s: %w", errs.ErrIO, p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: image %s: %w", errs.ErrIO, p, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: image %s: %w", errs.ErrIO, p, err)
	}
	hdr.Name = entry
	// JPEG and PNG data does not shrink further.
	hdr.Method = zip.Store

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrIO, entry, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("%w: copying %s: %w", errs.ErrIO, p, err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrIO, name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", errs.ErrIO, name, err)
	}
	return nil
}
