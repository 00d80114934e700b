// Package template loads the static package skeleton a conversion starts from.
//
// A Template is read once and never modified, so one value can serve any
// number of conversions.
package template

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/content"
	"github.com/ivlev/pptx2h5p/internal/errs"
)

//go:embed all:skeleton
var skeleton embed.FS

type Template struct {
	fsys          fs.FS
	contentEntry  string
	manifestEntry string
	seed          *content.Document
	manifest      *content.Manifest
}

// Open loads the template named by cfg: the directory cfg.Dir, or the
// embedded skeleton when Dir is empty.
func Open(cfg config.TemplateConfig) (*Template, error) {
	if cfg.Dir == "" {
		return Embedded(cfg)
	}
	fi, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: template %s: %w", errs.ErrInputNotFound, cfg.Dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: template %s is not a directory", errs.ErrValidation, cfg.Dir)
	}
	return Load(os.DirFS(cfg.Dir), cfg)
}

// Embedded loads the skeleton compiled into the binary. It carries no player
// libraries; the hosting platform is expected to provide them.
func Embedded(cfg config.TemplateConfig) (*Template, error) {
	sub, err := fs.Sub(skeleton, "skeleton")
	if err != nil {
		return nil, err
	}
	return Load(sub, cfg)
}

// Load reads and validates the two generated entries of fsys. The seed
// content description must hold exactly one slide with exactly one element.
func Load(fsys fs.FS, cfg config.TemplateConfig) (*Template, error) {
	seedData, err := readEntry(fsys, cfg.ContentEntry)
	if err != nil {
		return nil, err
	}
	seed, err := content.ParseDocument(seedData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ContentEntry, err)
	}
	if n := len(seed.Presentation.Slides); n != 1 {
		return nil, fmt.Errorf("%w: %s: seed must hold exactly one slide, found %d", errs.ErrValidation, cfg.ContentEntry, n)
	}
	if n := len(seed.Presentation.Slides[0].Elements); n != 1 {
		return nil, fmt.Errorf("%w: %s: seed slide must hold exactly one element, found %d", errs.ErrValidation, cfg.ContentEntry, n)
	}

	manifestData, err := readEntry(fsys, cfg.ManifestEntry)
	if err != nil {
		return nil, err
	}
	manifest, err := content.ParseManifest(manifestData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ManifestEntry, err)
	}

	return &Template{
		fsys:          fsys,
		contentEntry:  cfg.ContentEntry,
		manifestEntry: cfg.ManifestEntry,
		seed:          seed,
		manifest:      manifest,
	}, nil
}

func readEntry(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: template has no %s", errs.ErrValidation, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading template %s: %w", errs.ErrIO, name, err)
	}
	return data, nil
}

// Seed is the parsed one-slide content description. It must not be modified.
func (t *Template) Seed() *content.Document {
	return t.seed
}

// Manifest is the parsed template manifest. It must not be modified.
func (t *Template) Manifest() *content.Manifest {
	return t.manifest
}

func (t *Template) ContentEntry() string {
	return t.contentEntry
}

func (t *Template) ManifestEntry() string {
	return t.manifestEntry
}

// IsGenerated reports whether name is one of the entries a conversion
// always regenerates instead of copying.
func (t *Template) IsGenerated(name string) bool {
	return name == t.contentEntry || name == t.manifestEntry
}

// WalkStatic calls fn for every regular file of the template in lexical
// order, skipping the generated entries.
func (t *Template) WalkStatic(fn func(name string, info fs.FileInfo) error) error {
	return fs.WalkDir(t.fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walking template: %w", errs.ErrIO, err)
		}
		if !d.Type().IsRegular() || t.IsGenerated(name) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", errs.ErrIO, name, err)
		}
		return fn(name, info)
	})
}

// Open opens a template file for reading.
func (t *Template) Open(name string) (fs.File, error) {
	return t.fsys.Open(name)
}
