package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// Config holds everything a conversion run needs. There are no package-level
// settings; every stage receives the section it uses.
type Config struct {
	Template TemplateConfig `yaml:"template"`
	Layout   LayoutConfig   `yaml:"layout"`
	Images   ImagesConfig   `yaml:"images"`
	Render   RenderConfig   `yaml:"render"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`

	ShowStats    bool   `yaml:"showStats"`
	BuildVersion string `yaml:"-"`
}

// TemplateConfig locates the template tree and its two generated entries.
type TemplateConfig struct {
	Dir           string `yaml:"dir"`           // empty = embedded skeleton
	ContentEntry  string `yaml:"contentEntry"`  // slash-separated, relative to the template root
	ManifestEntry string `yaml:"manifestEntry"` // slash-separated, relative to the template root
}

type LayoutConfig struct {
	TargetRatio float64 `yaml:"targetRatio"` // canvas width / height
}

// ImagesConfig controls where slide images land inside the package and how
// the content document refers to them.
type ImagesConfig struct {
	ArchiveDir string `yaml:"archiveDir"`
	RefPrefix  string `yaml:"refPrefix"`
}

type RenderConfig struct {
	DPI     int    `yaml:"dpi"`
	Quality int    `yaml:"quality"` // JPEG quality 1-100
	Workers int    `yaml:"workers"` // 0 = sized from the host
	Office  string `yaml:"office"`  // LibreOffice binary
}

type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // searched for the newest presentation when no argument is given
}

type OutputConfig struct {
	Dir string `yaml:"dir"` // empty = next to the source
}

// Default returns the stock settings: a 2:1 canvas and the standard H5P entry names.
func Default() *Config {
	return &Config{
		Template: TemplateConfig{
			ContentEntry:  "content/content.json",
			ManifestEntry: "h5p.json",
		},
		Layout: LayoutConfig{TargetRatio: 2.0},
		Images: ImagesConfig{
			ArchiveDir: "content/images",
			RefPrefix:  "images/",
		},
		Render: RenderConfig{
			DPI:     150,
			Quality: 90,
			Office:  "soffice",
		},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(p string) (*Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: config %s: %w", errs.ErrInputNotFound, p, err)
		}
		return nil, fmt.Errorf("%w: reading config: %w", errs.ErrIO, err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing config: %w", errs.ErrValidation, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	if c.Layout.TargetRatio <= 0 {
		return fmt.Errorf("%w: layout.targetRatio must be positive, got %g", errs.ErrValidation, c.Layout.TargetRatio)
	}
	for name, entry := range map[string]string{
		"template.contentEntry":  c.Template.ContentEntry,
		"template.manifestEntry": c.Template.ManifestEntry,
		"images.archiveDir":      c.Images.ArchiveDir,
	} {
		if !fs.ValidPath(entry) || entry == "." {
			return fmt.Errorf("%w: %s is not a relative slash path: %q", errs.ErrValidation, name, entry)
		}
	}
	if c.Template.ContentEntry == c.Template.ManifestEntry {
		return fmt.Errorf("%w: content and manifest entries must differ", errs.ErrValidation)
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("%w: render.dpi must be positive, got %d", errs.ErrValidation, c.Render.DPI)
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("%w: render.quality must be within 1-100, got %d", errs.ErrValidation, c.Render.Quality)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers must not be negative", errs.ErrValidation)
	}
	return nil
}

// ImageEntry is the archive path of a slide image.
func (c *Config) ImageEntry(name string) string {
	return path.Join(c.Images.ArchiveDir, name)
}
