package source

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ImageAsset is one slide image and its pixel size.
type ImageAsset struct {
	Name   string
	Width  int
	Height int
}

// ImageSource is the ordered inventory of slide images in one directory.
type ImageSource struct {
	dir   string
	names []string
}

// NewImageSource lists the images in dir in natural order, so that
// Slide2.jpg comes before Slide10.jpg.
func NewImageSource(dir string) (*ImageSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", errs.ErrEmptyImageSet, dir, err)
		}
		return nil, fmt.Errorf("%w: listing %s: %w", errs.ErrIO, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyImageSet, dir)
	}
	sort.Slice(names, func(i, j int) bool {
		return natural.Less(names[i], names[j])
	})

	return &ImageSource{dir: dir, names: names}, nil
}

func (s *ImageSource) Dir() string {
	return s.dir
}

// Names returns a copy of the ordered file names.
func (s *ImageSource) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *ImageSource) Count() int {
	return len(s.names)
}

// Dimensions decodes only the header of image index.
func (s *ImageSource) Dimensions(index int) (int, int, error) {
	p := filepath.Join(s.dir, s.names[index])
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decoding %s: %w", errs.ErrIO, p, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s has size %dx%d", errs.ErrValidation, p, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// Assets reads the size of every image, in inventory order.
func (s *ImageSource) Assets() ([]ImageAsset, error) {
	assets := make([]ImageAsset, len(s.names))
	for i, name := range s.names {
		w, h, err := s.Dimensions(i)
		if err != nil {
			return nil, err
		}
		assets[i] = ImageAsset{Name: name, Width: w, Height: h}
	}
	return assets, nil
}
