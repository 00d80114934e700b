// Package expand turns a one-slide seed content description into one slide
// per slide image.
package expand

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ivlev/pptx2h5p/internal/content"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/layout"
	"github.com/ivlev/pptx2h5p/internal/source"
)

// Expander clones the seed slide for every image and points each clone at
// its image.
type Expander struct {
	RefPrefix string        // prepended to image names in file references
	NewID     func() string // subContentId generator
}

// New returns an Expander issuing random version 4 UUIDs.
func New(refPrefix string) *Expander {
	return &Expander{RefPrefix: refPrefix, NewID: uuid.NewString}
}

// Expand builds a new document from seed with one slide per image, in image
// order. The image element of every slide gets box and the pixel size of its
// own image. Every element with an action gets a fresh subContentId. seed is
// left untouched.
func (e *Expander) Expand(seed *content.Document, images []source.ImageAsset, box layout.BoundingBox) (*content.Document, error) {
	if len(images) == 0 {
		return nil, errs.ErrEmptyImageSet
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	doc, err := seed.Clone()
	if err != nil {
		return nil, err
	}
	slides := doc.Presentation.Slides

	// Captured before slide 0 is rewritten below; every appended slide is a
	// fresh copy of this shape.
	shape, err := slides[0].Clone()
	if err != nil {
		return nil, err
	}

	if len(slides) > len(images) {
		slides = slides[:len(images)]
	}

	ids := make(map[string]bool, len(images))
	for i, img := range images {
		if i >= len(slides) {
			s, err := shape.Clone()
			if err != nil {
				return nil, err
			}
			slides = append(slides, s)
		}

		el, err := slides[i].Image()
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		file := el.Action.Params.File
		file.Path = e.RefPrefix + img.Name
		file.Width = img.Width
		file.Height = img.Height
		if t := imageMime(img.Name); t != "" {
			file.Mime = t
		}
		el.SetBox(box)
		for j := range slides[i].Elements {
			if a := slides[i].Elements[j].Action; a != nil {
				a.SubContentID = e.uniqueID(ids)
			}
		}
	}

	doc.Presentation.Slides = slides
	return doc, nil
}

func (e *Expander) uniqueID(seen map[string]bool) string {
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	for {
		id := newID()
		if !seen[id] {
			seen[id] = true
			return id
		}
	}
}

func imageMime(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if !strings.HasPrefix(t, "image/") {
		return ""
	}
	return t
}
