// Package content models the two JSON documents a package generates: the
// course presentation content description and the package manifest.
package content

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/layout"
)

// Document is the content description. Only the members the converter
// touches are typed; everything else is carried through untouched.
type Document struct {
	Presentation Presentation `json:"presentation"`
	extra        extra
}

type Presentation struct {
	Slides []Slide `json:"slides"`
	extra  extra
}

type Slide struct {
	Elements []Element `json:"elements"`
	extra    extra
}

// Element is a positioned item on a slide. X, Y, Width and Height are
// percentages of the canvas.
type Element struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Action *Action `json:"action,omitempty"`
	extra  extra
}

// Action is the content shown by an element. SubContentID lets the player
// keep per-element state.
type Action struct {
	Library      string      `json:"library,omitempty"`
	SubContentID string      `json:"subContentId"`
	Params       ImageParams `json:"params"`
	extra        extra
}

type ImageParams struct {
	File  *File `json:"file,omitempty"`
	extra extra
}

// File references an image inside the package. Width and Height are pixels.
type File struct {
	Path   string `json:"path"`
	Mime   string `json:"mime,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	extra  extra
}

// ParseDocument decodes a content description and checks that its first
// slide can serve as the seed for expansion.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: content description: %w", errs.ErrValidation, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the shape the expander relies on: at least one slide, and
// every slide's first element carrying an image file reference.
func (d *Document) Validate() error {
	if len(d.Presentation.Slides) == 0 {
		return fmt.Errorf("%w: presentation has no slides", errs.ErrValidation)
	}
	for i := range d.Presentation.Slides {
		if _, err := d.Presentation.Slides[i].Image(); err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Document) Clone() (*Document, error) {
	var c Document
	if err := roundTrip(d, &c); err != nil {
		return nil, fmt.Errorf("%w: cloning document: %w", errs.ErrValidation, err)
	}
	return &c, nil
}

// Encode returns the JSON form written into a package.
func (d *Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Clone returns a deep copy of s.
func (s *Slide) Clone() (Slide, error) {
	var c Slide
	if err := roundTrip(s, &c); err != nil {
		return Slide{}, fmt.Errorf("%w: cloning slide: %w", errs.ErrValidation, err)
	}
	return c, nil
}

// Image returns the slide's sole image element.
func (s *Slide) Image() (*Element, error) {
	if len(s.Elements) == 0 {
		return nil, fmt.Errorf("%w: slide has no elements", errs.ErrValidation)
	}
	el := &s.Elements[0]
	if el.Action == nil {
		return nil, fmt.Errorf("%w: element has no action", errs.ErrValidation)
	}
	if el.Action.Params.File == nil {
		return nil, fmt.Errorf("%w: element action has no file", errs.ErrValidation)
	}
	return el, nil
}

func (e *Element) Box() layout.BoundingBox {
	return layout.BoundingBox{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

func (e *Element) SetBox(b layout.BoundingBox) {
	e.X, e.Y, e.Width, e.Height = b.X, b.Y, b.Width, b.Height
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	x, err := splitExtra(data, "presentation")
	d.extra = x
	return err
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return mergeExtra(plain(d), d.extra)
}

func (p *Presentation) UnmarshalJSON(data []byte) error {
	type plain Presentation
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	x, err := splitExtra(data, "slides")
	p.extra = x
	return err
}

func (p Presentation) MarshalJSON() ([]byte, error) {
	type plain Presentation
	return mergeExtra(plain(p), p.extra)
}

func (s *Slide) UnmarshalJSON(data []byte) error {
	type plain Slide
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	x, err := splitExtra(data, "elements")
	s.extra = x
	return err
}

func (s Slide) MarshalJSON() ([]byte, error) {
	type plain Slide
	return mergeExtra(plain(s), s.extra)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	if err := json.Unmarshal(data, (*plain)(e)); err != nil {
		return err
	}
	x, err := splitExtra(data, "x", "y", "width", "height", "action")
	e.extra = x
	return err
}

func (e Element) MarshalJSON() ([]byte, error) {
	type plain Element
	return mergeExtra(plain(e), e.extra)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	x, err := splitExtra(data, "library", "subContentId", "params")
	a.extra = x
	return err
}

func (a Action) MarshalJSON() ([]byte, error) {
	type plain Action
	return mergeExtra(plain(a), a.extra)
}

func (p *ImageParams) UnmarshalJSON(data []byte) error {
	type plain ImageParams
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	x, err := splitExtra(data, "file")
	p.extra = x
	return err
}

func (p ImageParams) MarshalJSON() ([]byte, error) {
	type plain ImageParams
	return mergeExtra(plain(p), p.extra)
}

func (f *File) UnmarshalJSON(data []byte) error {
	type plain File
	if err := json.Unmarshal(data, (*plain)(f)); err != nil {
		return err
	}
	x, err := splitExtra(data, "path", "mime", "width", "height")
	f.extra = x
	return err
}

func (f File) MarshalJSON() ([]byte, error) {
	type plain File
	return mergeExtra(plain(f), f.extra)
}
