// Package layout fits slide images onto the presentation canvas.
package layout

import (
	"fmt"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// Canvas is the side length of the percent-based canvas.
const Canvas = 100.0

// BoundingBox is an element frame in percent of the canvas.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FullCanvas covers the whole slide.
func FullCanvas() BoundingBox {
	return BoundingBox{X: 0, Y: 0, Width: Canvas, Height: Canvas}
}

// Fit returns the centered box that shows a width x height image on a canvas
// with the given aspect ratio without distortion. Wider images keep the full
// width and are letterboxed; narrower ones keep the full height.
func Fit(width, height int, targetRatio float64) (BoundingBox, error) {
	if width <= 0 || height <= 0 {
		return BoundingBox{}, fmt.Errorf("%w: image size %dx%d", errs.ErrValidation, width, height)
	}
	if targetRatio <= 0 {
		return BoundingBox{}, fmt.Errorf("%w: target ratio %g", errs.ErrValidation, targetRatio)
	}

	ratio := float64(width) / float64(height)
	box := FullCanvas()
	switch {
	case ratio > targetRatio:
		box.Height = Canvas * targetRatio / ratio
		box.Y = (Canvas - box.Height) / 2
	case ratio < targetRatio:
		box.Width = Canvas * ratio / targetRatio
		box.X = (Canvas - box.Width) / 2
	}
	return box, nil
}

// Within reports whether b lies on the canvas, allowing eps of rounding.
func (b BoundingBox) Within(eps float64) bool {
	return b.X >= -eps && b.Y >= -eps &&
		b.X+b.Width <= Canvas+eps && b.Y+b.Height <= Canvas+eps
}
