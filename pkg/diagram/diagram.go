// Package diagram holds the interaction state of inline diagram figures.
package diagram

import (
	"fmt"
	"math"
)

const (
	MinScale      = 0.5
	MaxScale      = 2.5
	ZoomStep      = 0.1
	DragThreshold = 3.0
	FitPadding    = 16.0
)

// Size is a width/height pair in pixels
type Size struct {
	Width  float64
	Height float64
}

// Empty reports whether either dimension is non-positive
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Diagram is the output of a diagram renderer
type Diagram struct {
	Markup string
	Bounds Size
}

// Transform is the pan/zoom state applied to a rendered figure
type Transform struct {
	Scale float64
	PanX  float64
	PanY  float64
}

// Identity returns the untransformed state
func Identity() Transform {
	return Transform{Scale: 1}
}

// Layout describes how a figure's native bounds map into its container
type Layout struct {
	ViewBox string
	Width   float64
	Height  float64
	Scale   float64
}

// Figure is one inline diagram and its interaction state
type Figure struct {
	ID     string
	Source string
	Markup string
	Native Size

	transform  Transform
	interacted bool
	showSource bool
	padding    float64

	pressed  bool
	dragging bool
	downX    float64
	downY    float64
	lastX    float64
	lastY    float64
}

// NewFigure creates a figure at identity transform
func NewFigure(id, source, markup string, native Size) *Figure {
	return &Figure{
		ID:        id,
		Source:    source,
		Markup:    markup,
		Native:    native,
		transform: Identity(),
		padding:   FitPadding,
	}
}

// SetPadding overrides the fit padding
func (f *Figure) SetPadding(p float64) {
	if p >= 0 {
		f.padding = p
	}
}

// Transform returns the current transform
func (f *Figure) Transform() Transform {
	return f.transform
}

// Interacted reports whether the user has panned or zoomed the figure
func (f *Figure) Interacted() bool {
	return f.interacted
}

// ShowingSource reports whether the raw source is displayed
func (f *Figure) ShowingSource() bool {
	return f.showSource
}

// PointerDown starts a potential drag
func (f *Figure) PointerDown(x, y float64) {
	f.pressed = true
	f.dragging = false
	f.downX, f.downY = x, y
	f.lastX, f.lastY = x, y
}

// PointerMove pans the figure once the pointer has travelled past the drag threshold
func (f *Figure) PointerMove(x, y float64) {
	if !f.pressed {
		return
	}
	if !f.dragging {
		if math.Hypot(x-f.downX, y-f.downY) < DragThreshold {
			return
		}
		f.dragging = true
	}
	f.transform.PanX += x - f.lastX
	f.transform.PanY += y - f.lastY
	f.lastX, f.lastY = x, y
	f.interacted = true
}

// PointerUp ends the gesture. It returns true when the gesture was a click
// rather than a drag.
func (f *Figure) PointerUp(x, y float64) bool {
	if !f.pressed {
		return false
	}
	f.PointerMove(x, y)
	activated := !f.dragging
	f.pressed = false
	f.dragging = false
	return activated
}

// Wheel zooms by one step; negative deltaY zooms in
func (f *Figure) Wheel(deltaY float64) {
	if deltaY == 0 {
		return
	}
	factor := 1 + ZoomStep
	if deltaY > 0 {
		factor = 1 - ZoomStep
	}
	f.transform.Scale = clamp(f.transform.Scale*factor, MinScale, MaxScale)
	f.interacted = true
}

// DoubleClick resets the figure to identity
func (f *Figure) DoubleClick() {
	f.transform = Identity()
	f.interacted = false
}

// Resize fits the native bounds plus padding into viewport. The second
// return is false when the figure keeps its current layout because the
// user has interacted with it or nothing can be fitted.
func (f *Figure) Resize(viewport Size) (Layout, bool) {
	if f.interacted || viewport.Empty() || f.Native.Empty() {
		return Layout{}, false
	}
	w := f.Native.Width + 2*f.padding
	h := f.Native.Height + 2*f.padding
	scale := math.Min(viewport.Width/w, viewport.Height/h)
	return Layout{
		ViewBox: fmt.Sprintf("%g %g %g %g", -f.padding, -f.padding, w, h),
		Width:   w * scale,
		Height:  h * scale,
		Scale:   scale,
	}, true
}

// ToggleSource switches between the rendered diagram and its source
func (f *Figure) ToggleSource() bool {
	f.showSource = !f.showSource
	return f.showSource
}

// Content returns what the figure should currently display
func (f *Figure) Content() string {
	if f.showSource {
		return f.Source
	}
	return f.Markup
}

// CSSTransform renders the transform as a CSS transform value
func (f *Figure) CSSTransform() string {
	t := f.transform
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", t.PanX, t.PanY, t.Scale)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
