package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFigure() *Figure {
	return NewFigure("figure-1", "graph TD; A-->B", "<svg/>", Size{Width: 200, Height: 100})
}

func TestFigureStartsAtIdentity(t *testing.T) {
	f := newTestFigure()
	assert.Equal(t, Identity(), f.Transform())
	assert.False(t, f.Interacted())
	assert.Equal(t, "translate(0px, 0px) scale(1)", f.CSSTransform())
}

func TestPointerGestures(t *testing.T) {
	t.Run("small movement is an activation", func(t *testing.T) {
		f := newTestFigure()
		f.PointerDown(10, 10)
		f.PointerMove(11, 11)
		activated := f.PointerUp(12, 10)

		assert.True(t, activated)
		assert.Equal(t, Identity(), f.Transform())
		assert.False(t, f.Interacted())
	})

	t.Run("movement past the threshold pans", func(t *testing.T) {
		f := newTestFigure()
		f.PointerDown(10, 10)
		f.PointerMove(20, 15)
		f.PointerMove(25, 5)
		activated := f.PointerUp(25, 5)

		assert.False(t, activated)
		assert.Equal(t, 15.0, f.Transform().PanX)
		assert.Equal(t, -5.0, f.Transform().PanY)
		assert.True(t, f.Interacted())
	})

	t.Run("moves without a press are ignored", func(t *testing.T) {
		f := newTestFigure()
		f.PointerMove(100, 100)
		assert.False(t, f.PointerUp(100, 100))
		assert.Equal(t, Identity(), f.Transform())
	})
}

func TestWheelZoomIsClamped(t *testing.T) {
	f := newTestFigure()

	f.Wheel(-1)
	assert.InDelta(t, 1.1, f.Transform().Scale, 1e-9)

	for i := 0; i < 50; i++ {
		f.Wheel(-1)
	}
	assert.Equal(t, MaxScale, f.Transform().Scale)

	for i := 0; i < 50; i++ {
		f.Wheel(1)
	}
	assert.Equal(t, MinScale, f.Transform().Scale)

	f.Wheel(0)
	assert.Equal(t, MinScale, f.Transform().Scale)
}

func TestDoubleClickResets(t *testing.T) {
	f := newTestFigure()
	f.Wheel(-1)
	f.PointerDown(0, 0)
	f.PointerUp(50, 50)
	require.True(t, f.Interacted())

	f.DoubleClick()
	assert.Equal(t, Identity(), f.Transform())
	assert.False(t, f.Interacted())
}

func TestResizeFitsUntilInteraction(t *testing.T) {
	f := newTestFigure()

	layout, ok := f.Resize(Size{Width: 464, Height: 1000})
	require.True(t, ok)
	assert.Equal(t, "-16 -16 232 132", layout.ViewBox)
	assert.InDelta(t, 2.0, layout.Scale, 1e-9)
	assert.InDelta(t, 464.0, layout.Width, 1e-9)
	assert.InDelta(t, 264.0, layout.Height, 1e-9)

	f.Wheel(-1)
	_, ok = f.Resize(Size{Width: 300, Height: 300})
	assert.False(t, ok)

	f.DoubleClick()
	_, ok = f.Resize(Size{Width: 300, Height: 300})
	assert.True(t, ok)
}

func TestResizeIgnoresEmptySizes(t *testing.T) {
	f := NewFigure("f", "src", "", Size{})
	_, ok := f.Resize(Size{Width: 100, Height: 100})
	assert.False(t, ok)

	_, ok = newTestFigure().Resize(Size{})
	assert.False(t, ok)
}

func TestToggleSource(t *testing.T) {
	f := newTestFigure()
	assert.Equal(t, "<svg/>", f.Content())

	assert.True(t, f.ToggleSource())
	assert.Equal(t, "graph TD; A-->B", f.Content())

	assert.False(t, f.ToggleSource())
	assert.Equal(t, "<svg/>", f.Content())
}
