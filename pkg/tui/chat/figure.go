package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/killallgit/tessera/pkg/markdown"
)

// panStep is how far one pan key moves a figure, in pixels
const panStep = 3 * markdown.CharWidth

var panKeys = map[string][2]float64{
	"ctrl+shift+left":  {-panStep, 0},
	"ctrl+shift+right": {panStep, 0},
	"ctrl+shift+up":    {0, -panStep},
	"ctrl+shift+down":  {0, panStep},
}

// latestFigure is the last inline diagram in the newest answer that has one
func (m *chatModel) latestFigure() (*diagram.Figure, bool) {
	turns := m.manager.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Stream == nil {
			continue
		}
		blocks := turns[i].Stream.MainBlocks()
		for j := len(blocks) - 1; j >= 0; j-- {
			if figs := blocks[j].Figures; len(figs) > 0 {
				return figs[len(figs)-1], true
			}
		}
	}
	return nil, false
}

// fitFigure fits the latest figure into the transcript area, measured in
// the same glyph metrics the diagram bounds use. A figure the user has
// moved keeps its previous fit.
func (m *chatModel) fitFigure() {
	fig, ok := m.latestFigure()
	if !ok {
		m.fit = diagram.Layout{}
		return
	}
	area := diagram.Size{
		Width:  float64(m.viewport.Width) * markdown.CharWidth,
		Height: float64(m.viewport.Height) * markdown.LineHeight,
	}
	if layout, ok := fig.Resize(area); ok {
		m.fit = layout
	}
}

// handleFigureKey applies zoom, pan and reset keys to the latest figure.
// It reports false for keys it does not own.
func (m *chatModel) handleFigureKey(k string) (tea.Cmd, bool) {
	delta, pan := panKeys[k]
	switch {
	case pan, k == "ctrl+up", k == "ctrl+down", k == "ctrl+r":
	default:
		return nil, false
	}

	fig, ok := m.latestFigure()
	if !ok {
		m.manager.Notices().Warn("No diagram to adjust.")
		return m.refresh(), true
	}

	switch {
	case pan:
		fig.PointerDown(0, 0)
		fig.PointerUp(delta[0], delta[1])
	case k == "ctrl+up":
		fig.Wheel(-1)
	case k == "ctrl+down":
		fig.Wheel(1)
	case k == "ctrl+r":
		fig.DoubleClick()
		m.fitFigure()
	}
	m.manager.Notices().Info(describeFigure(fig, m.fit))
	return m.refresh(), true
}

func describeFigure(fig *diagram.Figure, fit diagram.Layout) string {
	t := fig.Transform()
	msg := fmt.Sprintf("%s: zoom %.0f%%, offset %g,%g", fig.ID, t.Scale*100, t.PanX, t.PanY)
	if fit.Scale > 0 {
		msg += fmt.Sprintf(", fit %.2f", fit.Scale)
	}
	return msg
}
