package chat

import (
	"strings"

	"github.com/killallgit/tessera/pkg/tui"
	"github.com/mattn/go-runewidth"
)

const (
	maxInputRows = 10
	// inputGutter is the prompt and border the textarea draws around its text.
	inputGutter = 4
	// chromeRows is the status bar plus the separators around it.
	chromeRows = 4
)

// inputRows is the number of screen rows value occupies when soft wrapped
// at wrap columns, capped at maxInputRows
func inputRows(value string, wrap int) int {
	if wrap <= 0 {
		wrap = tui.DefaultWidth
	}
	rows := 0
	for _, line := range strings.Split(value, "\n") {
		rows += max(1, (runewidth.StringWidth(line)+wrap-1)/wrap)
		if rows >= maxInputRows {
			return maxInputRows
		}
	}
	return rows
}

// inputWrap is the column the textarea wraps at. Before the first resize
// the textarea has no width and the projector's wrap stands in.
func (m *chatModel) inputWrap() int {
	if w := m.textarea.Width(); w > 0 {
		return w
	}
	return m.projector.Width() - inputGutter
}

// layout grows or shrinks the input to its content and hands the
// remaining rows to the transcript
func (m *chatModel) layout() {
	rows := inputRows(m.textarea.Value(), m.inputWrap())
	if m.textarea.Height() != rows {
		m.textarea.SetHeight(rows)
	}
	if m.height > 0 {
		m.viewport.Height = max(1, m.height-rows-chromeRows)
	}
}

// resize adopts a new terminal size. Glamour wraps when it is built, so a
// width change needs a new projector.
func (m *chatModel) resize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.textarea.SetWidth(max(1, width-inputGutter))
	m.layout()

	if width != m.projector.Width() {
		projector, err := tui.NewProjector(width, tui.WithStyles(m.styles), tui.WithGlamourStyle(m.glamourStyle))
		if err != nil {
			m.log.Warn("keeping previous projector", "error", err)
		} else {
			m.projector = projector
		}
	}
	m.fitFigure()
	m.updateViewportContent()
}
