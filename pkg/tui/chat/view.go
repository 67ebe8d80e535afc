package chat

import (
	"strings"
)

func (m chatModel) View() string {
	parts := []string{m.viewport.View()}
	if m.viewer.Visible() && m.open != nil {
		parts = []string{m.projector.Artifact(*m.open)}
	}

	if bar := m.statusBar.View(); bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, m.textarea.View())
	return strings.Join(parts, "\n")
}
