package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/tessera/pkg/tui/theme"
)

func (m StatusModel) View() string {
	var components []string

	if m.activity.Busy() {
		components = append(components, m.spinner.View())
	}

	if name := m.activity.DisplayName(); name != "" {
		iconStyle := lipgloss.NewStyle().Foreground(theme.ColorOrange)
		components = append(components, iconStyle.Render(m.activity.Icon())+" "+name)
	}

	if m.activity.Busy() && m.timer > 0 {
		minutes := int(m.timer.Minutes())
		seconds := int(m.timer.Seconds()) % 60
		timerStyle := lipgloss.NewStyle().Foreground(theme.ColorBase04)
		components = append(components, timerStyle.Render(fmt.Sprintf("%02d:%02d", minutes, seconds)))
	}

	if m.summary != "" {
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorMuted).Render(m.summary))
	}

	if m.notice != "" {
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorInfo).Render(m.notice))
	}

	if len(components) == 0 {
		return ""
	}

	separator := lipgloss.NewStyle().Foreground(theme.ColorBase03).Render(" | ")
	statusLine := strings.Join(components, separator)

	bar := lipgloss.NewStyle().
		Background(theme.ColorBase01).
		Padding(0, 1)
	if m.width > 0 {
		bar = bar.Width(m.width)
	}
	return bar.Render(statusLine)
}
