package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/tessera/pkg/tui/theme"
)

// StatusModel represents the status bar component
type StatusModel struct {
	spinner   spinner.Model
	activity  Activity
	timer     time.Duration // Elapsed time of the busy activity
	startTime time.Time
	summary   string
	notice    string
	width     int
}

// NewStatusModel creates a new status bar model
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorPurple)

	return StatusModel{spinner: s}
}

// Activity returns the current activity
func (m StatusModel) Activity() Activity {
	return m.activity
}
