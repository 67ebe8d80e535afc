package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.activity.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SetActivityMsg:
		wasBusy := m.activity.Busy()
		m.activity = msg.Activity
		switch {
		case m.activity.Busy() && !wasBusy:
			m.startTime = time.Now()
			m.timer = 0
			return m, tea.Batch(m.spinner.Tick, tickEvery())
		case !m.activity.Busy():
			m.timer = 0
		}
		return m, nil

	case SetDetailsMsg:
		m.summary = msg.Summary
		m.notice = msg.Notice
		return m, nil

	case TickMsg:
		if m.activity.Busy() {
			m.timer = time.Time(msg).Sub(m.startTime)
			return m, tickEvery()
		}
		return m, nil
	}

	return m, nil
}

// tickEvery returns a command that sends a tick message every second
func tickEvery() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
