package status

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestStatusBarIdleIsEmpty(t *testing.T) {
	m := NewStatusModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Empty(t, m.View())
}

func TestStatusBarActivities(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		label    string
		icon     string
		busy     bool
	}{
		{name: "sending", activity: ActivitySending, label: "Sending", icon: "↑", busy: true},
		{name: "thinking", activity: ActivityThinking, label: "Thinking", icon: "…", busy: true},
		{name: "receiving", activity: ActivityReceiving, label: "Receiving", icon: "↓", busy: true},
		{name: "reconnecting", activity: ActivityReconnecting, label: "Reconnecting", icon: "⟳", busy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStatusModel()
			m, cmd := m.Update(SetActivityMsg{Activity: tt.activity})
			assert.Equal(t, tt.busy, cmd != nil)
			assert.Equal(t, tt.activity, m.Activity())
			assert.Equal(t, tt.busy, tt.activity.Busy())
			assert.Equal(t, tt.icon, tt.activity.Icon())

			view := m.View()
			assert.Contains(t, view, tt.label)
			assert.Contains(t, view, tt.icon)
		})
	}
}

func TestStatusBarTimer(t *testing.T) {
	m := NewStatusModel()
	m, _ = m.Update(SetActivityMsg{Activity: ActivityReceiving})

	m, cmd := m.Update(TickMsg(m.startTime.Add(65 * time.Second)))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "01:05")

	m, _ = m.Update(SetActivityMsg{Activity: ActivityIdle})
	m, cmd = m.Update(TickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "01:05")
}

func TestStatusBarDetails(t *testing.T) {
	m := NewStatusModel()
	m, _ = m.Update(SetDetailsMsg{Summary: "Reasoning: 1 tool, 0 agents", Notice: "[warning] Connection lost"})

	view := m.View()
	assert.Contains(t, view, "Reasoning: 1 tool, 0 agents")
	assert.Contains(t, view, "[warning] Connection lost")
}
