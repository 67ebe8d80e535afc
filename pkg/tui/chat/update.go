package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/tessera/pkg/stream"
	"github.com/killallgit/tessera/pkg/transport"
	"github.com/killallgit/tessera/pkg/tui/chat/status"
)

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.statusBar, _ = m.statusBar.Update(msg)

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case envelopeMsg:
		env := transport.Envelope(msg)
		if err := m.manager.DispatchEnvelope(m.ctx, env); err != nil {
			m.log.Debug("event not applied", "event", env.Event, "error", err)
		}
		cmds = append(cmds, m.refresh(), waitForEnvelope(m.events))

	case eventsClosedMsg:
		m.log.Info("transport stopped")
		cmds = append(cmds, m.refresh())

	case noticeTickMsg:
		cmds = append(cmds, m.refresh(), noticeTick())

	default:
		var cmd tea.Cmd
		m.statusBar, cmd = m.statusBar.Update(msg)
		cmds = append(cmds, cmd)

		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)

		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh re-projects the transcript and recomputes the status line
func (m *chatModel) refresh() tea.Cmd {
	m.fitFigure()
	m.updateViewportContent()

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.statusBar, cmd = m.statusBar.Update(status.SetActivityMsg{Activity: m.activity()})
	cmds = append(cmds, cmd)

	details := status.SetDetailsMsg{}
	if turn, ok := m.manager.ActiveTurn(); ok {
		details.Summary = turn.Stream.Summary().String()
	}
	if n, ok := m.manager.Notices().Latest(); ok {
		details.Notice = m.projector.Notice(n)
	}
	m.statusBar, cmd = m.statusBar.Update(details)
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

func (m *chatModel) activity() status.Activity {
	if !m.manager.Monitor().Connected() {
		return status.ActivityReconnecting
	}
	turn, ok := m.manager.ActiveTurn()
	if !ok {
		return status.ActivityIdle
	}
	switch {
	case len(turn.Stream.MainBlocks()) > 0:
		return status.ActivityReceiving
	case turn.Stream.Status() == stream.StatusOpen && len(turn.Stream.Tools()) == 0 && turn.Stream.Sandbox() == nil:
		return status.ActivitySending
	default:
		return status.ActivityThinking
	}
}
