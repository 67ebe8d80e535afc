package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/tessera/pkg/session"
)

func handleKeyMsg(m chatModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.viewer.Visible() {
			m.viewer.Close()
			m.open = nil
			return m, m.refresh()
		}
		m.numEscPress++
		if m.numEscPress == 2 {
			m.textarea.Reset()
			m.numEscPress = 0
		}
		return m, nil

	case "ctrl+n":
		m.viewer.Close()
		m.open = nil
		m.manager.StartNewConversation(m.ctx)
		m.manager.Notices().Info("Started a new conversation.")
		return m, m.refresh()

	case "ctrl+y":
		answer, ok := m.manager.LastAnswer()
		switch {
		case !ok:
			m.manager.Notices().Warn("Nothing to copy yet.")
		case m.clipboard(answer) != nil:
			m.manager.Notices().Error("Could not copy to the clipboard.")
		default:
			m.manager.Notices().Success("Answer copied.")
		}
		return m, m.refresh()

	case "ctrl+o":
		list := m.manager.Store().List()
		if len(list) == 0 {
			m.manager.Notices().Warn("No artifacts yet.")
			return m, m.refresh()
		}
		view, err := m.viewer.Reopen(list[len(list)-1].ID)
		if err != nil {
			m.manager.Notices().Error(err.Error())
			return m, m.refresh()
		}
		m.open = &view
		return m, m.refresh()

	case "ctrl+t":
		view, err := m.viewer.ToggleSource()
		if err != nil {
			m.manager.Notices().Warn(err.Error())
			return m, m.refresh()
		}
		m.open = &view
		return m, m.refresh()

	case "enter":
		return m.send()
	}

	if cmd, ok := m.handleFigureKey(msg.String()); ok {
		return m, cmd
	}

	m.numEscPress = 0

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)

	m.layout()

	return m, cmd
}

// send dispatches the input. Rejected and failed sends keep the text so
// the user can retry.
func (m chatModel) send() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	_, err := m.manager.HandleSend(m.ctx, session.SendRequest{Message: text, Deepsearch: m.deepsearch})

	var sendErr *session.SendError
	switch {
	case err == nil:
		m.textarea.Reset()
		m.layout()
	case errors.As(err, &sendErr):
		m.log.Warn("send failed", "message_id", sendErr.MessageID, "error", sendErr.Err)
	default:
		m.log.Debug("send rejected", "error", err)
	}

	cmd := m.refresh()
	m.viewport.GotoBottom()
	return m, cmd
}
