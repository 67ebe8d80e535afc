package chat

import (
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/tessera/pkg/transport"
)

// envelopeMsg carries one inbound transport envelope into Update
type envelopeMsg transport.Envelope

// eventsClosedMsg reports that the transport stopped
type eventsClosedMsg struct{}

// noticeTickMsg refreshes the status line so expired notices disappear
type noticeTickMsg time.Time

func waitForEnvelope(ch <-chan transport.Envelope) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		env, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return envelopeMsg(env)
	}
}

func noticeTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return noticeTickMsg(t)
	})
}

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
