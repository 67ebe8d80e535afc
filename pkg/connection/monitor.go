// Package connection tracks transport connectivity and the resend policy.
package connection

import (
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/notify"
)

const (
	ReconnectingMessage = "Connection lost. Reconnecting..."
	RestoredMessage     = "Connection restored"
)

// State is the transport connection state
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Monitor follows connect/disconnect events and decides whether the next
// send must carry the conversation history.
type Monitor struct {
	state               State
	hadDisconnectedOnce bool
	resendWithHistory   bool
	reconnectNotice     string
	notices             *notify.Center
	log                 *logger.Logger
}

// NewMonitor creates a monitor in the disconnected state
func NewMonitor(notices *notify.Center) *Monitor {
	return &Monitor{
		state:   StateDisconnected,
		notices: notices,
		log:     logger.WithComponent("connection"),
	}
}

// Connect records a successful (re)connection
func (m *Monitor) Connect() {
	m.state = StateConnected
	if m.reconnectNotice != "" {
		m.notices.Dismiss(m.reconnectNotice)
		m.reconnectNotice = ""
	}
	if m.hadDisconnectedOnce {
		m.notices.Success(RestoredMessage)
	}
	m.log.Info("connected", "resend_with_history", m.resendWithHistory)
}

// Disconnect records a lost connection. When a turn was in flight the next
// send is flagged to carry history. It returns true if the turn was abandoned.
func (m *Monitor) Disconnect(turnActive bool) bool {
	wasConnected := m.state == StateConnected
	m.state = StateDisconnected
	if wasConnected {
		m.hadDisconnectedOnce = true
	}
	if turnActive {
		m.resendWithHistory = true
	}
	if m.reconnectNotice == "" {
		m.reconnectNotice = m.notices.Show(ReconnectingMessage, notify.LevelWarning, true, 0)
	}
	m.log.Warn("disconnected", "turn_active", turnActive)
	return turnActive
}

// Connected reports whether the transport is up
func (m *Monitor) Connected() bool {
	return m.state == StateConnected
}

// State returns the connection state
func (m *Monitor) State() State {
	return m.state
}

// RequestResend flags the next send to carry history
func (m *Monitor) RequestResend() {
	m.resendWithHistory = true
}

// ResendWithHistory reports whether the next send must carry history
func (m *Monitor) ResendWithHistory() bool {
	return m.resendWithHistory
}

// ClearResend resets the resend flag after a successful send
func (m *Monitor) ClearResend() {
	m.resendWithHistory = false
}

// HadDisconnectedOnce reports whether the connection ever dropped
func (m *Monitor) HadDisconnectedOnce() bool {
	return m.hadDisconnectedOnce
}
