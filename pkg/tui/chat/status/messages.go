package status

import "time"

// Activity is what the live turn is doing right now
type Activity string

const (
	ActivityIdle         Activity = ""
	ActivitySending      Activity = "sending"
	ActivityThinking     Activity = "thinking"
	ActivityReceiving    Activity = "receiving"
	ActivityReconnecting Activity = "reconnecting"
)

// Icon returns the glyph shown next to the activity
func (a Activity) Icon() string {
	switch a {
	case ActivitySending:
		return "↑"
	case ActivityThinking:
		return "…"
	case ActivityReceiving:
		return "↓"
	case ActivityReconnecting:
		return "⟳"
	default:
		return ""
	}
}

// DisplayName returns the label shown in the status bar
func (a Activity) DisplayName() string {
	switch a {
	case ActivitySending:
		return "Sending"
	case ActivityThinking:
		return "Thinking"
	case ActivityReceiving:
		return "Receiving"
	case ActivityReconnecting:
		return "Reconnecting"
	default:
		return ""
	}
}

// Busy reports whether the spinner and timer should run
func (a Activity) Busy() bool {
	return a == ActivitySending || a == ActivityThinking || a == ActivityReceiving
}

// SetActivityMsg changes the current activity
type SetActivityMsg struct {
	Activity Activity
}

// SetDetailsMsg replaces the summary and notice text
type SetDetailsMsg struct {
	Summary string
	Notice  string
}

// TickMsg updates the timer
type TickMsg time.Time
