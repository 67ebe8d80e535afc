package stream

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid stream transition")

// Status is the lifecycle state of a MessageStream
type Status int

const (
	StatusOpen Status = iota
	StatusAccumulating
	StatusDone
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusAccumulating:
		return "accumulating"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// transition is the only place a stream status changes.
// Done is terminal.
func transition(from, to Status) (Status, error) {
	switch {
	case from == StatusDone:
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	case to == StatusOpen && from != StatusOpen:
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	default:
		return to, nil
	}
}

// ToolStatus is the state of one tool invocation
type ToolStatus int

const (
	ToolInProgress ToolStatus = iota
	ToolCompleted
)

// String returns the string representation of the tool status
func (s ToolStatus) String() string {
	switch s {
	case ToolInProgress:
		return "in-progress"
	case ToolCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// complete is the only place a tool status changes
func (s ToolStatus) complete() ToolStatus {
	return ToolCompleted
}
