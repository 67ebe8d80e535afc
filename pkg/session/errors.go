package session

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrTurnInFlight = errors.New("a response is still in progress")
	ErrDisconnected = errors.New("not connected")
	ErrNoTransport  = errors.New("transport is required")
	ErrNoRenderer   = errors.New("renderer is required")
)

// SendError reports a send_message dispatch that failed after the
// placeholder for the turn was created.
type SendError struct {
	MessageID string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ServerError is an explicit error event from the backend
type ServerError struct {
	Message string
	Reset   bool
}

func (e *ServerError) Error() string {
	if e.Reset {
		return fmt.Sprintf("server error (session reset): %s", e.Message)
	}
	return fmt.Sprintf("server error: %s", e.Message)
}
