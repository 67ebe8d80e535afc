package memory

import (
	"github.com/tmc/langchaingo/llms"
)

// MemoryStore records the plain-text exchange of a conversation
type MemoryStore interface {
	// IsEnabled returns whether turns are being recorded
	IsEnabled() bool

	// AddUserMessage records the text a user sent
	AddUserMessage(content string) error

	// AddAssistantMessage records the main answer of a finished turn
	AddAssistantMessage(content string) error

	// GetMessages returns every recorded message in order
	GetMessages() ([]llms.ChatMessage, error)

	// Transcript renders the recorded messages as plain text
	Transcript() (string, error)

	// Clear drops every recorded message
	Clear() error
}
