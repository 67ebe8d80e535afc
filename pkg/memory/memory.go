// Package memory keeps the plain-text transcript used to rebuild context
// after the backend loses it.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

const (
	UserPrefix      = "User"
	AssistantPrefix = "Assistant"
)

// Memory is an in-process MemoryStore backed by a langchaingo chat history
type Memory struct {
	store   *memory.ChatMessageHistory
	enabled bool
}

// New creates an empty transcript. A disabled memory accepts writes and
// records nothing.
func New(enabled bool) *Memory {
	return &Memory{
		store:   memory.NewChatMessageHistory(),
		enabled: enabled,
	}
}

func (m *Memory) IsEnabled() bool {
	return m.enabled
}

func (m *Memory) AddUserMessage(content string) error {
	if !m.enabled || strings.TrimSpace(content) == "" {
		return nil
	}
	if err := m.store.AddUserMessage(context.Background(), content); err != nil {
		return fmt.Errorf("failed to record user message: %w", err)
	}
	return nil
}

func (m *Memory) AddAssistantMessage(content string) error {
	if !m.enabled || strings.TrimSpace(content) == "" {
		return nil
	}
	if err := m.store.AddAIMessage(context.Background(), content); err != nil {
		return fmt.Errorf("failed to record assistant message: %w", err)
	}
	return nil
}

func (m *Memory) GetMessages() ([]llms.ChatMessage, error) {
	return m.store.Messages(context.Background())
}

// Transcript returns "User: ...\nAssistant: ..." lines for every message
func (m *Memory) Transcript() (string, error) {
	msgs, err := m.GetMessages()
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", nil
	}
	buf, err := llms.GetBufferString(msgs, UserPrefix, AssistantPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript: %w", err)
	}
	return buf, nil
}

// Len returns the number of recorded messages
func (m *Memory) Len() int {
	msgs, err := m.GetMessages()
	if err != nil {
		return 0
	}
	return len(msgs)
}

func (m *Memory) Clear() error {
	return m.store.Clear(context.Background())
}
