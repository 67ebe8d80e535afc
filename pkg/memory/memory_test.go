package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestMemory(t *testing.T) {
	t.Run("records turns in order", func(t *testing.T) {
		m := New(true)
		assert.True(t, m.IsEnabled())

		require.NoError(t, m.AddUserMessage("Hello"))
		require.NoError(t, m.AddAssistantMessage("Hi there"))

		messages, err := m.GetMessages()
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].GetType())
		assert.Equal(t, llms.ChatMessageTypeAI, messages[1].GetType())
		assert.Equal(t, "Hi there", messages[1].GetContent())
	})

	t.Run("transcript uses speaker prefixes", func(t *testing.T) {
		m := New(true)
		require.NoError(t, m.AddUserMessage("What is 2+2?"))
		require.NoError(t, m.AddAssistantMessage("4"))

		got, err := m.Transcript()
		require.NoError(t, err)
		assert.Equal(t, "User: What is 2+2?\nAssistant: 4", got)
	})

	t.Run("empty transcript", func(t *testing.T) {
		got, err := New(true).Transcript()
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("blank messages are skipped", func(t *testing.T) {
		m := New(true)
		require.NoError(t, m.AddUserMessage("  "))
		require.NoError(t, m.AddAssistantMessage(""))
		assert.Equal(t, 0, m.Len())
	})

	t.Run("disabled memory records nothing", func(t *testing.T) {
		m := New(false)
		assert.False(t, m.IsEnabled())
		require.NoError(t, m.AddUserMessage("Hello"))
		assert.Equal(t, 0, m.Len())
	})

	t.Run("clear", func(t *testing.T) {
		m := New(true)
		require.NoError(t, m.AddUserMessage("Hello"))
		require.NoError(t, m.Clear())
		assert.Equal(t, 0, m.Len())
	})
}
