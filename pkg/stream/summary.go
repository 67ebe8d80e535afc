package stream

import "fmt"

// Summary counts the reasoning activity of a turn
type Summary struct {
	ToolCount  int
	AgentCount int
}

// Summarize derives the summary from a stream's tool entries and log blocks
func Summarize(m *MessageStream) Summary {
	if m == nil {
		return Summary{}
	}
	return Summary{ToolCount: len(m.tools), AgentCount: len(m.logs)}
}

// Visible reports whether there is anything to summarize
func (s Summary) Visible() bool {
	return s.ToolCount > 0 || s.AgentCount > 0
}

// String renders the summary line, or "" when hidden
func (s Summary) String() string {
	if !s.Visible() {
		return ""
	}
	return fmt.Sprintf("Reasoning: %d %s, %d %s",
		s.ToolCount, plural(s.ToolCount, "tool", "tools"),
		s.AgentCount, plural(s.AgentCount, "agent", "agents"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
