package stream

import (
	"html"
	"strings"

	"github.com/killallgit/tessera/pkg/diagram"
)

// ContentBlock is the rendered text of one (message, contributor, isLog) key
type ContentBlock struct {
	Contributor string
	IsLog       bool
	Text        string
	Markup      string
	Artifacts   []string
	Figures     []*diagram.Figure

	streamed strings.Builder
}

// Header labels log blocks with their contributor; main blocks have none
func (b *ContentBlock) Header() string {
	if !b.IsLog {
		return ""
	}
	return b.Contributor
}

// StepKey identifies a tool entry. Same-name invocations under one
// contributor collapse into one entry.
type StepKey struct {
	MessageID   string
	Contributor string
	Name        string
}

// ToolEntry tracks one tool invocation
type ToolEntry struct {
	Key    StepKey
	Status ToolStatus
}

// SandboxLine is one line of sandbox output
type SandboxLine struct {
	Text  string
	Level SandboxLevel
}

// SandboxBlock collects sandbox output for a message
type SandboxBlock struct {
	Lines []SandboxLine
}

// Markup renders the sandbox lines as a preformatted log
func (s *SandboxBlock) Markup() string {
	var b strings.Builder
	b.WriteString(`<pre class="sandbox-log">`)
	for i, line := range s.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		text := html.EscapeString(line.Text)
		if line.Level == SandboxError {
			b.WriteString(`<span class="stderr">` + text + `</span>`)
		} else {
			b.WriteString(text)
		}
	}
	b.WriteString("</pre>")
	return b.String()
}

// MediaEntry is a generated image attached to the log area
type MediaEntry struct {
	ArtifactID  string
	Contributor string
	Preview     string
	Reference   string
}

// MessageStream is the typed state of one assistant turn
type MessageStream struct {
	MessageID string

	status    Status
	main      []*ContentBlock
	logs      []*ContentBlock
	blocks    map[string]*ContentBlock
	tools     map[StepKey]*ToolEntry
	toolOrder []StepKey
	sandbox   *SandboxBlock
	media     []*MediaEntry
	summary   Summary
	err       string
}

func newMessageStream(id string) *MessageStream {
	return &MessageStream{
		MessageID: id,
		status:    StatusOpen,
		blocks:    make(map[string]*ContentBlock),
		tools:     make(map[StepKey]*ToolEntry),
	}
}

// Status returns the lifecycle state
func (m *MessageStream) Status() Status {
	return m.status
}

// MainBlocks returns main-area blocks in creation order
func (m *MessageStream) MainBlocks() []*ContentBlock {
	return m.main
}

// LogBlocks returns log-area blocks in creation order
func (m *MessageStream) LogBlocks() []*ContentBlock {
	return m.logs
}

// Tools returns tool entries in start order
func (m *MessageStream) Tools() []*ToolEntry {
	out := make([]*ToolEntry, 0, len(m.toolOrder))
	for _, k := range m.toolOrder {
		out = append(out, m.tools[k])
	}
	return out
}

// Sandbox returns the sandbox block, or nil when no sandbox output arrived
func (m *MessageStream) Sandbox() *SandboxBlock {
	return m.sandbox
}

// Media returns attached media entries
func (m *MessageStream) Media() []*MediaEntry {
	return m.media
}

// Summary returns the last computed reasoning summary
func (m *MessageStream) Summary() Summary {
	return m.summary
}

// Err returns the inline error of an aborted turn
func (m *MessageStream) Err() string {
	return m.err
}

// MainText joins the text of all main blocks
func (m *MessageStream) MainText() string {
	parts := make([]string, 0, len(m.main))
	for _, b := range m.main {
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *MessageStream) setStatus(to Status) error {
	next, err := transition(m.status, to)
	if err != nil {
		return err
	}
	m.status = next
	return nil
}

func (m *MessageStream) block(key, contributor string, isLog bool) *ContentBlock {
	if b, ok := m.blocks[key]; ok {
		return b
	}
	b := &ContentBlock{Contributor: contributor, IsLog: isLog}
	m.blocks[key] = b
	if isLog {
		m.logs = append(m.logs, b)
	} else {
		m.main = append(m.main, b)
	}
	return b
}

func (m *MessageStream) streamKeys() []string {
	keys := make([]string, 0, len(m.blocks))
	for k := range m.blocks {
		keys = append(keys, k)
	}
	return keys
}
