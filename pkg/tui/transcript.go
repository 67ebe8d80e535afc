// Package tui projects engine state onto the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/notify"
	"github.com/killallgit/tessera/pkg/session"
	"github.com/killallgit/tessera/pkg/stream"
	"github.com/killallgit/tessera/pkg/tui/theme"
)

// DefaultWidth is the wrap width used until the terminal size is known
const DefaultWidth = 80

// Projector renders turns, notices and artifacts as terminal text. It is a
// one-way projection; nothing here feeds back into engine state.
type Projector struct {
	width        int
	glamourStyle string
	styles       *theme.Styles
	renderer     *glamour.TermRenderer
	log          *logger.Logger
}

// ProjectorOption configures a Projector
type ProjectorOption func(*Projector) error

// WithStyles sets the lipgloss styles
func WithStyles(s *theme.Styles) ProjectorOption {
	return func(p *Projector) error {
		if s == nil {
			return fmt.Errorf("styles must not be nil")
		}
		p.styles = s
		return nil
	}
}

// WithGlamourStyle selects a glamour standard style such as "dark" or "notty"
func WithGlamourStyle(name string) ProjectorOption {
	return func(p *Projector) error {
		p.glamourStyle = name
		return nil
	}
}

// NewProjector creates a projector that wraps at width columns
func NewProjector(width int, opts ...ProjectorOption) (*Projector, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	p := &Projector{
		width:        width,
		glamourStyle: "notty",
		styles:       theme.DefaultStyles(),
		log:          logger.WithComponent("projector"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(p.glamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	p.renderer = renderer
	return p, nil
}

// Width returns the wrap width
func (p *Projector) Width() int {
	return p.width
}

// Markdown renders markdown text for the terminal
func (p *Projector) Markdown(text string) string {
	rendered, err := p.renderer.Render(text)
	if err != nil {
		p.log.Warn("markdown render failed", "error", err)
		return lipgloss.NewStyle().Width(p.width).Render(text)
	}
	return strings.Trim(rendered, "\n")
}

// Transcript renders every turn in order
func (p *Projector) Transcript(turns []*session.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, p.Turn(t))
	}
	return strings.Join(parts, "\n\n")
}

// Turn renders one user message and the assistant response it started
func (p *Projector) Turn(t *session.Turn) string {
	var lines []string
	if t.UserText != "" {
		lines = append(lines, p.styles.UserMessage.Render("You: "+t.UserText))
	}
	if t.Stream != nil {
		if body := p.Stream(t.Stream); body != "" {
			lines = append(lines, body)
		}
	}
	if len(t.Actions) > 0 {
		names := make([]string, len(t.Actions))
		for i, a := range t.Actions {
			names[i] = string(a)
		}
		lines = append(lines, p.styles.Summary.Render("["+strings.Join(names, "] [")+"]"))
	}
	return strings.Join(lines, "\n")
}

// Stream renders the reasoning area, then the main answer
func (p *Projector) Stream(s *stream.MessageStream) string {
	var lines []string

	summary := s.Summary()
	if s.Status() == stream.StatusDone {
		if summary.Visible() {
			lines = append(lines, p.styles.Summary.Render(summary.String()))
		}
	} else if summary.Visible() || len(s.LogBlocks()) > 0 || len(s.Tools()) > 0 {
		lines = append(lines, p.styles.Summary.Render("Thinking... "+summary.String()))
	}

	for _, b := range s.LogBlocks() {
		lines = append(lines, p.styles.ContributorHeader.Render(b.Header()))
		lines = append(lines, p.styles.LogBlock.Render(p.Markdown(b.Text)))
	}
	for _, t := range s.Tools() {
		lines = append(lines, p.tool(t))
	}
	if sb := s.Sandbox(); sb != nil {
		for _, l := range sb.Lines {
			style := p.styles.SandboxLine
			if l.Level == stream.SandboxError {
				style = p.styles.SandboxError
			}
			lines = append(lines, style.Render("  "+l.Text))
		}
	}
	for _, m := range s.Media() {
		label := "[image " + m.ArtifactID + "]"
		if m.Contributor != "" {
			label += " from " + m.Contributor
		}
		lines = append(lines, p.styles.Media.Render(label))
	}

	for _, b := range s.MainBlocks() {
		lines = append(lines, p.styles.AssistantMessage.Render(p.Markdown(b.Text)))
	}

	if msg := s.Err(); msg != "" {
		lines = append(lines, p.styles.InlineError.Render("✗ "+msg))
	}
	return strings.Join(lines, "\n")
}

func (p *Projector) tool(t *stream.ToolEntry) string {
	label := fmt.Sprintf("%s (%s)", t.Key.Name, t.Key.Contributor)
	if t.Status == stream.ToolCompleted {
		return p.styles.ToolDone.Render("✓ " + label)
	}
	return p.styles.ToolRunning.Render("● " + label)
}

// Notices renders active notices, newest last
func (p *Projector) Notices(notices []notify.Notice) string {
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		lines = append(lines, p.Notice(n))
	}
	return strings.Join(lines, "\n")
}

// Notice renders one notice with its level
func (p *Projector) Notice(n notify.Notice) string {
	text := fmt.Sprintf("[%s] %s", n.Level, n.Message)
	switch n.Level {
	case notify.LevelSuccess:
		return p.styles.SuccessNotice.Render(text)
	case notify.LevelWarning:
		return p.styles.WarningNotice.Render(text)
	case notify.LevelError:
		return p.styles.ErrorNotice.Render(text)
	default:
		return p.styles.InfoNotice.Render(text)
	}
}

// Artifact renders an open artifact viewer
func (p *Projector) Artifact(v artifact.View) string {
	a := v.Artifact
	title := p.styles.ContributorHeader.Render(fmt.Sprintf("%s (%s)", a.ID, a.Type))

	var body string
	switch {
	case a.Type == artifact.TypeImage:
		mime, data, err := artifact.ParseDataURL(a.Content)
		if err != nil {
			body = p.styles.InlineError.Render("✗ " + err.Error())
		} else {
			body = p.styles.Media.Render(fmt.Sprintf("[%s, %d bytes]", mime, len(data)))
		}
	case v.Diagram && !v.ShowingSource && v.Markup != "":
		body = p.Markdown(fence("html", v.Markup))
	default:
		body = p.Markdown(fence(a.Type, a.Content))
	}
	return p.styles.Viewer.Render(title + "\n" + body)
}

func fence(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}
