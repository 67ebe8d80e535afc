// Package markdown renders canonical markdown into sanitized markup.
//
// Three modes share one goldmark pipeline:
//   - streaming: re-renders a per-key append-only buffer, never extracts
//   - inline: code is highlighted in place, diagrams become interactive figures
//   - reference: every fenced block is extracted into the artifact store
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Mode selects how fenced blocks are rendered
type Mode int

const (
	ModeStreaming Mode = iota
	ModeInline
	ModeReference
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeStreaming:
		return "streaming"
	case ModeInline:
		return "inline"
	case ModeReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Output is the result of a final-mode render
type Output struct {
	Markup    string
	Artifacts []string
	Figures   []*diagram.Figure
}

// DiagramRenderer turns diagram source into a visual
type DiagramRenderer interface {
	RenderDiagram(source string) (diagram.Diagram, error)
}

// Renderer converts markdown to sanitized markup
type Renderer struct {
	store        *artifact.Store
	codeStyle    string
	diagramLangs []string
	diagrams     DiagramRenderer
	padding      float64

	policy *bluemonday.Policy

	mu         sync.Mutex
	buffers    map[string]*strings.Builder
	nextFigure int
	log        *logger.Logger
}

// Option is a functional option for configuring the renderer
type Option func(*Renderer) error

// WithCodeStyle sets the chroma style used for highlighting
func WithCodeStyle(name string) Option {
	return func(r *Renderer) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("code style must not be empty")
		}
		r.codeStyle = name
		return nil
	}
}

// WithDiagramLanguages sets the fence languages treated as diagrams
func WithDiagramLanguages(langs ...string) Option {
	return func(r *Renderer) error {
		r.diagramLangs = make([]string, 0, len(langs))
		for _, l := range langs {
			r.diagramLangs = append(r.diagramLangs, strings.ToLower(l))
		}
		return nil
	}
}

// WithDiagramRenderer replaces the default client-side diagram renderer
func WithDiagramRenderer(d DiagramRenderer) Option {
	return func(r *Renderer) error {
		if d == nil {
			return fmt.Errorf("diagram renderer must not be nil")
		}
		r.diagrams = d
		return nil
	}
}

// WithDiagramPadding sets the fit padding for inline figures
func WithDiagramPadding(p float64) Option {
	return func(r *Renderer) error {
		if p < 0 {
			return fmt.Errorf("diagram padding must not be negative")
		}
		r.padding = p
		return nil
	}
}

// NewRenderer creates a renderer that extracts artifacts into store
func NewRenderer(store *artifact.Store, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		store:        store,
		codeStyle:    "monokai",
		diagramLangs: []string{"mermaid"},
		diagrams:     MermaidRenderer{},
		padding:      diagram.FitPadding,
		policy:       newPolicy(),
		buffers:      make(map[string]*strings.Builder),
		log:          logger.WithComponent("markdown"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return r, nil
}

// RenderStreaming appends delta to the buffer for key and renders the
// whole buffer.
func (r *Renderer) RenderStreaming(delta, key string) string {
	r.mu.Lock()
	buf, ok := r.buffers[key]
	if !ok {
		buf = &strings.Builder{}
		r.buffers[key] = buf
	}
	buf.WriteString(delta)
	text := buf.String()
	r.mu.Unlock()

	return r.render(text, ModeStreaming, &Output{})
}

// FinishStreaming discards the buffer for key
func (r *Renderer) FinishStreaming(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, key)
}

// Buffered returns the accumulated text for key
func (r *Renderer) Buffered(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[key]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

// RenderInline renders primary content with fences displayed in place
func (r *Renderer) RenderInline(text string) Output {
	out := Output{}
	out.Markup = r.render(text, ModeInline, &out)
	return out
}

// RenderReference renders secondary content with fences extracted to artifacts
func (r *Renderer) RenderReference(text string) Output {
	out := Output{}
	out.Markup = r.render(text, ModeReference, &out)
	return out
}

// RenderDiagram renders diagram source with the configured diagram renderer
func (r *Renderer) RenderDiagram(source string) (diagram.Diagram, error) {
	return r.diagrams.RenderDiagram(source)
}

// Sanitize applies the markup allow-list
func (r *Renderer) Sanitize(markup string) string {
	return r.policy.Sanitize(markup)
}

func (r *Renderer) render(text string, mode Mode, out *Output) (markup string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("markdown render panicked, falling back to text", "mode", mode.String(), "panic", rec)
			*out = Output{}
			markup = EscapeWithBreaks(text)
		}
	}()

	fences := &fenceRenderer{renderer: r, mode: mode, out: out}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(fences, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		r.log.Warn("markdown parse failed, falling back to text", "mode", mode.String(), "error", err)
		*out = Output{}
		return EscapeWithBreaks(text)
	}
	return r.policy.Sanitize(buf.String())
}

func (r *Renderer) isDiagram(lang string) bool {
	lang = strings.ToLower(lang)
	for _, l := range r.diagramLangs {
		if l == lang {
			return true
		}
	}
	return false
}

func (r *Renderer) newFigureID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextFigure++
	return fmt.Sprintf("figure-%d", r.nextFigure)
}

// EscapeWithBreaks renders text literally with line breaks preserved
func EscapeWithBreaks(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
