package artifact

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/killallgit/tessera/pkg/logger"
)

// Renderer draws stored artifacts
type Renderer interface {
	HighlightCode(code, lang string) string
	RenderDiagram(source string) (diagram.Diagram, error)
}

// View is what the viewer currently displays
type View struct {
	Artifact      Artifact
	Markup        string
	Diagram       bool
	ShowingSource bool
}

// Viewer reopens artifacts by type. Only its visibility changes; the
// artifacts it shows are never touched.
type Viewer struct {
	store        *Store
	renderer     Renderer
	diagramLangs []string

	current    string
	visible    bool
	showSource bool
	log        *logger.Logger
}

// NewViewer creates a viewer over store
func NewViewer(store *Store, renderer Renderer, diagramLangs []string) *Viewer {
	return &Viewer{
		store:        store,
		renderer:     renderer,
		diagramLangs: diagramLangs,
		log:          logger.WithComponent("artifact_viewer"),
	}
}

// Reopen renders the artifact id and makes the viewer visible
func (v *Viewer) Reopen(id string) (View, error) {
	a, ok := v.store.Get(id)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if v.current != id {
		v.showSource = false
	}
	v.current = id
	v.visible = true
	return v.render(a), nil
}

// ToggleSource switches a diagram artifact between its rendering and its
// source. Other types are unaffected.
func (v *Viewer) ToggleSource() (View, error) {
	a, ok := v.store.Get(v.current)
	if !ok || !v.visible {
		return View{}, fmt.Errorf("%w: no artifact open", ErrNotFound)
	}
	if v.IsDiagram(a.Type) {
		v.showSource = !v.showSource
	}
	return v.render(a), nil
}

// Close hides the viewer
func (v *Viewer) Close() {
	v.visible = false
	v.showSource = false
}

// Visible reports whether the viewer is showing an artifact
func (v *Viewer) Visible() bool {
	return v.visible
}

// Current returns the id of the last reopened artifact
func (v *Viewer) Current() string {
	return v.current
}

// IsDiagram reports whether typ is rendered by the diagram renderer
func (v *Viewer) IsDiagram(typ string) bool {
	return slices.Contains(v.diagramLangs, strings.ToLower(typ))
}

func (v *Viewer) render(a Artifact) View {
	view := View{Artifact: a, Diagram: v.IsDiagram(a.Type), ShowingSource: v.showSource}

	switch {
	case a.Type == TypeImage:
		view.Markup = fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(a.Content), html.EscapeString(a.ID))
	case v.IsDiagram(a.Type) && !v.showSource:
		d, err := v.renderer.RenderDiagram(a.Content)
		if err != nil {
			v.log.Warn("diagram render failed, showing source", "id", a.ID, "error", err)
			view.Markup = v.renderer.HighlightCode(a.Content, a.Type)
			break
		}
		view.Markup = d.Markup
	default:
		view.Markup = v.renderer.HighlightCode(a.Content, a.Type)
	}
	return view
}
