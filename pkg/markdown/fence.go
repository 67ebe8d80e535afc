package markdown

import (
	"fmt"
	"html"
	"strings"

	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// imageLang marks a fence whose body is the id of an image artifact
const imageLang = "image"

// fenceRenderer overrides goldmark's fenced code block rendering for one
// render call.
type fenceRenderer struct {
	renderer *Renderer
	mode     Mode
	out      *Output
}

func (f *fenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, f.renderFencedCodeBlock)
}

func (f *fenceRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	lang := strings.ToLower(strings.TrimSpace(string(n.Language(source))))
	var body strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		body.Write(line.Value(source))
	}
	code := strings.TrimRight(body.String(), "\n")

	var markup string
	switch f.mode {
	case ModeInline:
		markup = f.inline(code, lang)
	case ModeReference:
		markup = f.reference(code, lang)
	default:
		markup = f.streaming(code, lang)
	}
	_, _ = w.WriteString(markup)
	return ast.WalkSkipChildren, nil
}

func (f *fenceRenderer) streaming(code, lang string) string {
	if f.renderer.isDiagram(lang) {
		return fmt.Sprintf(`<pre class="diagram-source"><code>%s</code></pre>`, html.EscapeString(code))
	}
	return f.renderer.HighlightCode(code, lang)
}

func (f *fenceRenderer) inline(code, lang string) string {
	if lang == imageLang {
		if a, ok := f.imageArtifact(code); ok {
			f.out.Artifacts = append(f.out.Artifacts, a.ID)
			return fmt.Sprintf(`<figure class="generated-image" data-artifact-id="%s"><img src="%s" alt="%s"></figure>`,
				html.EscapeString(a.ID), html.EscapeString(a.Content), html.EscapeString(a.ID))
		}
	}

	if !f.renderer.isDiagram(lang) {
		return f.renderer.HighlightCode(code, lang)
	}

	d, err := f.renderer.RenderDiagram(code)
	if err != nil {
		f.renderer.log.Warn("diagram render failed, showing source", "lang", lang, "error", err)
		return f.renderer.HighlightCode(code, lang)
	}
	fig := diagram.NewFigure(f.renderer.newFigureID(), code, d.Markup, d.Bounds)
	fig.SetPadding(f.renderer.padding)
	f.out.Figures = append(f.out.Figures, fig)
	return fmt.Sprintf(`<figure class="diagram" data-figure-id="%s"><div class="diagram-canvas">%s</div></figure>`,
		fig.ID, d.Markup)
}

func (f *fenceRenderer) reference(code, lang string) string {
	var id, typ string
	if lang == imageLang {
		if a, ok := f.imageArtifact(code); ok {
			id, typ = a.ID, a.Type
		}
	}
	if id == "" {
		typ = lang
		if typ == "" {
			typ = "text"
		}
		id = f.renderer.store.Create(code, typ)
	}
	f.out.Artifacts = append(f.out.Artifacts, id)
	return fmt.Sprintf(`<button type="button" class="artifact-ref" data-artifact-id="%s" data-artifact-type="%s">%s</button>`,
		html.EscapeString(id), html.EscapeString(typ), html.EscapeString(referenceLabel(typ)))
}

func (f *fenceRenderer) imageArtifact(body string) (artifact.Artifact, bool) {
	a, ok := f.renderer.store.Get(strings.TrimSpace(body))
	if !ok || a.Type != artifact.TypeImage {
		return artifact.Artifact{}, false
	}
	return a, true
}

func referenceLabel(typ string) string {
	switch typ {
	case imageLang:
		return "View image"
	case "text":
		return "View snippet"
	default:
		return "View " + typ
	}
}
