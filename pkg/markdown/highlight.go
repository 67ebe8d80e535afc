package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/microcosm-cc/bluemonday"
)

// HighlightCode renders code as class-annotated HTML. Unknown languages are
// detected from the content, then fall back to plain text.
func (r *Renderer) HighlightCode(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(r.codeStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		r.log.Debug("tokenise failed", "lang", lang, "error", err)
		return plainCode(code)
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		r.log.Debug("highlight failed", "lang", lang, "error", err)
		return plainCode(code)
	}
	return buf.String()
}

func plainCode(code string) string {
	return fmt.Sprintf("<pre><code>%s</code></pre>", html.EscapeString(code))
}

// MermaidRenderer emits diagram source for client-side mermaid rendering
type MermaidRenderer struct{}

// Approximate glyph metrics, in pixels, used for diagram bounds
const (
	CharWidth  = 8.0
	LineHeight = 24.0
)

// RenderDiagram wraps the source in a mermaid container and estimates its
// native bounds from the source shape.
func (MermaidRenderer) RenderDiagram(source string) (diagram.Diagram, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return diagram.Diagram{}, fmt.Errorf("empty diagram source")
	}
	lines := strings.Split(source, "\n")
	widest := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > widest {
			widest = n
		}
	}
	return diagram.Diagram{
		Markup: fmt.Sprintf(`<pre class="mermaid">%s</pre>`, html.EscapeString(source)),
		Bounds: diagram.Size{Width: float64(widest) * CharWidth, Height: float64(len(lines)) * LineHeight},
	}, nil
}

// newPolicy extends the UGC policy with the structural tags the renderer emits
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "button", "section", "header", "span", "div", "pre", "code")
	p.AllowAttrs("class").OnElements("figure", "figcaption", "button", "section", "header", "span", "div", "pre", "code")
	p.AllowAttrs("data-artifact-id", "data-artifact-type", "data-figure-id", "data-contributor").
		OnElements("button", "figure", "section", "div")
	p.AllowAttrs("type").Matching(bluemonday.SpaceSeparatedTokens).OnElements("button")
	p.AllowDataURIImages()
	return p
}
