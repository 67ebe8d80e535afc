package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *artifact.Store) {
	t.Helper()
	store := artifact.NewStore()
	r, err := NewRenderer(store, opts...)
	require.NoError(t, err)
	return r, store
}

type failingDiagrams struct{}

func (failingDiagrams) RenderDiagram(string) (diagram.Diagram, error) {
	return diagram.Diagram{}, errors.New("parse error")
}

func TestOptions(t *testing.T) {
	store := artifact.NewStore()

	_, err := NewRenderer(store, WithCodeStyle(" "))
	assert.Error(t, err)

	_, err = NewRenderer(store, WithDiagramRenderer(nil))
	assert.Error(t, err)

	_, err = NewRenderer(store, WithDiagramPadding(-1))
	assert.Error(t, err)

	r, err := NewRenderer(store, WithDiagramLanguages("Mermaid", "dot"))
	require.NoError(t, err)
	assert.True(t, r.isDiagram("DOT"))
	assert.False(t, r.isDiagram("go"))
}

func TestRenderStreamingAccumulates(t *testing.T) {
	r, store := newTestRenderer(t)

	r.RenderStreaming("Hello ", "m1:main:Planner")
	markup := r.RenderStreaming("**world**", "m1:main:Planner")

	assert.Contains(t, markup, "Hello <strong>world</strong>")
	buffered, ok := r.Buffered("m1:main:Planner")
	require.True(t, ok)
	assert.Equal(t, "Hello **world**", buffered)

	// Streaming never extracts
	assert.Equal(t, 0, store.Len())
}

func TestRenderStreamingKeysAreIndependent(t *testing.T) {
	r, _ := newTestRenderer(t)

	r.RenderStreaming("alpha", "a")
	r.RenderStreaming("beta", "b")
	markup := r.RenderStreaming(" gamma", "a")

	assert.Contains(t, markup, "alpha gamma")
	assert.NotContains(t, markup, "beta")
}

func TestFinishStreamingStartsFresh(t *testing.T) {
	r, _ := newTestRenderer(t)

	r.RenderStreaming("old text", "k")
	r.FinishStreaming("k")
	_, ok := r.Buffered("k")
	assert.False(t, ok)

	markup := r.RenderStreaming("new text", "k")
	assert.Contains(t, markup, "new text")
	assert.NotContains(t, markup, "old text")
}

func TestRenderStreamingToleratesUnclosedFence(t *testing.T) {
	r, _ := newTestRenderer(t)

	markup := r.RenderStreaming("Here:\n```python\nprint(1)", "k")
	assert.Contains(t, markup, "print")
	assert.Contains(t, markup, `class="chroma"`)
}

func TestRenderStreamingShowsDiagramSource(t *testing.T) {
	r, store := newTestRenderer(t)

	markup := r.RenderStreaming("```mermaid\ngraph TD; A-->B\n```", "k")
	assert.Contains(t, markup, `<pre class="diagram-source">`)
	assert.Contains(t, markup, "A--&gt;B")
	assert.Equal(t, 0, store.Len())
}

func TestRenderInline(t *testing.T) {
	r, store := newTestRenderer(t)

	out := r.RenderInline("Intro\n\n```go\nx := 1\n```\n\n```mermaid\ngraph TD\n  A-->B\n```")

	assert.Contains(t, out.Markup, "<p>Intro</p>")
	assert.Contains(t, out.Markup, `class="chroma"`)
	assert.Contains(t, out.Markup, `<figure class="diagram" data-figure-id="figure-1">`)
	assert.Contains(t, out.Markup, `<pre class="mermaid">`)
	assert.Empty(t, out.Artifacts)
	assert.Equal(t, 0, store.Len())

	require.Len(t, out.Figures, 1)
	fig := out.Figures[0]
	assert.Equal(t, "figure-1", fig.ID)
	assert.Equal(t, "graph TD\n  A-->B", fig.Source)
	assert.Equal(t, diagram.Size{Width: 8 * 8, Height: 2 * 24}, fig.Native)
}

func TestRenderInlineDiagramFailureShowsCode(t *testing.T) {
	r, _ := newTestRenderer(t, WithDiagramRenderer(failingDiagrams{}))

	out := r.RenderInline("```mermaid\nnot a diagram\n```")
	assert.Empty(t, out.Figures)
	assert.Contains(t, out.Markup, "diagram")
}

func TestRenderInlineEmbedsKnownImage(t *testing.T) {
	r, store := newTestRenderer(t)
	id := store.CreateImage("image-artifact-1", "image/png", "iVBORw0KGgo=")

	out := r.RenderInline("Done!\n\n```image\n" + id + "\n```")

	assert.Contains(t, out.Markup, `data-artifact-id="image-artifact-1"`)
	assert.Contains(t, out.Markup, `src="data:image/png;base64,iVBORw0KGgo="`)
	assert.Equal(t, []string{id}, out.Artifacts)
}

func TestRenderReferenceExtractsEveryFence(t *testing.T) {
	r, store := newTestRenderer(t)

	out := r.RenderReference("Tool output:\n\n```python\nprint(1)\n```\n\n```\nplain\n```")

	want := []string{"artifact-1", "artifact-2"}
	if diff := cmp.Diff(want, out.Artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, out.Markup, `<button type="button" class="artifact-ref" data-artifact-id="artifact-1" data-artifact-type="python">View python</button>`)
	assert.Contains(t, out.Markup, `data-artifact-type="text"`)
	assert.NotContains(t, out.Markup, "print(1)")

	a, ok := store.Get("artifact-1")
	require.True(t, ok)
	assert.Equal(t, "print(1)", a.Content)
	assert.Equal(t, "python", a.Type)
}

func TestRenderReferenceBindsExistingImage(t *testing.T) {
	r, store := newTestRenderer(t)
	id := store.CreateImage("image-artifact-7", "image/png", "AAAA")

	out := r.RenderReference("```image\nimage-artifact-7\n```")

	assert.Equal(t, []string{id}, out.Artifacts)
	assert.Equal(t, 1, store.Len())
	assert.Contains(t, out.Markup, "View image")
}

func TestRenderReferenceUnknownImageIsExtracted(t *testing.T) {
	r, store := newTestRenderer(t)

	out := r.RenderReference("```image\nnot-an-artifact\n```")
	require.Len(t, out.Artifacts, 1)
	a, _ := store.Get(out.Artifacts[0])
	assert.Equal(t, "not-an-artifact", a.Content)
}

func TestSanitizeStripsUnsafeMarkup(t *testing.T) {
	r, _ := newTestRenderer(t)

	clean := r.Sanitize(`<div class="x" onclick="evil()"><script>alert(1)</script><button type="button" data-artifact-id="a">b</button></div>`)
	assert.NotContains(t, clean, "onclick")
	assert.NotContains(t, clean, "<script>")
	assert.Contains(t, clean, `<div class="x">`)
	assert.Contains(t, clean, `data-artifact-id="a"`)
}

func TestRawHTMLInMarkdownIsNotExecutable(t *testing.T) {
	r, _ := newTestRenderer(t)
	out := r.RenderInline("hi <img src=x onerror=alert(1)>")
	assert.NotContains(t, out.Markup, "onerror")
}

func TestEscapeWithBreaks(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt;<br>c", EscapeWithBreaks("a <b>\nc"))
}

func TestHighlightCodeUnknownLanguage(t *testing.T) {
	r, _ := newTestRenderer(t)
	markup := r.HighlightCode("just words", "no-such-lang")
	assert.Contains(t, markup, "words")
	assert.True(t, strings.HasPrefix(markup, "<pre"))
}

func TestMermaidRendererRejectsEmpty(t *testing.T) {
	_, err := MermaidRenderer{}.RenderDiagram("   ")
	assert.Error(t, err)
}
