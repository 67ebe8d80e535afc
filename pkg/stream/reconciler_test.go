package stream_test

import (
	"math/rand"
	"testing"

	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/markdown"
	"github.com/killallgit/tessera/pkg/stream"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stream Suite")
}

func content(id, contributor, text string, streaming, isLog bool) stream.ContentEvent {
	return stream.ContentEvent{MessageID: id, Contributor: contributor, Content: text, Streaming: streaming, IsLog: isLog}
}

var _ = Describe("Reconciler", func() {
	var (
		store      *artifact.Store
		renderer   *markdown.Renderer
		updates    []stream.Update
		reconciler *stream.Reconciler
	)

	BeforeEach(func() {
		var err error
		store = artifact.NewStore()
		renderer, err = markdown.NewRenderer(store)
		Expect(err).ToNot(HaveOccurred())
		updates = nil
		reconciler = stream.NewReconciler(renderer, store, stream.ObserverFunc(func(u stream.Update) {
			updates = append(updates, u)
		}))
	})

	Describe("content events", func() {
		It("keeps one main block per contributor in arrival order", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Planner", "Plan ready", false, false))
			reconciler.HandleContent(content("m1", "Writer", "Draft done", false, false))

			s, ok := reconciler.Stream("m1")
			Expect(ok).To(BeTrue())
			blocks := s.MainBlocks()
			Expect(blocks).To(HaveLen(2))
			Expect(blocks[0].Contributor).To(Equal("Planner"))
			Expect(blocks[0].Markup).To(ContainSubstring("Plan ready"))
			Expect(blocks[1].Contributor).To(Equal("Writer"))
			Expect(blocks[1].Markup).To(ContainSubstring("Draft done"))
			Expect(s.LogBlocks()).To(BeEmpty())
		})

		It("replaces a block on final content instead of appending", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "first draft", false, false))
			reconciler.HandleContent(content("m1", "Writer", "second draft", false, false))

			s, _ := reconciler.Stream("m1")
			Expect(s.MainBlocks()).To(HaveLen(1))
			b := s.MainBlocks()[0]
			Expect(b.Markup).To(ContainSubstring("second draft"))
			Expect(b.Markup).ToNot(ContainSubstring("first draft"))
			Expect(b.Text).To(Equal("second draft"))
		})

		It("replaces a streamed draft with the final content", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "streamed ", true, false))
			reconciler.HandleContent(content("m1", "Writer", "words", true, false))
			reconciler.HandleContent(content("m1", "Writer", "authoritative answer", false, false))

			s, _ := reconciler.Stream("m1")
			b := s.MainBlocks()[0]
			Expect(b.Markup).To(ContainSubstring("authoritative answer"))
			Expect(b.Markup).ToNot(ContainSubstring("streamed"))
		})

		It("renders streamed deltas as the concatenation regardless of interleaving", func() {
			deltas := []string{"The ", "quick **brown", "** fox\n\n", "```go\nx := 1", "\n```\n", "done"}
			others := []string{"noise one ", "noise two"}

			reconciler.Open("m1")
			for i, d := range deltas {
				reconciler.HandleContent(content("m1", "Writer", d, true, false))
				if i < len(others) {
					reconciler.HandleContent(content("m1", "Critic", others[i], true, false))
					reconciler.HandleContent(content("m1", "Writer", others[i], true, true))
				}
			}

			fresh, err := markdown.NewRenderer(artifact.NewStore())
			Expect(err).ToNot(HaveOccurred())
			var full string
			for _, d := range deltas {
				full += d
			}
			want := fresh.RenderStreaming(full, "reference")

			s, _ := reconciler.Stream("m1")
			Expect(s.MainBlocks()[0].Contributor).To(Equal("Writer"))
			Expect(s.MainBlocks()[0].Markup).To(Equal(want))
			Expect(s.MainBlocks()[0].Text).To(Equal(full))
		})

		It("keeps whitespace-only streaming deltas", func() {
			deltas := []string{"Hello", " ", "world", "\n\n", "Second paragraph"}

			reconciler.Open("m1")
			for _, d := range deltas {
				reconciler.HandleContent(content("m1", "Writer", d, true, false))
			}
			reconciler.HandleContent(content("m1", "Writer", "", true, false))

			fresh, err := markdown.NewRenderer(artifact.NewStore())
			Expect(err).ToNot(HaveOccurred())
			want := fresh.RenderStreaming("Hello world\n\nSecond paragraph", "reference")

			s, _ := reconciler.Stream("m1")
			Expect(s.MainBlocks()).To(HaveLen(1))
			Expect(s.MainBlocks()[0].Text).To(Equal("Hello world\n\nSecond paragraph"))
			Expect(s.MainBlocks()[0].Markup).To(Equal(want))
		})

		It("drops events with no contributor or empty content", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "", "orphan", false, false))
			reconciler.HandleContent(content("m1", "Writer", "   ", false, false))
			reconciler.HandleContent(stream.ContentEvent{MessageID: "m1", Contributor: "Writer"})

			s, _ := reconciler.Stream("m1")
			Expect(s.MainBlocks()).To(BeEmpty())
			Expect(s.Status()).To(Equal(stream.StatusOpen))
		})

		It("normalizes structured payloads", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(stream.ContentEvent{
				MessageID: "m1", Contributor: "Writer",
				Content: map[string]any{"content": "from object"},
			})
			s, _ := reconciler.Stream("m1")
			Expect(s.MainBlocks()[0].Text).To(Equal("from object"))
		})

		It("extracts fences from final log content into artifacts", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Coder", "Ran:\n\n```python\nprint(1)\n```", false, true))

			s, _ := reconciler.Stream("m1")
			Expect(s.LogBlocks()).To(HaveLen(1))
			b := s.LogBlocks()[0]
			Expect(b.Header()).To(Equal("Coder"))
			Expect(b.Artifacts).To(Equal([]string{"artifact-1"}))
			Expect(b.Markup).To(ContainSubstring(`data-artifact-id="artifact-1"`))
			Expect(store.Len()).To(Equal(1))
		})

		It("renders final main content inline with interactive figures", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "```mermaid\ngraph TD; A-->B\n```", false, false))

			s, _ := reconciler.Stream("m1")
			b := s.MainBlocks()[0]
			Expect(b.Header()).To(BeEmpty())
			Expect(b.Figures).To(HaveLen(1))
			Expect(store.Len()).To(Equal(0))
		})

		It("opens a stream lazily for an unknown id", func() {
			reconciler.HandleContent(content("m9", "Writer", "hello", true, false))
			s, ok := reconciler.Stream("m9")
			Expect(ok).To(BeTrue())
			Expect(s.Status()).To(Equal(stream.StatusAccumulating))
			Expect(updates[0].Kind).To(Equal(stream.UpdateOpened))
		})
	})

	Describe("tool steps and the reasoning summary", func() {
		It("counts a completed tool with no agents", func() {
			reconciler.Open("m1")
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepStart, Name: "web_search", Contributor: "Planner"})
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepEnd, Name: "web_search", Contributor: "Planner"})

			s, _ := reconciler.Stream("m1")
			Expect(s.Tools()).To(HaveLen(1))
			Expect(s.Tools()[0].Status).To(Equal(stream.ToolCompleted))
			Expect(s.Summary().String()).To(Equal("Reasoning: 1 tool, 0 agents"))
		})

		It("collapses duplicate starts and ignores unmatched ends", func() {
			reconciler.Open("m1")
			start := stream.ToolStepEvent{MessageID: "m1", Type: stream.StepStart, Name: "browse", Contributor: "A"}
			reconciler.HandleToolStep(start)
			reconciler.HandleToolStep(start)
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepEnd, Name: "other", Contributor: "A"})

			s, _ := reconciler.Stream("m1")
			Expect(s.Tools()).To(HaveLen(1))
			Expect(s.Tools()[0].Status).To(Equal(stream.ToolInProgress))
		})

		It("does not open a stream for a bare tool end", func() {
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "ghost", Type: stream.StepEnd, Name: "x", Contributor: "A"})
			_, ok := reconciler.Stream("ghost")
			Expect(ok).To(BeFalse())
		})

		It("is independent of arrival order", func() {
			events := []func(*stream.Reconciler){
				func(r *stream.Reconciler) {
					r.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepStart, Name: "search", Contributor: "A"})
				},
				func(r *stream.Reconciler) {
					r.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepEnd, Name: "search", Contributor: "A"})
				},
				func(r *stream.Reconciler) {
					r.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepStart, Name: "sandbox", Contributor: "B"})
				},
				func(r *stream.Reconciler) {
					r.HandleContent(content("m1", "A", "thinking", true, true))
				},
				func(r *stream.Reconciler) {
					r.HandleContent(content("m1", "B", "more thinking", false, true))
				},
				func(r *stream.Reconciler) {
					r.HandleContent(content("m1", "A", " harder", true, true))
				},
			}

			rng := rand.New(rand.NewSource(7))
			for trial := 0; trial < 20; trial++ {
				st := artifact.NewStore()
				rr, err := markdown.NewRenderer(st)
				Expect(err).ToNot(HaveOccurred())
				r := stream.NewReconciler(rr, st, nil)
				r.Open("m1")
				for _, i := range rng.Perm(len(events)) {
					events[i](r)
				}
				done := r.HandleDone(stream.DoneEvent{MessageID: "m1"})
				Expect(done).ToNot(BeNil())
				Expect(done.Summary()).To(Equal(stream.Summary{ToolCount: 2, AgentCount: 2}))
			}
		})
	})

	Describe("done", func() {
		It("hides the summary when there was no reasoning", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "answer", false, false))

			done := reconciler.HandleDone(stream.DoneEvent{MessageID: "m1"})
			Expect(done).ToNot(BeNil())
			Expect(done.Status()).To(Equal(stream.StatusDone))
			Expect(done.Summary().Visible()).To(BeFalse())
			Expect(done.Summary().String()).To(BeEmpty())

			last := updates[len(updates)-1]
			Expect(last.Kind).To(Equal(stream.UpdateDone))
			Expect(last.Summary.Visible()).To(BeFalse())
		})

		It("frees streaming buffers and evicts the stream", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "partial", true, false))
			reconciler.HandleContent(content("m1", "Critic", "log", true, true))

			reconciler.HandleDone(stream.DoneEvent{MessageID: "m1"})

			_, ok := renderer.Buffered("m1:main:Writer")
			Expect(ok).To(BeFalse())
			_, ok = renderer.Buffered("m1:log:Critic")
			Expect(ok).To(BeFalse())
			_, ok = reconciler.Stream("m1")
			Expect(ok).To(BeFalse())
			Expect(reconciler.Active()).To(Equal(0))
		})

		It("keeps the rendered markup after eviction", func() {
			s := reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "kept", true, false))
			reconciler.HandleDone(stream.DoneEvent{MessageID: "m1"})

			Expect(s.MainBlocks()[0].Markup).To(ContainSubstring("kept"))
			Expect(s.MainText()).To(Equal("kept"))
		})

		It("ignores late events for a finished turn", func() {
			reconciler.Open("m1")
			reconciler.HandleDone(stream.DoneEvent{MessageID: "m1"})

			reconciler.HandleContent(content("m1", "Writer", "late", true, false))
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "m1", Type: stream.StepStart, Name: "t", Contributor: "A"})
			Expect(reconciler.HandleDone(stream.DoneEvent{MessageID: "m1"})).To(BeNil())

			_, ok := reconciler.Stream("m1")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("sandbox output", func() {
		It("collects lines in one block per message", func() {
			reconciler.Open("m1")
			reconciler.HandleSandbox(stream.SandboxEvent{MessageID: "m1", Payload: "$ ls"})
			reconciler.HandleSandbox(stream.SandboxEvent{MessageID: "m1", Payload: "<boom>", Level: stream.SandboxError})

			s, _ := reconciler.Stream("m1")
			Expect(s.Sandbox().Lines).To(HaveLen(2))
			Expect(s.Sandbox().Markup()).To(Equal(`<pre class="sandbox-log">$ ls` + "\n" + `<span class="stderr">&lt;boom&gt;</span></pre>`))
			Expect(s.LogBlocks()).To(BeEmpty())
			Expect(stream.Summarize(s).Visible()).To(BeFalse())
		})
	})

	Describe("media", func() {
		It("attaches media to an active turn", func() {
			reconciler.Open("m1")
			res := reconciler.HandleMedia(stream.MediaEvent{MessageID: "m1", ImageData: "AAAA", MimeType: "image/png", ArtifactID: "image-artifact-1"})

			Expect(res.Attached).To(BeTrue())
			Expect(res.ArtifactID).To(Equal("image-artifact-1"))
			s, _ := reconciler.Stream("m1")
			Expect(s.Media()).To(HaveLen(1))
			Expect(s.Media()[0].Preview).To(ContainSubstring("data:image/png;base64,AAAA"))
			Expect(s.Media()[0].Reference).To(ContainSubstring(`data-artifact-id="image-artifact-1"`))
			Expect(store.Len()).To(Equal(1))
		})

		It("reuses a known artifact id", func() {
			store.CreateImage("img-1", "image/png", "AAAA")
			reconciler.Open("m1")
			res := reconciler.HandleMedia(stream.MediaEvent{MessageID: "m1", ArtifactID: "img-1"})
			Expect(res.ArtifactID).To(Equal("img-1"))
			Expect(store.Len()).To(Equal(1))
		})

		It("reports detached media for an inactive turn", func() {
			res := reconciler.HandleMedia(stream.MediaEvent{MessageID: "gone", ImageData: "AAAA"})
			Expect(res.Attached).To(BeFalse())
			Expect(res.ArtifactID).To(Equal("artifact-1"))
		})

		It("ignores media without data", func() {
			res := reconciler.HandleMedia(stream.MediaEvent{MessageID: "m1"})
			Expect(res).To(Equal(stream.MediaResult{}))
		})
	})

	Describe("failure", func() {
		It("marks the placeholder with an inline error and finalizes it", func() {
			reconciler.Open("m1")
			s := reconciler.Fail("m1", "send failed")

			Expect(s).ToNot(BeNil())
			Expect(s.Err()).To(Equal("send failed"))
			Expect(s.Status()).To(Equal(stream.StatusDone))
			Expect(updates[len(updates)-1].Kind).To(Equal(stream.UpdateFailed))
			Expect(reconciler.Fail("m1", "again")).To(BeNil())
		})
	})

	Describe("reset", func() {
		It("drops active streams and their buffers", func() {
			reconciler.Open("m1")
			reconciler.HandleContent(content("m1", "Writer", "text", true, false))
			reconciler.Reset()

			Expect(reconciler.Active()).To(Equal(0))
			_, ok := renderer.Buffered("m1:main:Writer")
			Expect(ok).To(BeFalse())
		})

		It("ignores late events for streams dropped by a reset", func() {
			reconciler.Open("old")
			reconciler.HandleContent(content("old", "Writer", "partial", true, false))
			reconciler.Reset()

			reconciler.HandleContent(content("old", "Writer", " more", true, false))
			reconciler.HandleToolStep(stream.ToolStepEvent{MessageID: "old", Type: stream.StepStart, Name: "web_search", Contributor: "Planner"})
			reconciler.HandleSandbox(stream.SandboxEvent{MessageID: "old", Payload: "$ ls"})

			Expect(reconciler.Active()).To(Equal(0))
			_, ok := reconciler.Stream("old")
			Expect(ok).To(BeFalse())

			reconciler.Open("new")
			Expect(reconciler.Active()).To(Equal(1))
		})
	})
})

var _ = Describe("Summary", func() {
	DescribeTable("String",
		func(s stream.Summary, want string) {
			Expect(s.String()).To(Equal(want))
		},
		Entry("hidden", stream.Summary{}, ""),
		Entry("singular", stream.Summary{ToolCount: 1, AgentCount: 1}, "Reasoning: 1 tool, 1 agent"),
		Entry("plural", stream.Summary{ToolCount: 3, AgentCount: 2}, "Reasoning: 3 tools, 2 agents"),
		Entry("agents only", stream.Summary{AgentCount: 2}, "Reasoning: 0 tools, 2 agents"),
	)
})

var _ = Describe("Status", func() {
	It("names every state", func() {
		Expect(stream.StatusOpen.String()).To(Equal("open"))
		Expect(stream.StatusAccumulating.String()).To(Equal("accumulating"))
		Expect(stream.StatusDone.String()).To(Equal("done"))
		Expect(stream.ToolInProgress.String()).To(Equal("in-progress"))
		Expect(stream.StepEnd.String()).To(Equal("tool_end"))
	})
})
