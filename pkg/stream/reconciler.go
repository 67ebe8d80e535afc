package stream

import (
	"fmt"
	"strings"

	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/content"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/markdown"
)

// Renderer is the part of the markdown renderer the reconciler drives
type Renderer interface {
	RenderStreaming(delta, key string) string
	FinishStreaming(key string)
	RenderInline(text string) markdown.Output
	RenderReference(text string) markdown.Output
}

// MediaResult reports where a media event ended up
type MediaResult struct {
	ArtifactID string
	// Attached is false when the owning turn was no longer active and the
	// caller should surface the media as a standalone notice.
	Attached bool
}

// Reconciler owns the active MessageStreams and routes events into them.
// It is not safe for concurrent use; drive it from one goroutine.
type Reconciler struct {
	renderer Renderer
	store    *artifact.Store
	observer Observer

	active   map[string]*MessageStream
	finished map[string]struct{}
	log      *logger.Logger
}

// NewReconciler creates a reconciler. observer may be nil.
func NewReconciler(renderer Renderer, store *artifact.Store, observer Observer) *Reconciler {
	return &Reconciler{
		renderer: renderer,
		store:    store,
		observer: observer,
		active:   make(map[string]*MessageStream),
		finished: make(map[string]struct{}),
		log:      logger.WithComponent("reconciler"),
	}
}

// Open creates the placeholder stream for a turn
func (r *Reconciler) Open(messageID string) *MessageStream {
	if s, ok := r.active[messageID]; ok {
		return s
	}
	s := newMessageStream(messageID)
	r.active[messageID] = s
	delete(r.finished, messageID)
	r.log.Debug("stream opened", "message_id", messageID)
	r.emit(Update{Kind: UpdateOpened, MessageID: messageID, Stream: s})
	return s
}

// Stream returns the active stream for messageID
func (r *Reconciler) Stream(messageID string) (*MessageStream, bool) {
	s, ok := r.active[messageID]
	return s, ok
}

// Active returns the number of streams still in flight
func (r *Reconciler) Active() int {
	return len(r.active)
}

// lookup returns the active stream, opening one lazily for ids that have
// never finished. Finished ids return false.
func (r *Reconciler) lookup(messageID string) (*MessageStream, bool) {
	if messageID == "" {
		return nil, false
	}
	if s, ok := r.active[messageID]; ok {
		return s, true
	}
	if _, done := r.finished[messageID]; done {
		r.log.Debug("ignoring event for finished stream", "message_id", messageID)
		return nil, false
	}
	return r.Open(messageID), true
}

func streamKey(messageID, contributor string, isLog bool) string {
	area := "main"
	if isLog {
		area = "log"
	}
	return fmt.Sprintf("%s:%s:%s", messageID, area, contributor)
}

// HandleContent appends a streaming delta or replaces a block with final content
func (r *Reconciler) HandleContent(ev ContentEvent) {
	text := content.Normalize(ev.Content)
	if strings.TrimSpace(ev.Contributor) == "" || text == "" {
		return
	}
	// Whitespace deltas carry word and paragraph breaks; only a blank
	// final event is dropped.
	if !ev.Streaming && strings.TrimSpace(text) == "" {
		return
	}
	s, ok := r.lookup(ev.MessageID)
	if !ok {
		return
	}
	if err := s.setStatus(StatusAccumulating); err != nil {
		r.log.Warn("content rejected", "message_id", ev.MessageID, "error", err)
		return
	}

	key := streamKey(ev.MessageID, ev.Contributor, ev.IsLog)
	b := s.block(key, ev.Contributor, ev.IsLog)

	if ev.Streaming {
		b.streamed.WriteString(text)
		b.Text = b.streamed.String()
		b.Markup = r.renderer.RenderStreaming(text, key)
	} else {
		// Final content replaces whatever the block showed before
		var out markdown.Output
		if ev.IsLog {
			out = r.renderer.RenderReference(text)
		} else {
			out = r.renderer.RenderInline(text)
		}
		b.Text = text
		b.Markup = out.Markup
		b.Artifacts = out.Artifacts
		b.Figures = out.Figures
	}

	r.emit(Update{Kind: UpdateBlock, MessageID: ev.MessageID, Stream: s, Block: b})
	if ev.IsLog {
		r.refreshSummary(s)
	}
}

// HandleToolStep records tool start and end markers
func (r *Reconciler) HandleToolStep(ev ToolStepEvent) {
	if strings.TrimSpace(ev.Name) == "" {
		return
	}
	key := StepKey{MessageID: ev.MessageID, Contributor: ev.Contributor, Name: ev.Name}

	switch ev.Type {
	case StepStart:
		s, ok := r.lookup(ev.MessageID)
		if !ok {
			return
		}
		if _, exists := s.tools[key]; exists {
			return
		}
		entry := &ToolEntry{Key: key, Status: ToolInProgress}
		s.tools[key] = entry
		s.toolOrder = append(s.toolOrder, key)
		r.emit(Update{Kind: UpdateTool, MessageID: ev.MessageID, Stream: s, Tool: entry})
		r.refreshSummary(s)
	case StepEnd:
		s, ok := r.active[ev.MessageID]
		if !ok {
			return
		}
		entry, exists := s.tools[key]
		if !exists {
			r.log.Debug("tool end without start", "message_id", ev.MessageID, "tool", ev.Name)
			return
		}
		entry.Status = entry.Status.complete()
		r.emit(Update{Kind: UpdateTool, MessageID: ev.MessageID, Stream: s, Tool: entry})
		r.refreshSummary(s)
	}
}

// HandleSandbox appends a line to the message's sandbox block
func (r *Reconciler) HandleSandbox(ev SandboxEvent) {
	if ev.Payload == "" {
		return
	}
	s, ok := r.lookup(ev.MessageID)
	if !ok {
		return
	}
	if s.sandbox == nil {
		s.sandbox = &SandboxBlock{}
	}
	s.sandbox.Lines = append(s.sandbox.Lines, SandboxLine{Text: ev.Payload, Level: ev.Level})
	r.emit(Update{Kind: UpdateSandbox, MessageID: ev.MessageID, Stream: s})
}

// HandleMedia registers generated media and attaches it to the turn when
// the turn is still active.
func (r *Reconciler) HandleMedia(ev MediaEvent) MediaResult {
	var id string
	switch {
	case ev.ImageData != "":
		id = r.store.CreateImage(ev.ArtifactID, ev.MimeType, ev.ImageData)
	case ev.ArtifactID != "" && r.store.Has(ev.ArtifactID):
		id = ev.ArtifactID
	default:
		r.log.Warn("media event without data", "message_id", ev.MessageID)
		return MediaResult{}
	}

	s, ok := r.active[ev.MessageID]
	if !ok {
		return MediaResult{ArtifactID: id}
	}

	fence := "```image\n" + id + "\n```"
	entry := &MediaEntry{
		ArtifactID:  id,
		Contributor: ev.Contributor,
		Preview:     r.renderer.RenderInline(fence).Markup,
		Reference:   r.renderer.RenderReference(fence).Markup,
	}
	s.media = append(s.media, entry)
	r.emit(Update{Kind: UpdateMedia, MessageID: ev.MessageID, Stream: s, Media: entry})
	return MediaResult{ArtifactID: id, Attached: true}
}

// HandleDone finalizes a turn and evicts it. It returns the finished
// stream, or nil if the id was not active.
func (r *Reconciler) HandleDone(ev DoneEvent) *MessageStream {
	s, ok := r.active[ev.MessageID]
	if !ok {
		return nil
	}
	if err := s.setStatus(StatusDone); err != nil {
		r.log.Warn("done rejected", "message_id", ev.MessageID, "error", err)
		return nil
	}
	s.summary = Summarize(s)
	r.evict(s)
	r.log.Debug("stream done", "message_id", ev.MessageID, "summary", s.summary.String())
	r.emit(Update{Kind: UpdateDone, MessageID: ev.MessageID, Stream: s, Summary: s.summary})
	return s
}

// Fail marks a turn with an inline error and finalizes it
func (r *Reconciler) Fail(messageID, reason string) *MessageStream {
	s, ok := r.active[messageID]
	if !ok {
		return nil
	}
	s.err = reason
	if err := s.setStatus(StatusDone); err != nil {
		return nil
	}
	s.summary = Summarize(s)
	r.evict(s)
	r.log.Debug("stream failed", "message_id", messageID, "reason", reason)
	r.emit(Update{Kind: UpdateFailed, MessageID: messageID, Stream: s, Summary: s.summary})
	return s
}

// Reset drops every active stream without finalizing them. Dropped ids
// count as finished, so late events for them are ignored.
func (r *Reconciler) Reset() {
	for id, s := range r.active {
		for _, key := range s.streamKeys() {
			r.renderer.FinishStreaming(key)
		}
		r.finished[id] = struct{}{}
	}
	r.active = make(map[string]*MessageStream)
}

func (r *Reconciler) evict(s *MessageStream) {
	for _, key := range s.streamKeys() {
		r.renderer.FinishStreaming(key)
		s.blocks[key].streamed.Reset()
	}
	delete(r.active, s.MessageID)
	r.finished[s.MessageID] = struct{}{}
}

func (r *Reconciler) refreshSummary(s *MessageStream) {
	s.summary = Summarize(s)
	r.emit(Update{Kind: UpdateSummary, MessageID: s.MessageID, Stream: s, Summary: s.summary})
}

func (r *Reconciler) emit(u Update) {
	if r.observer != nil {
		r.observer.Observe(u)
	}
}
