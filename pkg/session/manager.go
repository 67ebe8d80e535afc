// Package session owns the live conversation: it validates and dispatches
// sends, routes transport events into the reconciler and applies the
// resend-with-history policy after connection loss.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/config"
	"github.com/killallgit/tessera/pkg/connection"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/memory"
	"github.com/killallgit/tessera/pkg/notify"
	"github.com/killallgit/tessera/pkg/stream"
	"github.com/killallgit/tessera/pkg/transport"
)

// User-visible notice texts
const (
	EmptyMessageNotice   = "Type a message or attach a file before sending."
	TurnInFlightNotice   = "Please wait for the current response to finish."
	DisconnectedNotice   = "Cannot send while disconnected. Reconnecting..."
	SendFailedNotice     = "Failed to send message. Please try again."
	SendFailedInline     = "Message could not be sent."
	ConnectionLostInline = "Connection lost before the response finished."
)

// Transport sends one named event to the backend
type Transport interface {
	Send(ctx context.Context, event string, payload any) error
}

// Credentials supplies the bearer token sent with every message
type Credentials interface {
	Token(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
}

// Status is the lifecycle state of a conversation
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusError
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is a post-hoc affordance on a finished answer
type Action string

const (
	ActionCopy  Action = "copy"
	ActionShare Action = "share"
)

// Conversation is the identity and state of the live conversation
type Conversation struct {
	ID        string
	Status    Status
	LastError error
}

// Turn is one user message and the assistant response it started
type Turn struct {
	UserMessageID string
	MessageID     string
	UserText      string
	Stream        *stream.MessageStream
	Actions       []Action
	Aborted       bool
	Err           string
}

// SentContext is what was attached to one user message
type SentContext struct {
	UserMessageID     string
	Files             []FileRef
	ContextSessionIDs []string
}

// SendRequest is one user send
type SendRequest struct {
	Message           string
	Attachments       []Attachment
	ContextSessionIDs []string
	Deepsearch        bool
}

// Options configures a Manager
type Options struct {
	Transport   Transport
	Credentials Credentials
	Store       *artifact.Store
	Renderer    stream.Renderer
	Notices     *notify.Center
	Observer    stream.Observer
	Agent       config.AgentConfig
	// MaxInlineBytes caps text attachments; zero means no cap.
	MaxInlineBytes int
	NewID          func() string
}

type sendConfig map[string]bool

type sendPayload struct {
	ID                string     `json:"id"`
	ConversationID    string     `json:"conversationId"`
	AccessToken       string     `json:"accessToken"`
	Message           string     `json:"message"`
	Config            sendConfig `json:"config"`
	IsDeepsearch      bool       `json:"isDeepsearch"`
	ContextSessionIDs []string   `json:"context_session_ids,omitempty"`
	Files             []FileRef  `json:"files,omitempty"`
}

type terminatePayload struct {
	ConversationID string `json:"conversationId"`
}

// Manager composes the engine for one client session. It is not safe for
// concurrent use; drive it from one goroutine.
type Manager struct {
	transport   Transport
	credentials Credentials
	store       *artifact.Store
	notices     *notify.Center
	monitor     *connection.Monitor
	reconciler  *stream.Reconciler
	history     *memory.Memory
	agent       config.AgentConfig
	maxInline   int
	newID       func() string

	conversation Conversation
	turns        []*Turn
	active       *Turn
	sent         map[string]SentContext
	log          *logger.Logger
}

// New creates a manager with a fresh conversation
func New(opts Options) (*Manager, error) {
	if opts.Transport == nil {
		return nil, ErrNoTransport
	}
	if opts.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if opts.Store == nil {
		opts.Store = artifact.NewStore()
	}
	if opts.Notices == nil {
		opts.Notices = notify.NewCenter(0)
	}
	if opts.Credentials == nil {
		opts.Credentials = &StaticCredentials{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	m := &Manager{
		transport:   opts.Transport,
		credentials: opts.Credentials,
		store:       opts.Store,
		notices:     opts.Notices,
		monitor:     connection.NewMonitor(opts.Notices),
		reconciler:  stream.NewReconciler(opts.Renderer, opts.Store, opts.Observer),
		history:     memory.New(true),
		agent:       opts.Agent,
		maxInline:   opts.MaxInlineBytes,
		newID:       opts.NewID,
		sent:        make(map[string]SentContext),
		log:         logger.WithComponent("session"),
	}
	m.conversation = Conversation{ID: m.newID(), Status: StatusIdle}
	return m, nil
}

// Conversation returns a snapshot of the live conversation
func (m *Manager) Conversation() Conversation {
	return m.conversation
}

// Turns returns the turns of the live conversation in send order
func (m *Manager) Turns() []*Turn {
	out := make([]*Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// ActiveTurn returns the turn in flight, if any
func (m *Manager) ActiveTurn() (*Turn, bool) {
	return m.active, m.active != nil
}

// LastAnswer returns the main text of the most recent finished turn
func (m *Manager) LastAnswer() (string, bool) {
	for i := len(m.turns) - 1; i >= 0; i-- {
		t := m.turns[i]
		if t.Aborted || t.Stream == nil || t.Stream.Status() != stream.StatusDone {
			continue
		}
		if text := t.Stream.MainText(); text != "" {
			return text, true
		}
	}
	return "", false
}

// ContextFor returns what was attached to a user message
func (m *Manager) ContextFor(userMessageID string) (SentContext, bool) {
	c, ok := m.sent[userMessageID]
	return c, ok
}

func (m *Manager) Monitor() *connection.Monitor {
	return m.monitor
}

func (m *Manager) Reconciler() *stream.Reconciler {
	return m.reconciler
}

func (m *Manager) Store() *artifact.Store {
	return m.store
}

func (m *Manager) Notices() *notify.Center {
	return m.notices
}

// History returns the transcript used for resend-with-history
func (m *Manager) History() memory.MemoryStore {
	return m.history
}

// StartNewConversation discards all per-conversation state and returns the
// new conversation id. Artifacts are kept.
func (m *Manager) StartNewConversation(ctx context.Context) string {
	old := m.conversation.ID
	if m.monitor.Connected() {
		if err := m.transport.Send(ctx, transport.EventTerminateSession, terminatePayload{ConversationID: old}); err != nil {
			m.log.Warn("failed to terminate previous session", "conversation_id", old, "error", err)
		}
	}

	m.reconciler.Reset()
	m.turns = nil
	m.active = nil
	m.sent = make(map[string]SentContext)
	m.monitor.ClearResend()
	if err := m.history.Clear(); err != nil {
		m.log.Warn("failed to clear history", "error", err)
	}

	m.conversation = Conversation{ID: m.newID(), Status: StatusIdle}
	m.log.Info("new conversation", "conversation_id", m.conversation.ID, "previous", old)
	return m.conversation.ID
}

// HandleSend validates and dispatches one user message. Rejections show a
// warning notice and change nothing.
func (m *Manager) HandleSend(ctx context.Context, req SendRequest) (*Turn, error) {
	if strings.TrimSpace(req.Message) == "" && len(req.Attachments) == 0 && len(req.ContextSessionIDs) == 0 {
		m.notices.Warn(EmptyMessageNotice)
		return nil, ErrEmptyMessage
	}
	if m.active != nil {
		m.notices.Warn(TurnInFlightNotice)
		return nil, ErrTurnInFlight
	}
	if !m.monitor.Connected() {
		m.notices.Warn(DisconnectedNotice)
		return nil, ErrDisconnected
	}

	token, err := m.credentials.Token(ctx)
	if err != nil {
		m.notices.Error("Could not authenticate. Please sign in again.")
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	prep := prepareAttachments(req.Message, req.Attachments, m.maxInline)
	for _, reason := range prep.rejected {
		m.notices.Warn(reason)
	}
	if strings.TrimSpace(prep.message) == "" && len(prep.files) == 0 && len(req.ContextSessionIDs) == 0 {
		return nil, ErrEmptyMessage
	}

	outgoing := prep.message
	if m.monitor.ResendWithHistory() {
		outgoing = m.withHistory(prep.message)
	}

	turn := &Turn{
		UserMessageID: m.newID(),
		MessageID:     m.newID(),
		UserText:      req.Message,
	}
	m.sent[turn.UserMessageID] = SentContext{
		UserMessageID:     turn.UserMessageID,
		Files:             prep.files,
		ContextSessionIDs: req.ContextSessionIDs,
	}
	turn.Stream = m.reconciler.Open(turn.MessageID)
	m.turns = append(m.turns, turn)
	m.active = turn
	m.conversation.Status = StatusActive

	payload := sendPayload{
		ID:                turn.MessageID,
		ConversationID:    m.conversation.ID,
		AccessToken:       token,
		Message:           outgoing,
		Config:            m.sendConfig(),
		IsDeepsearch:      req.Deepsearch || m.agent.Deepsearch,
		ContextSessionIDs: req.ContextSessionIDs,
		Files:             prep.files,
	}
	if err := m.transport.Send(ctx, transport.EventSendMessage, payload); err != nil {
		m.abort(SendFailedInline)
		m.conversation.Status = StatusIdle
		m.monitor.RequestResend()
		m.notices.Error(SendFailedNotice)
		m.log.Error("send failed", "message_id", turn.MessageID, "error", err)
		return turn, &SendError{MessageID: turn.MessageID, Err: err}
	}

	m.monitor.ClearResend()
	if err := m.history.AddUserMessage(prep.message); err != nil {
		m.log.Warn("failed to record user message", "error", err)
	}
	m.log.Debug("message sent", "message_id", turn.MessageID, "files", len(prep.files))
	return turn, nil
}

func (m *Manager) withHistory(message string) string {
	transcript, err := m.history.Transcript()
	if err != nil {
		m.log.Warn("failed to rebuild transcript", "error", err)
		return message
	}
	if transcript == "" {
		return message
	}
	return fmt.Sprintf("Previous conversation:\n%s\n\nCurrent message:\n%s", transcript, message)
}

func (m *Manager) sendConfig() sendConfig {
	cfg := make(sendConfig, len(m.agent.Tools)+1)
	for name, enabled := range m.agent.Tools {
		cfg[name] = enabled
	}
	cfg["use_memory"] = m.agent.UseMemory
	return cfg
}

// DispatchEnvelope decodes a wire envelope and dispatches it
func (m *Manager) DispatchEnvelope(ctx context.Context, env transport.Envelope) error {
	ev, err := transport.Decode(env)
	if err != nil {
		m.log.Warn("dropping undecodable event", "event", env.Event, "error", err)
		return err
	}
	return m.Dispatch(ctx, ev)
}

// Dispatch routes one decoded event. Only server errors are returned as
// errors; everything else is absorbed into engine state and notices.
func (m *Manager) Dispatch(ctx context.Context, ev any) error {
	switch e := ev.(type) {
	case stream.ContentEvent:
		m.reconciler.HandleContent(e)

	case stream.ToolStepEvent:
		m.reconciler.HandleToolStep(e)

	case stream.SandboxEvent:
		m.reconciler.HandleSandbox(e)

	case stream.MediaEvent:
		res := m.reconciler.HandleMedia(e)
		if res.ArtifactID != "" && !res.Attached {
			m.notices.Info(fmt.Sprintf("Generated image %s is available in artifacts.", res.ArtifactID))
		}

	case stream.DoneEvent:
		m.handleDone(e)

	case transport.StatusEvent:
		if strings.TrimSpace(e.Message) != "" {
			m.notices.Show(e.Message, notify.ParseLevel(e.Level), e.Persistent, e.Duration)
		}

	case transport.TaskStatusEvent:
		m.handleTaskStatus(e)

	case transport.ErrorEvent:
		return m.handleServerError(ctx, e)

	case transport.ConnectEvent:
		m.monitor.Connect()

	case transport.DisconnectEvent:
		if m.monitor.Disconnect(m.active != nil) {
			m.abort(ConnectionLostInline)
			m.conversation.Status = StatusIdle
		}

	default:
		return fmt.Errorf("%w: %T", transport.ErrUnknownEvent, ev)
	}
	return nil
}

func (m *Manager) handleDone(e stream.DoneEvent) {
	s := m.reconciler.HandleDone(e)
	if s == nil || m.active == nil || m.active.MessageID != e.MessageID {
		return
	}
	turn := m.active
	turn.Actions = []Action{ActionCopy, ActionShare}
	if err := m.history.AddAssistantMessage(s.MainText()); err != nil {
		m.log.Warn("failed to record answer", "error", err)
	}
	m.active = nil
	m.conversation.Status = StatusIdle
}

func (m *Manager) handleTaskStatus(e transport.TaskStatusEvent) {
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf("Task %s is %s", e.TaskID, e.Status)
	}
	switch strings.ToLower(e.Status) {
	case "failed", "error":
		m.notices.Error(msg)
	case "completed", "done":
		m.notices.Success(msg)
	default:
		m.notices.Info(msg)
	}
}

func (m *Manager) handleServerError(ctx context.Context, e transport.ErrorEvent) error {
	serr := &ServerError{Message: e.Message, Reset: e.Reset}
	m.abort(e.Message)
	m.monitor.RequestResend()
	m.conversation.Status = StatusError
	m.conversation.LastError = serr
	m.notices.Error(e.Message)
	m.log.Error("server error", "message", e.Message, "reset", e.Reset)

	if e.Reset {
		if err := m.credentials.SignOut(ctx); err != nil {
			m.log.Warn("sign out failed", "error", err)
		}
	}
	return serr
}

// abort finalizes the active turn with an inline error. Partial main text
// is kept in the history so a resend still carries it.
func (m *Manager) abort(reason string) {
	turn := m.active
	if turn == nil {
		return
	}
	m.active = nil
	turn.Aborted = true
	turn.Err = reason
	if s := m.reconciler.Fail(turn.MessageID, reason); s != nil {
		if err := m.history.AddAssistantMessage(s.MainText()); err != nil {
			m.log.Warn("failed to record partial answer", "error", err)
		}
	}
}
