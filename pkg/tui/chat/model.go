// Package chat is the interactive terminal chat. All engine mutation
// happens inside Update, which bubbletea runs on one goroutine.
package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/diagram"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/session"
	"github.com/killallgit/tessera/pkg/transport"
	"github.com/killallgit/tessera/pkg/tui"
	"github.com/killallgit/tessera/pkg/tui/chat/status"
	"github.com/killallgit/tessera/pkg/tui/theme"
)

// Options configures the chat model
type Options struct {
	Manager *session.Manager
	// Events delivers transport envelopes; nil disables inbound events.
	Events       <-chan transport.Envelope
	Viewer       *artifact.Viewer
	GlamourStyle string
	Deepsearch   bool
	// Clipboard writes the copied answer; defaults to the system clipboard.
	Clipboard func(string) error
}

type chatModel struct {
	ctx          context.Context
	viewport     viewport.Model
	textarea     textarea.Model
	statusBar    status.StatusModel
	manager      *session.Manager
	events       <-chan transport.Envelope
	viewer       *artifact.Viewer
	open         *artifact.View
	fit          diagram.Layout
	projector    *tui.Projector
	styles       *theme.Styles
	glamourStyle string
	deepsearch   bool
	clipboard    func(string) error
	numEscPress  int
	width        int
	height       int
	log          *logger.Logger
}

// NewChatModel creates the chat model
func NewChatModel(ctx context.Context, opts Options) (chatModel, error) {
	if opts.Manager == nil {
		return chatModel{}, fmt.Errorf("manager is required")
	}
	if opts.Viewer == nil {
		return chatModel{}, fmt.Errorf("viewer is required")
	}
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = "dark"
	}
	if opts.Clipboard == nil {
		opts.Clipboard = writeClipboard
	}

	ta := textarea.New()
	ta.Focus()
	ta.Placeholder = "Type a message..."
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	styles := theme.DefaultStyles()
	projector, err := tui.NewProjector(tui.DefaultWidth, tui.WithStyles(styles), tui.WithGlamourStyle(opts.GlamourStyle))
	if err != nil {
		return chatModel{}, err
	}

	return chatModel{
		ctx:          ctx,
		textarea:     ta,
		viewport:     viewport.New(tui.DefaultWidth, 20),
		statusBar:    status.NewStatusModel(),
		manager:      opts.Manager,
		events:       opts.Events,
		viewer:       opts.Viewer,
		projector:    projector,
		styles:       styles,
		glamourStyle: opts.GlamourStyle,
		deepsearch:   opts.Deepsearch,
		clipboard:    opts.Clipboard,
		log:          logger.WithComponent("chat"),
	}, nil
}
