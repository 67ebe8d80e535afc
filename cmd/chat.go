package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/markdown"
	"github.com/killallgit/tessera/pkg/notify"
	"github.com/killallgit/tessera/pkg/session"
	"github.com/killallgit/tessera/pkg/transport"
	"github.com/killallgit/tessera/pkg/tui/chat"
	"github.com/spf13/cobra"
)

const tokenEnv = "TESSERA_TOKEN"

func newChatCmd() *cobra.Command {
	var (
		token        string
		glamourStyle string
		deepsearch   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv(tokenEnv)
			}
			if token == "" {
				return fmt.Errorf("an access token is required: pass --token or set %s", tokenEnv)
			}
			if cmd.Flags().Changed("deepsearch") {
				cfg.Agent.Deepsearch = deepsearch
			}
			return runChat(cmd.Context(), token, glamourStyle)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "access token (default is $"+tokenEnv+")")
	cmd.Flags().StringVar(&glamourStyle, "style", "dark", "glamour style for the transcript (dark, light, notty)")
	cmd.Flags().BoolVar(&deepsearch, "deepsearch", false, "ask for deep research on every message")
	return cmd
}

func newRenderer(store *artifact.Store) (*markdown.Renderer, error) {
	return markdown.NewRenderer(store,
		markdown.WithCodeStyle(cfg.Render.CodeStyle),
		markdown.WithDiagramLanguages(cfg.Render.DiagramLanguages...),
		markdown.WithDiagramPadding(cfg.Render.DiagramPadding),
	)
}

func runChat(ctx context.Context, token, glamourStyle string) error {
	log := logger.WithComponent("chat")
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := artifact.NewStore()
	renderer, err := newRenderer(store)
	if err != nil {
		return err
	}

	client := transport.NewClient(cfg.Server)
	manager, err := session.New(session.Options{
		Transport:      client,
		Credentials:    session.NewStaticCredentials(token),
		Store:          store,
		Renderer:       renderer,
		Notices:        notify.NewCenter(cfg.Notices.Duration),
		Agent:          cfg.Agent,
		MaxInlineBytes: cfg.Attachments.MaxInlineBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	model, err := chat.NewChatModel(ctx, chat.Options{
		Manager:      manager,
		Events:       client.Events(),
		Viewer:       artifact.NewViewer(store, renderer, cfg.Render.DiagramLanguages),
		GlamourStyle: glamourStyle,
		Deepsearch:   cfg.Agent.Deepsearch,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("transport stopped", "error", err)
		}
	}()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat exited: %w", err)
	}
	return nil
}
