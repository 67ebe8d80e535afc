package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/killallgit/tessera/pkg/artifact"
	"github.com/killallgit/tessera/pkg/config"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/markdown"
	"github.com/killallgit/tessera/pkg/notify"
	"github.com/killallgit/tessera/pkg/session"
	"github.com/killallgit/tessera/pkg/transport"
)

const replayToken = "replay-token"

// runner drives a session manager through scenario steps over an
// in-memory transport
type runner struct {
	manager  *session.Manager
	recorder *transport.Recorder
	lastTurn string
	errs     []error
	log      *logger.Logger
}

func newRunner(cfg *config.Config, progress io.Writer) (*runner, error) {
	store := artifact.NewStore()
	renderer, err := markdown.NewRenderer(store,
		markdown.WithCodeStyle(cfg.Render.CodeStyle),
		markdown.WithDiagramLanguages(cfg.Render.DiagramLanguages...),
		markdown.WithDiagramPadding(cfg.Render.DiagramPadding),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	// Replay is instantaneous, so the notice clock stays at the start
	// and every notice raised is still active when the report prints.
	notices := notify.NewCenter(cfg.Notices.Duration)
	start := time.Now()
	notices.SetClock(func() time.Time { return start })

	ids := 0
	recorder := transport.NewRecorder()
	manager, err := session.New(session.Options{
		Transport:      recorder,
		Credentials:    session.NewStaticCredentials(replayToken),
		Store:          store,
		Renderer:       renderer,
		Notices:        notices,
		Observer:       newProgressObserver(progress),
		Agent:          cfg.Agent,
		MaxInlineBytes: cfg.Attachments.MaxInlineBytes,
		NewID: func() string {
			ids++
			return fmt.Sprintf("replay-%d", ids)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &runner{
		manager:  manager,
		recorder: recorder,
		log:      logger.WithComponent("replay"),
	}, nil
}

// run applies every step in order. Rejected sends and refused events are
// collected rather than stopping the replay.
func (r *runner) run(ctx context.Context, sc *Scenario) error {
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(ctx, step); err != nil {
			r.log.Debug("step not applied", "step", i+1, "kind", step.Kind(), "error", err)
			r.errs = append(r.errs, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err))
		}
	}
	return nil
}

func (r *runner) step(ctx context.Context, s Step) error {
	switch s.Kind() {
	case "send":
		req := session.SendRequest{
			Message:           s.Send,
			ContextSessionIDs: s.ContextSessionIDs,
			Deepsearch:        s.Deepsearch,
		}
		for _, a := range s.Attachments {
			req.Attachments = append(req.Attachments, a.attachment())
		}
		turn, err := r.manager.HandleSend(ctx, req)
		if turn != nil {
			r.lastTurn = turn.MessageID
		}
		return err

	case "new_conversation":
		r.manager.StartNewConversation(ctx)
		r.lastTurn = ""
		return nil

	case "fail_next_send":
		r.recorder.FailNext(errors.New(s.FailNextSend))
		return nil

	case "event":
		data := substituteTurn(s.Data, r.lastTurn)
		env, err := transport.NewEnvelope(s.Event, data)
		if err != nil {
			return err
		}
		return r.manager.DispatchEnvelope(ctx, env)

	default:
		return fmt.Errorf("%w: step has no action", ErrInvalidScenario)
	}
}
