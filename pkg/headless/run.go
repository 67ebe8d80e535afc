package headless

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/killallgit/tessera/pkg/config"
	"github.com/killallgit/tessera/pkg/tui"
	"github.com/killallgit/tessera/pkg/tui/theme"
)

// Options configures a scenario replay
type Options struct {
	ScenarioPath string
	Out          io.Writer
	// Progress receives one line per stream update; nil disables it.
	Progress     io.Writer
	Width        int
	ArtifactsDir string
	Config       *config.Config
}

// Run replays a scenario file and writes the report to Out
func Run(ctx context.Context, opts Options) error {
	sc, err := Load(opts.ScenarioPath)
	if err != nil {
		return err
	}
	return Replay(ctx, sc, opts)
}

// Replay runs an already parsed scenario
func Replay(ctx context.Context, sc *Scenario, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	r, err := newRunner(opts.Config, opts.Progress)
	if err != nil {
		return fmt.Errorf("failed to initialize replay: %w", err)
	}
	if err := r.run(ctx, sc); err != nil {
		return fmt.Errorf("replay interrupted: %w", err)
	}

	projector, err := tui.NewProjector(opts.Width, tui.WithStyles(theme.Plain()))
	if err != nil {
		return err
	}

	out := NewOutput(opts.Out, projector)
	if sc.Name != "" {
		fmt.Fprintf(opts.Out, "# %s\n", sc.Name)
	}
	out.Transcript(r.manager.Turns())
	out.Context(r.manager.Turns(), r.manager)
	out.Notices(r.manager.Notices().Active())
	out.Payloads(r.recorder.Sent())
	out.Errors(r.errs)

	if opts.ArtifactsDir != "" {
		files, err := exportArtifacts(r.manager.Store(), opts.ArtifactsDir)
		out.Artifacts(opts.ArtifactsDir, files)
		if err != nil {
			return fmt.Errorf("failed to export artifacts: %w", err)
		}
	}
	return nil
}
