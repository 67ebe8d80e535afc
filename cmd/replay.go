package cmd

import (
	"os"

	"github.com/killallgit/tessera/pkg/headless"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

func newReplayCmd() *cobra.Command {
	var (
		width        int
		artifactsDir string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a recorded event scenario without a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				width = terminalWidth()
			}
			opts := headless.Options{
				ScenarioPath: args[0],
				Out:          cmd.OutOrStdout(),
				Width:        width,
				ArtifactsDir: artifactsDir,
				Config:       cfg,
			}
			if verbose {
				opts.Progress = cmd.ErrOrStderr()
			}
			return headless.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 0, "wrap width (default is the terminal width)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts", "", "directory to export every artifact into")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print stream updates to stderr")
	return cmd
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
