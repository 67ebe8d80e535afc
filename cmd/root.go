package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/tessera/pkg/config"
	"github.com/killallgit/tessera/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded once by the root command before any subcommand runs
	cfg *config.Config
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tessera",
		Short: "Terminal client for a multi-agent assistant",
		Long: `Streams multi-agent answers into a live transcript and keeps
code, diagrams and images as reopenable artifacts.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.tessera/settings.yaml or $XDG_CONFIG_HOME/tessera/settings.yaml)")
	root.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	root.AddCommand(newInitCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newReplayCmd())
	return root
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Logging.Level = logLevel
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	if err := logger.Init(loaded.Logging); err != nil {
		return err
	}
	cfg = loaded

	logger.WithComponent("cmd").Debug("configuration loaded",
		"server_url", cfg.Server.URL,
		"log_level", cfg.Logging.Level,
	)
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
