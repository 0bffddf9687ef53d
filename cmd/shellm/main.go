package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halcyondev/shellm/internal/logging"
)

var (
	verbose     bool
	sessionName string
	modelFlag   string
	modeFlag    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shellm",
	Short: "shellm - terminal LLM coding agent",
	Long: `shellm is an interactive terminal agent that mediates between you,
an OpenAI-compatible chat model, and your local shell.

The model proposes shell commands as JSON tool_calls; shellm runs them
under an auto-execution policy, feeds the output back, and verifies the
workspace with the project's own checker before answering.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(logger)
		if err != nil {
			return err
		}
		return app.runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", "default", "session name (default derives from the workspace path)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override the configured model for this invocation")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "execution mode: chat, agent-auto, or agent-force")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sessionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
