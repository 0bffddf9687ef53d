package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a single agent task and exit",
	Long: `Runs one agent turn against the current workspace without entering
the interactive chat, then prints the changed-file report. The exchange is
persisted to the workspace session, so a later interactive chat can pick
up where the task left off.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(logger)
		if err != nil {
			return err
		}
		task := strings.Join(args, " ")

		key := workspace.SessionKey(sessionName, app.workDir)
		sess, err := app.store.Load(key)
		if err != nil {
			return err
		}

		changedBefore := workspace.ChangedFiles(app.workDir)

		turnCtx := cmd.Context()
		sess.SetSystemPrompt(app.cfg.BuildSystemPrompt("chat"))
		sess.Append(session.NewMessage(session.RoleUser, augmentInput(app.workDir, task)))
		if err := app.controller.RunTurn(turnCtx, sess); err != nil {
			return err
		}

		if err := app.store.Save(sess); err != nil {
			return err
		}
		app.console.Changes(workspace.Delta(changedBefore, workspace.ChangedFiles(app.workDir)))
		return nil
	},
}
