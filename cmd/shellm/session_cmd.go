package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/halcyondev/shellm/internal/config"
	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/workspace"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved chat sessions",
}

func sessionStore() (*session.Store, error) {
	dir, err := config.NewLoader().Dir()
	if err != nil {
		return nil, err
	}
	return session.NewStore(filepath.Join(dir, "sessions")), nil
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		keys, err := store.List()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved sessions")
			return nil
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}
		key := workspace.SessionKey(args[0], workDir)
		removed, err := store.Remove(key)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("session not found: %s", key)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed session: %s\n", key)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
