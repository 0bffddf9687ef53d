package main

import (
	"fmt"
	"strings"

	"github.com/halcyondev/shellm/internal/agent"
	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/workspace"
)

const helpText = `Slash commands:
/help
/exit
/new [name]
/clear
/session list
/session use <name>
/session rm <name>
/mode show
/mode chat|agent-auto|agent-force
/prompt show
/prompt list
/prompt use <name>
/model show
/model use <name>`

// handleSlash dispatches one slash command against the live session.
// It returns quit=true for /exit.
func (a *App) handleSlash(line string, sess **session.Session) (bool, error) {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/help":
		a.console.Notice("%s", helpText)

	case "/exit":
		return true, nil

	case "/new":
		var key string
		if len(args) > 0 {
			key = workspace.Sanitize(args[0])
		} else {
			key = workspace.FreshSessionKey(a.workDir)
		}
		next := session.New(key)
		*sess = next
		a.console.Notice("started new session: %s", key)

	case "/clear":
		(*sess).Clear()
		a.console.Notice("session history cleared")

	case "/session":
		return false, a.handleSessionSlash(args, sess)

	case "/mode":
		sub := "show"
		if len(args) > 0 {
			sub = args[0]
		}
		if sub == "show" {
			a.console.Notice("execution mode: %s", a.mode)
			break
		}
		mode, ok := agent.ParseExecutionMode(sub)
		if !ok {
			a.console.Notice("usage: /mode show|chat|agent-auto|agent-force")
			break
		}
		a.mode = mode
		a.console.Notice("execution mode switched to: %s", a.mode)

	case "/prompt":
		return false, a.handlePromptSlash(args)

	case "/model":
		return false, a.handleModelSlash(args)

	default:
		a.console.Notice("unknown command: %s (use /help)", cmd)
	}
	return false, nil
}

func (a *App) handleSessionSlash(args []string, sess **session.Session) error {
	if len(args) == 0 {
		a.console.Notice("usage: /session <list|use|rm>")
		return nil
	}
	switch args[0] {
	case "list":
		keys, err := a.store.List()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			a.console.Notice("no saved sessions")
			return nil
		}
		a.console.Notice("saved sessions:")
		for _, key := range keys {
			mark := "  "
			if key == (*sess).ID {
				mark = "* "
			}
			a.console.Notice("%s%s", mark, key)
		}

	case "use":
		if len(args) < 2 {
			a.console.Notice("usage: /session use <name>")
			return nil
		}
		key := workspace.SessionKey(args[1], a.workDir)
		next, err := a.store.Load(key)
		if err != nil {
			return err
		}
		*sess = next
		a.console.Notice("switched session: %s (%d messages)", key, len(next.Messages))

	case "rm":
		if len(args) < 2 {
			a.console.Notice("usage: /session rm <name>")
			return nil
		}
		key := workspace.SessionKey(args[1], a.workDir)
		if key == (*sess).ID {
			a.console.Notice("cannot remove the active session: %s", key)
			return nil
		}
		removed, err := a.store.Remove(key)
		if err != nil {
			return err
		}
		if removed {
			a.console.Notice("removed session: %s", key)
		} else {
			a.console.Notice("session not found: %s", key)
		}

	default:
		a.console.Notice("usage: /session <list|use|rm>")
	}
	return nil
}

func (a *App) handlePromptSlash(args []string) error {
	if len(args) == 0 {
		a.console.Notice("usage: /prompt <show|list|use>")
		return nil
	}
	switch args[0] {
	case "show":
		a.console.Notice("active prompt: %s", a.cfg.ActivePrompt)
		a.console.Notice("%s", a.cfg.CurrentPromptText())

	case "list":
		a.console.Notice("active: %s", a.cfg.ActivePrompt)
		for name := range a.cfg.Prompts {
			a.console.Notice("- %s", name)
		}

	case "use":
		if len(args) < 2 {
			a.console.Notice("usage: /prompt use <name>")
			return nil
		}
		name := args[1]
		if _, ok := a.cfg.Prompts[name]; !ok {
			a.console.Notice("prompt not found: %s", name)
			return nil
		}
		a.cfg.ActivePrompt = name
		if err := a.loader.Save(a.cfg); err != nil {
			return fmt.Errorf("failed to persist prompt switch: %w", err)
		}
		a.console.Notice("active prompt switched to %q", name)

	default:
		a.console.Notice("usage: /prompt <show|list|use>")
	}
	return nil
}

func (a *App) handleModelSlash(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		a.console.Notice("current model: %s", a.cfg.Model)
		return nil
	}
	switch args[0] {
	case "use":
		if len(args) < 2 {
			a.console.Notice("usage: /model use <name>")
			return nil
		}
		a.cfg.Model = args[1]
		a.controller.Model = args[1]
		if err := a.loader.Save(a.cfg); err != nil {
			return fmt.Errorf("failed to persist model switch: %w", err)
		}
		a.console.Notice("active model switched to %q", args[1])

	default:
		a.console.Notice("usage: /model <show|use>")
	}
	return nil
}
