package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/halcyondev/shellm/internal/agent"
	"github.com/halcyondev/shellm/internal/config"
	"github.com/halcyondev/shellm/internal/llm"
	"github.com/halcyondev/shellm/internal/policy"
	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/shell"
	"github.com/halcyondev/shellm/internal/toolcall"
	"github.com/halcyondev/shellm/internal/ui"
	"github.com/halcyondev/shellm/internal/workspace"
)

// App holds the wired application for one invocation.
type App struct {
	cfg        *config.Config
	loader     *config.Loader
	store      *session.Store
	trust      *policy.TrustStore
	controller *agent.Controller
	console    *ui.Console
	workDir    string
	mode       agent.ExecutionMode
	logger     *zap.Logger
}

func newApp(logger *zap.Logger) (*App, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	configDir, err := loader.Dir()
	if err != nil {
		return nil, err
	}

	trust := policy.NewTrustStore(cfg, loader.Save)
	runner := shell.NewOSRunner(workDir, time.Duration(cfg.CommandTimeoutSeconds)*time.Second, int(cfg.MaxOutputBytes), logger)
	console := ui.NewConsole(os.Stdin, os.Stdout)
	compactor := session.Compactor{
		MaxMessages: cfg.HistoryMaxMessages,
		MaxChars:    cfg.HistoryMaxChars,
		Summarizer:  session.DigestSummarizer{},
	}

	controller := agent.New(
		llm.NewOpenAIClient(cfg, logger),
		toolcall.NewParser(logger),
		trust,
		policy.NewPrechecker(),
		runner,
		agent.NewVerifier(workDir, runner),
		compactor,
		console,
		cfg.Model,
		cfg.AgentMaxSteps,
		logger,
	)

	mode := agent.ModeAgentAuto
	if modeFlag != "" {
		parsed, ok := agent.ParseExecutionMode(modeFlag)
		if !ok {
			return nil, fmt.Errorf("unknown execution mode: %s", modeFlag)
		}
		mode = parsed
	}

	return &App{
		cfg:        cfg,
		loader:     loader,
		store:      session.NewStore(filepath.Join(configDir, "sessions")),
		trust:      trust,
		controller: controller,
		console:    console,
		workDir:    workDir,
		mode:       mode,
		logger:     logger,
	}, nil
}

// runInteractive is the chat REPL: read a line, dispatch slash commands,
// otherwise run a chat or agent turn and persist the session.
func (a *App) runInteractive(ctx context.Context) error {
	key := workspace.SessionKey(sessionName, a.workDir)
	sess, err := a.store.Load(key)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	a.console.Notice("== shellm chat (%s) ==", sess.ID)
	a.console.Notice("type /help for slash commands, /exit to quit")
	a.console.Notice("execution mode: %s", a.mode)

	for {
		line, err := a.console.ReadLine("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		changedBefore := workspace.ChangedFiles(a.workDir)

		if line[0] == '/' {
			quit, err := a.handleSlash(line, &sess)
			if err != nil {
				a.console.Error("%v", err)
			}
			if quit {
				return a.store.Save(sess)
			}
			if err := a.store.Save(sess); err != nil {
				a.console.Error("failed to save session: %v", err)
			}
			continue
		}

		a.runOneTurn(ctx, sess, line)

		if err := a.store.Save(sess); err != nil {
			a.console.Error("failed to save session: %v", err)
		}
		a.console.Changes(workspace.Delta(changedBefore, workspace.ChangedFiles(a.workDir)))
	}
}

// runOneTurn executes one exchange. SIGINT cancels the in-flight turn
// instead of killing the REPL.
func (a *App) runOneTurn(ctx context.Context, sess *session.Session, input string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sess.SetSystemPrompt(a.cfg.BuildSystemPrompt("chat"))
	sess.Append(session.NewMessage(session.RoleUser, augmentInput(a.workDir, input)))

	var err error
	if agent.ShouldUseAgent(input, a.mode) {
		err = a.controller.RunTurn(turnCtx, sess)
	} else {
		err = a.controller.ChatTurn(turnCtx, sess)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.console.Notice("turn interrupted")
			return
		}
		a.console.Error("%v", err)
	}
}

// augmentInput prefixes the request with the workspace location so the
// model proposes commands relative to the right directory.
func augmentInput(workDir, input string) string {
	return fmt.Sprintf("Workspace CWD: %s\nUser request: %s", workDir, input)
}
