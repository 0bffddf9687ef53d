package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halcyondev/shellm/internal/llm"
	"github.com/halcyondev/shellm/internal/policy"
	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/shell"
	"github.com/halcyondev/shellm/internal/toolcall"
	"github.com/halcyondev/shellm/internal/ui"
)

const (
	maxCommandsPerResponse       = 8
	maxFailedCommandsPerResponse = 2
	maxInvalidFormatRetries      = 2
	maxUnsafeRetries             = 1
)

// Console is the terminal surface the controller talks to.
type Console interface {
	Markdown(text string)
	Tool(command string)
	ToolOutput(output string)
	Notice(format string, args ...any)
	Error(format string, args ...any)
	Confirm(command string) (ui.ConfirmDecision, error)
}

// TrustPolicy provides decision snapshots and durable trust mutation.
type TrustPolicy interface {
	Snapshot() policy.Rules
	Trust(prefix string) error
}

// Compactor bounds the session before each model call.
type Compactor interface {
	Compact(s *session.Session)
}

// Controller drives the agent loop for one workspace: model call, tool
// execution under policy, verification, and the final reply.
type Controller struct {
	LLM        llm.Client
	Parser     *toolcall.Parser
	Policy     TrustPolicy
	Prechecker *policy.Prechecker
	Runner     shell.Runner
	Verifier   *Verifier
	Compactor  Compactor
	Console    Console

	Model    string
	MaxSteps int

	logger *zap.Logger
}

// New wires a Controller. All collaborators are required except logger.
func New(llmClient llm.Client, parser *toolcall.Parser, trust TrustPolicy, prechecker *policy.Prechecker, runner shell.Runner, verifier *Verifier, compactor Compactor, console Console, model string, maxSteps int, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSteps <= 0 {
		maxSteps = 3
	}
	return &Controller{
		LLM:        llmClient,
		Parser:     parser,
		Policy:     trust,
		Prechecker: prechecker,
		Runner:     runner,
		Verifier:   verifier,
		Compactor:  compactor,
		Console:    console,
		Model:      model,
		MaxSteps:   maxSteps,
		logger:     logger,
	}
}

// ChatTurn runs one plain chat exchange: no tool execution, just the model
// reply appended to the session and rendered.
func (c *Controller) ChatTurn(ctx context.Context, sess *session.Session) error {
	c.Compactor.Compact(sess)
	answer, err := c.LLM.Chat(ctx, c.Model, sess.Messages)
	if err != nil {
		c.reportLLMError(err)
		return nil
	}
	sess.Append(session.NewMessage(session.RoleAssistant, answer))
	c.Console.Markdown(answer)
	return nil
}

// RunTurn runs one agent turn: a bounded loop of reasoning, tool
// execution, and verification that ends with a final reply. Model errors
// end the turn with the session intact; context cancellation aborts
// without advancing past the last append.
func (c *Controller) RunTurn(ctx context.Context, sess *session.Session) error {
	state := TurnState{Phase: PhaseReasoning}
	turnID := uuid.NewString()
	logger := c.logger.With(zap.String("turn_id", turnID), zap.String("session", sess.ID))
	logger.Debug("agent turn started", zap.Int("max_steps", c.MaxSteps))

	for {
		state.Phase = PhaseReasoning
		c.Compactor.Compact(sess)
		c.Console.Notice("(phase: reasoning step %d)", state.Step+1)

		answer, err := c.LLM.Chat(ctx, c.Model, sess.Messages)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.reportLLMError(err)
			return nil
		}

		sess.Append(session.NewTurnMessage(session.RoleAssistant, answer, turnID))
		outcome, err := c.executeCommands(ctx, &state, answer)
		if err != nil {
			return err
		}

		if !outcome.hadBlocks {
			state.Phase = PhaseFinal
			c.Console.Markdown(answer)
			return nil
		}

		if outcome.executedAny {
			state.Phase = PhaseVerification
			c.Console.Notice("(phase: verification)")
			verification := c.Verifier.Verify(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Console.Notice("%s", verification)

			sess.Append(session.NewTurnMessage(session.RoleTool, outcome.historyText, turnID))
			sess.Append(session.NewTurnMessage(session.RoleTool, verification, turnID))
			sess.Append(session.NewTurnMessage(session.RoleUser, continuationMessage(outcome.hadFailures), turnID))

			state.Step++
			if state.Step >= c.MaxSteps {
				state.Phase = PhaseFinal
				notice := fmt.Sprintf("stopped after %d steps; continue by describing the next action", c.MaxSteps)
				c.Console.Notice("%s", notice)
				sess.Append(session.NewTurnMessage(session.RoleAssistant, notice, turnID))
				return nil
			}
			continue
		}

		if outcome.invalidFormat && state.InvalidFormatRetries < maxInvalidFormatRetries {
			state.InvalidFormatRetries++
			sess.Append(session.NewTurnMessage(session.RoleUser, formatRetryMessage, turnID))
			continue
		}

		if outcome.skippedAny && state.UnsafeRetries < maxUnsafeRetries {
			state.UnsafeRetries++
			sess.Append(session.NewTurnMessage(session.RoleUser, unsafeRetryMessage, turnID))
			continue
		}

		state.Phase = PhaseFinal
		c.Console.Notice("tool calls detected, but all were skipped as unsafe or unsupported")
		return nil
	}
}

const formatRetryMessage = "Your last response had invalid tool_calls format. " +
	"Use only a strict JSON code fence like " +
	"```json {\"tool_calls\":[{\"tool\":\"shell\",\"command\":\"rg --files\"}]} ``` " +
	"or provide a final answer with no tool_calls."

const unsafeRetryMessage = "Your last response used an unsupported execution format or unsafe commands. " +
	"Use JSON tool_calls only, and only when needed. Otherwise provide the final analysis directly."

func continuationMessage(hadFailures bool) string {
	msg := "Continue based on tool outputs above. If more execution is needed, " +
		"emit JSON tool_calls. If complete, give the final answer directly with a short " +
		"summary, changed files, and verification result."
	if hadFailures {
		msg += "\nSome commands failed. Prefer narrower retries: check file/path existence first, then rerun minimal commands."
	}
	return msg
}

func (c *Controller) reportLLMError(err error) {
	c.logger.Warn("model request failed", zap.Error(err))
	c.Console.Error("request interrupted: %v", err)
	c.Console.Notice("you can continue chatting and send the next message")
}
