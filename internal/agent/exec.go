package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/halcyondev/shellm/internal/policy"
	"github.com/halcyondev/shellm/internal/shell"
	"github.com/halcyondev/shellm/internal/toolcall"
	"github.com/halcyondev/shellm/internal/ui"
)

// execOutcome summarizes one tool-execution batch.
type execOutcome struct {
	hadBlocks     bool
	executedAny   bool
	skippedAny    bool
	invalidFormat bool
	hadFailures   bool
	historyText   string
}

// executeCommands parses the assistant reply and runs its tool calls in
// order under the policy engine. It never returns a parse error; malformed
// output is reported through the outcome flags so the loop can ask the
// model to retry. A non-nil error only means the context was cancelled.
func (c *Controller) executeCommands(ctx context.Context, state *TurnState, answer string) (execOutcome, error) {
	parsed := c.Parser.Parse(answer)

	if len(parsed.Calls) == 0 {
		switch parsed.Hint {
		case toolcall.HintLegacyShellBlock:
			msg := "Detected legacy shell block. Skipped: use JSON tool_calls instead."
			c.Console.Notice("%s", msg)
			return execOutcome{
				hadBlocks:     true,
				skippedAny:    true,
				invalidFormat: true,
				historyText:   toolHistoryHeader + msg,
			}, nil
		case toolcall.HintMalformed:
			msg := "Detected malformed or incomplete tool_calls JSON. Skipped; retry with valid JSON tool_calls."
			c.Console.Notice("%s", msg)
			return execOutcome{
				hadBlocks:     true,
				skippedAny:    true,
				invalidFormat: true,
				historyText:   toolHistoryHeader + msg,
			}, nil
		}
		return execOutcome{}, nil
	}

	state.Phase = PhaseToolExecution
	c.Console.Notice("(phase: tool execution)")

	var history strings.Builder
	history.WriteString(toolHistoryHeader)
	outcome := execOutcome{hadBlocks: true}
	seen, failed := 0, 0

batch:
	for _, call := range parsed.Calls {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		command := strings.TrimSpace(call.Command)
		if call.Kind != toolcall.KindShell || command == "" {
			continue
		}
		if seen >= maxCommandsPerResponse {
			line := fmt.Sprintf("Stopped auto exec after %d commands to avoid noisy output.", maxCommandsPerResponse)
			c.Console.Notice("%s", line)
			history.WriteString(line + "\n")
			break
		}
		seen++

		if reason := c.Prechecker.Check(command); reason != "" {
			line := fmt.Sprintf("Skipped command: %s (%s)", command, reason)
			c.Console.Notice("%s", line)
			history.WriteString(line + "\n")
			outcome.skippedAny = true
			continue
		}

		decision := policy.Decide(command, c.Policy.Snapshot())
		switch decision.Verdict {
		case policy.Deny:
			line := fmt.Sprintf("command denied by policy: %s (%s)", command, decision.Rule)
			c.Console.Notice("%s", line)
			history.WriteString(line + "\n")
			outcome.skippedAny = true
			continue
		case policy.AskConfirm:
			answer, err := c.Console.Confirm(command)
			if err != nil {
				return outcome, err
			}
			switch answer {
			case ui.ConfirmQuit:
				line := "User stopped command execution."
				c.Console.Notice("%s", line)
				history.WriteString(line + "\n")
				break batch
			case ui.ConfirmAlways:
				prefix := policy.CommandPrefix(command)
				if err := c.Policy.Trust(prefix); err != nil {
					c.logger.Warn("could not persist trusted prefix", zap.String("prefix", prefix), zap.Error(err))
				}
			case ui.ConfirmYes:
			default:
				line := fmt.Sprintf("Skipped by user: %s", command)
				c.Console.Notice("%s", line)
				history.WriteString(line + "\n")
				outcome.skippedAny = true
				continue
			}
		}

		c.Console.Tool(command)
		res, runErr := c.Runner.Run(ctx, command)
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		var output string
		switch {
		case res == nil:
			output = fmt.Sprintf("could not run command: %v", runErr)
		case errors.Is(runErr, shell.ErrTimeout):
			output = res.CombinedOutput() + "\n[command timed out]"
		default:
			output = res.CombinedOutput()
		}
		c.Console.ToolOutput(output)
		history.WriteString(fmt.Sprintf("Executed: %s\nOutput:\n%s\n", command, output))
		outcome.executedAny = true

		if (res != nil && res.Failed()) || res == nil {
			failed++
			outcome.hadFailures = true
			if failed >= maxFailedCommandsPerResponse {
				line := fmt.Sprintf("Stopped auto exec after %d failed commands.", maxFailedCommandsPerResponse)
				c.Console.Notice("%s", line)
				history.WriteString(line + "\n")
				break
			}
		}
	}

	outcome.historyText = history.String()
	return outcome, nil
}

const toolHistoryHeader = "tool[shell.auto_exec] output:\n"
