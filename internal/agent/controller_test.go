package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyondev/shellm/internal/config"
	"github.com/halcyondev/shellm/internal/policy"
	"github.com/halcyondev/shellm/internal/session"
	"github.com/halcyondev/shellm/internal/shell"
	"github.com/halcyondev/shellm/internal/toolcall"
	"github.com/halcyondev/shellm/internal/ui"
)

// MockLLM implements llm.Client for testing
type MockLLM struct {
	ChatFunc func(ctx context.Context, model string, messages []session.Message) (string, error)
	calls    int
}

func (m *MockLLM) Chat(ctx context.Context, model string, messages []session.Message) (string, error) {
	m.calls++
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, model, messages)
	}
	return "", errors.New("not implemented")
}

// MockRunner implements shell.Runner for testing
type MockRunner struct {
	RunFunc  func(ctx context.Context, command string) (*shell.Result, error)
	commands []string
}

func (m *MockRunner) Run(ctx context.Context, command string) (*shell.Result, error) {
	m.commands = append(m.commands, command)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, command)
	}
	return &shell.Result{Stdout: "ok"}, nil
}

// MockTrust implements TrustPolicy for testing
type MockTrust struct {
	SnapshotFunc func() policy.Rules
	TrustFunc    func(prefix string) error
	trusted      []string
}

func (m *MockTrust) Snapshot() policy.Rules {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc()
	}
	return policy.Rules{Mode: config.AutoExecAll}
}

func (m *MockTrust) Trust(prefix string) error {
	m.trusted = append(m.trusted, prefix)
	if m.TrustFunc != nil {
		return m.TrustFunc(prefix)
	}
	return nil
}

// MockConsole records everything the controller shows the operator.
type MockConsole struct {
	ConfirmFunc func(command string) (ui.ConfirmDecision, error)
	markdown    []string
	notices     []string
	errorLines  []string
	toolLines   []string
}

func (m *MockConsole) Markdown(text string)      { m.markdown = append(m.markdown, text) }
func (m *MockConsole) Tool(command string)       { m.toolLines = append(m.toolLines, command) }
func (m *MockConsole) ToolOutput(output string)  {}
func (m *MockConsole) Notice(f string, a ...any) { m.notices = append(m.notices, fmt.Sprintf(f, a...)) }
func (m *MockConsole) Error(f string, a ...any) {
	m.errorLines = append(m.errorLines, fmt.Sprintf(f, a...))
}

func (m *MockConsole) Confirm(command string) (ui.ConfirmDecision, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(command)
	}
	return ui.ConfirmYes, nil
}

func (m *MockConsole) noticeContaining(substr string) bool {
	for _, n := range m.notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

type noopCompactor struct{}

func (noopCompactor) Compact(*session.Session) {}

type fixture struct {
	llm     *MockLLM
	runner  *MockRunner
	trust   *MockTrust
	console *MockConsole
	ctrl    *Controller
}

func newFixture(maxSteps int) *fixture {
	f := &fixture{
		llm:     &MockLLM{},
		runner:  &MockRunner{},
		trust:   &MockTrust{},
		console: &MockConsole{},
	}
	verifier := &Verifier{
		Dir:    ".",
		Runner: f.runner,
		Stat:   func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
	}
	prechecker := &policy.Prechecker{
		Stat: func(string) (os.FileInfo, error) { return nil, nil },
	}
	f.ctrl = New(f.llm, toolcall.NewParser(nil), f.trust, prechecker, f.runner, verifier, noopCompactor{}, f.console, "test-model", maxSteps, nil)
	return f
}

func toolCallReply(commands ...string) string {
	calls := make([]string, 0, len(commands))
	for _, c := range commands {
		calls = append(calls, fmt.Sprintf(`{"tool":"shell","command":%q}`, c))
	}
	return "```json\n{\"tool_calls\":[" + strings.Join(calls, ",") + "]}\n```"
}

func newSession() *session.Session {
	s := session.New("test")
	s.SetSystemPrompt("you are a coding agent")
	s.Append(session.NewMessage(session.RoleUser, "list the files"))
	return s
}

func TestRunTurn_PlainAnswerIsFinal(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return "All done, nothing to run.", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Equal(t, 1, f.llm.calls)
	assert.Empty(t, f.runner.commands)
	require.Len(t, f.console.markdown, 1)
	assert.Equal(t, "All done, nothing to run.", f.console.markdown[0])
	last := sess.Messages[len(sess.Messages)-1]
	assert.Equal(t, session.RoleAssistant, last.Role)
}

func TestRunTurn_ExecutesToolCallsThenFinishes(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("ls -la"), nil
		}
		return "Here are the files.", nil
	}
	f.runner.RunFunc = func(ctx context.Context, command string) (*shell.Result, error) {
		return &shell.Result{Stdout: "main.go\n"}, nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Equal(t, 2, f.llm.calls)
	assert.Equal(t, []string{"ls -la"}, f.runner.commands)

	// Session carries the tool output and verification between steps.
	var toolMsgs []string
	for _, m := range sess.Messages {
		if m.Role == session.RoleTool {
			toolMsgs = append(toolMsgs, m.Content)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Contains(t, toolMsgs[0], "Executed: ls -la")
	assert.Contains(t, toolMsgs[0], "main.go")
	assert.Contains(t, toolMsgs[1], "verification: skipped")
}

func TestRunTurn_StepBudgetForcesFinal(t *testing.T) {
	f := newFixture(2)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return toolCallReply("echo again"), nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Equal(t, 2, f.llm.calls)
	assert.True(t, f.console.noticeContaining("stopped after 2 steps"))
	last := sess.Messages[len(sess.Messages)-1]
	assert.Equal(t, session.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "stopped after 2 steps")
}

func TestRunTurn_LLMErrorLeavesSessionIntact(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return "", errors.New("boom")
	}

	sess := newSession()
	before := len(sess.Messages)
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Len(t, sess.Messages, before)
	require.NotEmpty(t, f.console.errorLines)
	assert.Contains(t, f.console.errorLines[0], "boom")
}

func TestRunTurn_MalformedToolCallsTriggersFormatRetry(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return `I will run tool_calls: {"tool": "shell", "command": "ls"`, nil
		}
		return "Final answer.", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Equal(t, 2, f.llm.calls)
	var sawHint bool
	for _, m := range sess.Messages {
		if m.Role == session.RoleUser && strings.Contains(m.Content, "invalid tool_calls format") {
			sawHint = true
		}
	}
	assert.True(t, sawHint)
}

func TestRunTurn_FormatRetriesAreBounded(t *testing.T) {
	f := newFixture(10)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return "```bash\nrm -rf /\n```", nil // legacy block, never converges
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	// 1 initial + 2 format retries + 1 unsafe retry, then give up.
	assert.Equal(t, 4, f.llm.calls)
	assert.Empty(t, f.runner.commands)
	assert.True(t, f.console.noticeContaining("skipped"))
}

func TestRunTurn_DeniedCommandIsNotRun(t *testing.T) {
	f := newFixture(3)
	f.trust.SnapshotFunc = func() policy.Rules {
		return policy.Rules{Mode: config.AutoExecAll, Deny: []string{"rm"}}
	}
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("rm -rf /"), nil
		}
		return "Understood.", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Empty(t, f.runner.commands)
	assert.True(t, f.console.noticeContaining("denied by policy"))
}

func TestRunTurn_ConfirmAlwaysPersistsTrust(t *testing.T) {
	f := newFixture(3)
	f.trust.SnapshotFunc = func() policy.Rules {
		return policy.Rules{Mode: config.AutoExecAll, ConfirmBeforeRun: true}
	}
	f.console.ConfirmFunc = func(command string) (ui.ConfirmDecision, error) {
		return ui.ConfirmAlways, nil
	}
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("git status --porcelain"), nil
		}
		return "Done.", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Equal(t, []string{"git status --porcelain"}, f.runner.commands)
	assert.Equal(t, []string{"git status"}, f.trust.trusted)
}

func TestRunTurn_ConfirmQuitStopsBatch(t *testing.T) {
	f := newFixture(3)
	f.trust.SnapshotFunc = func() policy.Rules {
		return policy.Rules{Mode: config.AutoExecAll, ConfirmBeforeRun: true}
	}
	f.console.ConfirmFunc = func(command string) (ui.ConfirmDecision, error) {
		return ui.ConfirmQuit, nil
	}
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("echo one", "echo two"), nil
		}
		return "Done.", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Empty(t, f.runner.commands)
}

func TestRunTurn_CommandCapPerResponse(t *testing.T) {
	f := newFixture(1)
	commands := make([]string, 12)
	for i := range commands {
		commands[i] = fmt.Sprintf("echo %d", i)
	}
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return toolCallReply(commands...), nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Len(t, f.runner.commands, maxCommandsPerResponse)
	assert.True(t, f.console.noticeContaining("Stopped auto exec after 8 commands"))
}

func TestRunTurn_FailureBudgetStopsBatch(t *testing.T) {
	f := newFixture(1)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return toolCallReply("cmd1", "cmd2", "cmd3", "cmd4"), nil
	}
	f.runner.RunFunc = func(ctx context.Context, command string) (*shell.Result, error) {
		return &shell.Result{ExitCode: 1, Stderr: "broken"}, errors.New("exit status 1")
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	assert.Len(t, f.runner.commands, maxFailedCommandsPerResponse)
	assert.True(t, f.console.noticeContaining("Stopped auto exec after 2 failed commands"))
}

func TestRunTurn_VerificationFailureIsReported(t *testing.T) {
	f := newFixture(3)
	f.ctrl.Verifier.Stat = func(path string) (os.FileInfo, error) {
		if strings.HasSuffix(path, "go.mod") {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("touch main.go"), nil
		}
		return "Done.", nil
	}
	f.runner.RunFunc = func(ctx context.Context, command string) (*shell.Result, error) {
		if strings.HasPrefix(command, "go vet") {
			return &shell.Result{ExitCode: 1, Stderr: "main.go:3: undefined: x"}, errors.New("exit status 1")
		}
		return &shell.Result{}, nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	var verification string
	for _, m := range sess.Messages {
		if m.Role == session.RoleTool && strings.Contains(m.Content, "verification[") {
			verification = m.Content
		}
	}
	require.NotEmpty(t, verification)
	assert.Contains(t, verification, "verification[go] failed")
	assert.Contains(t, verification, "undefined: x")
}

func TestRunTurn_ContextCancelAbortsTurn(t *testing.T) {
	f := newFixture(3)
	ctx, cancel := context.WithCancel(context.Background())
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return toolCallReply("sleep 100"), nil
	}
	f.runner.RunFunc = func(ctx context.Context, command string) (*shell.Result, error) {
		cancel()
		return nil, context.Canceled
	}

	sess := newSession()
	err := f.ctrl.RunTurn(ctx, sess)

	assert.ErrorIs(t, err, context.Canceled)
	// Partial batch results are not appended to the session.
	for _, m := range sess.Messages {
		assert.NotEqual(t, session.RoleTool, m.Role)
	}
}

func TestChatTurn(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		return toolCallReply("rm -rf /") + "\nrunning it now", nil
	}

	sess := newSession()
	require.NoError(t, f.ctrl.ChatTurn(context.Background(), sess))

	// Chat mode never executes, even when the reply contains tool calls.
	assert.Empty(t, f.runner.commands)
	last := sess.Messages[len(sess.Messages)-1]
	assert.Equal(t, session.RoleAssistant, last.Role)
}

func TestRunTurn_TimeoutIsReportedToModel(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("sleep 999"), nil
		}
		return "The command did not finish in time.", nil
	}
	f.runner.RunFunc = func(ctx context.Context, command string) (*shell.Result, error) {
		return &shell.Result{Stdout: "partial work", ExitCode: -1}, shell.ErrTimeout
	}

	sess := newSession()
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	var toolMsg string
	for _, m := range sess.Messages {
		if m.Role == session.RoleTool && strings.Contains(m.Content, "Executed:") {
			toolMsg = m.Content
		}
	}
	require.NotEmpty(t, toolMsg)
	assert.Contains(t, toolMsg, "partial work")
	assert.Contains(t, toolMsg, "[command timed out]")
}

func TestRunTurn_MessagesCarryTurnID(t *testing.T) {
	f := newFixture(3)
	f.llm.ChatFunc = func(ctx context.Context, model string, messages []session.Message) (string, error) {
		if f.llm.calls == 1 {
			return toolCallReply("ls"), nil
		}
		return "done", nil
	}

	sess := newSession()
	before := len(sess.Messages)
	require.NoError(t, f.ctrl.RunTurn(context.Background(), sess))

	require.Greater(t, len(sess.Messages), before)
	turnID := sess.Messages[before].TurnID
	require.NotEmpty(t, turnID)
	for _, m := range sess.Messages[before:] {
		assert.Equal(t, turnID, m.TurnID)
	}
	// Messages from before the turn stay untagged.
	for _, m := range sess.Messages[:before] {
		assert.Empty(t, m.TurnID)
	}
}
