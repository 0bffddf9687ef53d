package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// CombinedOutput merges stdout and stderr the way it is fed back to the
// model: both streams when present, a placeholder when the command was
// silent, and a marker line when output was cut at the byte cap.
func (r *Result) CombinedOutput() string {
	var b strings.Builder
	if strings.TrimSpace(r.Stdout) != "" {
		b.WriteString(r.Stdout)
	}
	if strings.TrimSpace(r.Stderr) != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.Stderr)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "(no output)"
	}
	if r.Truncated {
		b.WriteString("\n[output truncated]")
	}
	return b.String()
}

// Failed reports whether the execution should count against the per-response
// failure budget. A zero exit code can still be a failure when the tool
// swallowed the error and only printed it.
func (r *Result) Failed() bool {
	if r.ExitCode != 0 {
		return true
	}
	return LooksLikeFailure(r.Stdout + "\n" + r.Stderr)
}

// LooksLikeFailure spots error signatures that common tools print while
// still exiting zero.
func LooksLikeFailure(output string) bool {
	s := strings.ToLower(output)
	for _, sig := range []string{
		"commandnotfoundexception",
		"can't open file",
		"no such file",
		"module not found",
		"traceback",
		"is not recognized",
	} {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}

// Runner executes one shell command line and reports its outcome.
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
}

const defaultGracePeriod = 2 * time.Second

// OSRunner runs commands through the platform shell: sh on unix,
// PowerShell on Windows. One Runner is scoped to one working directory.
type OSRunner struct {
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
	GracePeriod    time.Duration

	logger *zap.Logger
}

// NewOSRunner creates a runner for dir. A zero timeout disables the
// deadline; maxOutputBytes caps each captured stream.
func NewOSRunner(dir string, timeout time.Duration, maxOutputBytes int, logger *zap.Logger) *OSRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSRunner{
		Dir:            dir,
		Timeout:        timeout,
		MaxOutputBytes: maxOutputBytes,
		GracePeriod:    defaultGracePeriod,
		logger:         logger,
	}
}

// Run executes command with the runner's timeout. On timeout the process
// first receives an interrupt, then a kill after the grace period, and the
// partial output captured so far is returned alongside ErrTimeout.
func (r *OSRunner) Run(ctx context.Context, command string) (*Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, os.ErrInvalid
	}

	name, args := shellInvocation(command)
	// CommandContext would SIGKILL immediately on deadline; the
	// interrupt-then-kill sequence below gives the child a chance to
	// flush and clean up.
	cmd := exec.Command(name, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CommandError{Cmd: command, Stage: "start", Cause: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &CommandError{Cmd: command, Stage: "start", Cause: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command, Stage: "start", Cause: err}
	}
	r.logger.Debug("command started", zap.String("command", command), zap.String("dir", r.Dir))

	var stdoutStr, stderrStr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdoutStr, stderrStr, truncated = r.collectOutput(stdoutPipe, stderrPipe)
		close(collectDone)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if r.Timeout > 0 {
		timer := time.NewTimer(r.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var execErr error
	select {
	case err := <-done:
		execErr = err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		execErr = ctx.Err()
	case <-timeoutCh:
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(r.gracePeriod()):
			_ = cmd.Process.Kill()
			<-done
		}
		execErr = ErrTimeout
	}

	<-collectDone

	exitCode := 0
	if execErr != nil {
		exitCode = exitCodeOf(execErr)
	}

	result := &Result{
		Stdout:    stdoutStr,
		Stderr:    stderrStr,
		ExitCode:  exitCode,
		Truncated: truncated,
		Duration:  time.Since(start),
	}
	r.logger.Debug("command finished",
		zap.String("command", command),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", result.Duration),
	)
	return result, execErr
}

func (r *OSRunner) gracePeriod() time.Duration {
	if r.GracePeriod > 0 {
		return r.GracePeriod
	}
	return defaultGracePeriod
}

func (r *OSRunner) collectOutput(stdout, stderr io.Reader) (string, string, bool) {
	maxBytes := r.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}

	stdoutCollector := newCollector(maxBytes, 8000)
	stderrCollector := newCollector(maxBytes, 8000)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()
	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrTimeout) {
		return -1
	}
	type exitCoder interface {
		ExitCode() int
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func shellInvocation(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		wrapped := fmt.Sprintf(
			"$OutputEncoding = [Console]::OutputEncoding = [System.Text.UTF8Encoding]::new($false); %s",
			normalizePowerShell(command),
		)
		return "powershell", []string{"-NoProfile", "-Command", wrapped}
	}
	return "sh", []string{"-lc", command}
}

// normalizePowerShell rewrites "&&" outside quotes into ";". Windows
// PowerShell 5.1 has no "&&" operator, and chained commands like
// `cd path && ls` are what models emit most.
func normalizePowerShell(command string) string {
	var out strings.Builder
	out.Grow(len(command))
	inSingle, inDouble := false, false
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			out.WriteRune(ch)
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			out.WriteRune(ch)
		case ch == '&' && !inSingle && !inDouble && i+1 < len(runes) && runes[i+1] == '&':
			i++
			out.WriteString("; ")
		default:
			out.WriteRune(ch)
		}
	}
	return out.String()
}
