package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halcyondev/shellm/internal/shell"
)

const verificationOutputLimit = 5000

// Verifier runs one project health check after tool execution: the checker
// is picked from project marker files, never from the model's output.
type Verifier struct {
	Dir    string
	Runner shell.Runner
	Stat   func(path string) (os.FileInfo, error)
}

// NewVerifier creates a Verifier for dir using the real filesystem.
func NewVerifier(dir string, runner shell.Runner) *Verifier {
	return &Verifier{Dir: dir, Runner: runner, Stat: os.Stat}
}

func (v *Verifier) exists(name string) bool {
	_, err := v.Stat(filepath.Join(v.Dir, name))
	return err == nil
}

// DetectChecker picks the health-check command for the project, or ok=false
// when no supported marker file is present.
func (v *Verifier) DetectChecker() (label, command string, ok bool) {
	switch {
	case v.exists("go.mod"):
		return "go", "go vet ./...", true
	case v.exists("Cargo.toml"):
		return "rust", "cargo check", true
	case v.exists("pnpm-lock.yaml") && v.exists("tsconfig.json"):
		return "typescript", "pnpm -s tsc --noEmit", true
	case v.exists("package.json") && v.exists("tsconfig.json"):
		return "typescript", "npm exec -y tsc --noEmit", true
	case v.exists("pyproject.toml") || v.exists("pytest.ini"):
		return "python", "pytest -q", true
	}
	return "", "", false
}

// Verify runs the detected checker and formats its outcome for the
// conversation. A failing check is reported as failed, never folded into a
// success message; with no detectable checker the report says skipped.
func (v *Verifier) Verify(ctx context.Context) string {
	label, command, ok := v.DetectChecker()
	if !ok {
		return "verification: skipped (no supported project checker detected)"
	}

	res, err := v.Runner.Run(ctx, command)
	status := "ok"
	var output string
	switch {
	case res == nil:
		status = "failed"
		output = fmt.Sprintf("could not run checker: %v", err)
	default:
		output = res.CombinedOutput()
		if err != nil || res.Failed() {
			status = "failed"
		}
	}

	return fmt.Sprintf("verification[%s] %s\n$ %s\n%s", label, status, command, clipOutput(output, verificationOutputLimit))
}

func clipOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Clip on a rune boundary.
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "\n[clipped]"
}

// looksLikeAgentTask is the heuristic behind agent-auto mode: inputs that
// read like edit or build requests get the tool loop, everything else is
// plain chat.
func looksLikeAgentTask(input string) bool {
	lower := strings.ToLower(input)
	for _, k := range []string{
		"fix ", "implement", "refactor", "edit ", "change ", "update ",
		"patch ", "apply ", "add feature", "write code", "run tests",
		"build ", "compile ",
	} {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, k := range []string{
		"修复", "实现", "重构", "修改", "编辑", "补丁", "写代码", "跑测试", "编译", "构建",
	} {
		if strings.Contains(input, k) {
			return true
		}
	}
	return false
}
