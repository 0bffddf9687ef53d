package policy

import (
	"fmt"
	"os"
	"strings"
)

// Prechecker runs cheap sanity checks on a command before it is offered to
// the policy engine, catching invocations that would fail or flood the
// terminal: oversized inline payloads and references to files that do not
// exist. A non-empty reason means the command should be skipped.
type Prechecker struct {
	Stat func(path string) (os.FileInfo, error)
}

// NewPrechecker creates a Prechecker backed by the real filesystem.
func NewPrechecker() *Prechecker {
	return &Prechecker{Stat: os.Stat}
}

func (p *Prechecker) exists(path string) bool {
	_, err := p.Stat(path)
	return err == nil
}

// Check returns a skip reason, or "" when the command passes.
func (p *Prechecker) Check(command string) string {
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return "empty command"
	}
	first := strings.ToLower(tokens[0])
	lower := strings.ToLower(command)

	if (strings.Contains(lower, "base64") || strings.Contains(lower, "frombase64string")) && len(command) > 700 {
		return "base64 payload too long; use small script file workflow instead"
	}

	if (first == "python" || first == "python3") && strings.Contains(lower, " -c ") {
		if strings.Contains(command, "\n") || len(command) > 360 {
			return "python -c is too long/multiline; write .py file then run it"
		}
	}

	if first == "python" || first == "python3" {
		if len(tokens) >= 2 {
			script := strings.Trim(tokens[1], `"'`)
			if strings.HasSuffix(script, ".py") && !p.exists(script) {
				return fmt.Sprintf("script not found: %s", script)
			}
		}
	}

	if first == "pip" && strings.Contains(command, "-r") {
		for i, tok := range tokens {
			if tok == "-r" && i+1 < len(tokens) {
				req := strings.Trim(tokens[i+1], `"'`)
				if !p.exists(req) {
					return fmt.Sprintf("requirements file not found: %s", req)
				}
			}
		}
	}

	return ""
}
