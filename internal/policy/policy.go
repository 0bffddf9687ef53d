// Package policy decides whether a proposed shell command may run. The
// engine is pure: it never executes anything and never touches hidden
// state. Only commands that receive Allow ever reach the command runner.
package policy

import (
	"fmt"
	"strings"

	"github.com/halcyondev/shellm/internal/config"
)

// Verdict is the outcome of a policy evaluation.
type Verdict int

const (
	// Allow runs the command without asking.
	Allow Verdict = iota
	// Deny refuses the command.
	Deny
	// AskConfirm defers to the operator.
	AskConfirm
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case AskConfirm:
		return "ask"
	default:
		return "unknown"
	}
}

// Decision carries the verdict and the rule that produced it.
type Decision struct {
	Verdict Verdict
	Rule    string
}

// Rules is an immutable snapshot of the policy configuration a decision is
// evaluated against. Build one via TrustStore.Snapshot or directly in
// tests.
type Rules struct {
	Mode             config.AutoExecMode
	Allow            []string
	Deny             []string
	Trusted          []string
	ConfirmBeforeRun bool // auto_confirm_exec
}

// Decide evaluates one command against the rules. First match wins:
//
//  1. deny-list prefix → Deny (deny dominates everything, trust included)
//  2. safe mode and the leading token is not whitelisted → Deny
//  3. custom mode and no allow-list prefix → Deny
//  4. confirmation disabled → Allow
//  5. trusted prefix → Allow
//  6. otherwise → AskConfirm
func Decide(command string, rules Rules) Decision {
	command = strings.TrimSpace(command)
	if command == "" {
		return Decision{Verdict: Deny, Rule: "empty command"}
	}

	if entry, ok := matchPrefix(rules.Deny, command); ok {
		return Decision{Verdict: Deny, Rule: fmt.Sprintf("deny list entry %q", entry)}
	}

	switch rules.Mode {
	case config.AutoExecSafe:
		if !isSafeCommand(command) {
			return Decision{Verdict: Deny, Rule: "safe mode: command not in read-only whitelist"}
		}
	case config.AutoExecCustom:
		if _, ok := matchPrefix(rules.Allow, command); !ok {
			return Decision{Verdict: Deny, Rule: "custom mode: no allow list match"}
		}
	case config.AutoExecAll:
		// Everything not denied is eligible.
	}

	if !rules.ConfirmBeforeRun {
		return Decision{Verdict: Allow, Rule: fmt.Sprintf("mode %s, confirmation disabled", rules.Mode)}
	}

	if entry, ok := matchPrefix(rules.Trusted, command); ok {
		return Decision{Verdict: Allow, Rule: fmt.Sprintf("trusted prefix %q", entry)}
	}

	return Decision{Verdict: AskConfirm, Rule: "confirmation required"}
}

// matchPrefix reports the first list entry that is a token-boundary,
// case-sensitive prefix of command.
func matchPrefix(list []string, command string) (string, bool) {
	for _, item := range list {
		entry := strings.TrimSpace(item)
		if entry == "" {
			continue
		}
		if hasTokenPrefix(command, entry) {
			return entry, true
		}
	}
	return "", false
}

// hasTokenPrefix reports whether entry is a prefix of command ending on a
// token boundary, so "rm" matches "rm -rf /" but not "rmdir tmp".
func hasTokenPrefix(command, entry string) bool {
	if !strings.HasPrefix(command, entry) {
		return false
	}
	if len(command) == len(entry) {
		return true
	}
	next := command[len(entry)]
	return next == ' ' || next == '\t'
}

// safeLeadingTokens is the built-in whitelist of read-only commands
// eligible under safe mode.
var safeLeadingTokens = map[string]bool{
	"ls": true, "dir": true, "pwd": true, "cat": true, "type": true,
	"rg": true, "grep": true, "findstr": true, "tree": true, "find": true,
	"get-childitem": true, "get-content": true, "get-location": true,
}

// safeGitSubcommands are the read-only git operations allowed in safe mode.
var safeGitSubcommands = map[string]bool{
	"status": true, "diff": true, "log": true, "show": true, "branch": true,
}

func isSafeCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(fields[0])
	if safeLeadingTokens[first] {
		return true
	}
	if first == "git" && len(fields) > 1 {
		return safeGitSubcommands[strings.ToLower(fields[1])]
	}
	return false
}

// CommandPrefix derives the trust-set prefix for a command: its leading
// token, or "git <subcommand>" so trusting "git status" does not trust
// "git push".
func CommandPrefix(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	if strings.EqualFold(fields[0], "git") && len(fields) > 1 {
		return fields[0] + " " + fields[1]
	}
	return fields[0]
}
