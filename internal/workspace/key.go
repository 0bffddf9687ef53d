// Package workspace derives stable per-workspace identifiers and reports
// file changes between agent turns.
package workspace

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"time"
)

// SessionKey resolves the session name the store should use. The literals
// "default" and "auto" (and the empty string) map to a key derived from the
// workspace path, so every workspace gets its own isolated history. The
// derivation is deterministic: the same absolute path always yields the
// same key.
func SessionKey(requested, workspaceDir string) string {
	if requested == "" || requested == "default" || requested == "auto" {
		return workspaceKey(workspaceDir)
	}
	return Sanitize(requested)
}

// FreshSessionKey returns a new timestamped key for the workspace, used by
// /new without an explicit name.
func FreshSessionKey(workspaceDir string) string {
	return fmt.Sprintf("%s-%d", workspaceKey(workspaceDir), time.Now().Unix())
}

func workspaceKey(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	leaf := filepath.Base(abs)
	if leaf == "." || leaf == string(filepath.Separator) {
		leaf = "workspace"
	}
	return Sanitize(fmt.Sprintf("ws-%s-%x", leaf, h.Sum64()))
}

// Sanitize maps a requested session name onto the filesystem-safe alphabet
// [A-Za-z0-9_-]. An empty result falls back to "session".
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}
