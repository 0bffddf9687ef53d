package policy

import (
	"strings"
	"sync"

	"github.com/halcyondev/shellm/internal/config"
)

// TrustStore serializes mutations to the persisted policy sets. Decisions
// take an immutable Rules snapshot; "always trust" approvals flow through
// Trust, the single writer, so concurrent sessions observe updates without
// interleaved corruption.
type TrustStore struct {
	mu   sync.Mutex
	cfg  *config.Config
	save func(*config.Config) error
}

// NewTrustStore wraps the live config. save persists mutations; a nil save
// keeps trust in-memory only.
func NewTrustStore(cfg *config.Config, save func(*config.Config) error) *TrustStore {
	return &TrustStore{cfg: cfg, save: save}
}

// Snapshot copies the current policy configuration into an immutable Rules
// value for one decision.
func (t *TrustStore) Snapshot() Rules {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Rules{
		Mode:             t.cfg.AutoExecMode,
		Allow:            append([]string(nil), t.cfg.AutoExecAllow...),
		Deny:             append([]string(nil), t.cfg.AutoExecDeny...),
		Trusted:          append([]string(nil), t.cfg.AutoExecTrusted...),
		ConfirmBeforeRun: t.cfg.AutoConfirmExec,
	}
}

// Trust durably adds a prefix to the trusted set. Adding an
// already-trusted prefix is a no-op.
func (t *TrustStore) Trust(prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.cfg.AutoExecTrusted {
		if strings.EqualFold(existing, prefix) {
			return nil
		}
	}
	t.cfg.AutoExecTrusted = append(t.cfg.AutoExecTrusted, prefix)
	if t.save == nil {
		return nil
	}
	return t.save(t.cfg)
}
