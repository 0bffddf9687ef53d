package session

import (
	"strings"
)

// summaryHeader marks a synthetic message produced by compaction.
const summaryHeader = "[session-summary]"

// Summarizer condenses evicted messages into replacement text. Optional:
// without one the compactor falls back to pure truncation.
type Summarizer interface {
	Summarize(removed []Message) string
}

// Compactor enforces the history budgets. Whenever either budget is
// exceeded it evicts the oldest non-system exchanges until both are
// satisfied. The system message is never evicted, and a user message is
// never separated from its assistant/tool responses: eviction works on
// whole exchanges (a user message plus everything up to the next user
// message).
type Compactor struct {
	MaxMessages int // total message count, system included
	MaxChars    int // sum of content lengths, system excluded
	Summarizer  Summarizer
}

// Compact applies the budgets to the session in place.
// Compacting a session already within budget is a no-op, so the operation
// is idempotent.
func (c Compactor) Compact(s *Session) {
	s.Messages = c.compact(s.Messages)
}

func (c Compactor) compact(msgs []Message) []Message {
	var system []Message
	rest := msgs
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		system = msgs[:1]
		rest = msgs[1:]
	}

	if c.within(len(system), rest, 0, 0) {
		return msgs
	}

	// When a summarizer is available, hold back room for the synthetic
	// summary message so the compacted history still fits the budgets.
	reserveMsgs, reserveChars := 0, 0
	if c.Summarizer != nil {
		reserveMsgs = 1
		reserveChars = c.summaryLimit()
	}

	var removed []Message
	for len(rest) > 0 && !c.within(len(system), rest, reserveMsgs, reserveChars) {
		n := exchangeLen(rest)
		removed = append(removed, rest[:n]...)
		rest = rest[n:]
	}

	if len(removed) > 0 && c.Summarizer != nil {
		text := clip(c.Summarizer.Summarize(removed), c.summaryLimit()-len(summaryHeader)-1, "...\n[summary truncated]")
		summary := NewMessage(RoleAssistant, summaryHeader+"\n"+text)
		rest = append([]Message{summary}, rest...)
	}

	out := make([]Message, 0, len(system)+len(rest))
	out = append(out, system...)
	out = append(out, rest...)
	return out
}

// within reports whether the history fits both budgets with the given
// headroom reserved.
func (c Compactor) within(systemCount int, rest []Message, reserveMsgs, reserveChars int) bool {
	if systemCount+reserveMsgs+len(rest) > c.MaxMessages {
		return false
	}
	total := reserveChars
	for _, m := range rest {
		total += len(m.Content)
	}
	return total <= c.MaxChars
}

func (c Compactor) summaryLimit() int {
	limit := c.MaxChars / 4
	if limit > 2000 {
		limit = 2000
	}
	if limit < 64 {
		limit = 64
	}
	return limit
}

// exchangeLen returns the length of the leading exchange: the first
// message plus, when it opens a user turn, every response up to the next
// user message. Evicting whole exchanges keeps tool results attached to
// the request that produced them.
func exchangeLen(rest []Message) int {
	n := 1
	if rest[0].Role != RoleUser {
		return n
	}
	for n < len(rest) && rest[n].Role != RoleUser {
		n++
	}
	return n
}

// DigestSummarizer is the built-in fallback summarizer: a per-message
// one-line digest of the evicted span, most recent entries last.
type DigestSummarizer struct{}

func (DigestSummarizer) Summarize(removed []Message) string {
	start := 0
	if len(removed) > 20 {
		start = len(removed) - 20
	}
	lines := make([]string, 0, len(removed)-start)
	for _, m := range removed[start:] {
		role := RoleAssistant
		if m.Role == RoleUser {
			role = RoleUser
		}
		short := clip(strings.TrimSpace(m.Content), 220, "...")
		lines = append(lines, "- "+role+": "+strings.ReplaceAll(short, "\n", " "))
	}
	return "Compressed earlier context:\n" + strings.Join(lines, "\n")
}

func clip(text string, max int, suffix string) string {
	if max < 0 {
		max = 0
	}
	if len(text) <= max {
		return text
	}
	cut := max - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + suffix
}
