// Package toolcall extracts structured tool invocations from raw model
// output. Models are instructed to emit
//
//	{"tool_calls":[{"tool":"shell","command":"..."}]}
//
// either inside a ```json fence or inline; everything else in the response
// is treated as commentary.
package toolcall

// Kind is a closed enumeration of tool capabilities. New tools are added by
// extending this set, not by passing raw strings around.
type Kind int

const (
	// KindShell executes a command through the platform shell.
	KindShell Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	default:
		return "unknown"
	}
}

// kindFromName maps a wire-format tool name onto the closed enum.
func kindFromName(name string) (Kind, bool) {
	switch name {
	case "shell", "bash", "sh":
		return KindShell, true
	default:
		return 0, false
	}
}

// Call is one parsed tool invocation.
type Call struct {
	Kind    Kind
	Command string
}

// Hint classifies responses that contained no parseable calls but look like
// a failed attempt at emitting some. The agent loop uses it to ask the
// model to retry with valid syntax instead of treating the response as
// final.
type Hint int

const (
	// HintNone: the response is plain text.
	HintNone Hint = iota
	// HintMalformed: tool_calls-looking JSON that failed to parse.
	HintMalformed
	// HintLegacyShellBlock: a bash/sh/powershell code fence, the
	// pre-JSON protocol some models still fall back to.
	HintLegacyShellBlock
)

// Result is the outcome of parsing one model response.
type Result struct {
	Calls []Call
	Hint  Hint
}

// Terminal reports whether the response should end the agent loop: no tool
// calls and nothing that looks like a failed attempt at one.
func (r Result) Terminal() bool {
	return len(r.Calls) == 0 && r.Hint == HintNone
}
