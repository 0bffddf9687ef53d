package agent

// ExecutionMode controls when a user input runs the tool loop.
type ExecutionMode string

const (
	ModeChatOnly   ExecutionMode = "chat"
	ModeAgentAuto  ExecutionMode = "agent-auto"
	ModeAgentForce ExecutionMode = "agent-force"
)

// ParseExecutionMode maps a user-facing mode name; unknown names report
// ok=false.
func ParseExecutionMode(name string) (ExecutionMode, bool) {
	switch name {
	case "chat":
		return ModeChatOnly, true
	case "agent-auto", "auto":
		return ModeAgentAuto, true
	case "agent-force", "agent", "force":
		return ModeAgentForce, true
	}
	return "", false
}

// ShouldUseAgent decides whether input gets the tool loop under mode.
func ShouldUseAgent(input string, mode ExecutionMode) bool {
	switch mode {
	case ModeAgentForce:
		return true
	case ModeChatOnly:
		return false
	default:
		return looksLikeAgentTask(input)
	}
}
