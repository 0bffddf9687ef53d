package agent

// Phase identifies where the loop is within one agent turn.
type Phase int

const (
	PhaseReasoning Phase = iota
	PhaseToolExecution
	PhaseVerification
	PhaseFinal
)

func (p Phase) String() string {
	switch p {
	case PhaseReasoning:
		return "reasoning"
	case PhaseToolExecution:
		return "tool execution"
	case PhaseVerification:
		return "verification"
	case PhaseFinal:
		return "final"
	default:
		return "unknown"
	}
}

// TurnState is the transient bookkeeping for a single turn. It never
// outlives the turn; durable state lives in the session.
type TurnState struct {
	Phase                Phase
	Step                 int
	UnsafeRetries        int
	InvalidFormatRetries int
}
