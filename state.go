package drip

// TurnState indicates where a turn is in its lifecycle.
type TurnState int

const (
	TurnIdle      TurnState = iota // Created, no chunk received yet.
	TurnStreaming                  // At least one chunk received.
	TurnCompleted                  // Sentinel seen or stream ended.
	TurnErrored                    // Unrecoverable failure; turn rolled back.
)

// String returns the lowercase name of the state.
func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnStreaming:
		return "streaming"
	case TurnCompleted:
		return "completed"
	case TurnErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can leave s.
func (s TurnState) Terminal() bool {
	return s == TurnCompleted || s == TurnErrored
}
