package drip

// Request carries the conversation and generation parameters for one turn.
// The transport uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, transport-specific; empty = transport default
	SystemPrompt string
	Messages     Conversation
	MaxTokens    int      // 0 = transport default
	Temperature  *float64 // nil = transport default
}
