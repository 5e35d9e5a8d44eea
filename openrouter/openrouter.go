// Package openrouter implements [drip.Transport] for OpenAI-compatible
// chat-completion endpoints such as OpenRouter.
//
// The client only opens the stream. The body is handed back undecoded as a
// [drip.ChunkSource]; framing and interpretation happen in package sse.
package openrouter

const (
	defaultBaseURL   = "https://openrouter.ai/api/v1"
	defaultModel     = "openrouter/auto"
	defaultChunkSize = 4 << 10
	completionsPath  = "/chat/completions"

	// maxErrorBody bounds how much of a failure response is read.
	maxErrorBody = 64 << 10
)

// apiRequest is the JSON body sent to the chat-completions endpoint.
type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Stream      bool         `json:"stream"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
