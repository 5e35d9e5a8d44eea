package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/drip"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Interface compliance check.
var _ drip.Transport = (*Client)(nil)

// Client implements [drip.Transport] for the chat-completions API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	referer    string
	title      string
	chunkSize  int
	extra      []extraField
}

type extraField struct {
	path  string
	value any
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithReferer sets the HTTP-Referer header OpenRouter uses to attribute
// requests to an application.
func WithReferer(referer string) Option {
	return func(c *Client) { c.referer = referer }
}

// WithTitle sets the X-Title header shown in OpenRouter rankings.
func WithTitle(title string) Option {
	return func(c *Client) { c.title = title }
}

// WithChunkSize sets the maximum size of a chunk returned by the source.
// Values <= 0 are ignored.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithExtra sets an additional request field at path, in sjson syntax, for
// example "provider.order" or "stream_options.include_usage". Extras are
// applied in order after the standard fields and may override them.
func WithExtra(path string, value any) Option {
	return func(c *Client) { c.extra = append(c.extra, extraField{path: path, value: value}) }
}

// New creates a new [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		chunkSize:  defaultChunkSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open sends a streaming chat-completion request. On a success status it
// returns the response body as a [drip.ChunkSource]; otherwise it returns
// an error wrapping *drip.StatusError.
func (c *Client) Open(ctx context.Context, req drip.Request) (drip.ChunkSource, error) {
	body, err := c.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newBodySource(resp.Body, c.chunkSize), nil
}

func (c *Client) buildRequestBody(req drip.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}

	apiReq := apiRequest{
		Model:       model,
		Messages:    convertMessages(req.SystemPrompt, req.Messages),
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, err
	}
	for _, f := range c.extra {
		body, err = sjson.SetBytes(body, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", f.path, err)
		}
	}
	return body, nil
}

// convertMessages prepends the system prompt, when set, as a system message.
func convertMessages(system string, conv drip.Conversation) []apiMessage {
	result := make([]apiMessage, 0, len(conv)+1)
	if system != "" {
		result = append(result, apiMessage{Role: "system", Content: system})
	}
	for _, m := range conv {
		result = append(result, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		// The status alone decides the kind; the message falls back to the default.
		return fmt.Errorf("openrouter: %w (failed to read body: %v)", &drip.StatusError{Status: resp.StatusCode}, err)
	}
	return fmt.Errorf("openrouter: %w", &drip.StatusError{
		Status:  resp.StatusCode,
		Message: errorMessage(body),
	})
}

// errorMessage extracts the server-provided message from a failure body.
// Both {"error":"text"} and {"error":{"message":"text"}} are understood.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	e := gjson.GetBytes(body, "error")
	switch {
	case e.Type == gjson.String:
		return strings.TrimSpace(e.Str)
	case e.IsObject():
		return strings.TrimSpace(e.Get("message").String())
	}
	return ""
}
