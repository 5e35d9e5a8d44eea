// Package turn runs a single chat turn: it opens a stream through a
// transport, decodes it and accumulates the assistant reply into the
// caller's conversation.
package turn

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/sse"
	"github.com/google/uuid"
)

// Engine runs turns against a Transport.
type Engine struct {
	transport    drip.Transport
	model        string
	systemPrompt string
	maxTokens    int
	temperature  *float64
	maxLineSize  int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the model ID sent with every request. Empty means the
// transport default.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithMaxTokens limits the length of the reply. Zero means the transport
// default.
func WithMaxTokens(n int) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// WithTemperature sets the sampling temperature. Nil means the transport
// default.
func WithTemperature(t *float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithMaxLineSize bounds a single decoded line. See sse.WithMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(e *Engine) { e.maxLineSize = n }
}

// WithLogger sets the logger. Nil discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine that opens streams through t.
func New(t drip.Transport, opts ...Option) *Engine {
	e := &Engine{transport: t}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// RunOption configures a single turn.
type RunOption func(*runConfig)

type runConfig struct {
	observer drip.Observer
	turnID   string
}

// WithObserver sets the observer notified after every delta and when the
// turn finishes.
func WithObserver(o drip.Observer) RunOption {
	return func(c *runConfig) { c.observer = o }
}

// WithTurnID sets the turn identifier. By default Run generates a UUID.
func WithTurnID(id string) RunOption {
	return func(c *runConfig) { c.turnID = id }
}

// Run sends conv to the transport and appends the streamed assistant reply
// to it.
//
// Run returns nil when the turn completes, a *drip.Error when it fails (conv
// is then back to its state before the call), and ctx.Err() when ctx is
// cancelled. A conversation that does not validate is rejected with an
// error wrapping drip.ErrValidation before anything is sent.
func (e *Engine) Run(ctx context.Context, conv *drip.Conversation, opts ...RunOption) error {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.turnID == "" {
		cfg.turnID = uuid.NewString()
	}
	logger := e.logger.With("turn_id", cfg.turnID)

	req := drip.Request{
		Model:        e.model,
		SystemPrompt: e.systemPrompt,
		Messages:     *conv,
		MaxTokens:    e.maxTokens,
		Temperature:  e.temperature,
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	acc := newAccumulator(conv, cfg)
	logger.Debug("turn started", "model", e.model, "messages", len(*conv))

	err := e.run(ctx, req, acc, logger)

	var de *drip.Error
	switch {
	case errors.As(err, &de):
		logger.Error("turn failed", "kind", de.Kind.String(), "status", de.Status, "error", de.Message)
	case err != nil:
		logger.Debug("turn aborted", "error", err)
	default:
		logger.Debug("turn finished", "state", acc.State().String(), "bytes", len(acc.Content()))
	}
	return err
}

func (e *Engine) run(ctx context.Context, req drip.Request, acc *Accumulator, logger *slog.Logger) error {
	src, err := e.transport.Open(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return acc.Fail(err)
	}
	dec := sse.NewDecoder(sse.WithMaxLineSize(e.maxLineSize))
	return Drain(ctx, src, acc, dec, logger)
}
