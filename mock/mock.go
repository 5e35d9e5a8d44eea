// Package mock provides test doubles for drip interfaces using function fields.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fwojciec/drip"
)

// Interface compliance checks.
var (
	_ drip.Transport   = (*Transport)(nil)
	_ drip.ChunkSource = (*ChunkSource)(nil)
	_ drip.Observer    = (*Observer)(nil)
)

// Transport is a test double for drip.Transport.
// Set OpenFn before calling Open.
type Transport struct {
	OpenFn func(ctx context.Context, req drip.Request) (drip.ChunkSource, error)
}

// Open delegates to OpenFn.
func (t *Transport) Open(ctx context.Context, req drip.Request) (drip.ChunkSource, error) {
	return t.OpenFn(ctx, req)
}

// ChunkSource is a test double for drip.ChunkSource.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// (returns nil) because most tests only care that Close was called, which
// Closed reports.
type ChunkSource struct {
	NextFn  func() ([]byte, error)
	CloseFn func() error

	mu     sync.Mutex
	closed int
}

// Next delegates to NextFn.
func (s *ChunkSource) Next() ([]byte, error) {
	return s.NextFn()
}

// Close records the call and delegates to CloseFn when set.
func (s *ChunkSource) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Closed returns how many times Close was called.
func (s *ChunkSource) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Chunks returns a ChunkSource that yields each chunk in order and then
// io.EOF.
func Chunks(chunks ...string) *ChunkSource {
	i := 0
	return &ChunkSource{
		NextFn: func() ([]byte, error) {
			if i >= len(chunks) {
				return nil, io.EOF
			}
			c := []byte(chunks[i])
			i++
			return c, nil
		},
	}
}

// Observer is a test double for drip.Observer. It records every update,
// cloning the conversation so later mutation by the turn does not leak
// into recorded history.
type Observer struct {
	ObserveFn func(drip.Update)

	mu      sync.Mutex
	updates []drip.Update
}

// Observe records u and delegates to ObserveFn when set.
func (o *Observer) Observe(u drip.Update) {
	u.Conversation = u.Conversation.Clone()
	o.mu.Lock()
	o.updates = append(o.updates, u)
	o.mu.Unlock()
	if o.ObserveFn != nil {
		o.ObserveFn(u)
	}
}

// Updates returns the recorded updates in order.
func (o *Observer) Updates() []drip.Update {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]drip.Update, len(o.updates))
	copy(out, o.updates)
	return out
}
