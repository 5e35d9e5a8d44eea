package openrouter

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/drip"
)

// ErrClosed is returned by Next once the source has been closed.
var ErrClosed = errors.New("openrouter: stream closed")

// bodySource implements [drip.ChunkSource] over a response body.
type bodySource struct {
	body io.ReadCloser
	buf  []byte

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Interface compliance check.
var _ drip.ChunkSource = (*bodySource)(nil)

func newBodySource(body io.ReadCloser, chunkSize int) *bodySource {
	return &bodySource{body: body, buf: make([]byte, chunkSize)}
}

// Next reads at most one chunk from the body. The returned slice is not
// reused by later calls.
func (s *bodySource) Next() ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	n, err := s.body.Read(s.buf)
	var chunk []byte
	if n > 0 {
		chunk = append([]byte(nil), s.buf[:n]...)
	}
	switch {
	case err == nil:
		return chunk, nil
	case errors.Is(err, io.EOF):
		return chunk, io.EOF
	case s.closed.Load():
		return chunk, ErrClosed
	default:
		return chunk, fmt.Errorf("openrouter: read body: %w", err)
	}
}

// Close closes the body, unblocking a pending Next. It may be called more
// than once and from any goroutine.
func (s *bodySource) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
