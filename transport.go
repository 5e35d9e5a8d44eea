package drip

import "context"

// ChunkSource yields the raw body of a streaming response as an ordered
// sequence of byte chunks. Chunk sizes and split points are arbitrary.
//
// Next returns io.EOF once the body is exhausted. Close releases the
// underlying connection; it must be safe to call while another goroutine
// is blocked in Next, which must then return promptly with an error.
type ChunkSource interface {
	Next() ([]byte, error)
	Close() error
}

// Transport opens a streaming response for a request.
//
// A transport that receives a non-success status before any chunk is
// produced returns a *StatusError and no source. Cancellation flows
// through ctx.
type Transport interface {
	Open(ctx context.Context, req Request) (ChunkSource, error)
}
