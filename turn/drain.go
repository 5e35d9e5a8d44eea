package turn

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/sse"
)

// Drain reads src to the end of one turn, feeding every delta into acc.
//
// The turn completes on the sentinel or at the end of the stream. Malformed
// frames are logged and dropped. A read failure fails the turn and Drain
// returns the classified *drip.Error. When ctx is cancelled src is closed,
// which aborts a pending read; the turn is left as it was and ctx.Err() is
// returned. src is closed exactly once in every case.
func Drain(ctx context.Context, src drip.ChunkSource, acc *Accumulator, dec *sse.Decoder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	closeSrc := sync.OnceValue(src.Close)
	defer closeSrc()
	stop := context.AfterFunc(ctx, func() { closeSrc() })
	defer stop()

	if err := ctx.Err(); err != nil {
		return err
	}

	for line, err := range sse.Lines(&observedSource{ChunkSource: src, acc: acc}, dec) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return acc.Fail(err)
		}
		switch f := sse.Interpret(line).(type) {
		case drip.FrameSentinel:
			if n := dec.Reset(); n > 0 {
				logger.Debug("discarded bytes after sentinel", "bytes", n)
			}
			return acc.Complete()
		case drip.FrameDelta:
			if err := acc.Append(f.Text); err != nil {
				return err
			}
		case drip.FrameMalformed:
			logger.Warn("dropped malformed frame", "bytes", len(f.Payload), "error", f.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := dec.Dropped(); n > 0 {
		logger.Debug("discarded oversized lines", "bytes", n)
	}
	return acc.Complete()
}

// observedSource starts the turn when the first chunk arrives.
type observedSource struct {
	drip.ChunkSource
	acc *Accumulator
}

func (s *observedSource) Next() ([]byte, error) {
	chunk, err := s.ChunkSource.Next()
	if len(chunk) > 0 {
		s.acc.Start()
	}
	return chunk, err
}
