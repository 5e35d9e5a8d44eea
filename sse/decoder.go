package sse

import (
	"bytes"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/drip"
)

// Decoder splits a sequence of byte chunks into lines terminated by "\n".
// A single trailing "\r" is removed from each line. A Decoder is used for
// one stream and is not safe for concurrent use.
type Decoder struct {
	buf      []byte
	max      int
	skipping bool // discarding an oversized line up to the next newline
	dropped  int
	flushed  bool
	pending  []string // lines split by Lines but not yet yielded
}

// Option configures a [Decoder].
type Option func(*Decoder)

// WithMaxLineSize bounds the length of a buffered line. A longer line is
// dropped whole and counted by Dropped. Values <= 0 are ignored.
func WithMaxLineSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.max = n
		}
	}
}

// NewDecoder creates a Decoder with an empty residual buffer.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{max: DefaultMaxLineSize}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Write appends chunk to the residual buffer and returns every line the
// chunk completed, in order. Text after the last newline stays buffered.
func (d *Decoder) Write(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			d.hold(chunk)
			break
		}
		part := chunk[:i]
		chunk = chunk[i+1:]

		if d.skipping {
			d.dropped += len(part) + 1
			d.skipping = false
			continue
		}
		if len(d.buf)+len(part) > d.max {
			d.dropped += len(d.buf) + len(part) + 1
			d.buf = d.buf[:0]
			continue
		}
		d.buf = append(d.buf, part...)
		lines = append(lines, trimCR(string(d.buf)))
		d.buf = d.buf[:0]
	}
	return lines
}

func (d *Decoder) hold(p []byte) {
	if d.skipping {
		d.dropped += len(p)
		return
	}
	if len(d.buf)+len(p) > d.max {
		d.dropped += len(d.buf) + len(p)
		d.buf = d.buf[:0]
		d.skipping = true
		return
	}
	d.buf = append(d.buf, p...)
}

// Flush returns the residual text as a final line for streams whose last
// line has no terminator. It reports false when nothing is buffered. Only
// the first call can return a line.
func (d *Decoder) Flush() (string, bool) {
	if d.flushed {
		return "", false
	}
	d.flushed = true
	d.skipping = false
	if len(d.buf) == 0 {
		return "", false
	}
	line := trimCR(string(d.buf))
	d.buf = d.buf[:0]
	return line, true
}

// Reset discards the residual buffer, and any complete lines Lines has not
// yielded yet, and returns how many bytes they held.
func (d *Decoder) Reset() int {
	n := len(d.buf)
	for _, line := range d.pending {
		n += len(line) + 1
	}
	d.pending = nil
	d.buf = d.buf[:0]
	d.skipping = false
	return n
}

// Buffered returns the number of bytes waiting for a newline.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Dropped returns the number of bytes discarded because a line exceeded the
// maximum line size.
func (d *Decoder) Dropped() int { return d.dropped }

func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}

// Lines returns a lazy sequence of the lines in src, decoded by dec.
//
// Chunks are pulled only as the sequence is consumed; breaking out of the
// range stops reading. After src reports io.EOF the residual buffer is
// flushed once as a final line. Any other error from src is yielded with an
// empty line and ends the sequence.
func Lines(src drip.ChunkSource, dec *Decoder) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			chunk, err := src.Next()
			dec.pending = dec.Write(chunk)
			for len(dec.pending) > 0 {
				line := dec.pending[0]
				dec.pending = dec.pending[1:]
				if !yield(line, nil) {
					return
				}
			}
			if err == io.EOF {
				if line, ok := dec.Flush(); ok {
					yield(line, nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}
