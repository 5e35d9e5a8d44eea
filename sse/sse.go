// Package sse decodes a chunked server-sent events body into lines and
// interprets chat-completion data frames.
//
// The Decoder owns the residual buffer that carries an incomplete line from
// one chunk to the next, so the lines it yields do not depend on where the
// transport split the body. Interpret turns one line into a [drip.Frame].
package sse

import "errors"

const (
	// DataPrefix starts every line that carries a payload.
	DataPrefix = "data:"

	// Sentinel is the payload that terminates the stream.
	Sentinel = "[DONE]"

	// DefaultMaxLineSize bounds a single line held by a Decoder.
	DefaultMaxLineSize = 1 << 20
)

// ErrInvalidJSON is carried by drip.FrameMalformed when a payload does not
// parse.
var ErrInvalidJSON = errors.New("sse: payload is not valid JSON")
