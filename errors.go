package drip

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrTurnFinished indicates a delta arrived after the turn reached a
	// terminal state.
	ErrTurnFinished = errors.New("turn already finished")
)

// ErrorKind is the closed set of failure classes surfaced to callers.
type ErrorKind int

const (
	KindTransport     ErrorKind = iota // Connection failure or unexpected status.
	KindRateLimited                    // Status 429 before streaming began.
	KindQuotaExceeded                  // Status 402 before streaming began.
	KindMalformed                      // Structurally invalid response; caller-raised only.
)

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a classified turn failure. Message is suitable for display.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status for failures before streaming began, 0 otherwise.
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is returned by a Transport when the server answers with a
// non-success status instead of a stream. Message is the server-provided
// error text, empty when the body carried none.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
