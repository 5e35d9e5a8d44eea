package drip

import (
	"errors"
	"fmt"
	"net/http"
)

// ClassifyStatus maps a non-success status received before streaming began
// to an *Error. message is the server-provided text; when empty a generic
// message is used instead.
func ClassifyStatus(status int, message string) *Error {
	e := &Error{Status: status, Message: message}
	switch status {
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		if e.Message == "" {
			e.Message = "too many requests, try again later"
		}
	case http.StatusPaymentRequired:
		e.Kind = KindQuotaExceeded
		if e.Message == "" {
			e.Message = "quota exceeded"
		}
	default:
		e.Kind = KindTransport
		if e.Message == "" {
			e.Message = fmt.Sprintf("unexpected status %d", status)
		}
	}
	return e
}

// Classify maps any failure of a turn to exactly one *Error.
//
// An *Error anywhere in the chain is returned as is. A *StatusError is
// classified by its status. Anything else, such as a read failure on a
// stream that already started, is a transport failure. Classify returns
// nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var se *StatusError
	if errors.As(err, &se) {
		c := ClassifyStatus(se.Status, se.Message)
		c.Err = err
		return c
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// NewMalformedError returns a KindMalformed error for callers that need to
// report a structurally invalid response separately from network failure.
func NewMalformedError(message string) *Error {
	return &Error{Kind: KindMalformed, Message: message}
}
