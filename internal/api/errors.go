package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindTransport: no usable response (network failure, cancelled context, open breaker).
	KindTransport ErrorKind = iota + 1
	// KindServer: the server answered with a non-success envelope or a non-2xx status.
	KindServer
	// KindShape: the response did not carry the fields the call expects.
	KindShape
	// KindValidation: the call was rejected before any I/O.
	KindValidation
	KindNotFound
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindShape:
		return "shape"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation.
// Message carries human-readable text, preferably as sent by the server.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failure (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s failure: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// UserMessage maps err to the single message shown to the user: the text the
// server (or normalization) provided if any, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
