// Package errortypes defines the typed failures returned across component boundaries.
package errortypes

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidConfig     Kind = "invalid_config"
	KindBadRequest        Kind = "bad_request"
	KindEmbeddingProvider Kind = "embedding_provider"
	KindStore             Kind = "store"
	KindInternal          Kind = "internal"
)

// Error is a failure with a kind, the operation that failed and an optional cause.
// Status is the remote HTTP status for embedding provider failures (0 when the
// request never got a response).
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op
	}
	switch {
	case msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.Err)
	case msg != "":
		return fmt.Sprintf("%s: %s", prefix, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

// Unwrap returns the cause so errors.Is and errors.As see through it.
func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidConfig reports bad configuration such as splitter parameters.
func InvalidConfig(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidConfig, Message: fmt.Sprintf(format, args...)}
}

// BadRequest reports a malformed or incomplete client request.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// EmbeddingProvider reports a failed call to a remote embedding provider.
func EmbeddingProvider(provider string, status int, message string, err error) *Error {
	return &Error{Kind: KindEmbeddingProvider, Op: provider, Status: status, Message: message, Err: err}
}

// Store reports a failed vector store operation.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// Storef reports a failed vector store operation without an underlying cause.
func Storef(op, format string, args ...any) *Error {
	return &Error{Kind: KindStore, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
