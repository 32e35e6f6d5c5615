package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a vision boundary failure.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindInvalidResponse Kind = "invalid_response"
	KindTimeout         Kind = "timeout"
	KindUnknown         Kind = "unknown"
)

// BoundaryError is a failure talking to or interpreting the vision model.
// KindInvalidResponse must never be retried: a malformed model reply will
// not become valid on a second attempt.
type BoundaryError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *BoundaryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vision analysis failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("vision analysis failed (%s): %s", e.Kind, e.Message)
}

func (e *BoundaryError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a caller may reasonably retry the failure.
func (e *BoundaryError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindUnknown
}

// classify wraps a raw provider error into a BoundaryError.
func classify(err error, message string) *BoundaryError {
	kind := KindUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case strings.Contains(strings.ToLower(err.Error()), "rate limit"),
		strings.Contains(err.Error(), "429"):
		kind = KindRateLimited
	}
	return &BoundaryError{Kind: kind, Message: message, Cause: err}
}
