package analysis

import "errors"

// ErrFileNotFound indicates the requested file ID has no stored file.
var ErrFileNotFound = errors.New("file not found")

// ErrVisionUnavailable indicates the vision path was requested but no
// provider is configured.
var ErrVisionUnavailable = errors.New("vision analysis is not configured")

// InvalidRequestError indicates a caller-fixable problem with the analysis
// request itself.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid analysis request: " + e.Reason
}
