// Package server provides the HTTP REST API for typoscope.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/mwhited/typoscope/internal/analysis"
	"github.com/mwhited/typoscope/internal/extraction"
	"github.com/mwhited/typoscope/internal/ingestion"
	"github.com/mwhited/typoscope/internal/vision"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrFileNotFound indicates the file was not found
type ErrFileNotFound struct {
	FileID uuid.UUID
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("file not found: %s", e.FileID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if errors.Is(err, analysis.ErrFileNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, analysis.ErrVisionUnavailable) {
		return http.StatusServiceUnavailable
	}

	var (
		validation  *ErrValidation
		notFound    *ErrFileNotFound
		badUpload   *ingestion.InvalidUploadError
		badRequest  *analysis.InvalidRequestError
		unsupported *extraction.UnsupportedError
		parse       *extraction.ParseError
		boundary    *vision.BoundaryError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &badUpload), errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unsupported), errors.As(err, &parse):
		return http.StatusUnprocessableEntity
	case errors.As(err, &boundary):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is what the caller sees for an error. Caller-fixable
// problems keep their detail; parse, upstream and internal failures collapse
// to a stable generic message with the detail logged server-side only.
func publicMessage(err error) string {
	var parse *extraction.ParseError
	if errors.As(err, &parse) {
		// ParseError carries the PDF library's cause text; never echo it.
		return "Could not parse the document. Please upload a valid PDF."
	}

	switch HTTPStatus(err) {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "Vision analysis is not available"
	default:
		return "Analysis failed. Please try again."
	}
}
