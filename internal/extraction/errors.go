package extraction

import "fmt"

// ParseError indicates the document could not be parsed at all. A document
// that parses but contains no sized text runs is not an error.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document parse failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("document parse failed: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UnsupportedError indicates the input cannot be measured exactly.
// Raster images carry no font metadata, so exact extraction refuses rather
// than guessing. Callers wanting an estimate must use the vision path.
type UnsupportedError struct {
	MimeType string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("exact font extraction is not supported for %s: only PDF files carry font size metadata; image analysis can only estimate, not measure", e.MimeType)
}
