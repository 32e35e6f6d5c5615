// Package extraction measures font sizes exactly from document metadata.
//
// The extractor walks every page of a parsed document in order, reads the
// declared point size of each text run, and produces a deduplicated set of
// sizes with positional provenance. Declared sizes are always exact; this
// package never estimates.
package extraction

import (
	"math"
	"sort"

	"github.com/mwhited/typoscope/internal/types"
)

// MetadataConfidence is the fixed confidence for metadata-driven extraction.
// Declared values are read, not inferred, so confidence never drops below this.
const MetadataConfidence = 0.95

// TextRun is one text item as reported by the underlying document renderer.
type TextRun struct {
	Text     string
	FontName string
	FontSize float64
	X, Y     float64
	W, H     float64
}

// Page is a single page's text runs, in renderer order.
type Page interface {
	Runs() []TextRun
}

// Document is a parsed, paginated text-bearing document.
type Document interface {
	Pages() []Page
}

// roundSize rounds a point size to two decimal places. Two sizes within this
// rounding are considered identical; coarser similarity is never merged.
func roundSize(v float64) float64 {
	return math.Round(v*100) / 100
}

// Extract walks doc and returns the exact font size analysis.
//
// Runs lacking both a size and a font name are skipped as non-text or
// decorative glyphs. A document with zero sized runs yields an analysis with
// UniqueSizeCount == 0, not an error.
func Extract(doc Document) (*types.FontSizeAnalysis, error) {
	if doc == nil {
		return nil, &ParseError{Message: "nil document"}
	}

	seen := make(map[float64]struct{})
	var measurements []types.FontMeasurement

	for _, page := range doc.Pages() {
		for _, run := range page.Runs() {
			if run.FontSize == 0 && run.FontName == "" {
				continue
			}

			size := roundSize(run.FontSize)
			seen[size] = struct{}{}

			measurements = append(measurements, types.FontMeasurement{
				FontSizePt: size,
				FontFamily: run.FontName,
				Text:       run.Text,
				Position: types.Position{
					X:      run.X,
					Y:      run.Y,
					Width:  run.W,
					Height: run.H,
				},
				Certainty: types.CertaintyExact,
			})
		}
	}

	sizes := make([]float64, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	return &types.FontSizeAnalysis{
		Sizes:           sizes,
		Measurements:    measurements,
		UniqueSizeCount: len(sizes),
		Method:          types.MethodMetadataExact,
		Confidence:      MetadataConfidence,
	}, nil
}

// ExtractFile dispatches raw file bytes to the exact extraction path.
// Only PDFs carry font metadata; any other type is refused with an
// UnsupportedError rather than estimated.
func ExtractFile(data []byte, mimeType string) (*types.FontSizeAnalysis, error) {
	if mimeType != "application/pdf" {
		return nil, &UnsupportedError{MimeType: mimeType}
	}

	doc, err := ParsePDF(data)
	if err != nil {
		return nil, err
	}
	return Extract(doc)
}
