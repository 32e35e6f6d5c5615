// Package types defines the shared data structures for typography analysis.
package types

// Certainty describes how a font size measurement was obtained.
type Certainty string

const (
	CertaintyExact     Certainty = "exact"
	CertaintyMeasured  Certainty = "measured"
	CertaintyEstimated Certainty = "estimated"
)

// AnalysisMethod identifies which pipeline produced an analysis.
type AnalysisMethod string

const (
	MethodMetadataExact  AnalysisMethod = "metadata-exact"
	MethodImageEstimated AnalysisMethod = "image-estimated"
	MethodHybrid         AnalysisMethod = "hybrid"
)

// Position locates a text run in document coordinate space.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FontMeasurement is one observed text run with its declared font size.
// Measurements are owned by the FontSizeAnalysis that produced them and are
// discarded once the compliance report has been built.
type FontMeasurement struct {
	FontSizePt float64   `json:"font_size_pt"`
	FontFamily string    `json:"font_family"`
	Text       string    `json:"text"`
	Position   Position  `json:"position"`
	Certainty  Certainty `json:"certainty"`
}

// FontSizeAnalysis aggregates the extraction result for one document.
//
// Sizes holds the deduplicated font sizes in descending order, rounded to two
// decimal places before deduplication. UniqueSizeCount always equals
// len(Sizes).
type FontSizeAnalysis struct {
	Sizes           []float64         `json:"sizes"`
	Measurements    []FontMeasurement `json:"measurements"`
	UniqueSizeCount int               `json:"unique_size_count"`
	Method          AnalysisMethod    `json:"method"`
	Confidence      float64           `json:"confidence"`
}
