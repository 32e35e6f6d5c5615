// Package report turns a font size analysis into the canonical compliance
// report. Building is a pure transform: no clock, no randomness, no I/O.
package report

import (
	"fmt"
	"strconv"

	"github.com/mwhited/typoscope/internal/types"
)

const (
	passScore  = 85
	floorScore = 20

	// disabledFeedback marks sections that are switched off. A disabled
	// section is a fixed-score variant, not an evaluated one.
	disabledFeedback = "Not evaluated - focusing on type scale compliance only"
)

var disabledRecommendations = []string{"Type scale analysis takes priority"}

// SectionConfig flags which report sections are evaluated. Type scale
// compliance is always evaluated; the others default to disabled.
type SectionConfig struct {
	Hierarchy   bool
	Consistency bool
	Readability bool
}

// Builder maps analyses to compliance reports.
type Builder struct {
	sections SectionConfig
}

// NewBuilder returns a Builder with the given section flags.
func NewBuilder(sections SectionConfig) *Builder {
	return &Builder{sections: sections}
}

// Score computes the overall score for n distinct font sizes. At or under
// the limit the score is a flat pass; beyond it each extra size costs 15
// points down to a floor of 20.
func Score(n int) int {
	if n <= types.MaxFontSizes {
		return passScore
	}
	score := 100 - (n-types.MaxFontSizes)*15
	if score < floorScore {
		return floorScore
	}
	return score
}

// Build produces the compliance report for an analysis. It is total over any
// analysis with a non-negative size count and never fails.
func (b *Builder) Build(a *types.FontSizeAnalysis) *types.ComplianceReport {
	n := a.UniqueSizeCount
	exceeds := n > types.MaxFontSizes
	score := Score(n)

	typeScale := types.Section{
		Score: score,
		Feedback: fmt.Sprintf("Precise analysis detected %d distinct font sizes using %s. Confidence: %.0f%%",
			n, a.Method, a.Confidence*100),
		DetectedSizes: formatSizes(a.Sizes),
	}
	if exceeds {
		typeScale.Recommendations = []string{
			fmt.Sprintf("Reduce from %d sizes to maximum %d sizes", n, types.MaxFontSizes),
		}
	} else {
		typeScale.Recommendations = []string{"Font size count is within recommended limits"}
	}

	var priorityIssues, quickWins []string
	totalViolations := 0
	severity := types.SeverityLow
	if exceeds {
		priorityIssues = []string{
			fmt.Sprintf("Critical: Using %d font sizes (max recommended: %d)", n, types.MaxFontSizes),
		}
		quickWins = []string{"Consolidate similar font sizes to reduce total count"}
		totalViolations = 1
		severity = types.SeverityHigh
	} else {
		priorityIssues = []string{}
		quickWins = []string{"Font size count is manageable"}
	}

	return &types.ComplianceReport{
		OverallScore:      score,
		FontSizesDetected: n,
		ExceedsSizeLimit:  exceeds,
		Analysis: types.Sections{
			TypeScale:   typeScale,
			Hierarchy:   b.optionalSection(b.sections.Hierarchy, types.SectionHierarchy),
			Consistency: b.optionalSection(b.sections.Consistency, types.SectionConsistency),
			Readability: b.optionalSection(b.sections.Readability, types.SectionReadability),
		},
		PriorityIssues: priorityIssues,
		QuickWins:      quickWins,
		ComplianceSummary: types.ComplianceSummary{
			PassesSizeLimit: !exceeds,
			TotalViolations: totalViolations,
			SeverityLevel:   severity,
		},
	}
}

// optionalSection returns the disabled sentinel variant when a section kind
// is switched off. Enabled non-type-scale sections are only populated by the
// vision path; the deterministic path has nothing to say about them, so the
// enabled variant here is an empty full-score section with its issue list
// initialized for the kind.
func (b *Builder) optionalSection(enabled bool, kind types.SectionKind) types.Section {
	section := types.Section{
		Score:           100,
		Feedback:        disabledFeedback,
		Recommendations: disabledRecommendations,
	}
	if enabled {
		section.Feedback = "No issues detected by exact measurement"
		section.Recommendations = []string{}
	}
	switch kind {
	case types.SectionHierarchy:
		section.HierarchyIssues = []string{}
	case types.SectionConsistency:
		section.Inconsistencies = []string{}
	case types.SectionReadability:
		section.ReadabilityIssues = []string{}
	}
	return section
}

// formatSizes renders point sizes for display, largest first.
func formatSizes(sizes []float64) []string {
	out := make([]string, len(sizes))
	for i, size := range sizes {
		out[i] = strconv.FormatFloat(size, 'f', -1, 64) + "pt"
	}
	return out
}
