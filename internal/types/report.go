package types

// Severity classifies how badly a design violates the typography rules.
// The deterministic extraction path only ever emits SeverityLow or
// SeverityHigh; medium and critical exist for the vision path, which assigns
// any of the four levels from its own judgment.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SectionKind names the four analysis sections of a report.
type SectionKind string

const (
	SectionTypeScale   SectionKind = "type_scale_compliance"
	SectionHierarchy   SectionKind = "hierarchy_effectiveness"
	SectionConsistency SectionKind = "consistency_application"
	SectionReadability SectionKind = "readability_standards"
)

// Section is one scored area of the compliance report. Exactly one of the
// optional issue lists is populated depending on the section kind.
type Section struct {
	Score           int      `json:"score"`
	Feedback        string   `json:"feedback"`
	Recommendations []string `json:"recommendations"`

	DetectedSizes     []string `json:"detected_sizes,omitempty"`
	HierarchyIssues   []string `json:"hierarchy_issues,omitempty"`
	Inconsistencies   []string `json:"inconsistencies_found,omitempty"`
	ReadabilityIssues []string `json:"readability_issues,omitempty"`
}

// Sections groups the four analysis sections.
type Sections struct {
	TypeScale   Section `json:"type_scale_compliance"`
	Hierarchy   Section `json:"hierarchy_effectiveness"`
	Consistency Section `json:"consistency_application"`
	Readability Section `json:"readability_standards"`
}

// ComplianceSummary is the pass/fail rollup of a report.
type ComplianceSummary struct {
	PassesSizeLimit bool     `json:"passes_size_limit"`
	TotalViolations int      `json:"total_violations"`
	SeverityLevel   Severity `json:"severity_level"`
}

// ComplianceReport is the canonical analysis output. It is built once per
// analysis run, never mutated, and persisted as a serialized blob keyed by
// the file's content hash.
type ComplianceReport struct {
	OverallScore      int               `json:"overall_score"`
	FontSizesDetected int               `json:"font_sizes_detected"`
	ExceedsSizeLimit  bool              `json:"exceeds_size_limit"`
	Analysis          Sections          `json:"analysis"`
	PriorityIssues    []string          `json:"priority_issues"`
	QuickWins         []string          `json:"quick_wins"`
	ComplianceSummary ComplianceSummary `json:"compliance_summary"`
}

// MaxFontSizes is the maximum number of distinct font sizes a compliant
// design may use.
const MaxFontSizes = 4
