package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwhited/typoscope/internal/types"
)

// reportSchema is the JSON Schema a model reply must satisfy before it is
// trusted as a ComplianceReport.
const reportSchema = `{
  "type": "object",
  "required": ["overall_score", "font_sizes_detected", "exceeds_size_limit", "analysis", "priority_issues", "quick_wins", "compliance_summary"],
  "properties": {
    "overall_score": {"type": "integer", "minimum": 1, "maximum": 100},
    "font_sizes_detected": {"type": "integer", "minimum": 0},
    "exceeds_size_limit": {"type": "boolean"},
    "analysis": {
      "type": "object",
      "required": ["type_scale_compliance", "hierarchy_effectiveness", "consistency_application", "readability_standards"],
      "properties": {
        "type_scale_compliance": {"$ref": "#/definitions/section"},
        "hierarchy_effectiveness": {"$ref": "#/definitions/section"},
        "consistency_application": {"$ref": "#/definitions/section"},
        "readability_standards": {"$ref": "#/definitions/section"}
      }
    },
    "priority_issues": {"type": "array", "items": {"type": "string"}},
    "quick_wins": {"type": "array", "items": {"type": "string"}},
    "compliance_summary": {
      "type": "object",
      "required": ["passes_size_limit", "total_violations", "severity_level"],
      "properties": {
        "passes_size_limit": {"type": "boolean"},
        "total_violations": {"type": "integer", "minimum": 0},
        "severity_level": {"type": "string", "enum": ["low", "medium", "high", "critical"]}
      }
    }
  },
  "definitions": {
    "section": {
      "type": "object",
      "required": ["score", "feedback", "recommendations"],
      "properties": {
        "score": {"type": "integer", "minimum": 1, "maximum": 100},
        "feedback": {"type": "string"},
        "recommendations": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

// ValidateReportJSON checks a raw model reply against the report schema and
// decodes it. Any shape violation is an invalid-response boundary error;
// malformed replies are never passed through as data.
func ValidateReportJSON(data []byte) (*types.ComplianceReport, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, &BoundaryError{Kind: KindInvalidResponse, Message: "model reply is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, &BoundaryError{
			Kind:    KindInvalidResponse,
			Message: fmt.Sprintf("model reply failed schema validation: %s", strings.Join(details, "; ")),
		}
	}

	var report types.ComplianceReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &BoundaryError{Kind: KindInvalidResponse, Message: "model reply undecodable", Cause: err}
	}
	if !report.ComplianceSummary.SeverityLevel.Valid() {
		return nil, &BoundaryError{Kind: KindInvalidResponse, Message: "model reply carries unknown severity"}
	}
	return &report, nil
}

// cleanJSONBlock removes markdown code fences some models wrap JSON in.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
