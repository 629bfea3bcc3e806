package matching

import (
	"strings"

	"engagement-coordinator/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema pins the upstream recommendation payload shape. Shape
// violations fail with VALIDATION_ERROR at the boundary instead of leaking
// half-formed values into dashboards.
const envelopeSchema = `{
	"type": "object",
	"required": ["recommendations"],
	"properties": {
		"recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["projectId", "freelancerId", "totalScore", "skillScore", "experienceScore", "budgetScore"],
				"properties": {
					"projectId":       {"type": "string", "minLength": 1},
					"freelancerId":    {"type": "string", "minLength": 1},
					"freelancerName":  {"type": "string"},
					"rank":            {"type": "integer", "minimum": 0},
					"totalScore":      {"type": "integer", "minimum": 0, "maximum": 100},
					"skillScore":      {"type": "integer", "minimum": 0, "maximum": 50},
					"experienceScore": {"type": "integer", "minimum": 0, "maximum": 30},
					"budgetScore":     {"type": "integer", "minimum": 0, "maximum": 20}
				}
			}
		}
	}
}`

var compiledEnvelopeSchema = gojsonschema.NewStringLoader(envelopeSchema)

func validateEnvelope(raw []byte) error {
	result, err := gojsonschema.Validate(compiledEnvelopeSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewValidationError("recommendation payload is not valid JSON: " + err.Error())
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return errors.NewValidationError("recommendation payload shape mismatch: " + strings.Join(problems, "; "))
}
