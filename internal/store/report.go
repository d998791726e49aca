package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/voltlint/voltlint/pkg/schema"
)

// violationsPayload is the persisted shape of a result's violation buckets.
type violationsPayload struct {
	ByComponent  map[string][]schema.Violation `json:"by_component,omitempty"`
	ByConnection map[string][]schema.Violation `json:"by_connection,omitempty"`
	System       []schema.Violation            `json:"system,omitempty"`
}

// NewReport builds a Report row from an evaluation result.
func NewReport(diagramID, diagramHash string, result *schema.ComplianceResult) (*Report, error) {
	payload, err := json.Marshal(violationsPayload{
		ByComponent:  result.ByComponent,
		ByConnection: result.ByConnection,
		System:       result.System,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal violations: %w", err)
	}
	return &Report{
		ID:           uuid.NewString(),
		DiagramID:    diagramID,
		DiagramHash:  diagramHash,
		Score:        result.Score,
		Compliant:    result.Compliant,
		ErrorCount:   result.ErrorCount,
		WarningCount: result.WarningCount,
		InfoCount:    result.InfoCount,
		Violations:   payload,
		CreatedAt:    result.EvaluatedAt,
	}, nil
}
