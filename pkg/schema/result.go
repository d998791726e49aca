package schema

import "time"

// ComplianceResult aggregates every finding from one evaluation pass over a
// diagram. It is a pure function of the diagram snapshot and load context it
// was computed from; recomputing on an unchanged snapshot yields an
// identical result.
type ComplianceResult struct {
	Compliant       bool                   `json:"compliant"`
	Score           int                    `json:"score"`
	ErrorCount      int                    `json:"error_count"`
	WarningCount    int                    `json:"warning_count"`
	InfoCount       int                    `json:"info_count"`
	ByComponent     map[string][]Violation `json:"by_component,omitempty"`
	ByConnection    map[string][]Violation `json:"by_connection,omitempty"`
	System          []Violation            `json:"system,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
}

// AllViolations returns every violation in a deterministic order:
// components in diagram order, then connections, then system findings.
// The orders of the ByComponent/ByConnection buckets follow the diagram,
// so the caller must pass the component and connection ID orderings.
func (r *ComplianceResult) AllViolations(componentIDs, connectionIDs []string) []Violation {
	var out []Violation
	for _, id := range componentIDs {
		out = append(out, r.ByComponent[id]...)
	}
	for _, id := range connectionIDs {
		out = append(out, r.ByConnection[id]...)
	}
	out = append(out, r.System...)
	return out
}

// CountBySeverity tallies violations of the given severity across all
// buckets.
func (r *ComplianceResult) CountBySeverity(s Severity) int {
	n := 0
	for _, vs := range r.ByComponent {
		for _, v := range vs {
			if v.Severity == s {
				n++
			}
		}
	}
	for _, vs := range r.ByConnection {
		for _, v := range vs {
			if v.Severity == s {
				n++
			}
		}
	}
	for _, v := range r.System {
		if v.Severity == s {
			n++
		}
	}
	return n
}
