package expressions

import (
	"encoding/json"

	"github.com/voltlint/voltlint/pkg/schema"
)

// Scope is the evaluation environment for one rule invocation. All fields
// are optional; nil fields appear as empty maps in the expression data so
// predicates never hit nil references.
type Scope struct {
	Diagram    *schema.Diagram
	Component  *schema.Component
	Connection *schema.Connection
	Load       *schema.LoadContext
}

// Data converts the scope into the map consumed by the expression engines.
// Typed values are lowered to plain JSON maps so every engine (CEL, expr,
// jq) sees the same shapes. The result is a fresh copy per call; engines
// and predicates cannot mutate the caller's diagram.
func (s *Scope) Data() map[string]any {
	return map[string]any{
		"diagram":    toMap(s.Diagram),
		"component":  toMap(s.Component),
		"connection": toMap(s.Connection),
		"load":       toMap(s.Load),
	}
}

// toMap lowers a typed value to map[string]any via a JSON round-trip.
// A nil pointer or marshal failure yields an empty map.
func toMap(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
