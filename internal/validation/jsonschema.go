package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/voltlint/voltlint/pkg/schema"
)

// diagramSchemaJSON is the JSON Schema for diagram document validation.
// Embedded as a constant to avoid filesystem dependencies.
const diagramSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://voltlint.dev/schemas/diagram.json",
  "type": "object",
  "required": ["components", "connections"],
  "properties": {
    "id": { "type": "string" },
    "name": { "type": "string" },
    "components": {
      "type": "array",
      "items": { "$ref": "#/$defs/component" }
    },
    "connections": {
      "type": "array",
      "items": { "$ref": "#/$defs/connection" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "component": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "type": {
          "type": "string",
          "enum": ["pv_array", "inverter", "main_panel", "sub_panel", "breaker", "disconnect", "meter", "grounding_electrode", "rapid_shutdown", "evse_charger", "battery", "load"]
        },
        "name": { "type": "string" },
        "label": { "type": "string" },
        "spec": { "type": "object" }
      },
      "additionalProperties": false
    },
    "connection": {
      "type": "object",
      "required": ["id", "from_id", "to_id"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "from_id": {
          "type": "string",
          "minLength": 1
        },
        "to_id": {
          "type": "string",
          "minLength": 1
        },
        "spec": { "type": "object" }
      },
      "additionalProperties": false
    }
  }
}`

// DiagramValidator validates raw diagram documents against the embedded
// JSON Schema (Draft 2020-12) before the typed parse. Safe for concurrent
// use.
type DiagramValidator struct {
	diagramSchema *jsonschema.Schema
}

// NewDiagramValidator compiles the embedded diagram schema.
func NewDiagramValidator() (*DiagramValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(diagramSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal diagram schema: %w", err)
	}
	if err := c.AddResource("https://voltlint.dev/schemas/diagram.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add diagram schema resource: %w", err)
	}

	ds, err := c.Compile("https://voltlint.dev/schemas/diagram.json")
	if err != nil {
		return nil, fmt.Errorf("compile diagram schema: %w", err)
	}

	return &DiagramValidator{diagramSchema: ds}, nil
}

// ValidateDocument validates raw diagram JSON against the schema and
// decodes it into a Diagram. Structural checks the schema cannot express
// (duplicate IDs) run after schema validation.
func (v *DiagramValidator) ValidateDocument(raw []byte) (*schema.Diagram, error) {
	if len(raw) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "diagram document is empty")
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "diagram document is not valid JSON").WithCause(err)
	}

	if err := v.diagramSchema.Validate(doc); err != nil {
		return nil, toEngineError(err)
	}

	var d schema.Diagram
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "decode diagram document").WithCause(err)
	}

	if err := checkDuplicateIDs(&d); err != nil {
		return nil, err
	}

	return &d, nil
}

// ValidateDiagram validates an in-memory Diagram against the schema.
func (v *DiagramValidator) ValidateDiagram(d *schema.Diagram) error {
	if d == nil {
		return schema.NewError(schema.ErrCodeValidation, "diagram is nil")
	}

	doc, err := toJSONValue(d)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize diagram").WithCause(err)
	}

	if err := v.diagramSchema.Validate(doc); err != nil {
		return toEngineError(err)
	}

	return checkDuplicateIDs(d)
}

func checkDuplicateIDs(d *schema.Diagram) error {
	seen := make(map[string]struct{}, len(d.Components)+len(d.Connections))
	for _, c := range d.Components {
		if _, exists := seen[c.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate component id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for _, c := range d.Connections {
		if _, exists := seen[c.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate connection id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toEngineError converts a jsonschema.ValidationError into an EngineError
// with clear, actionable messages.
func toEngineError(err error) *schema.EngineError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
