package expressions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/voltlint/voltlint/pkg/schema"
)

// Interpolate resolves ${{...}} references in rule message and remediation
// templates against the evaluation scope. References use the same
// namespaces as the expression engines: component.*, connection.*,
// diagram.*, load.*, e.g.
//
//	"panel ${{component.name}} exceeds its bus rating"
//
// Unclosed or unresolvable references fail with a PARSE_ERROR so a broken
// template surfaces at rule-load time rather than silently emitting
// placeholder text.
func Interpolate(template string, data map[string]any) (string, error) {
	var result strings.Builder
	result.Grow(len(template))

	i := 0
	for i < len(template) {
		idx := strings.Index(template[i:], "${{")
		if idx == -1 {
			result.WriteString(template[i:])
			break
		}

		result.WriteString(template[i : i+idx])
		start := i + idx + 3 // skip "${{"

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			return "", schema.NewError(schema.ErrCodeParse, "unclosed ${{ reference in template")
		}
		end += start

		ref := strings.TrimSpace(template[start:end])
		if ref == "" {
			return "", schema.NewError(schema.ErrCodeParse, "empty variable reference: ${{  }}")
		}
		if strings.Contains(ref, "${{") {
			return "", schema.NewError(schema.ErrCodeParse,
				"nested interpolation not allowed: ${{...}} cannot contain ${{")
		}

		val, err := resolveRef(ref, data)
		if err != nil {
			return "", err
		}
		result.WriteString(stringifyInline(val))

		i = end + 2 // skip "}}"
	}

	return result.String(), nil
}

// resolveRef resolves a dot-delimited path like "component.spec.bus_rating".
func resolveRef(ref string, data map[string]any) (any, error) {
	parts := strings.SplitN(ref, ".", 2)
	namespace := parts[0]

	root, ok := data[namespace]
	if !ok {
		available := mapKeys(data)
		return nil, schema.NewErrorf(schema.ErrCodeParse,
			"unknown namespace %q in ${{%s}}; available: %s", namespace, ref, strings.Join(available, ", ")).
			WithDetails(map[string]any{"reference": ref, "available_namespaces": available})
	}
	if len(parts) == 1 {
		return root, nil
	}
	return traversePath(root, parts[1], ref)
}

// traversePath navigates into nested maps using a dot-delimited path.
func traversePath(root any, path, ref string) (any, error) {
	current := root
	for i, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, schema.NewErrorf(schema.ErrCodeParse,
				"empty segment in path %q at position %d", ref, i)
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeParse,
				"cannot traverse into non-object at %q in %q (type: %T)", seg, ref, current)
		}
		val, ok := m[seg]
		if !ok {
			available := mapKeys(m)
			return nil, schema.NewErrorf(schema.ErrCodeParse,
				"field %q not found in %q; available: [%s]", seg, ref, strings.Join(available, ", ")).
				WithDetails(map[string]any{"reference": ref, "available_fields": available})
		}
		current = val
	}
	return current, nil
}

// stringifyInline renders a resolved value for embedding in message text.
func stringifyInline(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// HasInterpolation checks if a template contains any ${{...}} references.
func HasInterpolation(template string) bool {
	return strings.Contains(template, "${{")
}

// mapKeys returns sorted keys from a map[string]any.
func mapKeys(m map[string]any) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
