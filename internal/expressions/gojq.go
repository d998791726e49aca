package expressions

import (
	"context"

	"github.com/itchyny/gojq"
	"github.com/voltlint/voltlint/pkg/schema"
)

// GoJQEngine evaluates jq queries over diagram snapshots: filtering
// components, aggregating ratings, reshaping specification maps.
// Thread-safe: compiled *gojq.Code objects are cached and reused across
// goroutines.
type GoJQEngine struct {
	cache *programCache[*gojq.Code]
}

// NewGoJQEngine creates a GoJQ engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{cache: newProgramCache[*gojq.Code]()}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Evaluate runs a jq query against the scope data, which becomes the input
// object. A query with one output returns it directly; multiple outputs
// come back as []any; zero outputs return nil.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	results, err := e.EvaluateAll(ctx, expression, data)
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// EvaluateAll is like Evaluate but always returns the full output stream,
// even when it has zero or one element.
func (e *GoJQEngine) EvaluateAll(ctx context.Context, expression string, data map[string]any) ([]any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq expression")
	}

	code, err := e.cache.lookup(expression, func() (*gojq.Code, error) {
		query, err := gojq.Parse(expression)
		if err != nil {
			return nil, compileError("jq", expression, err)
		}
		code, err := gojq.Compile(query,
			// Empty environment blocks $ENV and env from leaking process state
			// into rule predicates.
			gojq.WithEnvironLoader(func() []string { return nil }),
		)
		if err != nil {
			return nil, compileError("jq", expression, err)
		}
		return code, nil
	})
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, jqValue(map[string]any(data)))

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, evalError("jq", expression, err)
		}
		results = append(results, val)
	}

	return results, nil
}

// jqValue converts Go native types to the types gojq accepts as input:
// all numbers become float64, containers are converted recursively.
func jqValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = jqValue(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = jqValue(v)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

var _ Engine = (*GoJQEngine)(nil)
