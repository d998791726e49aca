package expressions

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/voltlint/voltlint/pkg/schema"
)

// CELEngine evaluates rule conditions written in Google's Common
// Expression Language. Thread-safe: compiled programs are cached and
// reused across goroutines.
type CELEngine struct {
	env   *cel.Env
	cache *programCache[cel.Program]
}

// NewCELEngine creates a CEL engine with a sandboxed environment. The
// environment declares one map(string, dyn) variable per scope key:
//   - diagram:    full diagram snapshot
//   - component:  component under inspection (component-category rules)
//   - connection: connection under inspection (connection-category rules)
//   - load:       aggregate load context
//
// Rules that only care about one scope simply ignore the others; absent
// scopes evaluate as empty maps, so use has() before reading their fields.
func NewCELEngine() (*CELEngine, error) {
	mapType := cel.MapType(cel.StringType, cel.DynType)

	var opts []cel.EnvOption
	for _, key := range scopeKeys {
		opts = append(opts, cel.Variable(key, mapType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &CELEngine{
		env:   env,
		cache: newProgramCache[cel.Program](),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Evaluate runs a CEL expression against the given scope data. Scope keys
// the caller omits are bound to empty maps so the program never sees an
// unbound variable.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty CEL expression")
	}

	prg, err := e.cache.lookup(expression, func() (cel.Program, error) {
		ast, issues := e.env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, compileError("CEL", expression, issues.Err())
		}
		prg, err := e.env.Program(ast)
		if err != nil {
			return nil, compileError("CEL", expression, err)
		}
		return prg, nil
	})
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(scopeKeys))
	for _, key := range scopeKeys {
		if v, ok := data[key]; ok && v != nil {
			activation[key] = v
		} else {
			activation[key] = map[string]any{}
		}
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, evalError("CEL", expression, err)
	}
	return out.Value(), nil
}

var _ Engine = (*CELEngine)(nil)
