package expressions

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/voltlint/voltlint/pkg/schema"
)

// ExprEngine evaluates rule logic written in expr-lang/expr: array
// operations (filter, map, count, any, all), nil coalescing, optional
// chaining, pipes. Thread-safe: compiled *vm.Program objects are cached
// and reused across goroutines.
type ExprEngine struct {
	cache *programCache[*vm.Program]
}

// NewExprEngine creates an Expr engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{cache: newProgramCache[*vm.Program]()}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Evaluate runs an Expr program against the given scope data. The data map
// is the program environment, so the scope keys are top-level variables.
// Compilation allows undefined variables: a component-scope expression
// stays valid when evaluated with no component bound.
func (e *ExprEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty expr expression")
	}

	env := data
	if env == nil {
		env = map[string]any{}
	}

	prg, err := e.cache.lookup(expression, func() (*vm.Program, error) {
		prg, err := expr.Compile(expression,
			expr.Env(env),
			expr.AllowUndefinedVariables(),
		)
		if err != nil {
			return nil, compileError("expr", expression, err)
		}
		return prg, nil
	})
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return nil, evalError("expr", expression, err)
	}
	return out, nil
}

var _ Engine = (*ExprEngine)(nil)
