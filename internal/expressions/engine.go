package expressions

import (
	"context"
	"sync"

	"github.com/voltlint/voltlint/pkg/schema"
)

// Engine evaluates rule predicates written in an embedded expression
// language. Three implementations: CEL (conditions), GoJQ (data queries),
// Expr (logic).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// scopeKeys are the top-level variables every expression environment
// exposes. See BuildScope for their contents.
var scopeKeys = []string{"diagram", "component", "connection", "load"}

// programCache holds compiled expression programs keyed by source text.
// Rule expressions are fixed at registration and re-evaluated on every
// diagram change, so each one compiles exactly once. The compile step runs
// under the write lock: concurrent first uses of the same expression do
// not race to compile it.
type programCache[T any] struct {
	mu       sync.RWMutex
	programs map[string]T
}

func newProgramCache[T any]() *programCache[T] {
	return &programCache[T]{programs: make(map[string]T)}
}

func (c *programCache[T]) lookup(expression string, compile func() (T, error)) (T, error) {
	c.mu.RLock()
	prg, ok := c.programs[expression]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, ok := c.programs[expression]; ok {
		return prg, nil
	}

	prg, err := compile()
	if err != nil {
		var zero T
		return zero, err
	}
	c.programs[expression] = prg
	return prg, nil
}

// compileError tags a compilation failure with the engine that rejected
// the expression. Compile failures are validation errors: the rule author
// wrote something the language cannot accept.
func compileError(engine, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeValidation,
		"%s compile error in %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}

// evalError tags a runtime evaluation failure.
func evalError(engine, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeExecution,
		"%s evaluation failed for %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}
