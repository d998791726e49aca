package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineError_Error(t *testing.T) {
	e := NewError(ErrCodeValidation, "something broke")
	assert.Equal(t, "[VALIDATION_ERROR] something broke", e.Error())

	e = NewErrorf(ErrCodeNotFound, "rule %q not registered", "x").WithRule("x")
	assert.Equal(t, `[NOT_FOUND] rule x: rule "x" not registered`, e.Error())
}

func TestEngineError_Unwrap(t *testing.T) {
	cause := errors.New("io failure")
	e := NewError(ErrCodeStore, "read failed").WithCause(cause)

	require.ErrorIs(t, e, cause)
}

func TestEngineError_Details(t *testing.T) {
	e := NewError(ErrCodeParse, "bad template").WithDetails(map[string]any{"reference": "a.b"})
	assert.Equal(t, "a.b", e.Details["reference"])
}
