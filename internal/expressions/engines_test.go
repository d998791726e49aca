package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

func testScopeData() map[string]any {
	s := &Scope{
		Diagram: &schema.Diagram{
			ID: "d-1",
			Components: []schema.Component{
				{ID: "panel-1", Type: schema.ComponentMainPanel, Name: "Main", Spec: map[string]any{"bus_rating": 200.0}},
				{ID: "pv-1", Type: schema.ComponentPVArray},
			},
			Connections: []schema.Connection{
				{ID: "w-1", FromID: "pv-1", ToID: "panel-1"},
			},
		},
		Component: &schema.Component{ID: "panel-1", Type: schema.ComponentMainPanel, Name: "Main", Spec: map[string]any{"bus_rating": 200.0}},
		Load:      &schema.LoadContext{ServiceAmps: 200},
	}
	return s.Data()
}

// --- CEL ---

func TestCELEngine_Evaluate(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	assert.Equal(t, "cel", e.Name())

	cases := []struct {
		expr string
		want any
	}{
		{expr: `component.type == "main_panel"`, want: true},
		{expr: `component.spec.bus_rating >= 200.0`, want: true},
		{expr: `load.service_amps < 100.0`, want: false},
		{expr: `size(diagram.components)`, want: int64(2)},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tc.expr, testScopeData())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCELEngine_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), `component.type ==`, testScopeData())
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeValidation, ee.Code)
}

func TestCELEngine_MissingScopeKeyDefaultsToEmptyMap(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// A connection-scoped variable in a component-scoped evaluation must
	// not produce a nil-reference error.
	got, err := e.Evaluate(context.Background(), `size(connection) == 0`, testScopeData())
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestCELEngine_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "", testScopeData())
	require.Error(t, err)
}

// --- expr ---

func TestExprEngine_Evaluate(t *testing.T) {
	e := NewExprEngine()
	assert.Equal(t, "expr", e.Name())

	got, err := e.Evaluate(context.Background(), `component.name == "Main" && load.service_amps == 200`, testScopeData())
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = e.Evaluate(context.Background(), `len(diagram.components)`, testScopeData())
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestExprEngine_CompileError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), `component.name ==`, testScopeData())
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeValidation, ee.Code)
}

// --- jq ---

func TestGoJQEngine_Evaluate(t *testing.T) {
	e := NewGoJQEngine()
	assert.Equal(t, "jq", e.Name())

	got, err := e.Evaluate(context.Background(), `.diagram.components | length`, testScopeData())
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	got, err = e.Evaluate(context.Background(), `[.diagram.components[] | select(.type == "pv_array")] | length > 0`, testScopeData())
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestGoJQEngine_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()

	got, err := e.EvaluateAll(context.Background(), `.diagram.components[].id`, testScopeData())
	require.NoError(t, err)
	assert.Equal(t, []any{"panel-1", "pv-1"}, got)
}

func TestGoJQEngine_ParseError(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), `.diagram |`, testScopeData())
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeValidation, ee.Code)
}

func TestGoJQEngine_EnvAccessBlocked(t *testing.T) {
	e := NewGoJQEngine()

	got, err := e.Evaluate(context.Background(), `$ENV | length`, testScopeData())
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)
}

// --- scope ---

func TestScope_DataNilFieldsAreEmptyMaps(t *testing.T) {
	data := (&Scope{}).Data()

	for _, key := range []string{"diagram", "component", "connection", "load"} {
		m, ok := data[key].(map[string]any)
		require.True(t, ok, "key %s", key)
		assert.Empty(t, m)
	}
}

func TestScope_DataIsACopy(t *testing.T) {
	c := &schema.Component{ID: "x", Type: schema.ComponentLoad, Spec: map[string]any{"k": "v"}}
	s := &Scope{Component: c}

	data := s.Data()
	data["component"].(map[string]any)["id"] = "mutated"

	assert.Equal(t, "x", c.ID)
	assert.Equal(t, "x", s.Data()["component"].(map[string]any)["id"])
}
