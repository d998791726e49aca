package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

// --- EVSEBranchRule ---

func evseDiagram(wireSpec map[string]any) *schema.Diagram {
	return &schema.Diagram{
		Components: []schema.Component{
			{ID: "panel-1", Type: schema.ComponentMainPanel, Name: "Main"},
			{ID: "evse-1", Type: schema.ComponentEVSECharger, Spec: map[string]any{
				"nameplate_amps": 40.0,
			}},
		},
		Connections: []schema.Connection{
			{ID: "wire-1", FromID: "panel-1", ToID: "evse-1", Spec: wireSpec},
		},
	}
}

func TestEVSEBranchRule_UndersizedGauge(t *testing.T) {
	d := evseDiagram(map[string]any{
		"wire_gauge": "10",
		"length_ft":  20.0,
	})

	r := NewEVSEBranchRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)

	v := got[0]
	assert.Equal(t, schema.CodeAmpacityExceeded, v.Code)
	assert.Equal(t, "NEC 625.17", v.Section)
	assert.Equal(t, "wire-1", v.ConnectionID)
	assert.Equal(t, schema.SeverityError, v.Severity)
	require.NotNil(t, v.Calculation)
	// 40A nameplate is continuous: 50A adjusted against 35A derated 10 AWG.
	assert.InDelta(t, 50.0, v.Calculation.Required, 0.01)
	assert.InDelta(t, 35.0, v.Calculation.Actual, 0.01)
	assert.Contains(t, v.Remediation, "8 AWG")
}

func TestEVSEBranchRule_AdequateGauge(t *testing.T) {
	d := evseDiagram(map[string]any{
		"wire_gauge": "8",
		"length_ft":  20.0,
	})

	r := NewEVSEBranchRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEVSEBranchRule_NoGaugeAssignedSkips(t *testing.T) {
	d := evseDiagram(map[string]any{"length_ft": 20.0})

	r := NewEVSEBranchRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEVSEBranchRule_EVSEOnFromEnd(t *testing.T) {
	d := evseDiagram(map[string]any{"wire_gauge": "10", "length_ft": 20.0})
	d.Connections[0].FromID, d.Connections[0].ToID = "evse-1", "panel-1"

	r := NewEVSEBranchRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "wire-1", got[0].ConnectionID)
}

// --- WireColorRule ---

func TestWireColorRule(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		color   string
		want    int
		section string
	}{
		{name: "ground green ok", role: "ground", color: "green", want: 0},
		{name: "ground bare ok", role: "ground", color: "bare", want: 0},
		{name: "ground white flagged", role: "ground", color: "white", want: 1, section: "NEC 250.119"},
		{name: "phase black ok", role: "phase", color: "black", want: 0},
		{name: "phase white flagged", role: "phase", color: "white", want: 1, section: "NEC 200.6"},
		{name: "phase green flagged", role: "phase", color: "Green", want: 1, section: "NEC 200.6"},
		{name: "no role skipped", role: "", color: "white", want: 0},
	}

	r := NewWireColorRule()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &schema.Diagram{
				Components: []schema.Component{
					{ID: "a", Type: schema.ComponentMainPanel},
					{ID: "b", Type: schema.ComponentLoad},
				},
				Connections: []schema.Connection{
					{ID: "w-1", FromID: "a", ToID: "b", Spec: map[string]any{
						"color": tc.color, "role": tc.role,
					}},
				},
			}

			got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
			require.NoError(t, err)
			require.Len(t, got, tc.want)
			if tc.want > 0 {
				assert.Equal(t, schema.CodeWireColorConvention, got[0].Code)
				assert.Equal(t, schema.SeverityWarning, got[0].Severity)
				assert.Equal(t, tc.section, got[0].Section)
				assert.Equal(t, "w-1", got[0].ConnectionID)
			}
		})
	}
}

// --- DanglingConnectionRule ---

func TestDanglingConnectionRule_MissingEndpoint(t *testing.T) {
	d := &schema.Diagram{
		Components: []schema.Component{
			{ID: "panel-1", Type: schema.ComponentMainPanel},
		},
		Connections: []schema.Connection{
			{ID: "w-1", FromID: "panel-1", ToID: "ghost"},
		},
	}

	r := NewDanglingConnectionRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.CodeDanglingConnection, got[0].Code)
	assert.Equal(t, schema.SeverityError, got[0].Severity)
	assert.Equal(t, "w-1", got[0].ConnectionID)
	assert.Contains(t, got[0].Description, "ghost")
}

func TestDanglingConnectionRule_BothEndpointsMissing(t *testing.T) {
	d := &schema.Diagram{
		Connections: []schema.Connection{
			{ID: "w-1", FromID: "", ToID: "nowhere"},
		},
	}

	r := NewDanglingConnectionRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDanglingConnectionRule_Valid(t *testing.T) {
	d := &schema.Diagram{
		Components: []schema.Component{
			{ID: "a", Type: schema.ComponentMainPanel},
			{ID: "b", Type: schema.ComponentLoad},
		},
		Connections: []schema.Connection{
			{ID: "w-1", FromID: "a", ToID: "b"},
		},
	}

	r := NewDanglingConnectionRule()
	got, err := r.Evaluate(context.Background(), ruleContext(d, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
