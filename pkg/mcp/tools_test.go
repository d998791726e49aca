package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/internal/engine"
	"github.com/voltlint/voltlint/internal/rules"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/internal/validation"
	"github.com/voltlint/voltlint/pkg/schema"
)

// --- Mock Store ---

type mockStore struct {
	store.Store // embed for unimplemented methods

	reports   []*store.Report
	latestErr error
}

func (m *mockStore) AppendReport(_ context.Context, r *store.Report) error {
	m.reports = append(m.reports, r)
	return nil
}

func (m *mockStore) LatestReport(_ context.Context, diagramID string) (*store.Report, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].DiagramID == diagramID {
			return m.reports[i], nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeNotFound, "no report for %q", diagramID)
}

func (m *mockStore) ListReports(_ context.Context, filter store.ReportFilter) ([]*store.Report, error) {
	result := make([]*store.Report, 0)
	for _, r := range m.reports {
		if filter.DiagramID != "" && r.DiagramID != filter.DiagramID {
			continue
		}
		if filter.Since != nil && r.CreatedAt.Before(*filter.Since) {
			continue
		}
		result = append(result, r)
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// --- Helpers ---

func newTestServer(t *testing.T, ms store.Store) *VoltlintServer {
	t.Helper()
	validator, err := validation.NewDiagramValidator()
	require.NoError(t, err)
	registry := rules.DefaultRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewVoltlintServer(VoltlintServerDeps{
		Evaluator: engine.NewEvaluator(registry, logger),
		Registry:  registry,
		Validator: validator,
		Store:     ms,
		Logger:    logger,
	})
}

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

func compliantDocument() map[string]any {
	return map[string]any{
		"id":   "d-1",
		"name": "Test House",
		"components": []any{
			map[string]any{"id": "panel-1", "type": "main_panel", "name": "Main"},
			map[string]any{"id": "disc-1", "type": "disconnect", "label": "SERVICE DISCONNECT"},
			map[string]any{"id": "gec-1", "type": "grounding_electrode"},
		},
		"connections": []any{},
	}
}

// --- Solve Tool ---

func TestSolveTool(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	req := buildRequest("voltlint.solve", map[string]any{
		"load_amps":  40.0,
		"voltage":    240.0,
		"length_ft":  100.0,
		"continuous": true,
	})

	result, err := s.handleSolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var out schema.WireSizingResult
	unmarshalResult(t, result, &out)
	assert.Equal(t, "8", out.Gauge)
	assert.Equal(t, 50.0, out.AdjustedLoad)
	assert.Equal(t, 50, out.BreakerAmps)
	assert.True(t, out.Compliant)
}

func TestSolveTool_MissingRequired(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleSolve(context.Background(), buildRequest("voltlint.solve", map[string]any{
		"voltage": 240.0,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSolveTool_NonCompliantCircuitStillReturns(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleSolve(context.Background(), buildRequest("voltlint.solve", map[string]any{
		"load_amps": 500.0,
		"voltage":   240.0,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError, "an unsatisfiable circuit is a result, not a tool error")

	var out schema.WireSizingResult
	unmarshalResult(t, result, &out)
	assert.False(t, out.Compliant)
	assert.NotEmpty(t, out.Violations)
}

// --- Evaluate Tool ---

func TestEvaluateTool(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	req := buildRequest("voltlint.evaluate", map[string]any{
		"document": compliantDocument(),
	})

	result, err := s.handleEvaluate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out schema.ComplianceResult
	unmarshalResult(t, result, &out)
	assert.True(t, out.Compliant)
	assert.Equal(t, 100, out.Score)
}

func TestEvaluateTool_MissingDocument(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleEvaluate(context.Background(), buildRequest("voltlint.evaluate", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEvaluateTool_InvalidDocument(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleEvaluate(context.Background(), buildRequest("voltlint.evaluate", map[string]any{
		"document": map[string]any{
			"components":  []any{map[string]any{"id": "x", "type": "flux_capacitor"}},
			"connections": []any{},
		},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEvaluateTool_WithLoadContext(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleEvaluate(context.Background(), buildRequest("voltlint.evaluate", map[string]any{
		"document": compliantDocument(),
		"load": map[string]any{
			"service_amps":    200.0,
			"total_load_amps": 250.0,
		},
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out schema.ComplianceResult
	unmarshalResult(t, result, &out)
	assert.False(t, out.Compliant)
	require.Len(t, out.System, 1)
	assert.Equal(t, schema.CodeServiceCapacity, out.System[0].Code)
}

func TestEvaluateTool_Persist(t *testing.T) {
	ms := &mockStore{}
	s := newTestServer(t, ms)

	result, err := s.handleEvaluate(context.Background(), buildRequest("voltlint.evaluate", map[string]any{
		"document": compliantDocument(),
		"persist":  true,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, ms.reports, 1)
	assert.Equal(t, "d-1", ms.reports[0].DiagramID)
	assert.NotEmpty(t, ms.reports[0].DiagramHash)
}

// --- Rules Tool ---

func TestRulesTool(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleRules(context.Background(), buildRequest("voltlint.rules", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Rules []rules.Info `json:"rules"`
	}
	unmarshalResult(t, result, &out)
	assert.Len(t, out.Rules, 10)
}

func TestRulesTool_CategoryFilter(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleRules(context.Background(), buildRequest("voltlint.rules", map[string]any{
		"category": "system",
	}))
	require.NoError(t, err)

	var out struct {
		Rules []rules.Info `json:"rules"`
	}
	unmarshalResult(t, result, &out)
	require.Len(t, out.Rules, 2)
	for _, info := range out.Rules {
		assert.Equal(t, schema.CategorySystem, info.Category)
	}
}

// --- Reports Tool ---

func seedMockReports(ms *mockStore) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ms.reports = []*store.Report{
		{ID: "r-1", DiagramID: "d-1", Score: 80, CreatedAt: base},
		{ID: "r-2", DiagramID: "d-1", Score: 95, CreatedAt: base.Add(time.Hour)},
		{ID: "r-3", DiagramID: "d-2", Score: 100, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func TestReportsTool_List(t *testing.T) {
	ms := &mockStore{}
	seedMockReports(ms)
	s := newTestServer(t, ms)

	result, err := s.handleReports(context.Background(), buildRequest("voltlint.reports", map[string]any{
		"diagram_id": "d-1",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Reports []*store.Report `json:"reports"`
	}
	unmarshalResult(t, result, &out)
	assert.Len(t, out.Reports, 2)
}

func TestReportsTool_Latest(t *testing.T) {
	ms := &mockStore{}
	seedMockReports(ms)
	s := newTestServer(t, ms)

	result, err := s.handleReports(context.Background(), buildRequest("voltlint.reports", map[string]any{
		"diagram_id": "d-1",
		"latest":     true,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Reports []*store.Report `json:"reports"`
	}
	unmarshalResult(t, result, &out)
	require.Len(t, out.Reports, 1)
	assert.Equal(t, "r-2", out.Reports[0].ID)
}

func TestReportsTool_LatestRequiresDiagramID(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleReports(context.Background(), buildRequest("voltlint.reports", map[string]any{
		"latest": true,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestReportsTool_Since(t *testing.T) {
	ms := &mockStore{}
	seedMockReports(ms)
	s := newTestServer(t, ms)

	result, err := s.handleReports(context.Background(), buildRequest("voltlint.reports", map[string]any{
		"since": "2026-03-01T13:30:00Z",
	}))
	require.NoError(t, err)

	var out struct {
		Reports []*store.Report `json:"reports"`
	}
	unmarshalResult(t, result, &out)
	assert.Len(t, out.Reports, 1)
}

func TestReportsTool_InvalidSince(t *testing.T) {
	s := newTestServer(t, &mockStore{})

	result, err := s.handleReports(context.Background(), buildRequest("voltlint.reports", map[string]any{
		"since": "yesterday",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
