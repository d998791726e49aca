package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voltlint/voltlint/internal/session"
	"github.com/voltlint/voltlint/internal/sizing"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/pkg/schema"
)

// handleSolve sizes a conductor for a single circuit.
func (s *VoltlintServer) handleSolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loadAmps, err := req.RequireFloat("load_amps")
	if err != nil {
		return mcp.NewToolResultError("load_amps is required"), nil
	}
	voltage, err := req.RequireFloat("voltage")
	if err != nil {
		return mcp.NewToolResultError("voltage is required"), nil
	}

	spec := schema.CircuitSpec{
		LoadAmps:          loadAmps,
		Voltage:           voltage,
		LengthFt:          req.GetFloat("length_ft", 0),
		Material:          schema.Material(req.GetString("material", string(schema.MaterialCopper))),
		TempRating:        schema.TempRating(req.GetInt("temp_rating", 75)),
		MaxVoltageDropPct: req.GetFloat("max_voltage_drop_pct", 3.0),
		Derating: schema.DeratingContext{
			ConductorCount: req.GetInt("conductor_count", 3),
			AmbientTempC:   req.GetFloat("ambient_temp_c", 30),
			ContinuousLoad: req.GetBool("continuous", false),
			MotorLoad:      req.GetBool("motor", false),
		},
	}

	return marshalResult(sizing.Solve(spec))
}

// handleEvaluate runs the full rule base over a diagram document.
func (s *VoltlintServer) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := mcp.ParseStringMap(req, "document", nil)
	if document == nil {
		return mcp.NewToolResultError("document is required"), nil
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid document: %v", err)), nil
	}
	diagram, valErr := s.validator.ValidateDocument(raw)
	if valErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document validation failed: %v", valErr)), nil
	}

	load := parseLoadContext(mcp.ParseStringMap(req, "load", nil))
	result := s.evaluator.Evaluate(ctx, diagram, load)

	if req.GetBool("persist", false) && s.store != nil {
		report, repErr := store.NewReport(diagram.ID, session.ContentHash(diagram), result)
		if repErr == nil {
			repErr = s.store.AppendReport(ctx, report)
		}
		if repErr != nil {
			s.logger.Warn("failed to persist report", "diagram_id", diagram.ID, "error", repErr)
		}
	}

	return marshalResult(result)
}

// handleRules lists the rule base, optionally restricted to one category.
func (s *VoltlintServer) handleRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")

	infos := s.registry.List()
	if category != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if string(info.Category) == category {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	return marshalResult(map[string]any{"rules": infos})
}

// handleReports queries past compliance reports.
func (s *VoltlintServer) handleReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("report store is not configured"), nil
	}

	diagramID := req.GetString("diagram_id", "")

	if req.GetBool("latest", false) {
		if diagramID == "" {
			return mcp.NewToolResultError("latest requires diagram_id"), nil
		}
		report, err := s.store.LatestReport(ctx, diagramID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("report query failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"reports": []*store.Report{report}})
	}

	filter := store.ReportFilter{
		DiagramID: diagramID,
		Limit:     req.GetInt("limit", 50),
	}
	if since := req.GetString("since", ""); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid since timestamp: %v", err)), nil
		}
		filter.Since = &t
	}

	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report query failed: %v", err)), nil
	}
	return marshalResult(map[string]any{"reports": reports})
}

// --- Internal helpers ---

// parseLoadContext builds a LoadContext from a tool argument map.
func parseLoadContext(m map[string]any) *schema.LoadContext {
	if m == nil {
		return nil
	}
	load := &schema.LoadContext{}
	if v, ok := m["service_amps"].(float64); ok {
		load.ServiceAmps = v
	}
	if v, ok := m["total_load_amps"].(float64); ok {
		load.TotalLoadAmps = v
	}
	if v, ok := m["continuous_amps"].(float64); ok {
		load.ContinuousAmps = v
	}
	return load
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
