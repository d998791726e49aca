package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/voltlint/voltlint/internal/sizing"
	"github.com/voltlint/voltlint/pkg/schema"
)

// EVSEBranchRule checks that branch circuits feeding EVSE chargers are
// sized for 125% of nameplate current. EVSE loads are continuous by code.
type EVSEBranchRule struct{ meta }

func NewEVSEBranchRule() *EVSEBranchRule {
	return &EVSEBranchRule{meta{
		id:       "connection.evse_branch",
		title:    "EVSE branch circuits sized for continuous load",
		section:  "NEC 625.17",
		category: schema.CategoryConnection,
	}}
}

func (r *EVSEBranchRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for i := range rc.Diagram.Connections {
		conn := &rc.Diagram.Connections[i]

		evse, ok := rc.Parsed.EVSEs[conn.ToID]
		if !ok {
			if evse, ok = rc.Parsed.EVSEs[conn.FromID]; !ok {
				continue
			}
		}
		if evse.NameplateAmps <= 0 {
			continue
		}

		wire := rc.Parsed.Wires[conn.ID]
		if wire == nil || wire.Gauge == "" {
			continue // nothing assigned yet; sizing pass will recommend
		}

		spec := wire.Circuit()
		spec.LoadAmps = evse.NameplateAmps
		if spec.Voltage == 0 {
			spec.Voltage = evse.Voltage
		}
		spec.Derating.ContinuousLoad = true

		for _, v := range sizing.EvaluateGauge(wire.Gauge, spec) {
			v.ConnectionID = conn.ID
			if v.Code == schema.CodeAmpacityExceeded {
				v.Section = r.section
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// WireColorRule checks conductor color conventions: grounds green or bare,
// phase conductors never green or white.
type WireColorRule struct{ meta }

func NewWireColorRule() *WireColorRule {
	return &WireColorRule{meta{
		id:       "connection.wire_color",
		title:    "Conductor color conventions",
		section:  "NEC 250.119",
		category: schema.CategoryConnection,
	}}
}

func (r *WireColorRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for i := range rc.Diagram.Connections {
		conn := &rc.Diagram.Connections[i]
		wire := rc.Parsed.Wires[conn.ID]
		if wire == nil || wire.Color == "" || wire.Role == "" {
			continue
		}
		color := strings.ToLower(wire.Color)

		switch wire.Role {
		case "ground":
			if color == "green" || color == "bare" || color == "green/yellow" {
				continue
			}
			out = append(out, schema.Violation{
				Code:         schema.CodeWireColorConvention,
				Section:      r.section,
				Description:  fmt.Sprintf("grounding conductor colored %q; must be green, green/yellow, or bare", wire.Color),
				Severity:     schema.SeverityWarning,
				Remediation:  "re-identify the grounding conductor as green or bare",
				ConnectionID: conn.ID,
			})
		case "phase":
			if color != "green" && color != "white" && color != "gray" {
				continue
			}
			out = append(out, schema.Violation{
				Code:         schema.CodeWireColorConvention,
				Section:      "NEC 200.6",
				Description:  fmt.Sprintf("ungrounded (phase) conductor colored %q; green, white and gray are reserved", wire.Color),
				Severity:     schema.SeverityWarning,
				Remediation:  "use black, red, or another unreserved color for phase conductors",
				ConnectionID: conn.ID,
			})
		}
	}
	return out, nil
}

// DanglingConnectionRule checks that connection endpoints reference
// components that exist in the diagram.
type DanglingConnectionRule struct{ meta }

func NewDanglingConnectionRule() *DanglingConnectionRule {
	return &DanglingConnectionRule{meta{
		id:       "connection.endpoints",
		title:    "Connections terminate on existing components",
		section:  "NEC 110.3",
		category: schema.CategoryConnection,
	}}
}

func (r *DanglingConnectionRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for i := range rc.Diagram.Connections {
		conn := &rc.Diagram.Connections[i]
		for _, end := range []string{conn.FromID, conn.ToID} {
			if end != "" && rc.Diagram.ComponentByID(end) != nil {
				continue
			}
			out = append(out, schema.Violation{
				Code:         schema.CodeDanglingConnection,
				Section:      r.section,
				Description:  fmt.Sprintf("connection %q references missing component %q", conn.ID, end),
				Severity:     schema.SeverityError,
				Remediation:  "reconnect the run to an existing component or remove it",
				ConnectionID: conn.ID,
			})
		}
	}
	return out, nil
}
