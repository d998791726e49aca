package rules

import (
	"context"
	"fmt"

	"github.com/voltlint/voltlint/pkg/schema"
)

// Bus120Rule enforces the 120% rule: on a panel with an interconnected
// power source, the main breaker plus the source breaker ratings must not
// exceed 120% of the bus rating.
type Bus120Rule struct{ meta }

func NewBus120Rule() *Bus120Rule {
	return &Bus120Rule{meta{
		id:       "system.bus_120_percent",
		title:    "120% rule for interconnected sources",
		section:  "NEC 705.12(B)(3)(2)",
		category: schema.CategorySystem,
	}}
}

func (r *Bus120Rule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for _, c := range rc.Diagram.Components {
		panel, ok := rc.Parsed.Panels[c.ID]
		if !ok || panel.BusRatingAmps <= 0 {
			continue
		}

		sourceAmps := r.interconnectedSourceAmps(rc, c.ID)
		if sourceAmps == 0 {
			continue // no second source on this bus
		}

		combined := panel.MainBreakerAmps + sourceAmps
		limit := panel.BusRatingAmps * 1.2
		if combined <= limit {
			continue
		}
		out = append(out, schema.Violation{
			Code:        schema.CodeBusOverload120,
			Section:     r.section,
			Description: fmt.Sprintf("panel %q: main breaker %.0fA plus source breakers %.0fA exceeds 120%% of the %.0fA bus", c.ID, panel.MainBreakerAmps, sourceAmps, panel.BusRatingAmps),
			Severity:    schema.SeverityError,
			Remediation: "downsize the main breaker, upsize the bus, or use a supply-side connection",
			ComponentID: c.ID,
			Calculation: &schema.Calculation{Actual: combined, Required: limit, Unit: "A"},
		})
	}
	return out, nil
}

// interconnectedSourceAmps sums the breaker ratings of inverters wired to
// the given panel.
func (r *Bus120Rule) interconnectedSourceAmps(rc *Context, panelID string) float64 {
	total := 0.0
	for i := range rc.Diagram.Connections {
		conn := &rc.Diagram.Connections[i]
		var otherEnd string
		switch panelID {
		case conn.ToID:
			otherEnd = conn.FromID
		case conn.FromID:
			otherEnd = conn.ToID
		default:
			continue
		}
		if inv, ok := rc.Parsed.Inverters[otherEnd]; ok {
			total += inv.BreakerAmps
		}
	}
	return total
}

// ServiceCapacityRule compares the aggregate connected load from the load
// context against the service size.
type ServiceCapacityRule struct{ meta }

func NewServiceCapacityRule() *ServiceCapacityRule {
	return &ServiceCapacityRule{meta{
		id:       "system.service_capacity",
		title:    "Aggregate load within service capacity",
		section:  "NEC 220.83",
		category: schema.CategorySystem,
	}}
}

func (r *ServiceCapacityRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	if rc.Load == nil || rc.Load.ServiceAmps <= 0 || rc.Load.TotalLoadAmps <= 0 {
		return nil, nil
	}
	if rc.Load.TotalLoadAmps <= rc.Load.ServiceAmps {
		return nil, nil
	}
	return []schema.Violation{{
		Code:        schema.CodeServiceCapacity,
		Section:     r.section,
		Description: fmt.Sprintf("total connected load %.0fA exceeds the %.0fA service", rc.Load.TotalLoadAmps, rc.Load.ServiceAmps),
		Severity:    schema.SeverityError,
		Remediation: "perform a load calculation, shed load, or upsize the service",
		Calculation: &schema.Calculation{Actual: rc.Load.TotalLoadAmps, Required: rc.Load.ServiceAmps, Unit: "A"},
	}}, nil
}
