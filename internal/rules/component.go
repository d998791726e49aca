package rules

import (
	"context"
	"fmt"

	"github.com/voltlint/voltlint/internal/nec"
	"github.com/voltlint/voltlint/pkg/schema"
)

// ServiceDisconnectRule requires a service disconnect component somewhere
// in the diagram.
type ServiceDisconnectRule struct{ meta }

func NewServiceDisconnectRule() *ServiceDisconnectRule {
	return &ServiceDisconnectRule{meta{
		id:       "component.service_disconnect",
		title:    "Service disconnecting means present",
		section:  "NEC 230.70",
		category: schema.CategoryComponent,
	}}
}

func (r *ServiceDisconnectRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	if rc.Diagram.HasComponentType(schema.ComponentDisconnect) {
		return nil, nil
	}
	return []schema.Violation{{
		Code:        schema.CodeMissingDisconnect,
		Section:     r.section,
		Description: "no service disconnect component in the diagram",
		Severity:    schema.SeverityError,
		Remediation: "add a service disconnect between the utility service and the main panel",
	}}, nil
}

// GroundingElectrodeRule requires a grounding electrode system.
type GroundingElectrodeRule struct{ meta }

func NewGroundingElectrodeRule() *GroundingElectrodeRule {
	return &GroundingElectrodeRule{meta{
		id:       "component.grounding_electrode",
		title:    "Grounding electrode system present",
		section:  "NEC 250.50",
		category: schema.CategoryComponent,
	}}
}

func (r *GroundingElectrodeRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	if rc.Diagram.HasComponentType(schema.ComponentGroundingElectrode) {
		return nil, nil
	}
	return []schema.Violation{{
		Code:        schema.CodeMissingGrounding,
		Section:     r.section,
		Description: "no grounding electrode component in the diagram",
		Severity:    schema.SeverityError,
		Remediation: "add a grounding electrode (ground rod or Ufer) bonded to the service",
	}}, nil
}

// RapidShutdownRule requires rapid shutdown equipment when a PV array is
// present. Emits exactly one warning regardless of array count.
type RapidShutdownRule struct{ meta }

func NewRapidShutdownRule() *RapidShutdownRule {
	return &RapidShutdownRule{meta{
		id:       "component.rapid_shutdown",
		title:    "PV rapid shutdown equipment present",
		section:  "NEC 690.12",
		category: schema.CategoryComponent,
	}}
}

func (r *RapidShutdownRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	if !rc.Diagram.HasComponentType(schema.ComponentPVArray) {
		return nil, nil
	}
	if rc.Diagram.HasComponentType(schema.ComponentRapidShutdown) {
		return nil, nil
	}
	return []schema.Violation{{
		Code:        schema.CodeMissingRapidShutdown,
		Section:     r.section,
		Description: "PV array present without rapid shutdown equipment",
		Severity:    schema.SeverityWarning,
		Remediation: "add a rapid shutdown device for conductors within the array boundary",
	}}, nil
}

// LabelingRule checks that panels and disconnects carry a label.
type LabelingRule struct{ meta }

func NewLabelingRule() *LabelingRule {
	return &LabelingRule{meta{
		id:       "component.labeling",
		title:    "Disconnects and panels labeled",
		section:  "NEC 110.22",
		category: schema.CategoryComponent,
	}}
}

func (r *LabelingRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for _, c := range rc.Diagram.Components {
		switch c.Type {
		case schema.ComponentDisconnect, schema.ComponentMainPanel, schema.ComponentSubPanel:
		default:
			continue
		}
		if c.Label != "" || c.Name != "" {
			continue
		}
		out = append(out, schema.Violation{
			Code:        schema.CodeUnlabeledComponent,
			Section:     r.section,
			Description: fmt.Sprintf("%s %q has no label", c.Type, c.ID),
			Severity:    schema.SeverityWarning,
			Remediation: "mark the component to indicate its purpose",
			ComponentID: c.ID,
		})
	}
	return out, nil
}

// BreakerRatingRule flags breakers whose rating is not a standard
// overcurrent-device size.
type BreakerRatingRule struct{ meta }

func NewBreakerRatingRule() *BreakerRatingRule {
	return &BreakerRatingRule{meta{
		id:       "component.breaker_rating",
		title:    "Breaker ratings are standard sizes",
		section:  "NEC 240.6",
		category: schema.CategoryComponent,
	}}
}

func (r *BreakerRatingRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	var out []schema.Violation
	for id, b := range rc.Parsed.Breakers {
		if b.RatingAmps <= 0 {
			continue // unspecified rating is a parse concern, not this rule's
		}
		rating := int(b.RatingAmps)
		if float64(rating) == b.RatingAmps && nec.IsStandardBreaker(rating) {
			continue
		}
		next := nec.NextStandardBreaker(b.RatingAmps)
		out = append(out, schema.Violation{
			Code:        schema.CodeBreakerNonStandard,
			Section:     r.section,
			Description: fmt.Sprintf("breaker rating %.1fA is not a standard device size", b.RatingAmps),
			Severity:    schema.SeverityWarning,
			Remediation: fmt.Sprintf("use the next standard rating, %dA", next),
			ComponentID: id,
		})
	}
	return sortByAssociation(out), nil
}
