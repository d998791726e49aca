// Package engine orchestrates the wire-sizing solver and the rule base
// over an entire diagram, producing the aggregated ComplianceResult.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/voltlint/voltlint/internal/logging"
	"github.com/voltlint/voltlint/internal/rules"
	"github.com/voltlint/voltlint/internal/sizing"
	"github.com/voltlint/voltlint/internal/validation"
	"github.com/voltlint/voltlint/pkg/schema"
)

// Evaluator runs one full compliance pass: boundary parse, per-connection
// wire sizing, then every rule in the registry. It holds no mutable state
// between calls; a fixed diagram/context pair always evaluates to the same
// result.
type Evaluator struct {
	registry *rules.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewEvaluator creates an Evaluator over the given rule registry.
func NewEvaluator(registry *rules.Registry, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Evaluator{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the evaluation timestamp source. Used by sessions and
// tests that need deterministic results.
func (e *Evaluator) WithNow(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate runs the full pass. It never fails: malformed input becomes
// violations, and a rule that errors or panics is isolated (logged,
// contributing zero violations) rather than aborting the rest.
func (e *Evaluator) Evaluate(ctx context.Context, d *schema.Diagram, load *schema.LoadContext) *schema.ComplianceResult {
	result := &schema.ComplianceResult{
		ByComponent:  make(map[string][]schema.Violation),
		ByConnection: make(map[string][]schema.Violation),
		EvaluatedAt:  e.now().UTC(),
	}
	if d == nil {
		d = &schema.Diagram{}
	}
	ctx = logging.WithDiagramID(ctx, d.ID)

	parsed := validation.Parse(d)
	rc := &rules.Context{Diagram: d, Parsed: parsed, Load: load}

	// Input-shape problems from the boundary parse.
	for _, v := range parsed.Problems {
		route(result, v)
	}

	// Wire sizing for every connection with inferable circuit parameters.
	for i := range d.Connections {
		conn := &d.Connections[i]
		for _, v := range e.sizeConnection(conn, parsed) {
			v.ConnectionID = conn.ID
			route(result, v)
		}
	}

	// Every rule runs against the whole diagram; no short-circuiting.
	for _, rule := range e.registry.All() {
		for _, v := range e.runRule(ctx, rule, rc) {
			route(result, v)
		}
	}

	e.finalize(result, len(d.Components))
	return result
}

// sizeConnection checks an assigned gauge, or solves for one when none is
// assigned and reports the residual violations of a non-compliant solve.
func (e *Evaluator) sizeConnection(conn *schema.Connection, parsed *validation.ParsedDiagram) []schema.Violation {
	wire := parsed.Wires[conn.ID]
	if wire == nil || !wire.HasCircuit() {
		return nil
	}

	if wire.Gauge != "" {
		return sizing.EvaluateGauge(wire.Gauge, wire.Circuit())
	}

	res := sizing.Solve(wire.Circuit())
	if res.Compliant {
		return nil
	}
	return res.Violations
}

// runRule evaluates one rule with fault isolation: an error or panic in a
// rule predicate is logged and treated as zero violations for this pass.
func (e *Evaluator) runRule(ctx context.Context, rule rules.Rule, rc *rules.Context) (out []schema.Violation) {
	ctx = logging.WithRuleID(ctx, rule.ID())

	defer func() {
		if r := recover(); r != nil {
			logging.LogWith(ctx, e.logger).Error("rule panicked; skipping",
				slog.String("panic", fmt.Sprint(r)))
			out = nil
		}
	}()

	violations, err := rule.Evaluate(ctx, rc)
	if err != nil {
		logging.LogWith(ctx, e.logger).Error("rule failed; skipping",
			slog.String("error", err.Error()))
		return nil
	}
	return violations
}

// route places a violation in its bucket: component, connection, or the
// flat system bucket when the rule tagged neither.
func route(result *schema.ComplianceResult, v schema.Violation) {
	switch {
	case v.ComponentID != "":
		result.ByComponent[v.ComponentID] = append(result.ByComponent[v.ComponentID], v)
	case v.ConnectionID != "":
		result.ByConnection[v.ConnectionID] = append(result.ByConnection[v.ConnectionID], v)
	default:
		result.System = append(result.System, v)
	}

	switch v.Severity {
	case schema.SeverityError:
		result.ErrorCount++
	case schema.SeverityWarning:
		result.WarningCount++
	default:
		result.InfoCount++
	}
}

// finalize computes compliance, score and recommendations.
// Score: 100, minus 20 per error and 5 per warning, plus a small
// complexity credit (component count / 10, capped at 5), clamped to
// [0,100]. Compliance is solely "zero errors"; a low score from many
// warnings is not non-compliance.
func (e *Evaluator) finalize(result *schema.ComplianceResult, componentCount int) {
	result.Compliant = result.ErrorCount == 0

	credit := componentCount / 10
	if credit > 5 {
		credit = 5
	}
	score := 100 - 20*result.ErrorCount - 5*result.WarningCount + credit
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	result.Score = score

	result.Recommendations = recommendations(result)
}

// recommendations derives one "address before proceeding" line per code
// section with error violations, using a representative remediation
// string to avoid duplicate noise. Bucket traversal follows the stable
// violation order.
func recommendations(result *schema.ComplianceResult) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(v schema.Violation) {
		if v.Severity != schema.SeverityError || seen[v.Section] {
			return
		}
		seen[v.Section] = true
		text := v.Remediation
		if text == "" {
			text = v.Description
		}
		out = append(out, fmt.Sprintf("Address before proceeding (%s): %s", v.Section, text))
	}

	for _, vs := range orderedBuckets(result.ByComponent) {
		for _, v := range vs {
			add(v)
		}
	}
	for _, vs := range orderedBuckets(result.ByConnection) {
		for _, v := range vs {
			add(v)
		}
	}
	for _, v := range result.System {
		add(v)
	}
	return out
}

// orderedBuckets returns bucket slices in sorted-key order so the derived
// recommendations are deterministic.
func orderedBuckets(m map[string][]schema.Violation) [][]schema.Violation {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]schema.Violation, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
