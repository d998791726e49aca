// Package rules holds the violation taxonomy's rule base: independently
// evaluable, stateless predicates over a diagram snapshot. Rules never
// assume execution order or prior rule results, and never short-circuit:
// every violation is reported in one pass.
package rules

import (
	"context"
	"sort"

	"github.com/voltlint/voltlint/internal/validation"
	"github.com/voltlint/voltlint/pkg/schema"
)

// Context is the read-only input to one rule evaluation.
type Context struct {
	Diagram *schema.Diagram
	Parsed  *validation.ParsedDiagram
	Load    *schema.LoadContext
}

// Rule is a single compliance check. Evaluate is a pure predicate: it
// returns the violations it found (tagged with the component/connection
// IDs they pertain to) and must not retain or mutate the context.
type Rule interface {
	ID() string
	Title() string
	Section() string
	Category() schema.RuleCategory
	Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error)
}

// Info describes a registered rule for listings.
type Info struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Section  string              `json:"section"`
	Category schema.RuleCategory `json:"category"`
}

// meta carries the identity shared by the built-in rules.
type meta struct {
	id       string
	title    string
	section  string
	category schema.RuleCategory
}

func (m meta) ID() string                    { return m.id }
func (m meta) Title() string                 { return m.title }
func (m meta) Section() string               { return m.section }
func (m meta) Category() schema.RuleCategory { return m.category }

// sortByAssociation orders violations by component then connection ID so
// rules that iterate maps still produce deterministic output.
func sortByAssociation(v []schema.Violation) []schema.Violation {
	sort.SliceStable(v, func(i, j int) bool {
		if v[i].ComponentID != v[j].ComponentID {
			return v[i].ComponentID < v[j].ComponentID
		}
		return v[i].ConnectionID < v[j].ConnectionID
	})
	return v
}
