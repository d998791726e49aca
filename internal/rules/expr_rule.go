package rules

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voltlint/voltlint/internal/expressions"
	"github.com/voltlint/voltlint/pkg/schema"
)

// Engines bundles the expression engines an ExpressionRule may use.
type Engines struct {
	CEL  expressions.Engine
	Expr expressions.Engine
	JQ   expressions.Engine
}

// NewEngines constructs the standard engine set.
func NewEngines() (*Engines, error) {
	cel, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &Engines{
		CEL:  cel,
		Expr: expressions.NewExprEngine(),
		JQ:   expressions.NewGoJQEngine(),
	}, nil
}

func (e *Engines) byName(lang string) (expressions.Engine, error) {
	switch lang {
	case "cel":
		return e.CEL, nil
	case "expr", "":
		return e.Expr, nil
	case "jq":
		return e.JQ, nil
	}
	return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown expression language %q", lang)
}

// ExpressionDef is the serialized form of a custom rule, loaded from the
// agency rules file.
type ExpressionDef struct {
	ID          string              `yaml:"id" json:"id"`
	Title       string              `yaml:"title" json:"title"`
	Section     string              `yaml:"section" json:"section"`
	Category    schema.RuleCategory `yaml:"category" json:"category"`
	Language    string              `yaml:"language,omitempty" json:"language,omitempty"`
	Expression  string              `yaml:"expression" json:"expression"`
	Code        string              `yaml:"code,omitempty" json:"code,omitempty"`
	Severity    schema.Severity     `yaml:"severity,omitempty" json:"severity,omitempty"`
	Message     string              `yaml:"message" json:"message"`
	Remediation string              `yaml:"remediation,omitempty" json:"remediation,omitempty"`
}

// ExpressionRule is a custom rule whose predicate is an embedded-language
// expression evaluated over the same scope the built-in rules see. A
// truthy result fires one violation; component- and connection-category
// rules evaluate per component/connection and tag the violation with the
// matching ID.
type ExpressionRule struct {
	meta
	def     ExpressionDef
	engines *Engines
}

// NewExpressionRule validates a definition and binds it to the engines.
func NewExpressionRule(def ExpressionDef, engines *Engines) (*ExpressionRule, error) {
	if def.ID == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "expression rule id is empty")
	}
	if def.Expression == "" {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "rule %q has no expression", def.ID).WithRule(def.ID)
	}
	switch def.Category {
	case schema.CategoryComponent, schema.CategoryConnection, schema.CategorySystem:
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "rule %q has unknown category %q", def.ID, def.Category).WithRule(def.ID)
	}
	if _, err := engines.byName(def.Language); err != nil {
		return nil, err
	}
	if def.Severity == "" {
		def.Severity = schema.SeverityWarning
	}
	if def.Code == "" {
		def.Code = schema.CodeCustomRule
	}
	if def.Message == "" {
		def.Message = def.Title
	}
	return &ExpressionRule{
		meta: meta{
			id:       def.ID,
			title:    def.Title,
			section:  def.Section,
			category: def.Category,
		},
		def:     def,
		engines: engines,
	}, nil
}

func (r *ExpressionRule) Evaluate(ctx context.Context, rc *Context) ([]schema.Violation, error) {
	engine, err := r.engines.byName(r.def.Language)
	if err != nil {
		return nil, err
	}

	switch r.category {
	case schema.CategoryComponent:
		var out []schema.Violation
		for i := range rc.Diagram.Components {
			c := &rc.Diagram.Components[i]
			scope := &expressions.Scope{Diagram: rc.Diagram, Component: c, Load: rc.Load}
			v, fired, err := r.fire(ctx, engine, scope)
			if err != nil {
				return nil, err
			}
			if fired {
				v.ComponentID = c.ID
				out = append(out, v)
			}
		}
		return out, nil

	case schema.CategoryConnection:
		var out []schema.Violation
		for i := range rc.Diagram.Connections {
			c := &rc.Diagram.Connections[i]
			scope := &expressions.Scope{Diagram: rc.Diagram, Connection: c, Load: rc.Load}
			v, fired, err := r.fire(ctx, engine, scope)
			if err != nil {
				return nil, err
			}
			if fired {
				v.ConnectionID = c.ID
				out = append(out, v)
			}
		}
		return out, nil

	default: // system
		scope := &expressions.Scope{Diagram: rc.Diagram, Load: rc.Load}
		v, fired, err := r.fire(ctx, engine, scope)
		if err != nil {
			return nil, err
		}
		if !fired {
			return nil, nil
		}
		return []schema.Violation{v}, nil
	}
}

// fire evaluates the predicate in one scope and, when truthy, renders the
// violation with interpolated message and remediation text.
func (r *ExpressionRule) fire(ctx context.Context, engine expressions.Engine, scope *expressions.Scope) (schema.Violation, bool, error) {
	data := scope.Data()

	out, err := engine.Evaluate(ctx, r.def.Expression, data)
	if err != nil {
		return schema.Violation{}, false, err
	}
	if !truthy(out) {
		return schema.Violation{}, false, nil
	}

	msg, err := expressions.Interpolate(r.def.Message, data)
	if err != nil {
		return schema.Violation{}, false, err
	}
	remediation := r.def.Remediation
	if expressions.HasInterpolation(remediation) {
		remediation, err = expressions.Interpolate(remediation, data)
		if err != nil {
			return schema.Violation{}, false, err
		}
	}

	return schema.Violation{
		Code:        r.def.Code,
		Section:     r.section,
		Description: msg,
		Severity:    r.def.Severity,
		Remediation: remediation,
	}, true, nil
}

// truthy interprets an expression result as a predicate outcome: booleans
// directly, numbers by non-zero, strings/slices by non-empty.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// rulesFile is the on-disk format of the custom rules file.
type rulesFile struct {
	Rules []ExpressionDef `yaml:"rules"`
}

// LoadExpressionRules reads a YAML rules file and registers every rule it
// defines. Definitions fail fast: one malformed rule rejects the file.
func LoadExpressionRules(path string, engines *Engines, reg *Registry) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, schema.NewError(schema.ErrCodeParse, "rules file is not valid YAML").WithCause(err)
	}

	n := 0
	for _, def := range f.Rules {
		rule, err := NewExpressionRule(def, engines)
		if err != nil {
			return n, err
		}
		if err := reg.Register(rule); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
