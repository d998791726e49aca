package rules

import (
	"sort"
	"sync"

	"github.com/voltlint/voltlint/pkg/schema"
)

// Registry is the thread-safe ordered collection of rules. Registration
// order is preserved: it does not affect correctness but does define the
// violation ordering in evaluator output.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule to the registry. Returns error on duplicate ID.
func (r *Registry) Register(rule Rule) error {
	if rule == nil {
		return schema.NewError(schema.ErrCodeValidation, "rule is nil")
	}
	id := rule.ID()
	if id == "" {
		return schema.NewError(schema.ErrCodeValidation, "rule id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "rule %q already registered", id)
	}

	r.rules[id] = rule
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a rule by ID.
func (r *Registry) Get(id string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "rule %q not registered", id)
	}
	return rule, nil
}

// All returns every rule in registration order.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// List returns info for all registered rules, sorted by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.rules))
	for _, rule := range r.rules {
		infos = append(infos, Info{
			ID:       rule.ID(),
			Title:    rule.Title(),
			Section:  rule.Section(),
			Category: rule.Category(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Has checks if a rule is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[id]
	return ok
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// DefaultRegistry builds a Registry populated with the built-in rule base.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range builtinRules() {
		// Built-in IDs are unique by construction.
		_ = r.Register(rule)
	}
	return r
}

func builtinRules() []Rule {
	return []Rule{
		NewServiceDisconnectRule(),
		NewGroundingElectrodeRule(),
		NewRapidShutdownRule(),
		NewLabelingRule(),
		NewBreakerRatingRule(),
		NewEVSEBranchRule(),
		NewWireColorRule(),
		NewDanglingConnectionRule(),
		NewBus120Rule(),
		NewServiceCapacityRule(),
	}
}
