package qa

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds the rules available to an orchestrator.
//
// Rules are added during initialization. The category index is built on the
// first query and the registry is frozen from then on, so every later read
// sees the same ordering.
type Registry struct {
	mu     sync.Mutex
	rules  []Rule
	byID   map[string]Rule
	frozen bool

	once       sync.Once
	byCategory map[string][]Rule
	categories []string
}

// registered pins the declaration order assigned by a registry.
type registered struct {
	Rule
	order int
}

func (r *registered) DeclarationOrder() int { return r.order }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Add registers a rule and assigns it the next declaration order.
// Registering an ID twice fails with ErrDuplicateRule.
func (r *Registry) Add(rule Rule) error {
	if err := validate(rule); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("add %s: %w", rule.ID(), ErrRegistryFrozen)
	}
	if _, ok := r.byID[rule.ID()]; ok {
		return fmt.Errorf("add %s: %w", rule.ID(), ErrDuplicateRule)
	}
	if reg, ok := rule.(*registered); ok {
		rule = reg.Rule
	}
	wrapped := &registered{Rule: rule, order: len(r.rules) + 1}
	r.rules = append(r.rules, wrapped)
	r.byID[rule.ID()] = wrapped
	return nil
}

func (r *Registry) index() {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.frozen = true
		r.byCategory = make(map[string][]Rule)
		for _, rule := range r.rules {
			for _, cat := range rule.Categories() {
				if _, ok := r.byCategory[cat]; !ok {
					r.categories = append(r.categories, cat)
				}
				if !slices.Contains(r.byCategory[cat], rule) {
					r.byCategory[cat] = append(r.byCategory[cat], rule)
				}
			}
		}
	})
}

// RulesForCategory returns the rules tagged with category in declaration
// order. An unknown category yields an empty slice.
func (r *Registry) RulesForCategory(category string) []Rule {
	r.index()
	return slices.Clone(r.byCategory[category])
}

// AllCategories returns every category in first-seen declaration order.
func (r *Registry) AllCategories() []string {
	r.index()
	return slices.Clone(r.categories)
}

// HasCategory reports whether any rule carries category.
func (r *Registry) HasCategory(category string) bool {
	r.index()
	_, ok := r.byCategory[category]
	return ok
}

// Get returns a rule by its ID.
func (r *Registry) Get(id string) (Rule, bool) {
	r.index()
	rule, ok := r.byID[id]
	return rule, ok
}

// All returns every rule in declaration order.
func (r *Registry) All() []Rule {
	r.index()
	return slices.Clone(r.rules)
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.index()
	return len(r.rules)
}

// Extend returns a new registry holding the receiver's rules followed by
// extra. The receiver is not modified.
func (r *Registry) Extend(extra ...Rule) (*Registry, error) {
	out := NewRegistry()
	for _, rule := range append(r.All(), extra...) {
		if err := out.Add(rule); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// =============================================================================
// Global registry
// =============================================================================

var (
	globalMu       sync.Mutex
	globalRegistry = NewRegistry()
)

// Register adds a rule definition to the global registry.
// Call this from init() functions in rule packages. It panics on an invalid
// or duplicate rule, since both are programming errors.
func Register(def RuleDef) {
	RegisterRule(WrapRuleDef(def))
}

// RegisterRule adds a Rule implementation to the global registry.
func RegisterRule(rule Rule) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if err := globalRegistry.Add(rule); err != nil {
		panic("qa: " + err.Error())
	}
}

// Default returns the global registry.
func Default() *Registry {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalRegistry
}

// Clear replaces the global registry with an empty one. Used for testing.
func Clear() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRegistry = NewRegistry()
}
