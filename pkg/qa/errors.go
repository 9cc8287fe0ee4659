package qa

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the registry and orchestrator.
var (
	ErrDuplicateRule  = errors.New("rule already registered")
	ErrRegistryFrozen = errors.New("registry is frozen after first use")
	ErrNotFixable     = errors.New("rule has no fix")
	ErrNotLoaded      = errors.New("no collection loaded")
	ErrNotEvaluated   = errors.New("rules have not been run")
)

// InvalidRuleError reports a rule definition that breaks the rule invariants.
type InvalidRuleError struct {
	RuleID string
	Err    error
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: %v", e.RuleID, e.Err)
}

func (e *InvalidRuleError) Unwrap() error {
	return e.Err
}

// UnknownCollectionError is returned when a collection name is not in the catalog.
type UnknownCollectionError struct {
	Name      string
	Available []string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q (available: %v)", e.Name, e.Available)
}

// UnknownCategoryError is returned when a category is not used by any rule.
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Name)
}

// UnknownRuleError is returned when a rule ID is not part of the loaded set.
type UnknownRuleError struct {
	ID string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule %q", e.ID)
}

// FixError reports a remediation that failed for one item.
type FixError struct {
	RuleID string
	Item   Item
	Err    error
}

func (e *FixError) Error() string {
	return fmt.Sprintf("fix %s on %q: %v", e.RuleID, e.Item, e.Err)
}

func (e *FixError) Unwrap() error {
	return e.Err
}
