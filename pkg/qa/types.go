// Package qa implements the scene quality-assurance engine: the rule
// contract, the rule registry, the collection catalog and the orchestrator
// that runs rules and applies their fixes.
package qa

import (
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// Item identifies one finding inside the scene: a node name, a plug or a
// namespace, depending on the rule. It is only valid until the next mutation.
type Item = string

// =============================================================================
// Rule
// =============================================================================

// Rule is one quality-assurance check.
type Rule interface {
	ID() string
	Name() string
	Urgency() Urgency
	Message() string
	Categories() []string
	Selectable() bool
	Description() string
	ConfigKeys() []string

	// DeclarationOrder is the registration slot, starting at 1.
	// Unregistered rules report 0.
	DeclarationOrder() int

	// Detect returns a lazy sequence of findings. It must not mutate the
	// scene; a failed scene read is yielded as a *scene.QueryError.
	Detect(env *Env) iter.Seq2[Item, error]

	// Fixable reports whether Fix does anything.
	Fixable() bool

	// Fix resolves exactly one finding. Calling it on an already resolved
	// item is a no-op.
	Fix(env *Env, item Item) error
}

// DetectFunc produces findings for a rule.
type DetectFunc func(env *Env) iter.Seq2[Item, error]

// FixFunc resolves a single finding.
type FixFunc func(env *Env, item Item) error

// RuleDef defines a rule as data plus its two behaviors.
type RuleDef struct {
	ID          string
	Name        string
	Urgency     Urgency
	Message     string // template with a {0} count placeholder
	Categories  []string
	Selectable  bool
	Description string
	ConfigKeys  []string
	Detect      DetectFunc
	Fix         FixFunc // nil when the rule cannot fix its findings
}

// Validate checks the invariants every rule must hold.
func (d RuleDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("rule ID is required"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("rule name is required"))
	}
	if d.Message == "" {
		errs = append(errs, errors.New("rule message is required"))
	}
	if len(d.Categories) == 0 {
		errs = append(errs, errors.New("rule needs at least one category"))
	}
	for _, c := range d.Categories {
		if strings.TrimSpace(c) == "" {
			errs = append(errs, errors.New("rule category cannot be empty"))
			break
		}
	}
	if d.Detect == nil {
		errs = append(errs, errors.New("rule detector is required"))
	}
	if d.Urgency != UrgencyWarning && d.Urgency != UrgencyError {
		errs = append(errs, errors.New("rule urgency must be warning or error"))
	}
	if err := errors.Join(errs...); err != nil {
		return &InvalidRuleError{RuleID: d.ID, Err: err}
	}
	return nil
}

type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef adapts a RuleDef to the Rule interface.
// A zero Urgency defaults to UrgencyError.
func WrapRuleDef(def RuleDef) Rule {
	if def.Urgency == UrgencyNone {
		def.Urgency = UrgencyError
	}
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() string            { return w.def.ID }
func (w *wrappedRuleDef) Name() string          { return w.def.Name }
func (w *wrappedRuleDef) Urgency() Urgency      { return w.def.Urgency }
func (w *wrappedRuleDef) Message() string       { return w.def.Message }
func (w *wrappedRuleDef) Categories() []string  { return w.def.Categories }
func (w *wrappedRuleDef) Selectable() bool      { return w.def.Selectable }
func (w *wrappedRuleDef) Description() string   { return w.def.Description }
func (w *wrappedRuleDef) ConfigKeys() []string  { return w.def.ConfigKeys }
func (w *wrappedRuleDef) DeclarationOrder() int { return 0 }
func (w *wrappedRuleDef) Fixable() bool         { return w.def.Fix != nil }

func (w *wrappedRuleDef) Detect(env *Env) iter.Seq2[Item, error] {
	return w.def.Detect(env)
}

func (w *wrappedRuleDef) Fix(env *Env, item Item) error {
	if w.def.Fix == nil {
		return ErrNotFixable
	}
	return w.def.Fix(env, item)
}

// Definition returns the underlying RuleDef.
func (w *wrappedRuleDef) Definition() RuleDef {
	return w.def
}

// validate runs RuleDef validation for any Rule.
func validate(r Rule) error {
	if w, ok := r.(*wrappedRuleDef); ok {
		return w.def.Validate()
	}
	fix := FixFunc(nil)
	if r.Fixable() {
		fix = r.Fix
	}
	return RuleDef{
		ID:         r.ID(),
		Name:       r.Name(),
		Urgency:    r.Urgency(),
		Message:    r.Message(),
		Categories: r.Categories(),
		Detect:     r.Detect,
		Fix:        fix,
	}.Validate()
}

// =============================================================================
// Env
// =============================================================================

// Env is what a rule sees while detecting or fixing.
type Env struct {
	Scene         scene.Adapter
	SelectionOnly bool
	Options       map[string]any
	Logger        *slog.Logger
}

// List queries the scene, honoring selection-only mode.
func (e *Env) List(q scene.Query) ([]string, error) {
	if e.SelectionOnly {
		q.Selected = true
	}
	return e.Scene.List(q)
}

// ListUnreferenced lists nodes of the given types that are not owned by a
// referenced file.
func (e *Env) ListUnreferenced(types ...string) ([]string, error) {
	nodes, err := e.List(scene.Query{Types: types, Long: true})
	if err != nil {
		return nil, err
	}
	return scene.RemoveReferenced(e.Scene, nodes)
}

// Log returns the env logger, or a discard logger when none is set.
func (e *Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// FormatMessage substitutes the {0} placeholder of a message template.
func FormatMessage(template string, count int) string {
	return strings.ReplaceAll(template, "{0}", strconv.Itoa(count))
}

// Each turns a slice producer into a detector sequence. It covers the common
// case of a rule that collects candidates and filters them one by one.
// A nil keep yields every candidate.
func Each(list func() ([]string, error), keep func(Item) (bool, error)) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		items, err := list()
		if err != nil {
			yield("", err)
			return
		}
		for _, it := range items {
			if keep == nil {
				if !yield(it, nil) {
					return
				}
				continue
			}
			ok, err := keep(it)
			if err != nil {
				yield("", err)
				return
			}
			if ok && !yield(it, nil) {
				return
			}
		}
	}
}
