package qa

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// =============================================================================
// State
// =============================================================================

// State is the orchestrator lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateEvaluated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateEvaluated:
		return "evaluated"
	default:
		return "unknown"
	}
}

// Status tells whether a rule's result set could be computed.
type Status int

const (
	StatusAvailable Status = iota
	StatusUnavailable
)

func (s Status) String() string {
	if s == StatusUnavailable {
		return "unavailable"
	}
	return "available"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "available":
		*s = StatusAvailable
	case "unavailable":
		*s = StatusUnavailable
	default:
		return fmt.Errorf("invalid status %q", text)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of one rule's detector.
type Result struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Urgency    Urgency  `json:"urgency"`
	Status     Status   `json:"status"`
	Items      []Item   `json:"items"`
	Message    string   `json:"message"`
	Reason     string   `json:"reason,omitempty"`
	Fixable    bool     `json:"fixable"`
	Selectable bool     `json:"selectable"`

	// Stale is set when another rule's fix ran after this result was computed.
	Stale bool `json:"stale"`
}

// State returns UrgencyNone for a clean result and the rule urgency otherwise.
func (r *Result) State() Urgency {
	if r.Status != StatusAvailable || len(r.Items) == 0 {
		return UrgencyNone
	}
	return r.Urgency
}

// FixOutcome is the result of fixing one item.
type FixOutcome struct {
	RuleID  string `json:"rule_id"`
	Item    Item   `json:"item"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// FixSummary aggregates a bulk fix. Outcomes holds every attempt in item
// order; Failed repeats the unsuccessful ones.
type FixSummary struct {
	RuleID    string       `json:"rule_id"`
	Succeeded int          `json:"succeeded"`
	Failed    []FixOutcome `json:"failed"`
	Outcomes  []FixOutcome `json:"outcomes"`
}

// =============================================================================
// Orchestrator
// =============================================================================

// Options configures an Orchestrator. Nil fields fall back to defaults.
type Options struct {
	Registry      *Registry
	Catalog       *Catalog
	Config        *Config
	Logger        *slog.Logger
	SelectionOnly bool
}

// Orchestrator turns a collection selection into executed rules and exposes
// the results and fix surface to a presentation layer.
//
// It is not safe for concurrent use. Scene access is sequential.
type Orchestrator struct {
	scene         scene.Adapter
	registry      *Registry
	catalog       *Catalog
	config        *Config
	logger        *slog.Logger
	selectionOnly bool

	state      State
	collection string
	categories []string
	rules      []Rule
	byID       map[string]Rule
	results    map[string]*Result
}

// NewOrchestrator creates an orchestrator over adapter.
func NewOrchestrator(adapter scene.Adapter, opts *Options) *Orchestrator {
	if opts == nil {
		opts = &Options{}
	}
	o := &Orchestrator{
		scene:         adapter,
		registry:      opts.Registry,
		catalog:       opts.Catalog,
		config:        opts.Config,
		logger:        opts.Logger,
		selectionOnly: opts.SelectionOnly,
	}
	if o.registry == nil {
		o.registry = Default()
	}
	if o.catalog == nil {
		o.catalog = DefaultCatalog()
	}
	if o.config == nil {
		o.config = NewConfig()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Collection returns the loaded collection name, or "" for a direct category load.
func (o *Orchestrator) Collection() string { return o.collection }

// Categories returns the loaded, non-empty categories in order.
func (o *Orchestrator) Categories() []string { return slices.Clone(o.categories) }

// Rules returns the loaded rules in execution order.
func (o *Orchestrator) Rules() []Rule { return slices.Clone(o.rules) }

// RulesIn returns the loaded rules whose first loaded category is category.
// Each rule is grouped under one category only.
func (o *Orchestrator) RulesIn(category string) []Rule {
	var out []Rule
	for _, rule := range o.rules {
		if o.groupOf(rule) == category {
			out = append(out, rule)
		}
	}
	return out
}

func (o *Orchestrator) groupOf(rule Rule) string {
	for _, cat := range o.categories {
		if slices.Contains(rule.Categories(), cat) {
			return cat
		}
	}
	return ""
}

// SetSelectionOnly toggles whether rules only inspect the active selection.
// Cached results are dropped.
func (o *Orchestrator) SetSelectionOnly(on bool) {
	o.selectionOnly = on
	o.Reset()
}

// ListCollections returns the catalog's collection names in order.
func (o *Orchestrator) ListCollections() []string {
	return o.catalog.Names()
}

// LoadCollection resolves a collection into its rules. On error the previous
// state is left untouched.
func (o *Orchestrator) LoadCollection(name string) error {
	categories, err := o.catalog.Resolve(name)
	if err != nil {
		return err
	}
	o.load(categories)
	o.collection = name
	o.logger.Debug("collection loaded", "collection", name, "categories", o.categories, "rules", len(o.rules))
	return nil
}

// LoadCategories loads rules from categories directly. Every category must be
// known to the registry.
func (o *Orchestrator) LoadCategories(categories ...string) error {
	for _, cat := range categories {
		if !o.registry.HasCategory(cat) {
			return &UnknownCategoryError{Name: cat}
		}
	}
	o.load(categories)
	o.collection = ""
	o.logger.Debug("categories loaded", "categories", o.categories, "rules", len(o.rules))
	return nil
}

func (o *Orchestrator) load(categories []string) {
	var (
		cats  []string
		rules []Rule
		byID  = make(map[string]Rule)
	)
	for _, cat := range categories {
		if slices.Contains(cats, cat) {
			continue
		}
		enabled := 0
		for _, rule := range o.registry.RulesForCategory(cat) {
			if o.config.IsDisabled(rule.ID()) {
				continue
			}
			enabled++
			if _, ok := byID[rule.ID()]; ok {
				continue
			}
			byID[rule.ID()] = rule
			rules = append(rules, rule)
		}
		if enabled > 0 {
			cats = append(cats, cat)
		}
	}
	o.categories = cats
	o.rules = rules
	o.byID = byID
	o.results = nil
	o.state = StateLoaded
}

// RunAll runs every loaded rule and returns the results keyed by rule ID.
// A rule whose detector fails is reported unavailable; the batch continues.
func (o *Orchestrator) RunAll() (map[string]*Result, error) {
	if o.state == StateIdle {
		return nil, ErrNotLoaded
	}
	results := make(map[string]*Result, len(o.rules))
	for _, rule := range o.rules {
		results[rule.ID()] = o.detect(rule)
	}
	o.results = results
	o.state = StateEvaluated
	return o.resultMap(), nil
}

// Run re-runs a single loaded rule.
func (o *Orchestrator) Run(ruleID string) (*Result, error) {
	if o.state == StateIdle {
		return nil, ErrNotLoaded
	}
	rule, ok := o.byID[ruleID]
	if !ok {
		return nil, &UnknownRuleError{ID: ruleID}
	}
	if o.results == nil {
		o.results = make(map[string]*Result, len(o.rules))
	}
	res := o.detect(rule)
	o.results[ruleID] = res
	if len(o.results) == len(o.rules) {
		o.state = StateEvaluated
	}
	return res, nil
}

// Results returns the computed results in rule order.
func (o *Orchestrator) Results() []*Result {
	out := make([]*Result, 0, len(o.results))
	for _, rule := range o.rules {
		if res, ok := o.results[rule.ID()]; ok {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the computed result of one rule.
func (o *Orchestrator) Result(ruleID string) (*Result, bool) {
	res, ok := o.results[ruleID]
	return res, ok
}

func (o *Orchestrator) resultMap() map[string]*Result {
	out := make(map[string]*Result, len(o.results))
	for id, res := range o.results {
		out[id] = res
	}
	return out
}

// Fix resolves one item of a rule and refreshes that rule's results.
// A failed fix is reported in the outcome, not as an error; errors are
// reserved for misuse.
func (o *Orchestrator) Fix(ruleID string, item Item) (FixOutcome, error) {
	rule, err := o.fixable(ruleID)
	if err != nil {
		return FixOutcome{}, err
	}
	outcome := o.fixOne(rule, o.env(rule), item)
	o.refresh(rule)
	return outcome, nil
}

// FixAll resolves every current item of a rule inside one undo chunk.
// Per-item failures never stop the batch.
func (o *Orchestrator) FixAll(ruleID string) (FixSummary, error) {
	rule, err := o.fixable(ruleID)
	if err != nil {
		return FixSummary{}, err
	}
	summary := FixSummary{RuleID: ruleID, Failed: []FixOutcome{}, Outcomes: []FixOutcome{}}
	res, ok := o.results[ruleID]
	if ok && res.Stale {
		// Another rule's fix may have renamed or removed these items.
		res = o.detect(rule)
		o.results[ruleID] = res
	}
	if !ok || res.Status != StatusAvailable {
		return summary, nil
	}

	if u, ok := o.scene.(scene.Undoer); ok {
		u.OpenChunk("fix " + ruleID)
		defer u.CloseChunk()
	}
	env := o.env(rule)
	for _, item := range slices.Clone(res.Items) {
		outcome := o.fixOne(rule, env, item)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Success {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, outcome)
		}
	}
	o.refresh(rule)
	o.logger.Debug("fix all", "rule", ruleID, "succeeded", summary.Succeeded, "failed", len(summary.Failed))
	return summary, nil
}

// Reset drops every cached result and returns to the loaded state.
func (o *Orchestrator) Reset() {
	if o.state == StateIdle {
		return
	}
	o.results = nil
	o.state = StateLoaded
}

// Undo reverts the last undoable step and resets the results.
func (o *Orchestrator) Undo() error {
	u, ok := o.scene.(scene.Undoer)
	if !ok {
		return errors.New("scene does not support undo")
	}
	if err := u.Undo(); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	o.Reset()
	return nil
}

func (o *Orchestrator) fixable(ruleID string) (Rule, error) {
	switch o.state {
	case StateIdle:
		return nil, ErrNotLoaded
	case StateLoaded:
		return nil, ErrNotEvaluated
	}
	rule, ok := o.byID[ruleID]
	if !ok {
		return nil, &UnknownRuleError{ID: ruleID}
	}
	if !rule.Fixable() {
		return nil, fmt.Errorf("%s: %w", ruleID, ErrNotFixable)
	}
	return rule, nil
}

func (o *Orchestrator) env(rule Rule) *Env {
	return &Env{
		Scene:         o.scene,
		SelectionOnly: o.selectionOnly,
		Options:       o.config.GetRuleOptions(rule.ID()),
		Logger:        o.logger.With("rule", rule.ID()),
	}
}

func (o *Orchestrator) detect(rule Rule) (res *Result) {
	res = &Result{
		RuleID:     rule.ID(),
		Name:       rule.Name(),
		Categories: rule.Categories(),
		Urgency:    o.config.GetUrgency(rule.ID(), rule.Urgency()),
		Items:      []Item{},
		Fixable:    rule.Fixable(),
		Selectable: rule.Selectable(),
	}
	fail := func(reason string) {
		res.Status = StatusUnavailable
		res.Items = []Item{}
		res.Message = ""
		res.Reason = reason
		o.logger.Warn("rule unavailable", "rule", rule.ID(), "reason", reason)
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Sprintf("detector panicked: %v", r))
		}
	}()

	seen := make(map[Item]bool)
	for item, err := range rule.Detect(o.env(rule)) {
		if err != nil {
			fail(err.Error())
			return res
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		res.Items = append(res.Items, item)
	}
	if len(res.Items) > 0 {
		res.Message = FormatMessage(rule.Message(), len(res.Items))
	}
	o.logger.Debug("rule evaluated", "rule", rule.ID(), "items", len(res.Items))
	return res
}

func (o *Orchestrator) fixOne(rule Rule, env *Env, item Item) (outcome FixOutcome) {
	outcome = FixOutcome{RuleID: rule.ID(), Item: item}
	defer func() {
		if r := recover(); r != nil {
			err := &FixError{RuleID: rule.ID(), Item: item, Err: fmt.Errorf("panic: %v", r)}
			outcome.Success = false
			outcome.Reason = err.Err.Error()
			o.logger.Warn("fix failed", "rule", rule.ID(), "item", item, "error", err)
		}
	}()

	err := rule.Fix(env, item)
	switch {
	case err == nil:
		outcome.Success = true
	case errors.Is(err, scene.ErrNotFound) && !o.scene.Exists(item):
		outcome.Success = true
		outcome.Skipped = true
		outcome.Reason = "item no longer exists"
	default:
		var fe *FixError
		if !errors.As(err, &fe) {
			fe = &FixError{RuleID: rule.ID(), Item: item, Err: err}
		}
		outcome.Reason = fe.Err.Error()
		o.logger.Warn("fix failed", "rule", rule.ID(), "item", item, "error", fe)
	}
	return outcome
}

// refresh re-detects rule after a fix and marks every other result stale.
func (o *Orchestrator) refresh(rule Rule) {
	for id, res := range o.results {
		if id != rule.ID() {
			res.Stale = true
		}
	}
	o.results[rule.ID()] = o.detect(rule)
}
