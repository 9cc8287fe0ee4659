package qa

import (
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func newTestOrchestrator(t *testing.T, g *scene.Graph, reg *Registry, cat *Catalog, cfg *Config) *Orchestrator {
	t.Helper()
	return NewOrchestrator(g, &Options{
		Registry: reg,
		Catalog:  cat,
		Config:   cfg,
		Logger:   testutil.NewTestLogger(t),
	})
}

func TestOrchestrator_LoadCollection(t *testing.T) {
	reg := newTestRegistry(t,
		staticRule("R1", nil, "A"),
		staticRule("R2", nil, "B", "A"),
		staticRule("R3", nil, "B"),
		staticRule("R4", nil, "C"),
	)
	cat := NewCatalog(Collection{Name: "suite", Categories: []string{"B", "Empty", "A", "B"}})
	o := newTestOrchestrator(t, scene.NewGraph(), reg, cat, nil)

	assert.Equal(t, StateIdle, o.State())
	require.NoError(t, o.LoadCollection("suite"))

	assert.Equal(t, StateLoaded, o.State())
	assert.Equal(t, "suite", o.Collection())
	assert.Equal(t, []string{"B", "A"}, o.Categories())
	assert.Equal(t, []string{"R2", "R3", "R1"}, ruleIDs(o.Rules()))
	assert.Equal(t, []string{"R2", "R3"}, ruleIDs(o.RulesIn("B")))
	assert.Equal(t, []string{"R1"}, ruleIDs(o.RulesIn("A")))
}

func TestOrchestrator_LoadSkipsDisabled(t *testing.T) {
	reg := newTestRegistry(t,
		staticRule("R1", nil, "A"),
		staticRule("R2", nil, "B"),
	)
	cat := NewCatalog(Collection{Name: "suite", Categories: []string{"A", "B"}})
	o := newTestOrchestrator(t, scene.NewGraph(), reg, cat, NewConfig().Disable("R2"))

	require.NoError(t, o.LoadCollection("suite"))
	assert.Equal(t, []string{"A"}, o.Categories())
	assert.Equal(t, []string{"R1"}, ruleIDs(o.Rules()))
}

func TestOrchestrator_UnknownCollectionKeepsState(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	cat := NewCatalog(Collection{Name: "suite", Categories: []string{"A"}})
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, cat, nil)

	require.NoError(t, o.LoadCollection("suite"))
	_, err := o.RunAll()
	require.NoError(t, err)

	err = o.LoadCollection("nonexistent")
	var unknown *UnknownCollectionError
	require.ErrorAs(t, err, &unknown)

	assert.Equal(t, StateEvaluated, o.State())
	assert.Equal(t, "suite", o.Collection())
	assert.Len(t, o.Results(), 1)
}

func TestOrchestrator_LoadCategories(t *testing.T) {
	reg := newTestRegistry(t, staticRule("R1", nil, "A"), staticRule("R2", nil, "B"))
	o := newTestOrchestrator(t, scene.NewGraph(), reg, nil, nil)

	require.NoError(t, o.LoadCategories("B"))
	assert.Equal(t, []string{"R2"}, ruleIDs(o.Rules()))
	assert.Empty(t, o.Collection())

	err := o.LoadCategories("B", "Missing")
	var unknown *UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Missing", unknown.Name)
	assert.Equal(t, []string{"R2"}, ruleIDs(o.Rules()))
}

func TestOrchestrator_Misuse(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"), staticRule("R2", nil, "A"))
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, nil)

	_, err := o.RunAll()
	require.ErrorIs(t, err, ErrNotLoaded)
	_, err = o.Fix("R1", "curve1")
	require.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, o.LoadCategories("A"))
	_, err = o.FixAll("R1")
	require.ErrorIs(t, err, ErrNotEvaluated)

	_, err = o.RunAll()
	require.NoError(t, err)

	_, err = o.Fix("nope", "x")
	var unknown *UnknownRuleError
	require.ErrorAs(t, err, &unknown)

	_, err = o.FixAll("R2")
	require.ErrorIs(t, err, ErrNotFixable)
}

func TestOrchestrator_RunAll(t *testing.T) {
	panicky := staticRule("P1", nil, "A")
	panicky.Detect = func(*Env) iter.Seq2[Item, error] {
		return func(func(Item, error) bool) { panic("boom") }
	}
	reg := newTestRegistry(t,
		curveRule("R1", "A"),
		brokenRule("B1", "A"),
		panicky,
		staticRule("S1", []Item{"x", "y", "x"}, "A"),
		staticRule("S2", nil, "A"),
	)
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))

	results, err := o.RunAll()
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, StateEvaluated, o.State())

	r1 := results["R1"]
	assert.Equal(t, StatusAvailable, r1.Status)
	assert.Equal(t, []Item{"curve1", "curve2", "curve3"}, r1.Items)
	assert.Equal(t, "3 curve(s) found", r1.Message)
	assert.Equal(t, UrgencyWarning, r1.State())

	b1 := results["B1"]
	assert.Equal(t, StatusUnavailable, b1.Status)
	assert.Empty(t, b1.Items)
	assert.Contains(t, b1.Reason, "scene is closed")
	assert.Equal(t, UrgencyNone, b1.State())

	p1 := results["P1"]
	assert.Equal(t, StatusUnavailable, p1.Status)
	assert.Contains(t, p1.Reason, "boom")

	assert.Equal(t, []Item{"x", "y"}, results["S1"].Items)

	s2 := results["S2"]
	assert.Equal(t, StatusAvailable, s2.Status)
	assert.Empty(t, s2.Items)
	assert.Empty(t, s2.Message)
	assert.Equal(t, UrgencyNone, s2.State())

	assert.Equal(t, []string{"R1", "B1", "P1", "S1", "S2"}, func() []string {
		var ids []string
		for _, r := range o.Results() {
			ids = append(ids, r.RuleID)
		}
		return ids
	}())
}

func TestOrchestrator_RunAllIsDeterministic(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))

	first, err := o.RunAll()
	require.NoError(t, err)
	second, err := o.RunAll()
	require.NoError(t, err)
	assert.Equal(t, first["R1"].Items, second["R1"].Items)
}

func TestOrchestrator_UrgencyOverride(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, NewConfig().SetUrgency("R1", UrgencyError))
	require.NoError(t, o.LoadCategories("A"))

	results, err := o.RunAll()
	require.NoError(t, err)
	assert.Equal(t, UrgencyError, results["R1"].State())
}

func TestOrchestrator_Fix(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"), staticRule("S1", []Item{"x"}, "A"))
	g := newCurveScene(t, false)
	o := newTestOrchestrator(t, g, reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))
	_, err := o.RunAll()
	require.NoError(t, err)

	outcome, err := o.Fix("R1", "curve2")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.Skipped)

	res, ok := o.Result("R1")
	require.True(t, ok)
	assert.Equal(t, []Item{"curve1", "curve3"}, res.Items)
	assert.False(t, res.Stale)

	other, _ := o.Result("S1")
	assert.True(t, other.Stale)

	// Fixing an item that no longer exists is a graceful skip.
	outcome, err = o.Fix("R1", "curve2")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Skipped)
}

func TestOrchestrator_FixAllPartialFailure(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	g := newCurveScene(t, true)
	o := newTestOrchestrator(t, g, reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))

	results, err := o.RunAll()
	require.NoError(t, err)
	require.Len(t, results["R1"].Items, 4)

	summary, err := o.FixAll("R1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "lockedCurve", summary.Failed[0].Item)
	assert.Contains(t, summary.Failed[0].Reason, "locked")

	res, _ := o.Result("R1")
	assert.Equal(t, []Item{"lockedCurve"}, res.Items)
	assert.True(t, g.Exists("refCurve"))
}

func TestOrchestrator_UndoAfterFixAll(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	g := newCurveScene(t, false)
	o := newTestOrchestrator(t, g, reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))
	_, err := o.RunAll()
	require.NoError(t, err)

	summary, err := o.FixAll("R1")
	require.NoError(t, err)
	require.Equal(t, 3, summary.Succeeded)
	assert.False(t, g.Exists("curve1"))

	require.NoError(t, o.Undo())
	assert.Equal(t, StateLoaded, o.State())
	assert.Empty(t, o.Results())
	for _, c := range []string{"curve1", "curve2", "curve3"} {
		assert.True(t, g.Exists(c), c)
	}
}

func TestOrchestrator_Reset(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, nil)

	o.Reset()
	assert.Equal(t, StateIdle, o.State())

	require.NoError(t, o.LoadCategories("A"))
	_, err := o.RunAll()
	require.NoError(t, err)

	o.Reset()
	assert.Equal(t, StateLoaded, o.State())
	assert.Empty(t, o.Results())
	assert.Len(t, o.Rules(), 1)
}

func TestOrchestrator_SelectionOnly(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"))
	g := newCurveScene(t, false)
	g.Select("curve3")
	o := NewOrchestrator(g, &Options{Registry: reg, SelectionOnly: true})
	require.NoError(t, o.LoadCategories("A"))

	results, err := o.RunAll()
	require.NoError(t, err)
	assert.Equal(t, []Item{"curve3"}, results["R1"].Items)

	o.SetSelectionOnly(false)
	results, err = o.RunAll()
	require.NoError(t, err)
	assert.Len(t, results["R1"].Items, 3)
}

func TestOrchestrator_RunSingle(t *testing.T) {
	reg := newTestRegistry(t, curveRule("R1", "A"), staticRule("S1", []Item{"x"}, "A"))
	o := newTestOrchestrator(t, newCurveScene(t, false), reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))

	res, err := o.Run("S1")
	require.NoError(t, err)
	assert.Equal(t, []Item{"x"}, res.Items)
	assert.Equal(t, StateLoaded, o.State())

	_, err = o.Run("R1")
	require.NoError(t, err)
	assert.Equal(t, StateEvaluated, o.State())
}

func TestOrchestrator_FixMissingDependencyFails(t *testing.T) {
	def := curveRule("R1", "A")
	def.Fix = func(env *Env, item Item) error {
		_, err := env.Scene.GetAttr("ghost.weight")
		return err
	}
	reg := newTestRegistry(t, def)
	g := newCurveScene(t, false)
	o := newTestOrchestrator(t, g, reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))
	_, err := o.RunAll()
	require.NoError(t, err)

	outcome, err := o.Fix("R1", "curve1")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.False(t, outcome.Skipped)
	assert.Contains(t, outcome.Reason, "ghost")

	summary, err := o.FixAll("R1")
	require.NoError(t, err)
	assert.Zero(t, summary.Succeeded)
	assert.Len(t, summary.Failed, 3)

	res, _ := o.Result("R1")
	assert.Equal(t, []Item{"curve1", "curve2", "curve3"}, res.Items)
}

func TestOrchestrator_FixAllRedetectsStaleResult(t *testing.T) {
	rename := RuleDef{
		ID:         "N1",
		Name:       "Lower case",
		Urgency:    UrgencyWarning,
		Message:    "{0} upper case node(s)",
		Categories: []string{"A"},
		Detect: func(env *Env) iter.Seq2[Item, error] {
			return Each(env.Unreferenced("transform"), func(n Item) (bool, error) {
				return n != strings.ToLower(n), nil
			})
		},
		Fix: func(env *Env, item Item) error {
			_, err := env.Scene.Rename(item, strings.ToLower(scene.BaseName(item)))
			return err
		},
	}
	remove := RuleDef{
		ID:         "D1",
		Name:       "Transforms",
		Urgency:    UrgencyError,
		Message:    "{0} transform(s)",
		Categories: []string{"A"},
		Detect: func(env *Env) iter.Seq2[Item, error] {
			return Each(env.Unreferenced("transform"), nil)
		},
		Fix: DeleteNode,
	}
	reg := newTestRegistry(t, rename, remove)
	g := scene.NewGraph()
	testutil.MustAdd(t, g, scene.Node{Name: "|EmptyGrp", Type: "transform"})
	o := newTestOrchestrator(t, g, reg, nil, nil)
	require.NoError(t, o.LoadCategories("A"))
	_, err := o.RunAll()
	require.NoError(t, err)

	summary, err := o.FixAll("N1")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.True(t, g.Exists("|emptygrp"))

	stale, _ := o.Result("D1")
	require.True(t, stale.Stale)

	summary, err = o.FixAll("D1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, summary.Failed)
	assert.False(t, g.Exists("|emptygrp"))

	res, _ := o.Result("D1")
	assert.Empty(t, res.Items)
	assert.False(t, res.Stale)
}
