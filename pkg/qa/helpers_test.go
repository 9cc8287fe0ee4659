package qa

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// curveRule flags every unreferenced animation curve and deletes it on fix.
func curveRule(id string, categories ...string) RuleDef {
	return RuleDef{
		ID:         id,
		Name:       "Curves " + id,
		Urgency:    UrgencyWarning,
		Message:    "{0} curve(s) found",
		Categories: categories,
		Selectable: true,
		Detect: func(env *Env) iter.Seq2[Item, error] {
			return Each(func() ([]string, error) { return env.ListUnreferenced("animCurve") }, nil)
		},
		Fix: func(env *Env, item Item) error {
			return env.Scene.Delete(item)
		},
	}
}

// staticRule yields a fixed list of items and cannot fix them.
func staticRule(id string, items []Item, categories ...string) RuleDef {
	return RuleDef{
		ID:         id,
		Name:       "Static " + id,
		Urgency:    UrgencyError,
		Message:    "{0} static item(s)",
		Categories: categories,
		Detect: func(*Env) iter.Seq2[Item, error] {
			return func(yield func(Item, error) bool) {
				for _, it := range items {
					if !yield(it, nil) {
						return
					}
				}
			}
		},
	}
}

// brokenRule fails its scene read after yielding one item.
func brokenRule(id string, categories ...string) RuleDef {
	return RuleDef{
		ID:         id,
		Name:       "Broken " + id,
		Urgency:    UrgencyError,
		Message:    "{0} broken",
		Categories: categories,
		Detect: func(*Env) iter.Seq2[Item, error] {
			return func(yield func(Item, error) bool) {
				if !yield("first", nil) {
					return
				}
				yield("", &scene.QueryError{Op: "ls", Err: scene.ErrClosed})
			}
		},
	}
}

func newTestRegistry(t *testing.T, defs ...RuleDef) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, d := range defs {
		require.NoError(t, r.Add(WrapRuleDef(d)))
	}
	return r
}

// newCurveScene holds three local curves, one locked local curve when locked
// is set, and one referenced curve.
func newCurveScene(t *testing.T, locked bool) *scene.Graph {
	t.Helper()
	g := scene.NewGraph()
	testutil.MustAdd(t, g,
		scene.Node{Name: "curve1", Type: "animCurveTL"},
		scene.Node{Name: "curve2", Type: "animCurveTA"},
		scene.Node{Name: "curve3", Type: "animCurveTU"},
		scene.Node{Name: "refCurve", Type: "animCurveTL", Referenced: true},
		scene.Node{Name: "|pCube1", Type: "transform"},
	)
	if locked {
		testutil.MustAdd(t, g, scene.Node{Name: "lockedCurve", Type: "animCurveTL", Locked: true})
	}
	return g
}
