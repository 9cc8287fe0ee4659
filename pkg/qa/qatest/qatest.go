// Package qatest provides helpers for testing rules against an in-memory
// scene.
package qatest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// Env returns a rule environment over g.
func Env(t testing.TB, g scene.Adapter, opts map[string]any) *qa.Env {
	t.Helper()
	return &qa.Env{Scene: g, Options: opts, Logger: testutil.NewTestLogger(t)}
}

// Detect materializes a rule's findings and fails the test on a detector error.
func Detect(t testing.TB, def qa.RuleDef, env *qa.Env) []qa.Item {
	t.Helper()
	items := []qa.Item{}
	for item, err := range def.Detect(env) {
		require.NoError(t, err, "detect %s", def.ID)
		items = append(items, item)
	}
	return items
}

// FixAll fixes every finding of a rule and returns the findings left after a
// fresh detection. Each item is fixed twice to exercise idempotency.
func FixAll(t testing.TB, def qa.RuleDef, env *qa.Env) []qa.Item {
	t.Helper()
	require.NotNil(t, def.Fix, "%s has no fix", def.ID)
	for _, item := range Detect(t, def, env) {
		require.NoError(t, def.Fix(env, item), "fix %s on %s", def.ID, item)
		require.NoError(t, def.Fix(env, item), "second fix %s on %s", def.ID, item)
	}
	return Detect(t, def, env)
}

// AssertRestartable checks that two detections without a mutation in between
// agree.
func AssertRestartable(t testing.TB, def qa.RuleDef, env *qa.Env) {
	t.Helper()
	require.Equal(t, Detect(t, def, env), Detect(t, def, env), "%s is not restartable", def.ID)
}

// Valid asserts that def satisfies the rule invariants.
func Valid(t testing.TB, defs ...qa.RuleDef) {
	t.Helper()
	for _, def := range defs {
		require.NoError(t, def.Validate(), def.ID)
	}
}
