package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleIDs(rules []Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID()
	}
	return ids
}

func TestRegistry_Ordering(t *testing.T) {
	r := newTestRegistry(t,
		staticRule("A", nil, "X"),
		staticRule("B", nil, "Y", "X"),
		staticRule("C", nil, "X"),
	)

	assert.Equal(t, []string{"A", "B", "C"}, ruleIDs(r.RulesForCategory("X")))
	assert.Equal(t, []string{"B"}, ruleIDs(r.RulesForCategory("Y")))
	assert.Equal(t, []string{"X", "Y"}, r.AllCategories())

	for i, rule := range r.All() {
		assert.Equal(t, i+1, rule.DeclarationOrder())
	}

	// Repeated queries see the same order.
	assert.Equal(t, ruleIDs(r.RulesForCategory("X")), ruleIDs(r.RulesForCategory("X")))
}

func TestRegistry_UnknownCategory(t *testing.T) {
	r := newTestRegistry(t, staticRule("A", nil, "X"))
	assert.Empty(t, r.RulesForCategory("Nope"))
	assert.False(t, r.HasCategory("Nope"))
	assert.True(t, r.HasCategory("X"))
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(WrapRuleDef(staticRule("A", nil, "X"))))
	err := r.Add(WrapRuleDef(staticRule("A", nil, "Y")))
	require.ErrorIs(t, err, ErrDuplicateRule)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_FrozenAfterFirstQuery(t *testing.T) {
	r := newTestRegistry(t, staticRule("A", nil, "X"))
	_ = r.AllCategories()

	err := r.Add(WrapRuleDef(staticRule("B", nil, "X")))
	require.ErrorIs(t, err, ErrRegistryFrozen)
	assert.Equal(t, []string{"A"}, ruleIDs(r.All()))
}

func TestRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  RuleDef
	}{
		{"missing id", RuleDef{Name: "n", Message: "m", Categories: []string{"X"}, Detect: staticRule("A", nil).Detect}},
		{"missing name", RuleDef{ID: "A", Message: "m", Categories: []string{"X"}, Detect: staticRule("A", nil).Detect}},
		{"missing message", RuleDef{ID: "A", Name: "n", Categories: []string{"X"}, Detect: staticRule("A", nil).Detect}},
		{"no category", RuleDef{ID: "A", Name: "n", Message: "m", Detect: staticRule("A", nil).Detect}},
		{"blank category", RuleDef{ID: "A", Name: "n", Message: "m", Categories: []string{" "}, Detect: staticRule("A", nil).Detect}},
		{"no detector", RuleDef{ID: "A", Name: "n", Message: "m", Categories: []string{"X"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Add(WrapRuleDef(tt.def))
			var invalid *InvalidRuleError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestRegistry_Extend(t *testing.T) {
	base := newTestRegistry(t, staticRule("A", nil, "X"), staticRule("B", nil, "X"))

	ext, err := base.Extend(WrapRuleDef(staticRule("S", nil, "Scripted")))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "S"}, ruleIDs(ext.All()))
	assert.Equal(t, 3, ext.All()[2].DeclarationOrder())
	assert.Equal(t, 2, base.Count())

	_, err = base.Extend(WrapRuleDef(staticRule("A", nil, "X")))
	require.ErrorIs(t, err, ErrDuplicateRule)
}

func TestGlobalRegistry(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(staticRule("G1", nil, "X"))
	Register(staticRule("G2", nil, "X"))
	assert.Panics(t, func() { Register(staticRule("G1", nil, "X")) })

	rule, ok := Default().Get("G2")
	require.True(t, ok)
	assert.Equal(t, 2, rule.DeclarationOrder())
}

func TestWrapRuleDef_Defaults(t *testing.T) {
	def := staticRule("A", nil, "X")
	def.Urgency = UrgencyNone
	rule := WrapRuleDef(def)

	assert.Equal(t, UrgencyError, rule.Urgency())
	assert.False(t, rule.Fixable())
	require.ErrorIs(t, rule.Fix(&Env{}, "x"), ErrNotFixable)
}
