package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/qa/checks/scenerules"
)

func TestBuiltinRules(t *testing.T) {
	reg := qa.Default()
	assert.Equal(t, 48, reg.Count())

	for _, r := range reg.All() {
		require.NotEmpty(t, r.Categories(), r.ID())
		assert.Contains(t, r.Message(), "{0}", r.ID())
	}
}

func TestDefaultCatalogResolves(t *testing.T) {
	reg := qa.Default()
	cat := qa.DefaultCatalog()

	for _, name := range cat.Names() {
		t.Run(name, func(t *testing.T) {
			cats, err := cat.Resolve(name)
			require.NoError(t, err)

			var withRules int
			for _, c := range cats {
				if reg.HasCategory(c) {
					withRules++
				}
			}
			assert.Positive(t, withRules)
		})
	}
}

func TestFixAllAcrossRules(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|EmptyGrp", type: transform}
`)
	o := qa.NewOrchestrator(g, &qa.Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, o.LoadCategories(scenerules.Category))
	_, err := o.RunAll()
	require.NoError(t, err)

	summary, err := o.FixAll("SC02")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.True(t, g.Exists("|empty_grp"))

	summary, err = o.FixAll("SC08")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, summary.Failed)
	assert.False(t, g.Exists("|empty_grp"))

	res, ok := o.Result("SC08")
	require.True(t, ok)
	assert.Empty(t, res.Items)
}
