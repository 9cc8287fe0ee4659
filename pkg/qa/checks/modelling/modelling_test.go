package modelling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/qa/qatest"
)

func TestRulesAreValid(t *testing.T) {
	qatest.Valid(t, FreezeTransforms, History, Animation)
	assert.Len(t, qa.Default().RulesForCategory(Category), 3)
}

func TestMD01_FreezeTransforms(t *testing.T) {
	doc := `
nodes:
  - {name: "|persp", type: transform, attrs: {tx: 28, ty: 21, tz: 28}}
  - {name: "|moved", type: transform, attrs: {tx: 1.5, sx: 1}}
  - {name: "|scaled", type: transform, attrs: {tx: 0, sx: 2}}
  - {name: "|clean", type: transform, attrs: {tx: 0, ry: 0, sz: 1}}
  - {name: "|bare", type: transform}
  - {name: "|ref", type: transform, referenced: true, attrs: {tx: 3}}
  - {name: "|joint1", type: joint, attrs: {rz: 45}}
`
	tests := []struct {
		name string
		opts map[string]any
		want []qa.Item
	}{
		{"default ignore list", nil, []qa.Item{"|moved", "|scaled", "|joint1"}},
		{"custom ignore list", map[string]any{"ignore": []string{"|joint1"}}, []qa.Item{"|persp", "|moved", "|scaled"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewScene(t, doc)
			env := qatest.Env(t, g, tt.opts)
			assert.Equal(t, tt.want, qatest.Detect(t, FreezeTransforms, env))
			assert.Empty(t, qatest.FixAll(t, FreezeTransforms, env))
		})
	}
}

func TestMD01_LockedChannel(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|stuck", type: transform, attrs: {tx: 4}, locked_attrs: [tx]}
`)
	env := qatest.Env(t, g, nil)

	require.Equal(t, []qa.Item{"|stuck"}, qatest.Detect(t, FreezeTransforms, env))
	assert.Error(t, FreezeTransforms.Fix(env, "|stuck"))
}

func TestMD02_History(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|box", type: transform}
  - {name: "|box|boxShape", type: mesh, history: [polyCube1, groupId1]}
  - {name: "|rig", type: transform}
  - {name: "|rig|rigShape", type: mesh, history: [skinCluster1]}
  - {name: "|plain", type: transform}
  - {name: "|plain|plainShape", type: mesh, history: [tweak1, groupParts1]}
  - {name: polyCube1, type: polyCube}
  - {name: groupId1, type: groupId}
  - {name: skinCluster1, type: skinCluster}
  - {name: tweak1, type: tweak}
  - {name: groupParts1, type: groupParts}
`)
	env := qatest.Env(t, g, nil)

	assert.Equal(t, []qa.Item{"|box|boxShape", "|rig|rigShape"}, qatest.Detect(t, History, env))
	assert.Empty(t, qatest.FixAll(t, History, env))
	assert.False(t, g.Exists("polyCube1"))
	assert.False(t, g.Exists("skinCluster1"))
	assert.True(t, g.Exists("tweak1"))
}

func TestMD03_Animation(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: curve1, type: animCurveTL}
  - {name: sdk1, type: animCurveUA}
  - {name: refCurve, type: animCurveTU, referenced: true}
`)
	env := qatest.Env(t, g, nil)

	assert.Equal(t, []qa.Item{"curve1", "sdk1"}, qatest.Detect(t, Animation, env))
	assert.Empty(t, qatest.FixAll(t, Animation, env))
	assert.True(t, g.Exists("refCurve"))
}
