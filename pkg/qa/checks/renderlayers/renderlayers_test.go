package renderlayers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/qa/qatest"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

const layerScene = `
nodes:
  - {name: defaultRenderLayer, type: renderLayer, attrs: {global: true}}
  - {name: layer1, type: renderLayer}
  - {name: blinn1SG, type: shadingEngine}
  - {name: initialShadingGroup, type: shadingEngine}
  - {name: "|a", type: transform}
  - {name: "|a|aShape", type: mesh}
  - {name: "|b", type: transform}
  - {name: "|b|bShape", type: mesh}
  - {name: "|c", type: transform}
  - {name: "|c|cShape", type: mesh}
connections:
  - {from: "|a|aShape.instObjGroups[0]", to: "layer1.outAdjustments[0].outPlug"}
  - {from: "layer1.outAdjustments[0].outValue", to: "blinn1SG.dagSetMembers[0]"}
  - {from: "|a|aShape.instObjGroups[0]", to: "layer1.outAdjustments[1].outPlug"}
  - {from: "layer1.outAdjustments[1].outValue", to: "blinn1SG.dagSetMembers[1]"}
  - {from: "|b|bShape.instObjGroups[0]", to: "layer1.outAdjustments[2].outPlug"}
  - {from: "|b|bShape.instObjGroups[0]", to: "blinn1SG.dagSetMembers[2]"}
  - {from: "|c|cShape.instObjGroups[0]", to: "layer1.outAdjustments[3].outPlug"}
  - {from: "|c|cShape.instObjGroups[0]", to: "defaultRenderLayer.outAdjustments[0].outPlug"}
`

func TestRulesAreValid(t *testing.T) {
	qatest.Valid(t, MissingAdjustments, DuplicateAdjustments)
	assert.Len(t, qa.Default().RulesForCategory(Category), 2)
}

func TestRL01_MissingAdjustments(t *testing.T) {
	g := testutil.NewScene(t, layerScene)
	env := qatest.Env(t, g, nil)

	assert.Equal(t, []qa.Item{
		"layer1.outAdjustments[2].outValue",
		"layer1.outAdjustments[3].outValue",
	}, qatest.Detect(t, MissingAdjustments, env))
	assert.Empty(t, qatest.FixAll(t, MissingAdjustments, env))

	b, err := g.Connections("layer1.outAdjustments[2].outValue", scene.ConnQuery{Destination: true, Plugs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"blinn1SG.dagSetMembers"}, b)

	c, err := g.Connections("layer1.outAdjustments[3].outValue", scene.ConnQuery{Destination: true, Plugs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"initialShadingGroup.dagSetMembers"}, c)
}

func TestRL02_DuplicateAdjustments(t *testing.T) {
	g := testutil.NewScene(t, layerScene)
	env := qatest.Env(t, g, nil)

	assert.Equal(t, []qa.Item{"layer1.outAdjustments[0].outPlug"}, qatest.Detect(t, DuplicateAdjustments, env))
	assert.Empty(t, qatest.FixAll(t, DuplicateAdjustments, env))

	value, err := g.Connections("layer1.outAdjustments[0].outValue", scene.ConnQuery{Destination: true})
	require.NoError(t, err)
	assert.Empty(t, value)

	kept, err := g.Connections("layer1.outAdjustments[1].outPlug", scene.ConnQuery{Source: true, Plugs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"|a|aShape.instObjGroups[0]"}, kept)
	assert.Len(t, qatest.Detect(t, MissingAdjustments, env), 2, "removed adjustment is not reported missing")
}

func TestShadingGroupFor(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|a", type: transform}
  - {name: "|a|aShape", type: mesh}
  - {name: lambert2SG, type: shadingEngine}
connections:
  - {from: "|a|aShape.instObjGroups[0]", to: "lambert2SG.dagSetMembers[0]"}
`)
	sg, err := shadingGroupFor(g, "|a|aShape.instObjGroups[0].objectGroups[1]")
	require.NoError(t, err)
	assert.Equal(t, "lambert2SG", sg)

	sg, err = shadingGroupFor(g, "|a|aShape.visibility")
	require.NoError(t, err)
	assert.Equal(t, DefaultShadingGroup, sg)
}
