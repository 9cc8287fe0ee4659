package shading

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/qa/qatest"
)

func TestRulesAreValid(t *testing.T) {
	qatest.Valid(t, NoShadingGroup, InitialShadingGroup, FaceAssignment, NonExistingTextures)
	qatest.Valid(t, RenderStats...)

	reg := qa.Default()
	assert.Len(t, reg.RulesForCategory(CategoryShaders), 3)
	assert.Len(t, reg.RulesForCategory(CategoryTextures), 1)
	assert.Len(t, reg.RulesForCategory(CategoryRenderStats), 8)
}

func TestSH01_NoShadingGroup(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|bare", type: transform}
  - {name: "|bare|bareShape", type: mesh}
  - {name: "|shaded", type: transform}
  - {name: "|shaded|shadedShape", type: mesh}
  - {name: "|faces", type: transform}
  - {name: "|faces|facesShape", type: mesh}
  - {name: "|faces|facesOrig", type: mesh, intermediate: true}
  - {name: "|ref", type: transform, referenced: true}
  - {name: "|ref|refShape", type: mesh, referenced: true}
  - {name: lambert2SG, type: shadingEngine, members: ["|faces.f[0:5]"]}
connections:
  - {from: "|shaded|shadedShape.instObjGroups[0]", to: "lambert2SG.dagSetMembers[0]"}
`)
	env := qatest.Env(t, g, nil)

	assert.Equal(t, []qa.Item{"|bare|bareShape"}, qatest.Detect(t, NoShadingGroup, env))
	qatest.AssertRestartable(t, NoShadingGroup, env)
}

func TestSH02_InitialShadingGroup(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		g := testutil.NewScene(t, `nodes: []`)
		assert.Empty(t, qatest.Detect(t, InitialShadingGroup, qatest.Env(t, g, nil)))
	})

	t.Run("members", func(t *testing.T) {
		g := testutil.NewScene(t, `
nodes:
  - {name: "|a", type: transform}
  - {name: "|a|aShape", type: mesh}
  - {name: "|b", type: transform}
  - {name: "|b|bShape", type: mesh}
  - {name: initialShadingGroup, type: shadingEngine, members: ["|a|aShape", "|b|bShape"]}
`)
		assert.Equal(t, []qa.Item{"|a|aShape", "|b|bShape"},
			qatest.Detect(t, InitialShadingGroup, qatest.Env(t, g, nil)))
	})
}

func TestSH03_FaceAssignment(t *testing.T) {
	doc := `
nodes:
  - {name: "|box", type: transform}
  - {name: "|box|boxShape", type: mesh, attrs: {faceCount: 6}}
  - {name: "|ball", type: transform}
  - {name: "|ball|ballShape", type: mesh, attrs: {faceCount: 4}}
  - {name: fullSG, type: shadingEngine, members: ["|box.f[0:3]", "|box|boxShape.f[4]", "|box.f[5]", "|other"]}
  - {name: partSG, type: shadingEngine, members: ["|ball.f[0:1]"]}
  - {name: cleanSG, type: shadingEngine, members: ["|ball|ballShape"]}
`
	t.Run("complete faces collapse onto the shape", func(t *testing.T) {
		g := testutil.NewScene(t, doc)
		env := qatest.Env(t, g, nil)

		assert.Equal(t, []qa.Item{"fullSG", "partSG"}, qatest.Detect(t, FaceAssignment, env))

		require.NoError(t, FaceAssignment.Fix(env, "fullSG"))
		require.NoError(t, FaceAssignment.Fix(env, "fullSG"))
		members, err := g.Members("fullSG")
		require.NoError(t, err)
		assert.Equal(t, []string{"|other", "|box|boxShape"}, members)
	})

	t.Run("partial faces are refused", func(t *testing.T) {
		g := testutil.NewScene(t, doc)
		env := qatest.Env(t, g, nil)

		err := FaceAssignment.Fix(env, "partSG")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteFaces))

		members, err := g.Members("partSG")
		require.NoError(t, err)
		assert.Equal(t, []string{"|ball.f[0:1]"}, members)
	})

	t.Run("ranges past the face count are refused", func(t *testing.T) {
		g := testutil.NewScene(t, `
nodes:
  - {name: "|box", type: transform}
  - {name: "|box|boxShape", type: mesh, attrs: {faceCount: 6}}
  - {name: hugeSG, type: shadingEngine, members: ["|box.f[0:2000000000]"]}
`)
		err := FaceAssignment.Fix(qatest.Env(t, g, nil), "hugeSG")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds 6 faces")
	})

	t.Run("missing face count is a failure, not a skip", func(t *testing.T) {
		g := testutil.NewScene(t, `
nodes:
  - {name: "|pCube1", type: transform}
  - {name: "|pCube1|pCubeShape1", type: mesh}
  - {name: lambert2SG, type: shadingEngine, members: ["|pCube1.f[0:5]"]}
`)
		reg := qa.NewRegistry()
		require.NoError(t, reg.Add(qa.WrapRuleDef(FaceAssignment)))
		o := qa.NewOrchestrator(g, &qa.Options{Registry: reg, Logger: testutil.NewTestLogger(t)})
		require.NoError(t, o.LoadCategories(CategoryShaders))
		_, err := o.RunAll()
		require.NoError(t, err)

		summary, err := o.FixAll("SH03")
		require.NoError(t, err)
		assert.Zero(t, summary.Succeeded)
		require.Len(t, summary.Failed, 1)
		assert.Equal(t, "lambert2SG", summary.Failed[0].Item)

		res, _ := o.Result("SH03")
		assert.Equal(t, []qa.Item{"lambert2SG"}, res.Items)
	})
}

func TestFaceIndices(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "f[3]", want: []int{3}},
		{in: "f[0:2]", want: []int{0, 1, 2}},
		{in: "vtx[0]", wantErr: true},
		{in: "f[2:1]", wantErr: true},
		{in: "f[a]", wantErr: true},
		{in: "f[-1]", wantErr: true},
		{in: "f[6]", wantErr: true},
		{in: "f[0:2000000000]", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := faceIndices(tt.in, 6)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTX01_NonExistingTextures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wood.png"), []byte("png"), 0o600))
	abs := filepath.Join(dir, "wood.png")

	g := testutil.NewScene(t, `
nodes:
  - {name: present, type: file, attrs: {fileTextureName: "`+abs+`"}}
  - {name: relative, type: file, attrs: {fileTextureName: wood.png}}
  - {name: missing, type: file, attrs: {fileTextureName: gone.png}}
  - {name: empty, type: file, attrs: {fileTextureName: ""}}
  - {name: disabled, type: file, attrs: {fileTextureName: gone.png, disableFileLoad: true}}
`)
	env := qatest.Env(t, g, map[string]any{"root": dir})

	assert.Equal(t, []qa.Item{"missing", "empty"}, qatest.Detect(t, NonExistingTextures, env))
	assert.Empty(t, qatest.FixAll(t, NonExistingTextures, env))

	v, err := g.GetAttr("missing.disableFileLoad")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestRenderStats(t *testing.T) {
	g := testutil.NewScene(t, `
nodes:
  - {name: "|ok", type: transform}
  - {name: "|bad", type: transform}
  - {name: "|bare", type: transform}
  - {name: "|ok|okShape", type: mesh, attrs: {primaryVisibility: 1, castsShadows: true, opposite: false}}
  - {name: "|bad|badShape", type: mesh, attrs: {primaryVisibility: 0, castsShadows: false, opposite: true}}
  - {name: "|bare|bareShape", type: mesh}
`)
	env := qatest.Env(t, g, nil)

	byID := make(map[string]qa.RuleDef)
	for _, def := range RenderStats {
		byID[def.ID] = def
	}

	for _, id := range []string{"RS01", "RS04", "RS08"} {
		t.Run(id, func(t *testing.T) {
			def := byID[id]
			assert.Equal(t, []qa.Item{"|bad|badShape"}, qatest.Detect(t, def, env))
			assert.Empty(t, qatest.FixAll(t, def, env))
		})
	}

	v, err := g.GetAttr("|bad|badShape.opposite")
	require.NoError(t, err)
	assert.Equal(t, false, v)
	assert.Empty(t, qatest.Detect(t, byID["RS07"], env))
}
