package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/testutil"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/qa/qatest"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

const meshes = `
nodes:
  - {name: "|empty", type: transform}
  - {name: "|empty|emptyShape", type: mesh, mesh: {points: [], faces: []}}
  - {name: "|bare", type: transform}
  - {name: "|bare|bareShape", type: mesh}
  - {name: "|quad", type: transform}
  - name: "|quad|quadShape"
    type: mesh
    mesh:
      points: [[0, 0, 0], [1, 0, 0], [1, 0, 1], [0, 0, 1]]
      faces: [[0, 1, 2, 3]]
      frozen_normals: [1]
  - {name: "|fin", type: transform}
  - name: "|fin|finShape"
    type: mesh
    mesh:
      points: [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, -1, 0], [0, 0, 1]]
      faces: [[0, 1, 2], [1, 0, 3], [0, 1, 4]]
  - {name: "|degen", type: transform}
  - name: "|degen|degenShape"
    type: mesh
    mesh:
      points: [[0, 0, 0], [1, 0, 0], [1, 0, 0], [0, 0, 1]]
      faces: [[0, 1, 2, 3], [0, 1, 2]]
  - {name: "|double", type: transform}
  - name: "|double|doubleShape"
    type: mesh
    mesh:
      points: [[0, 0, 0], [1, 0, 0], [1, 0, 1], [0, 0, 1]]
      faces: [[0, 1, 2, 3], [3, 2, 1, 0]]
  - {name: "|ngon", type: transform}
  - name: "|ngon|ngonShape"
    type: mesh
    mesh:
      points: [[0, 0, 0], [2, 0, 0], [2, 0, 2], [1, 0, 3], [0, 0, 2]]
      faces: [[0, 1, 2, 3, 4]]
  - {name: "|ref", type: transform, referenced: true}
  - {name: "|ref|refShape", type: mesh, referenced: true, mesh: {points: [], faces: []}}
`

func TestRulesAreValid(t *testing.T) {
	qatest.Valid(t, EmptyMesh, NonManifoldEdges, ZeroEdgeLength, ZeroAreaFaces,
		OverlappingFaces, NGonFaces, LaminaFaces, LockedNormals)
	assert.Len(t, qa.Default().RulesForCategory(Category), 8)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		rule qa.RuleDef
		want []qa.Item
	}{
		{EmptyMesh, []qa.Item{"|empty|emptyShape"}},
		{NonManifoldEdges, []qa.Item{"|fin|finShape.e[0]"}},
		{ZeroEdgeLength, []qa.Item{"|degen|degenShape.e[1]"}},
		{ZeroAreaFaces, []qa.Item{"|degen|degenShape.f[1]"}},
		{OverlappingFaces, []qa.Item{"|double|doubleShape"}},
		{NGonFaces, []qa.Item{"|ngon|ngonShape"}},
		{LaminaFaces, []qa.Item{"|double|doubleShape.f[1]"}},
		{LockedNormals, []qa.Item{"|quad|quadShape"}},
	}
	for _, tt := range tests {
		t.Run(tt.rule.ID, func(t *testing.T) {
			env := qatest.Env(t, testutil.NewScene(t, meshes), nil)
			assert.Equal(t, tt.want, qatest.Detect(t, tt.rule, env))
			qatest.AssertRestartable(t, tt.rule, env)
		})
	}
}

func TestGE01_EmptyMeshFix(t *testing.T) {
	g := testutil.NewScene(t, meshes)
	env := qatest.Env(t, g, nil)

	assert.Empty(t, qatest.FixAll(t, EmptyMesh, env))
	assert.False(t, g.Exists("|empty|emptyShape"))
	assert.True(t, g.Exists("|empty"))
	assert.True(t, g.Exists("|ref|refShape"))
}

func TestGE05_OverlappingFacesFix(t *testing.T) {
	g := testutil.NewScene(t, meshes)
	env := qatest.Env(t, g, nil)

	assert.Empty(t, qatest.FixAll(t, OverlappingFaces, env))
	m, err := g.Mesh("|double|doubleShape")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, m.Faces)
	assert.Empty(t, qatest.Detect(t, LaminaFaces, env))
}

func TestGE06_NGonFacesFix(t *testing.T) {
	g := testutil.NewScene(t, meshes)
	env := qatest.Env(t, g, nil)

	assert.Empty(t, qatest.FixAll(t, NGonFaces, env))
	m, err := g.Mesh("|ngon|ngonShape")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, m.Faces)
}

func TestGE08_LockedNormalsFix(t *testing.T) {
	g := testutil.NewScene(t, meshes)
	env := qatest.Env(t, g, nil)

	assert.Empty(t, qatest.FixAll(t, LockedNormals, env))
	m, err := g.Mesh("|quad|quadShape")
	require.NoError(t, err)
	assert.Empty(t, m.FrozenNormals)
	assert.Len(t, m.Faces, 1)
}

func TestFixSkipsMeshWithoutTopology(t *testing.T) {
	g := testutil.NewScene(t, meshes)
	env := qatest.Env(t, g, nil)

	assert.NoError(t, LockedNormals.Fix(env, "|bare|bareShape"))
	assert.NoError(t, NGonFaces.Fix(env, "|gone|goneShape"))
}

func TestEdgeList(t *testing.T) {
	m := scene.MeshData{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		Faces:  [][]int{{0, 1, 2}, {0, 2, 3}},
	}
	edges, faces := edgeList(m)
	assert.Equal(t, []edge{{0, 1}, {1, 2}, {0, 2}, {2, 3}, {0, 3}}, edges)
	assert.Equal(t, []int{1, 1, 2, 1, 1}, faces)
}

func TestFaceArea(t *testing.T) {
	points := [][3]float64{{0, 0, 0}, {2, 0, 0}, {2, 0, 2}, {0, 0, 2}, {4, 0, 0}}
	assert.InDelta(t, 4, faceArea(points, []int{0, 1, 2, 3}), 1e-9)
	assert.InDelta(t, 2, faceArea(points, []int{0, 1, 2}), 1e-9)
	assert.InDelta(t, 0, faceArea(points, []int{0, 1, 4}), 1e-9)
}
