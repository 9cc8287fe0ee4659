package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	nodes := []Node{
		{Name: "|grp", Type: "transform"},
		{Name: "|grp|pCube1", Type: "transform", Attrs: map[string]any{"tx": 1.5, "sx": 2}},
		{Name: "|grp|pCube1|pCubeShape1", Type: "mesh"},
		{Name: "|grp|pCube1|pCubeShapeOrig", Type: "mesh", Intermediate: true},
		{Name: "|locked", Type: "transform", Locked: true},
		{Name: "animCurveTL1", Type: "animCurveTL", Keys: []Key{{Time: 1, Value: 0}, {Time: 10, Value: 5}}},
		{Name: "refCurve", Type: "animCurveTA", Referenced: true},
		{Name: "blinn1SG", Type: "shadingEngine", Members: []string{"|grp|pCube1|pCubeShape1"}},
	}
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.Connect("animCurveTL1.output", "|grp|pCube1.tx"))
	require.NoError(t, g.Connect("|grp|pCube1|pCubeShape1.instObjGroups[0]", "blinn1SG.dagSetMembers[0]"))
	return g
}

func TestGraph_List(t *testing.T) {
	g := newTestGraph(t)

	t.Run("type inheritance", func(t *testing.T) {
		curves, err := g.List(Query{Types: []string{"animCurve"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"animCurveTL1", "refCurve"}, curves)
	})

	t.Run("no intermediate", func(t *testing.T) {
		meshes, err := g.List(Query{Types: []string{"mesh"}, NoIntermediate: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"|grp|pCube1|pCubeShape1"}, meshes)
	})

	t.Run("intermediate only", func(t *testing.T) {
		shapes, err := g.List(Query{IntermediateOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"|grp|pCube1|pCubeShapeOrig"}, shapes)
	})

	t.Run("selection", func(t *testing.T) {
		g.Select("|grp")
		sel, err := g.List(Query{Types: []string{"transform"}, Selected: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"|grp"}, sel)
	})
}

func TestGraph_Connections(t *testing.T) {
	g := newTestGraph(t)

	out, err := g.Connections("animCurveTL1.output", ConnQuery{Destination: true, Plugs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"|grp|pCube1.tx"}, out)

	in, err := g.Connections("|grp|pCube1", ConnQuery{Source: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"animCurveTL1"}, in)

	sg, err := g.Connections("|grp|pCube1|pCubeShape1", ConnQuery{Type: "shadingEngine"})
	require.NoError(t, err)
	assert.Equal(t, []string{"blinn1SG"}, sg)

	none, err := g.Connections("refCurve.output", ConnQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)

	pairs, err := g.Connections("animCurveTL1", ConnQuery{Destination: true, Connected: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"animCurveTL1.output", "|grp|pCube1.tx"}, pairs)
}

func TestGraph_Delete(t *testing.T) {
	t.Run("removes descendants and references", func(t *testing.T) {
		g := newTestGraph(t)
		require.NoError(t, g.Delete("|grp|pCube1"))

		assert.False(t, g.Exists("|grp|pCube1"))
		assert.False(t, g.Exists("|grp|pCube1|pCubeShape1"))
		assert.Empty(t, g.AllConnections())

		members, err := g.Members("blinn1SG")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("guards", func(t *testing.T) {
		g := newTestGraph(t)
		assert.ErrorIs(t, g.Delete("|locked"), ErrLocked)
		assert.ErrorIs(t, g.Delete("refCurve"), ErrReferenced)
		assert.ErrorIs(t, g.Delete("nope"), ErrNotFound)

		var me *MutationError
		assert.True(t, errors.As(g.Delete("nope"), &me))
		assert.Equal(t, "delete", me.Op)
	})
}

func TestGraph_Rename(t *testing.T) {
	g := newTestGraph(t)

	got, err := g.Rename("|grp|pCube1", "box")
	require.NoError(t, err)
	assert.Equal(t, "|grp|box", got)
	assert.True(t, g.Exists("|grp|box|pCubeShape1"))

	out, err := g.Connections("animCurveTL1.output", ConnQuery{Destination: true, Plugs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"|grp|box.tx"}, out)

	members, err := g.Members("blinn1SG")
	require.NoError(t, err)
	assert.Equal(t, []string{"|grp|box|pCubeShape1"}, members)

	dg, err := g.Rename("animCurveTL1", "box_translateX")
	require.NoError(t, err)
	assert.Equal(t, "box_translateX", dg)

	_, err = g.Rename("|grp", "locked")
	assert.ErrorIs(t, err, ErrExists)
}

func TestGraph_Attributes(t *testing.T) {
	g := newTestGraph(t)

	v, err := g.GetAttr("|grp|pCube1.tx")
	require.NoError(t, err)
	f, ok := AsFloat(v)
	require.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	require.NoError(t, g.SetAttrLocked("|grp|pCube1.tx", true))
	assert.ErrorIs(t, g.SetAttr("|grp|pCube1.tx", 0), ErrLocked)
	assert.ErrorIs(t, g.FreezeTransform("|grp|pCube1"), ErrLocked)

	require.NoError(t, g.SetAttrLocked("|grp|pCube1.tx", false))
	require.NoError(t, g.FreezeTransform("|grp|pCube1"))
	sx, err := g.GetAttr("|grp|pCube1.sx")
	require.NoError(t, err)
	assert.Equal(t, float64(1), sx)

	_, err = g.GetAttr("|grp|pCube1.missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraph_Namespaces(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(Node{Name: "|char:root", Type: "transform"}))
	g.AddNamespace("char")
	g.AddNamespace("empty:nested")

	ns, err := g.Namespaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"char", "empty", "empty:nested"}, ns)

	members, err := g.NamespaceMembers("char")
	require.NoError(t, err)
	assert.Equal(t, []string{"|char:root"}, members)

	assert.ErrorIs(t, g.RemoveNamespace("char"), ErrNotEmpty)
	assert.ErrorIs(t, g.RemoveNamespace("empty"), ErrNotEmpty)
	require.NoError(t, g.RemoveNamespace("empty:nested"))
	require.NoError(t, g.RemoveNamespace("empty"))
}

func TestGraph_DeleteHistory(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(Node{Name: "polyCube1", Type: "polyCube"}))
	require.NoError(t, g.AddNode(Node{Name: "skinCluster1", Type: "skinCluster"}))
	require.NoError(t, g.AddNode(Node{Name: "|body", Type: "transform"}))
	require.NoError(t, g.AddNode(Node{
		Name:    "|body|bodyShape",
		Type:    "mesh",
		History: []string{"skinCluster1", "polyCube1"},
	}))

	require.NoError(t, g.DeleteHistory("|body|bodyShape", true))
	h, err := g.History("|body|bodyShape")
	require.NoError(t, err)
	assert.Equal(t, []string{"skinCluster1"}, h)
	assert.False(t, g.Exists("polyCube1"))

	require.NoError(t, g.DeleteHistory("|body|bodyShape", false))
	h, err = g.History("|body|bodyShape")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestGraph_Undo(t *testing.T) {
	g := newTestGraph(t)

	g.OpenChunk("fix")
	g.OpenChunk("nested")
	require.NoError(t, g.Delete("animCurveTL1"))
	g.CloseChunk()
	_, err := g.Rename("|grp", "root")
	require.NoError(t, err)
	g.CloseChunk()

	require.NoError(t, g.Undo())
	assert.True(t, g.Exists("animCurveTL1"))
	assert.True(t, g.Exists("|grp|pCube1"))
	assert.False(t, g.Exists("|root"))

	assert.Error(t, g.Undo())
}

func TestGraph_Closed(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.Close())

	_, err := g.List(Query{})
	assert.True(t, IsQueryError(err))
	assert.ErrorIs(t, err, ErrClosed)

	err = g.Delete("animCurveTL1")
	var me *MutationError
	assert.True(t, errors.As(err, &me))
	assert.False(t, g.Exists("animCurveTL1"))
}

func newMeshGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddNode(Node{Name: "|plane", Type: "transform"}))
	require.NoError(t, g.AddNode(Node{Name: "|plane|planeShape", Type: "mesh", Mesh: &MeshData{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		Faces:  [][]int{{0, 1, 2, 3}},
		UVSets: []UVSet{{Index: 0, Name: "map1", UVCount: 4}, {Index: 1, Name: "extra"}, {Index: 2, Name: "layout", UVCount: 4}},
	}}))
	require.NoError(t, g.AddNode(Node{Name: "uvChooser1", Type: "uvChooser"}))
	require.NoError(t, g.Connect(UVSetPlug("|plane|planeShape", 1), "uvChooser1.uvSets[0]"))
	return g
}

func TestGraph_Mesh(t *testing.T) {
	g := newMeshGraph(t)

	m, err := g.Mesh("|plane|planeShape")
	require.NoError(t, err)
	assert.Len(t, m.Points, 4)
	m.Faces[0][0] = 3
	again, err := g.Mesh("|plane|planeShape")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Faces[0][0], "Mesh returns a copy")

	_, err = g.Mesh("|plane")
	assert.ErrorIs(t, err, ErrNotFound)

	m.Faces = [][]int{{0, 1, 2}, {0, 2, 3}}
	require.NoError(t, g.SetMesh("|plane|planeShape", m))
	got, err := g.Mesh("|plane|planeShape")
	require.NoError(t, err)
	assert.Len(t, got.Faces, 2)

	m.Faces = [][]int{{0, 1, 9}}
	assert.Error(t, g.SetMesh("|plane|planeShape", m))
}

func TestGraph_DeleteUVSet(t *testing.T) {
	g := newMeshGraph(t)

	require.NoError(t, g.DeleteUVSet("|plane|planeShape", "extra"))
	m, err := g.Mesh("|plane|planeShape")
	require.NoError(t, err)
	require.Len(t, m.UVSets, 2)
	set, ok := m.UVSet(2)
	require.True(t, ok)
	assert.Equal(t, "layout", set.Name)

	conns, err := g.Connections("uvChooser1", ConnQuery{})
	require.NoError(t, err)
	assert.Empty(t, conns)

	assert.ErrorIs(t, g.DeleteUVSet("|plane|planeShape", "map1"), ErrDefaultUVSet)
	assert.ErrorIs(t, g.DeleteUVSet("|plane|planeShape", "extra"), ErrNotFound)
}

func TestGraph_Disconnect(t *testing.T) {
	g := newTestGraph(t)

	require.NoError(t, g.Disconnect("animCurveTL1.output", "|grp|pCube1.tx"))
	conns, err := g.Connections("animCurveTL1", ConnQuery{Destination: true})
	require.NoError(t, err)
	assert.Empty(t, conns)

	err = g.Disconnect("animCurveTL1.output", "|grp|pCube1.tx")
	assert.ErrorIs(t, err, ErrNotFound)
}
