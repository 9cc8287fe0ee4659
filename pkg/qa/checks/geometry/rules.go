package geometry

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(EmptyMesh)
	qa.Register(NonManifoldEdges)
	qa.Register(ZeroEdgeLength)
	qa.Register(ZeroAreaFaces)
	qa.Register(OverlappingFaces)
	qa.Register(NGonFaces)
	qa.Register(LaminaFaces)
	qa.Register(LockedNormals)
}

// EmptyMesh flags meshes without vertices.
var EmptyMesh = qa.RuleDef{
	ID:          "GE01",
	Name:        "Empty Mesh",
	Urgency:     qa.UrgencyError,
	Message:     "{0} mesh(es) are empty",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Meshes are checked to see if they have no vertices. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachMesh(env, func(m scene.MeshData) bool { return len(m.Points) == 0 })
	},
	Fix: qa.DeleteNode,
}

// NonManifoldEdges flags edges shared by more than two faces.
var NonManifoldEdges = qa.RuleDef{
	ID:          "GE02",
	Name:        "Non-Manifold Edges",
	Urgency:     qa.UrgencyError,
	Message:     "{0} non-manifold edge(s)",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Edges are checked to see if more than two faces share them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachComponent(env, "e", func(m scene.MeshData) []int {
			_, faces := edgeList(m)
			var out []int
			for i, n := range faces {
				if n > 2 {
					out = append(out, i)
				}
			}
			return out
		})
	},
}

// ZeroEdgeLength flags degenerate edges.
var ZeroEdgeLength = qa.RuleDef{
	ID:          "GE03",
	Name:        "Zero Edge Length",
	Urgency:     qa.UrgencyError,
	Message:     "{0} edge(s) have zero length",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Edges are checked to see if their length is below 0.00001.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachComponent(env, "e", func(m scene.MeshData) []int {
			edges, _ := edgeList(m)
			var out []int
			for i, e := range edges {
				if length(sub(m.Points[e[0]], m.Points[e[1]])) < Tolerance {
					out = append(out, i)
				}
			}
			return out
		})
	},
}

// ZeroAreaFaces flags degenerate faces.
var ZeroAreaFaces = qa.RuleDef{
	ID:          "GE04",
	Name:        "Zero Area Faces",
	Urgency:     qa.UrgencyError,
	Message:     "{0} face(s) have zero area",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Faces are checked to see if their area is below 0.00001.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachComponent(env, "f", func(m scene.MeshData) []int {
			var out []int
			for i, f := range m.Faces {
				if faceArea(m.Points, f) < Tolerance {
					out = append(out, i)
				}
			}
			return out
		})
	},
}

// OverlappingFaces flags meshes with faces lying on top of each other.
var OverlappingFaces = qa.RuleDef{
	ID:         "GE05",
	Name:       "Overlapping Faces",
	Urgency:    qa.UrgencyError,
	Message:    "{0} mesh(es) contain overlapping faces",
	Categories: []string{Category},
	Selectable: true,
	Description: "Meshes are checked to see if two faces share the same vertex positions. " +
		"Fixing deletes the later faces.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachMesh(env, func(m scene.MeshData) bool {
			return len(repeatedFaces(m, overlapKey(m))) > 0
		})
	},
	Fix: func(env *qa.Env, shape qa.Item) error {
		return editMesh(env, shape, func(m *scene.MeshData) bool {
			return deleteFaces(m, repeatedFaces(*m, overlapKey(*m)))
		})
	},
}

func overlapKey(m scene.MeshData) func([]int) string {
	return func(f []int) string { return positionKey(m.Points, f) }
}

func deleteFaces(m *scene.MeshData, doomed []int) bool {
	if len(doomed) == 0 {
		return false
	}
	faces := make([][]int, 0, len(m.Faces)-len(doomed))
	next := 0
	for i, f := range m.Faces {
		if next < len(doomed) && doomed[next] == i {
			next++
			continue
		}
		faces = append(faces, f)
	}
	m.Faces = faces
	return true
}

// NGonFaces flags meshes with faces of more than four sides.
var NGonFaces = qa.RuleDef{
	ID:          "GE06",
	Name:        "N-Gon Faces",
	Urgency:     qa.UrgencyWarning,
	Message:     "{0} mesh(es) contain n-gons",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Meshes are checked to see if they contain faces with more than four sides. Fixing triangulates those faces.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachMesh(env, func(m scene.MeshData) bool {
			for _, f := range m.Faces {
				if len(f) > 4 {
					return true
				}
			}
			return false
		})
	},
	Fix: func(env *qa.Env, shape qa.Item) error {
		return editMesh(env, shape, triangulateNGons)
	},
}

// triangulateNGons fans every face with more than four sides from its
// first vertex.
func triangulateNGons(m *scene.MeshData) bool {
	changed := false
	faces := make([][]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f) <= 4 {
			faces = append(faces, f)
			continue
		}
		changed = true
		for i := 1; i+1 < len(f); i++ {
			faces = append(faces, []int{f[0], f[i], f[i+1]})
		}
	}
	m.Faces = faces
	return changed
}

// LaminaFaces flags faces sharing every vertex with an earlier face.
var LaminaFaces = qa.RuleDef{
	ID:          "GE07",
	Name:        "Lamina Faces",
	Urgency:     qa.UrgencyError,
	Message:     "{0} lamina face(s)",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Faces are checked to see if they share all of their vertices with another face.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachComponent(env, "f", func(m scene.MeshData) []int {
			return repeatedFaces(m, indexKey)
		})
	},
}

// LockedNormals flags meshes with frozen vertex normals.
var LockedNormals = qa.RuleDef{
	ID:          "GE08",
	Name:        "Locked Normals",
	Urgency:     qa.UrgencyWarning,
	Message:     "{0} mesh(es) have locked normals",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Meshes are checked to see if any vertex normal is locked. Fixing unlocks them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachMesh(env, func(m scene.MeshData) bool { return len(m.FrozenNormals) > 0 })
	},
	Fix: func(env *qa.Env, shape qa.Item) error {
		return editMesh(env, shape, func(m *scene.MeshData) bool {
			if len(m.FrozenNormals) == 0 {
				return false
			}
			m.FrozenNormals = nil
			return true
		})
	},
}
