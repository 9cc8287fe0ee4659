package geometry

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// Tolerance below which an edge length or a face area counts as zero.
const Tolerance = 1e-5

func listMeshes(env *qa.Env) ([]string, error) {
	meshes, err := env.List(scene.Query{Types: []string{"mesh"}, Long: true, NoIntermediate: true})
	if err != nil {
		return nil, err
	}
	return scene.RemoveReferenced(env.Scene, meshes)
}

// meshData reads the topology of shape. ok is false when the shape has none.
func meshData(r scene.Reader, shape string) (m scene.MeshData, ok bool, err error) {
	m, err = r.Mesh(shape)
	if errors.Is(err, scene.ErrNotFound) && r.Exists(shape) {
		return m, false, nil
	}
	return m, err == nil, err
}

// eachMesh yields meshes whose topology satisfies keep.
func eachMesh(env *qa.Env, keep func(scene.MeshData) bool) iter.Seq2[qa.Item, error] {
	return qa.Each(func() ([]string, error) { return listMeshes(env) }, func(shape qa.Item) (bool, error) {
		m, ok, err := meshData(env.Scene, shape)
		if !ok || err != nil {
			return false, err
		}
		return keep(m), nil
	})
}

// eachComponent yields "shape.<kind>[i]" for every index pick returns.
func eachComponent(env *qa.Env, kind string, pick func(scene.MeshData) []int) iter.Seq2[qa.Item, error] {
	return func(yield func(qa.Item, error) bool) {
		meshes, err := listMeshes(env)
		if err != nil {
			yield("", err)
			return
		}
		for _, shape := range meshes {
			m, ok, err := meshData(env.Scene, shape)
			if err != nil {
				yield("", err)
				return
			}
			if !ok {
				continue
			}
			for _, i := range pick(m) {
				if !yield(fmt.Sprintf("%s.%s[%d]", shape, kind, i), nil) {
					return
				}
			}
		}
	}
}

// editMesh applies edit to the topology of shape. A shape that is gone or
// has no topology is left alone.
func editMesh(env *qa.Env, shape string, edit func(*scene.MeshData) bool) error {
	if !env.Scene.Exists(shape) {
		return nil
	}
	m, ok, err := meshData(env.Scene, shape)
	if !ok || err != nil {
		return err
	}
	if !edit(&m) {
		return nil
	}
	return env.Scene.SetMesh(shape, m)
}

type edge [2]int

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// edgeList numbers the edges of m in the order faces first use them and
// counts the faces sharing each one.
func edgeList(m scene.MeshData) (edges []edge, faces []int) {
	index := make(map[edge]int)
	for _, f := range m.Faces {
		for i := range f {
			e := newEdge(f[i], f[(i+1)%len(f)])
			j, ok := index[e]
			if !ok {
				j = len(edges)
				index[e] = j
				edges = append(edges, e)
				faces = append(faces, 0)
			}
			faces[j]++
		}
	}
	return edges, faces
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func length(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// faceArea uses Newell's method, which holds for non-planar polygons.
func faceArea(points [][3]float64, face []int) float64 {
	var n [3]float64
	for i := range face {
		a, b := points[face[i]], points[face[(i+1)%len(face)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return length(n) / 2
}

// indexKey identifies a face by its vertex indices regardless of winding.
func indexKey(face []int) string {
	s := slices.Clone(face)
	slices.Sort(s)
	return fmt.Sprint(s)
}

// positionKey identifies a face by its rounded vertex positions.
func positionKey(points [][3]float64, face []int) string {
	keys := make([]string, len(face))
	for i, v := range face {
		p := points[v]
		keys[i] = fmt.Sprintf("%.4f,%.4f,%.4f", p[0], p[1], p[2])
	}
	slices.Sort(keys)
	return strings.Join(keys, ";")
}

// repeatedFaces returns the indices of faces whose key matches an earlier face.
func repeatedFaces(m scene.MeshData, key func([]int) string) []int {
	seen := make(map[string]bool, len(m.Faces))
	var out []int
	for i, f := range m.Faces {
		k := key(f)
		if seen[k] {
			out = append(out, i)
			continue
		}
		seen[k] = true
	}
	return out
}
