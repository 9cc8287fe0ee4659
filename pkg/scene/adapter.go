// Package scene defines the query and mutation surface the QA core uses to
// inspect a live scene graph.
//
// The host application owns the graph. The core never walks it directly; every
// read goes through Reader and every change through Writer, so a rule can run
// against a real DCC session or against the in-memory Graph used by the CLI
// and the tests.
package scene

import "fmt"

// =============================================================================
// Queries
// =============================================================================

// Query filters the nodes returned by Reader.List.
type Query struct {
	// Types restricts the result to nodes of (or inheriting from) these types.
	// Empty means every node.
	Types []string

	// Selected restricts the result to the active selection.
	Selected bool

	// Long asks for full DAG paths. The in-memory graph always returns them.
	Long bool

	// NoIntermediate drops shapes flagged as intermediate objects.
	NoIntermediate bool

	// IntermediateOnly keeps only shapes flagged as intermediate objects.
	IntermediateOnly bool
}

// ConnQuery filters the result of Reader.Connections.
// When neither Source nor Destination is set both directions are returned.
type ConnQuery struct {
	Source      bool   // upstream: plugs feeding this one
	Destination bool   // downstream: plugs fed by this one
	Plugs       bool   // return "node.attr" instead of node names
	Type        string // keep only connections to nodes of this type

	// Connected returns pairs of plugs: each own plug is followed by the
	// plug on the other side. Implies Plugs.
	Connected bool
}

// Key is a single keyframe on an animation curve.
type Key struct {
	Time       float64 `yaml:"time" json:"time"`
	Value      float64 `yaml:"value" json:"value"`
	InAngle    float64 `yaml:"in_angle,omitempty" json:"in_angle,omitempty"`
	OutAngle   float64 `yaml:"out_angle,omitempty" json:"out_angle,omitempty"`
	OutTangent string  `yaml:"out_tangent,omitempty" json:"out_tangent,omitempty"`
	Locked     bool    `yaml:"locked,omitempty" json:"locked,omitempty"`
}

// SkinData is the weight table of a skin cluster.
// Weights is indexed [vertex][influence] in the order of Influences.
type SkinData struct {
	Geometry      string      `yaml:"geometry" json:"geometry"`
	Influences    []string    `yaml:"influences" json:"influences"`
	Locked        []bool      `yaml:"locked,omitempty" json:"locked,omitempty"`
	Weights       [][]float64 `yaml:"weights" json:"weights"`
	MaxInfluences int         `yaml:"max_influences,omitempty" json:"max_influences,omitempty"`
	MaintainMax   bool        `yaml:"maintain_max,omitempty" json:"maintain_max,omitempty"`
	Normalize     bool        `yaml:"normalize,omitempty" json:"normalize,omitempty"`
}

// Clone returns a deep copy of the skin data.
func (s SkinData) Clone() SkinData {
	out := s
	out.Influences = append([]string(nil), s.Influences...)
	out.Locked = append([]bool(nil), s.Locked...)
	out.Weights = make([][]float64, len(s.Weights))
	for i, row := range s.Weights {
		out.Weights[i] = append([]float64(nil), row...)
	}
	return out
}

// UVSet is one uv set of a mesh. Index is the sparse uvSet array index and
// stays stable when other sets are deleted; index 0 is the default set.
type UVSet struct {
	Index   int    `yaml:"index" json:"index"`
	Name    string `yaml:"name" json:"name"`
	UVCount int    `yaml:"uv_count" json:"uv_count"`
}

// UVSetPlug returns the plug naming uv set index on mesh.
func UVSetPlug(mesh string, index int) string {
	return fmt.Sprintf("%s.uvSet[%d].uvSetName", mesh, index)
}

// MeshData is the polygon topology of a mesh shape. Faces hold vertex
// indices into Points in winding order.
type MeshData struct {
	Points        [][3]float64 `yaml:"points" json:"points"`
	Faces         [][]int      `yaml:"faces" json:"faces"`
	FrozenNormals []int        `yaml:"frozen_normals,omitempty" json:"frozen_normals,omitempty"`
	UVSets        []UVSet      `yaml:"uv_sets,omitempty" json:"uv_sets,omitempty"`
}

// Clone returns a deep copy of the mesh data.
func (m MeshData) Clone() MeshData {
	out := MeshData{
		Points:        append([][3]float64(nil), m.Points...),
		Faces:         make([][]int, len(m.Faces)),
		FrozenNormals: append([]int(nil), m.FrozenNormals...),
		UVSets:        append([]UVSet(nil), m.UVSets...),
	}
	for i, f := range m.Faces {
		out.Faces[i] = append([]int(nil), f...)
	}
	return out
}

func (m MeshData) validate() error {
	for _, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= len(m.Points) {
				return fmt.Errorf("face vertex %d out of range", v)
			}
		}
	}
	return nil
}

// UVSet returns the set stored at index.
func (m MeshData) UVSet(index int) (UVSet, bool) {
	for _, s := range m.UVSets {
		if s.Index == index {
			return s, true
		}
	}
	return UVSet{}, false
}

// =============================================================================
// Adapter
// =============================================================================

// Reader is the read-only half of the scene surface.
// Every method fails with *QueryError when the scene cannot be read.
type Reader interface {
	List(q Query) ([]string, error)
	Exists(nameOrPlug string) bool
	NodeType(node string) (string, error)
	IsType(node, typ string) (bool, error)
	Connections(nodeOrPlug string, q ConnQuery) ([]string, error)
	IsReferenced(node string) (bool, error)
	IsLocked(node string) (bool, error)
	GetAttr(plug string) (any, error)
	IsAttrLocked(plug string) (bool, error)
	Keys(curve string) ([]Key, error)
	Children(node string) ([]string, error)
	History(node string) ([]string, error)
	Members(set string) ([]string, error)
	Namespaces() ([]string, error)
	NamespaceMembers(ns string) ([]string, error)
	Skin(cluster string) (SkinData, error)
	Mesh(shape string) (MeshData, error)
}

// Writer is the guarded mutation half of the scene surface.
// Every method fails with *MutationError when the host rejects the change.
type Writer interface {
	Delete(node string) error
	Rename(node, newName string) (string, error)
	SetAttr(plug string, value any) error
	SetAttrLocked(plug string, locked bool) error
	SetLocked(node string, locked bool) error
	SetKeys(curve string, keys []Key) error
	SetMembers(set string, members []string) error
	RemoveNamespace(ns string) error
	DeleteHistory(node string, keepDeformers bool) error
	FreezeTransform(node string) error
	SetSkin(cluster string, data SkinData) error
	SetMesh(shape string, data MeshData) error
	DeleteUVSet(shape, name string) error
	Connect(from, to string) error
	Disconnect(from, to string) error
}

// Adapter is the full scene surface consumed by rules.
type Adapter interface {
	Reader
	Writer
}

// Undoer is implemented by adapters that can group mutations into a single
// undoable step. Chunks nest; only the outermost one is recorded.
type Undoer interface {
	OpenChunk(name string)
	CloseChunk()
	Undo() error
}
