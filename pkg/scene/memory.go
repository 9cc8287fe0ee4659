package scene

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Node describes one node of an in-memory scene. It is also the on-disk shape
// of a node inside a snapshot file.
//
// DAG nodes are named by their full path ("|grp|pCube1"); dependency nodes by
// their plain name ("animCurveTL1").
type Node struct {
	Name         string         `yaml:"name" json:"name"`
	Type         string         `yaml:"type" json:"type"`
	Referenced   bool           `yaml:"referenced,omitempty" json:"referenced,omitempty"`
	Locked       bool           `yaml:"locked,omitempty" json:"locked,omitempty"`
	Intermediate bool           `yaml:"intermediate,omitempty" json:"intermediate,omitempty"`
	Attrs        map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	LockedAttrs  []string       `yaml:"locked_attrs,omitempty" json:"locked_attrs,omitempty"`
	Keys         []Key          `yaml:"keys,omitempty" json:"keys,omitempty"`
	Members      []string       `yaml:"members,omitempty" json:"members,omitempty"`
	History      []string       `yaml:"history,omitempty" json:"history,omitempty"`
	Skin         *SkinData      `yaml:"skin,omitempty" json:"skin,omitempty"`
	Mesh         *MeshData      `yaml:"mesh,omitempty" json:"mesh,omitempty"`
}

// Connection links a source plug to a destination plug.
type Connection struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// defaultTypeParents is the subset of the host type hierarchy the built-in
// rules rely on.
var defaultTypeParents = map[string]string{
	"animCurveTL":   "animCurve",
	"animCurveTA":   "animCurve",
	"animCurveTU":   "animCurve",
	"animCurveTT":   "animCurve",
	"animCurveUL":   "animCurve",
	"animCurveUA":   "animCurve",
	"animCurveUU":   "animCurve",
	"animCurveUT":   "animCurve",
	"joint":         "transform",
	"mesh":          "shape",
	"nurbsCurve":    "shape",
	"nurbsSurface":  "shape",
	"camera":        "shape",
	"locator":       "shape",
	"skinCluster":   "geometryFilter",
	"blendShape":    "geometryFilter",
	"cluster":       "geometryFilter",
	"tweak":         "geometryFilter",
	"shadingEngine": "objectSet",
}

type memNode struct {
	Node
	lockedAttrs map[string]bool
}

type graphState struct {
	nodes      map[string]*memNode
	order      []string
	conns      []Connection
	namespaces []string
	selection  []string
}

// Graph is an in-memory scene implementing Adapter and Undoer.
// It is not safe for concurrent use; callers serialize access the same way a
// host application's main thread would.
type Graph struct {
	st      *graphState
	parents map[string]string
	closed  bool
	depth   int
	undo    []*graphState
}

var (
	_ Adapter = (*Graph)(nil)
	_ Undoer  = (*Graph)(nil)
)

// NewGraph creates an empty scene.
func NewGraph() *Graph {
	parents := make(map[string]string, len(defaultTypeParents))
	for k, v := range defaultTypeParents {
		parents[k] = v
	}
	return &Graph{
		st: &graphState{
			nodes: make(map[string]*memNode),
		},
		parents: parents,
	}
}

// DefineType registers typ as a subtype of parent for type queries.
func (g *Graph) DefineType(typ, parent string) {
	g.parents[typ] = parent
}

// AddNode inserts a node. DAG parents must be added before their children.
func (g *Graph) AddNode(n Node) error {
	if n.Name == "" {
		return &MutationError{Op: "create", Node: n.Name, Err: errors.New("empty node name")}
	}
	if _, ok := g.st.nodes[n.Name]; ok {
		return &MutationError{Op: "create", Node: n.Name, Err: ErrExists}
	}
	if parent := Parent(n.Name); parent != "" {
		if _, ok := g.st.nodes[parent]; !ok {
			return &MutationError{Op: "create", Node: n.Name, Err: ErrNotFound}
		}
	}
	if n.Mesh != nil {
		if err := n.Mesh.validate(); err != nil {
			return &MutationError{Op: "create", Node: n.Name, Err: err}
		}
	}
	mn := &memNode{Node: n, lockedAttrs: make(map[string]bool)}
	if mn.Attrs == nil {
		mn.Attrs = make(map[string]any)
	}
	for _, a := range n.LockedAttrs {
		mn.lockedAttrs[a] = true
	}
	mn.LockedAttrs = nil
	g.st.nodes[n.Name] = mn
	g.st.order = append(g.st.order, n.Name)
	return nil
}

// Connect links two plugs. Both nodes must exist.
func (g *Graph) Connect(from, to string) error {
	if g.closed {
		return &MutationError{Op: "connectAttr", Node: from, Err: ErrClosed}
	}
	for _, p := range []string{from, to} {
		node, _ := SplitPlug(p)
		if _, ok := g.st.nodes[node]; !ok {
			return &MutationError{Op: "connect", Node: node, Err: ErrNotFound}
		}
	}
	g.st.conns = append(g.st.conns, Connection{From: from, To: to})
	return nil
}

// AddNamespace declares a namespace. Parent namespaces are added implicitly.
func (g *Graph) AddNamespace(ns string) {
	parts := strings.Split(ns, ":")
	for i := range parts {
		name := strings.Join(parts[:i+1], ":")
		if !slices.Contains(g.st.namespaces, name) {
			g.st.namespaces = append(g.st.namespaces, name)
		}
	}
}

// Select replaces the active selection.
func (g *Graph) Select(nodes ...string) {
	g.st.selection = append([]string(nil), nodes...)
}

// Selection returns the active selection.
func (g *Graph) Selection() []string {
	return append([]string(nil), g.st.selection...)
}

// Nodes returns a copy of every node in creation order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.st.order))
	for _, name := range g.st.order {
		out = append(out, g.st.nodes[name].export())
	}
	return out
}

// AllConnections returns every connection in the scene.
func (g *Graph) AllConnections() []Connection {
	return append([]Connection(nil), g.st.conns...)
}

// Close marks the scene unreachable. Every later call fails with ErrClosed.
func (g *Graph) Close() error {
	g.closed = true
	return nil
}

// =============================================================================
// Reader
// =============================================================================

func (g *Graph) List(q Query) ([]string, error) {
	if g.closed {
		return nil, &QueryError{Op: "ls", Err: ErrClosed}
	}
	var out []string
	for _, name := range g.st.order {
		n := g.st.nodes[name]
		if len(q.Types) > 0 && !g.matchesAny(n.Type, q.Types) {
			continue
		}
		if q.Selected && !slices.Contains(g.st.selection, name) {
			continue
		}
		if q.NoIntermediate && n.Intermediate {
			continue
		}
		if q.IntermediateOnly && (!n.Intermediate || !g.inherits(n.Type, "shape")) {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func (g *Graph) Exists(nameOrPlug string) bool {
	if g.closed {
		return false
	}
	node, attr := SplitPlug(nameOrPlug)
	n, ok := g.st.nodes[node]
	if !ok {
		return false
	}
	if attr == "" || strings.Contains(attr, "[") {
		return true
	}
	_, ok = n.Attrs[attr]
	return ok
}

func (g *Graph) NodeType(node string) (string, error) {
	n, err := g.read("nodeType", node)
	if err != nil {
		return "", err
	}
	return n.Type, nil
}

func (g *Graph) IsType(node, typ string) (bool, error) {
	n, err := g.read("nodeType", node)
	if err != nil {
		return false, err
	}
	return g.inherits(n.Type, typ), nil
}

func (g *Graph) Connections(nodeOrPlug string, q ConnQuery) ([]string, error) {
	node, attr := SplitPlug(nodeOrPlug)
	if _, err := g.read("listConnections", node); err != nil {
		return nil, err
	}
	upstream := q.Source || !q.Destination
	downstream := q.Destination || !q.Source

	var out []string
	seen := make(map[string]bool)
	add := func(own, other string) {
		otherNode, _ := SplitPlug(other)
		if q.Type != "" {
			on, ok := g.st.nodes[otherNode]
			if !ok || !g.inherits(on.Type, q.Type) {
				return
			}
		}
		if q.Connected {
			key := own + "\x00" + other
			if !seen[key] {
				seen[key] = true
				out = append(out, own, other)
			}
			return
		}
		v := otherNode
		if q.Plugs {
			v = other
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, c := range g.st.conns {
		if upstream && plugMatches(c.To, node, attr) {
			add(c.To, c.From)
		}
		if downstream && plugMatches(c.From, node, attr) {
			add(c.From, c.To)
		}
	}
	return out, nil
}

func (g *Graph) IsReferenced(node string) (bool, error) {
	n, err := g.read("referenceQuery", node)
	if err != nil {
		return false, err
	}
	return n.Referenced, nil
}

func (g *Graph) IsLocked(node string) (bool, error) {
	n, err := g.read("lockNode", node)
	if err != nil {
		return false, err
	}
	return n.Locked, nil
}

func (g *Graph) GetAttr(plug string) (any, error) {
	node, attr := SplitPlug(plug)
	n, err := g.read("getAttr", node)
	if err != nil {
		return nil, err
	}
	v, ok := n.Attrs[attr]
	if !ok {
		return nil, &QueryError{Op: "getAttr", Node: plug, Err: ErrNotFound}
	}
	return v, nil
}

func (g *Graph) IsAttrLocked(plug string) (bool, error) {
	node, attr := SplitPlug(plug)
	n, err := g.read("getAttr", node)
	if err != nil {
		return false, err
	}
	return n.lockedAttrs[attr], nil
}

func (g *Graph) Keys(curve string) ([]Key, error) {
	n, err := g.read("keyframe", curve)
	if err != nil {
		return nil, err
	}
	return append([]Key(nil), n.Keys...), nil
}

func (g *Graph) Children(node string) ([]string, error) {
	if _, err := g.read("listRelatives", node); err != nil {
		return nil, err
	}
	var out []string
	for _, name := range g.st.order {
		if Parent(name) == node {
			out = append(out, name)
		}
	}
	return out, nil
}

func (g *Graph) History(node string) ([]string, error) {
	n, err := g.read("listHistory", node)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, h := range n.History {
		if _, ok := g.st.nodes[h]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (g *Graph) Members(set string) ([]string, error) {
	n, err := g.read("sets", set)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), n.Members...), nil
}

func (g *Graph) Namespaces() ([]string, error) {
	if g.closed {
		return nil, &QueryError{Op: "namespaceInfo", Err: ErrClosed}
	}
	return append([]string(nil), g.st.namespaces...), nil
}

func (g *Graph) NamespaceMembers(ns string) ([]string, error) {
	if g.closed {
		return nil, &QueryError{Op: "namespaceInfo", Node: ns, Err: ErrClosed}
	}
	if !slices.Contains(g.st.namespaces, ns) {
		return nil, &QueryError{Op: "namespaceInfo", Node: ns, Err: ErrNotFound}
	}
	var out []string
	for _, name := range g.st.order {
		if Namespace(name) == ns {
			out = append(out, name)
		}
	}
	return out, nil
}

func (g *Graph) Skin(cluster string) (SkinData, error) {
	n, err := g.read("skinCluster", cluster)
	if err != nil {
		return SkinData{}, err
	}
	if n.Skin == nil {
		return SkinData{}, &QueryError{Op: "skinCluster", Node: cluster, Err: ErrNotFound}
	}
	return n.Skin.Clone(), nil
}

func (g *Graph) Mesh(shape string) (MeshData, error) {
	n, err := g.read("polyInfo", shape)
	if err != nil {
		return MeshData{}, err
	}
	if n.Mesh == nil {
		return MeshData{}, &QueryError{Op: "polyInfo", Node: shape, Err: ErrNotFound}
	}
	return n.Mesh.Clone(), nil
}

// =============================================================================
// Writer
// =============================================================================

func (g *Graph) Delete(node string) error {
	n, err := g.write("delete", node)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "delete", Node: node, Err: ErrReferenced}
	}
	doomed := g.subtree(node)
	for _, name := range doomed {
		if g.st.nodes[name].Locked {
			return &MutationError{Op: "delete", Node: name, Err: ErrLocked}
		}
	}
	for _, name := range doomed {
		g.remove(name)
	}
	return nil
}

func (g *Graph) Rename(node, newName string) (string, error) {
	n, err := g.write("rename", node)
	if err != nil {
		return "", err
	}
	if n.Referenced {
		return "", &MutationError{Op: "rename", Node: node, Err: ErrReferenced}
	}
	if n.Locked {
		return "", &MutationError{Op: "rename", Node: node, Err: ErrLocked}
	}
	target := newName
	if parent := Parent(node); parent != "" || strings.HasPrefix(node, "|") {
		target = parent + "|" + newName
	}
	if target == node {
		return node, nil
	}
	if _, ok := g.st.nodes[target]; ok {
		return "", &MutationError{Op: "rename", Node: node, Err: ErrExists}
	}
	g.move(node, target)
	return target, nil
}

func (g *Graph) SetAttr(plug string, value any) error {
	node, attr := SplitPlug(plug)
	n, err := g.write("setAttr", node)
	if err != nil {
		return err
	}
	if n.lockedAttrs[attr] {
		return &MutationError{Op: "setAttr", Node: plug, Err: ErrLocked}
	}
	n.Attrs[attr] = value
	return nil
}

func (g *Graph) SetAttrLocked(plug string, locked bool) error {
	node, attr := SplitPlug(plug)
	n, err := g.write("setAttr", node)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "setAttr", Node: plug, Err: ErrReferenced}
	}
	if locked {
		n.lockedAttrs[attr] = true
	} else {
		delete(n.lockedAttrs, attr)
	}
	return nil
}

func (g *Graph) SetLocked(node string, locked bool) error {
	n, err := g.write("lockNode", node)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "lockNode", Node: node, Err: ErrReferenced}
	}
	n.Locked = locked
	return nil
}

func (g *Graph) SetKeys(curve string, keys []Key) error {
	n, err := g.write("keyframe", curve)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "keyframe", Node: curve, Err: ErrReferenced}
	}
	n.Keys = append([]Key(nil), keys...)
	return nil
}

func (g *Graph) SetMembers(set string, members []string) error {
	n, err := g.write("sets", set)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "sets", Node: set, Err: ErrReferenced}
	}
	n.Members = append([]string(nil), members...)
	return nil
}

func (g *Graph) RemoveNamespace(ns string) error {
	if g.closed {
		return &MutationError{Op: "namespace", Node: ns, Err: ErrClosed}
	}
	idx := slices.Index(g.st.namespaces, ns)
	if idx < 0 {
		return &MutationError{Op: "namespace", Node: ns, Err: ErrNotFound}
	}
	for _, name := range g.st.order {
		if Namespace(name) == ns {
			return &MutationError{Op: "namespace", Node: ns, Err: ErrNotEmpty}
		}
	}
	for _, other := range g.st.namespaces {
		if strings.HasPrefix(other, ns+":") {
			return &MutationError{Op: "namespace", Node: ns, Err: ErrNotEmpty}
		}
	}
	g.st.namespaces = slices.Delete(g.st.namespaces, idx, idx+1)
	return nil
}

func (g *Graph) DeleteHistory(node string, keepDeformers bool) error {
	n, err := g.write("delete", node)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "delete", Node: node, Err: ErrReferenced}
	}
	var kept []string
	for _, h := range n.History {
		hn, ok := g.st.nodes[h]
		if !ok {
			continue
		}
		if keepDeformers && g.inherits(hn.Type, "geometryFilter") {
			kept = append(kept, h)
			continue
		}
		if hn.Referenced || hn.Locked {
			return &MutationError{Op: "delete", Node: h, Err: ErrLocked}
		}
	}
	for _, h := range slices.Clone(n.History) {
		if slices.Contains(kept, h) {
			continue
		}
		if _, ok := g.st.nodes[h]; ok && !g.sharedHistory(h, node) {
			g.remove(h)
		}
	}
	n.History = kept
	return nil
}

func (g *Graph) FreezeTransform(node string) error {
	n, err := g.write("makeIdentity", node)
	if err != nil {
		return err
	}
	defaults := map[string]float64{
		"tx": 0, "ty": 0, "tz": 0,
		"rx": 0, "ry": 0, "rz": 0,
		"sx": 1, "sy": 1, "sz": 1,
	}
	for attr := range defaults {
		if _, ok := n.Attrs[attr]; ok && n.lockedAttrs[attr] {
			return &MutationError{Op: "makeIdentity", Node: Plug(node, attr), Err: ErrLocked}
		}
	}
	for attr, v := range defaults {
		if _, ok := n.Attrs[attr]; ok {
			n.Attrs[attr] = v
		}
	}
	return nil
}

func (g *Graph) SetSkin(cluster string, data SkinData) error {
	n, err := g.write("skinCluster", cluster)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "skinCluster", Node: cluster, Err: ErrReferenced}
	}
	d := data.Clone()
	n.Skin = &d
	return nil
}

func (g *Graph) SetMesh(shape string, data MeshData) error {
	n, err := g.write("polyEdit", shape)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "polyEdit", Node: shape, Err: ErrReferenced}
	}
	if err := data.validate(); err != nil {
		return &MutationError{Op: "polyEdit", Node: shape, Err: err}
	}
	d := data.Clone()
	n.Mesh = &d
	return nil
}

// DeleteUVSet removes the named uv set and the connections of its plug.
// The default set cannot be deleted.
func (g *Graph) DeleteUVSet(shape, name string) error {
	n, err := g.write("polyUVSet", shape)
	if err != nil {
		return err
	}
	if n.Referenced {
		return &MutationError{Op: "polyUVSet", Node: shape, Err: ErrReferenced}
	}
	if n.Mesh == nil {
		return &MutationError{Op: "polyUVSet", Node: shape, Err: ErrNotFound}
	}
	i := slices.IndexFunc(n.Mesh.UVSets, func(s UVSet) bool { return s.Name == name })
	if i < 0 {
		return &MutationError{Op: "polyUVSet", Node: shape + "." + name, Err: ErrNotFound}
	}
	set := n.Mesh.UVSets[i]
	if set.Index == 0 {
		return &MutationError{Op: "polyUVSet", Node: shape, Err: ErrDefaultUVSet}
	}
	n.Mesh.UVSets = slices.Delete(n.Mesh.UVSets, i, i+1)
	prefix := fmt.Sprintf("uvSet[%d]", set.Index)
	g.st.conns = slices.DeleteFunc(g.st.conns, func(c Connection) bool {
		return plugMatches(c.From, shape, prefix) || plugMatches(c.To, shape, prefix)
	})
	return nil
}

// Disconnect breaks the connection from -> to. Breaking a missing
// connection fails with ErrNotFound.
func (g *Graph) Disconnect(from, to string) error {
	if g.closed {
		return &MutationError{Op: "disconnectAttr", Node: from, Err: ErrClosed}
	}
	i := slices.Index(g.st.conns, Connection{From: from, To: to})
	if i < 0 {
		return &MutationError{Op: "disconnectAttr", Node: from + " -> " + to, Err: ErrNotFound}
	}
	g.st.conns = slices.Delete(g.st.conns, i, i+1)
	return nil
}

// =============================================================================
// Undoer
// =============================================================================

func (g *Graph) OpenChunk(_ string) {
	if g.depth == 0 {
		g.undo = append(g.undo, g.st.clone())
	}
	g.depth++
}

func (g *Graph) CloseChunk() {
	if g.depth > 0 {
		g.depth--
	}
}

func (g *Graph) Undo() error {
	if len(g.undo) == 0 {
		return errors.New("nothing to undo")
	}
	g.st = g.undo[len(g.undo)-1]
	g.undo = g.undo[:len(g.undo)-1]
	return nil
}

// =============================================================================
// Internals
// =============================================================================

func (g *Graph) read(op, node string) (*memNode, error) {
	if g.closed {
		return nil, &QueryError{Op: op, Node: node, Err: ErrClosed}
	}
	n, ok := g.st.nodes[node]
	if !ok {
		return nil, &QueryError{Op: op, Node: node, Err: ErrNotFound}
	}
	return n, nil
}

func (g *Graph) write(op, node string) (*memNode, error) {
	if g.closed {
		return nil, &MutationError{Op: op, Node: node, Err: ErrClosed}
	}
	n, ok := g.st.nodes[node]
	if !ok {
		return nil, &MutationError{Op: op, Node: node, Err: ErrNotFound}
	}
	return n, nil
}

func (g *Graph) inherits(typ, want string) bool {
	for t := typ; t != ""; t = g.parents[t] {
		if t == want {
			return true
		}
	}
	return false
}

func (g *Graph) matchesAny(typ string, wants []string) bool {
	for _, w := range wants {
		if g.inherits(typ, w) {
			return true
		}
	}
	return false
}

// subtree returns node followed by its DAG descendants.
func (g *Graph) subtree(node string) []string {
	out := []string{node}
	prefix := node + "|"
	for _, name := range g.st.order {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// sharedHistory reports whether another node besides owner lists h in its history.
func (g *Graph) sharedHistory(h, owner string) bool {
	for name, n := range g.st.nodes {
		if name != owner && slices.Contains(n.History, h) {
			return true
		}
	}
	return false
}

func (g *Graph) remove(name string) {
	delete(g.st.nodes, name)
	g.st.order = slices.DeleteFunc(g.st.order, func(s string) bool { return s == name })
	g.st.conns = slices.DeleteFunc(g.st.conns, func(c Connection) bool {
		from, _ := SplitPlug(c.From)
		to, _ := SplitPlug(c.To)
		return from == name || to == name
	})
	g.st.selection = slices.DeleteFunc(g.st.selection, func(s string) bool { return s == name })
	for _, n := range g.st.nodes {
		n.Members = slices.DeleteFunc(n.Members, func(m string) bool {
			node, _ := SplitPlug(m)
			return node == name
		})
		n.History = slices.DeleteFunc(n.History, func(h string) bool { return h == name })
	}
}

// move renames node (and its DAG descendants) to target, rewriting every
// reference held elsewhere in the scene.
func (g *Graph) move(node, target string) {
	rewrite := func(s string) string {
		if s == node {
			return target
		}
		if strings.HasPrefix(s, node+"|") {
			return target + strings.TrimPrefix(s, node)
		}
		return s
	}
	rewritePlug := func(p string) string {
		n, attr := SplitPlug(p)
		n = rewrite(n)
		if attr == "" {
			return n
		}
		return n + "." + attr
	}

	nodes := make(map[string]*memNode, len(g.st.nodes))
	for name, n := range g.st.nodes {
		newName := rewrite(name)
		n.Name = newName
		nodes[newName] = n
		for i, m := range n.Members {
			n.Members[i] = rewritePlug(m)
		}
		for i, h := range n.History {
			n.History[i] = rewrite(h)
		}
		if n.Skin != nil {
			n.Skin.Geometry = rewrite(n.Skin.Geometry)
			for i, inf := range n.Skin.Influences {
				n.Skin.Influences[i] = rewrite(inf)
			}
		}
	}
	g.st.nodes = nodes
	for i, name := range g.st.order {
		g.st.order[i] = rewrite(name)
	}
	for i, c := range g.st.conns {
		g.st.conns[i] = Connection{From: rewritePlug(c.From), To: rewritePlug(c.To)}
	}
	for i, s := range g.st.selection {
		g.st.selection[i] = rewrite(s)
	}
}

func (s *graphState) clone() *graphState {
	out := &graphState{
		nodes:      make(map[string]*memNode, len(s.nodes)),
		order:      append([]string(nil), s.order...),
		conns:      append([]Connection(nil), s.conns...),
		namespaces: append([]string(nil), s.namespaces...),
		selection:  append([]string(nil), s.selection...),
	}
	for name, n := range s.nodes {
		out.nodes[name] = n.clone()
	}
	return out
}

func (n *memNode) clone() *memNode {
	c := &memNode{Node: n.Node, lockedAttrs: make(map[string]bool, len(n.lockedAttrs))}
	c.Attrs = make(map[string]any, len(n.Attrs))
	for k, v := range n.Attrs {
		c.Attrs[k] = v
	}
	for k, v := range n.lockedAttrs {
		c.lockedAttrs[k] = v
	}
	c.Keys = append([]Key(nil), n.Keys...)
	c.Members = append([]string(nil), n.Members...)
	c.History = append([]string(nil), n.History...)
	if n.Skin != nil {
		s := n.Skin.Clone()
		c.Skin = &s
	}
	if n.Mesh != nil {
		m := n.Mesh.Clone()
		c.Mesh = &m
	}
	return c
}

func (n *memNode) export() Node {
	c := n.clone()
	out := c.Node
	for a := range c.lockedAttrs {
		out.LockedAttrs = append(out.LockedAttrs, a)
	}
	slices.Sort(out.LockedAttrs)
	return out
}

// plugMatches reports whether plug belongs to node and, when attr is set, to
// attr or one of its array elements or children.
func plugMatches(plug, node, attr string) bool {
	n, a := SplitPlug(plug)
	if n != node {
		return false
	}
	if attr == "" {
		return true
	}
	return a == attr || strings.HasPrefix(a, attr+"[") || strings.HasPrefix(a, attr+".")
}
