package scene

import "strings"

// BaseName strips the DAG path and namespace: "|grp|ns:pCube1" -> "pCube1".
func BaseName(path string) string {
	root := RootName(path)
	if i := strings.LastIndex(root, ":"); i >= 0 {
		return root[i+1:]
	}
	return root
}

// RootName returns the last DAG segment, namespace included.
func RootName(path string) string {
	if i := strings.LastIndex(path, "|"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Namespace returns the namespace of the last DAG segment, or "" when there
// is none. Nested namespaces are returned joined: "a:b:node" -> "a:b".
func Namespace(path string) string {
	root := RootName(path)
	if i := strings.LastIndex(root, ":"); i >= 0 {
		return root[:i]
	}
	return ""
}

// Parent returns the DAG parent of path, or "" for roots and DG nodes.
func Parent(path string) string {
	i := strings.LastIndex(path, "|")
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// Depth returns the number of DAG segments in path.
func Depth(path string) int {
	return len(strings.Split(path, "|"))
}

// SplitPlug splits "node.attr" into its node and attribute. Component
// references such as "pCube1.f[0:3]" are split the same way.
func SplitPlug(plug string) (node, attr string) {
	if i := strings.Index(plug, "."); i >= 0 {
		return plug[:i], plug[i+1:]
	}
	return plug, ""
}

// Plug joins a node and attribute name.
func Plug(node, attr string) string {
	return node + "." + attr
}

// RemoveReferenced drops nodes owned by a referenced file.
func RemoveReferenced(r Reader, nodes []string) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ref, err := r.IsReferenced(n)
		if err != nil {
			return nil, err
		}
		if !ref {
			out = append(out, n)
		}
	}
	return out, nil
}

// RemoveDriven drops animation curves whose input is connected, which makes
// them set-driven keys rather than time-based animation.
func RemoveDriven(r Reader, curves []string) ([]string, error) {
	out := make([]string, 0, len(curves))
	for _, c := range curves {
		in, err := r.Connections(Plug(c, "input"), ConnQuery{Source: true})
		if err != nil {
			return nil, err
		}
		if len(in) == 0 {
			out = append(out, c)
		}
	}
	return out, nil
}
