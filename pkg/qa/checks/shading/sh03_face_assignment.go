package shading

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(FaceAssignment)
}

// ErrIncompleteFaces is returned when a shading group only holds part of a
// shape's faces, so the assignment cannot be collapsed onto the shape.
var ErrIncompleteFaces = errors.New("incomplete face assignment")

// FaceAssignment flags shading groups holding component members.
var FaceAssignment = qa.RuleDef{
	ID:         "SH03",
	Name:       "Face Assignment",
	Urgency:    qa.UrgencyWarning,
	Message:    "{0} shading group(s) contain a component connection",
	Categories: []string{CategoryShaders},
	Selectable: true,
	Description: "Shading groups are checked to see if they contain component connections. " +
		"Fixing replaces a complete face assignment with the shape itself. " +
		"Skip this check when component assignment is intentional.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(func() ([]string, error) {
			return env.List(scene.Query{Types: []string{"shadingEngine"}})
		}, func(sg qa.Item) (bool, error) {
			members, err := env.Scene.Members(sg)
			if err != nil {
				return false, err
			}
			return slices.ContainsFunc(members, isComponent), nil
		})
	},
	Fix: fixFaceAssignment,
}

func isComponent(member string) bool {
	return strings.Contains(member, ".")
}

func fixFaceAssignment(env *qa.Env, sg qa.Item) error {
	if !env.Scene.Exists(sg) {
		return nil
	}
	members, err := env.Scene.Members(sg)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(members, isComponent) {
		return nil
	}

	var shapes []string
	faces := make(map[string]map[int]bool)
	counts := make(map[string]int)
	var kept []string
	for _, m := range members {
		if !isComponent(m) {
			kept = append(kept, m)
			continue
		}
		node, comp := scene.SplitPlug(m)
		shape, err := resolveShape(env, node)
		if err != nil {
			return err
		}
		if faces[shape] == nil {
			total, err := faceCount(env, shape)
			if err != nil {
				return err
			}
			counts[shape] = total
			faces[shape] = make(map[int]bool)
			shapes = append(shapes, shape)
		}
		idx, err := faceIndices(comp, counts[shape])
		if err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
		for _, i := range idx {
			faces[shape][i] = true
		}
	}

	for _, shape := range shapes {
		if len(faces[shape]) != counts[shape] {
			return fmt.Errorf("%s: %w (%d of %d faces)", shape, ErrIncompleteFaces, len(faces[shape]), counts[shape])
		}
		if !slices.Contains(kept, shape) {
			kept = append(kept, shape)
		}
	}
	env.Log().Debug("collapsed face assignment", "set", sg, "shapes", shapes)
	return env.Scene.SetMembers(sg, kept)
}

// resolveShape maps a component owner to the shape holding the faces. A
// transform resolves to its first non-intermediate shape.
func resolveShape(env *qa.Env, node string) (string, error) {
	ok, err := env.Scene.IsType(node, "transform")
	if err != nil || !ok {
		return node, err
	}
	shapes, err := env.Scene.List(scene.Query{Types: []string{"shape"}, Long: true, NoIntermediate: true})
	if err != nil {
		return "", err
	}
	for _, s := range shapes {
		if scene.Parent(s) == node {
			return s, nil
		}
	}
	return "", &scene.QueryError{Op: "listRelatives", Node: node, Err: scene.ErrNotFound}
}

func faceCount(env *qa.Env, shape string) (int, error) {
	v, err := env.Scene.GetAttr(scene.Plug(shape, "faceCount"))
	if err != nil {
		return 0, err
	}
	total, ok := scene.AsFloat(v)
	if !ok || total < 0 {
		return 0, fmt.Errorf("%s: invalid faceCount %v", shape, v)
	}
	return int(total), nil
}

// faceIndices expands "f[3]" and "f[0:7]" into face indices. Indices must lie
// below total.
func faceIndices(comp string, total int) ([]int, error) {
	inner, ok := strings.CutPrefix(comp, "f[")
	if !ok || !strings.HasSuffix(inner, "]") {
		return nil, fmt.Errorf("unsupported component %q", comp)
	}
	inner = strings.TrimSuffix(inner, "]")

	lo, hi, isRange := strings.Cut(inner, ":")
	start, err := strconv.Atoi(lo)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("invalid face index %q", comp)
	}
	end := start
	if isRange {
		if end, err = strconv.Atoi(hi); err != nil || end < start {
			return nil, fmt.Errorf("invalid face range %q", comp)
		}
	}
	if end >= total {
		return nil, fmt.Errorf("face range %q exceeds %d faces", comp, total)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}
