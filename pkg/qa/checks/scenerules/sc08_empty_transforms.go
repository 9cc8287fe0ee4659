package scenerules

import (
	"iter"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(EmptyTransforms)
}

// EmptyTransforms flags transforms without children or meaningful connections.
var EmptyTransforms = qa.RuleDef{
	ID:         "SC08",
	Name:       "Empty Transforms",
	Urgency:    qa.UrgencyError,
	Message:    "{0} transform(s) are empty",
	Categories: []string{Category},
	Selectable: true,
	Description: "Transforms are checked to see if they are empty. A transform whose only children are " +
		"empty transforms is empty too. Fixing deletes them.",
	Detect: detectEmptyTransforms,
	Fix:    qa.DeleteNode,
}

func detectEmptyTransforms(env *qa.Env) iter.Seq2[qa.Item, error] {
	return func(yield func(qa.Item, error) bool) {
		transforms, err := env.ListUnreferenced("transform")
		if err != nil {
			yield("", err)
			return
		}
		// Reverse path order visits children before their parents.
		slices.Sort(transforms)
		slices.Reverse(transforms)

		var empty []string
		for _, t := range transforms {
			ok, err := isEmptyTransform(env, t, empty)
			if err != nil {
				yield("", err)
				return
			}
			if !ok {
				continue
			}
			empty = append(empty, t)
			if !yield(t, nil) {
				return
			}
		}
	}
}

func isEmptyTransform(env *qa.Env, node string, empty []string) (bool, error) {
	children, err := env.Scene.Children(node)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if !slices.Contains(empty, c) {
			return false, nil
		}
	}
	typ, err := env.Scene.NodeType(node)
	if err != nil || typ != "transform" {
		return false, err
	}
	conns, err := env.Scene.Connections(node, scene.ConnQuery{})
	if err != nil {
		return false, err
	}
	switch len(conns) {
	case 0:
		return true, nil
	case 1:
		layer, err := env.Scene.NodeType(conns[0])
		if err != nil {
			return false, err
		}
		return layer == "displayLayer" || layer == "renderLayer", nil
	}
	return false, nil
}
