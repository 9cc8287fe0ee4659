package uv

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(EmptyUVSets)
	qa.Register(UnusedUVSets)
}

// DefaultIgnoredSets are uv sets created by hair systems, which keep them
// without a consumer.
var DefaultIgnoredSets = []string{"hairUVSet"}

// EmptyUVSets flags non-default uv sets without uvs.
var EmptyUVSets = qa.RuleDef{
	ID:          "UV01",
	Name:        "Empty UV Sets",
	Urgency:     qa.UrgencyError,
	Message:     "{0} uv set(s) are empty",
	Categories:  []string{Category},
	Description: "UV sets other than the default one are checked to see if they hold no uvs. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachSet(env, func(_ string, set scene.UVSet) (bool, error) {
			return set.UVCount == 0, nil
		})
	},
	Fix: deleteSet,
}

// UnusedUVSets flags non-default uv sets that nothing reads.
var UnusedUVSets = qa.RuleDef{
	ID:         "UV02",
	Name:       "Unused UV Sets",
	Urgency:    qa.UrgencyError,
	Message:    "{0} uv set(s) are unused",
	Categories: []string{Category},
	ConfigKeys: []string{"ignore"},
	Description: "UV sets other than the default one are checked to see if they are connected to anything. " +
		"Hair uv sets are skipped. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		ignore := qa.GetStringSliceOption(env.Options, "ignore", DefaultIgnoredSets)
		return eachSet(env, func(mesh string, set scene.UVSet) (bool, error) {
			if slices.Contains(ignore, set.Name) {
				return false, nil
			}
			conns, err := env.Scene.Connections(fmt.Sprintf("%s.uvSet[%d]", mesh, set.Index), scene.ConnQuery{})
			if err != nil {
				return false, err
			}
			return len(conns) == 0, nil
		})
	},
	Fix: deleteSet,
}

// eachSet yields the name plug of every non-default uv set keep accepts.
func eachSet(env *qa.Env, keep func(mesh string, set scene.UVSet) (bool, error)) iter.Seq2[qa.Item, error] {
	return func(yield func(qa.Item, error) bool) {
		meshes, err := env.ListUnreferenced("mesh")
		if err != nil {
			yield("", err)
			return
		}
		for _, mesh := range meshes {
			m, err := env.Scene.Mesh(mesh)
			if errors.Is(err, scene.ErrNotFound) {
				continue
			}
			if err != nil {
				yield("", err)
				return
			}
			for _, set := range m.UVSets {
				if set.Index == 0 {
					continue
				}
				ok, err := keep(mesh, set)
				if err != nil {
					yield("", err)
					return
				}
				if ok && !yield(scene.UVSetPlug(mesh, set.Index), nil) {
					return
				}
			}
		}
	}
}

// deleteSet removes the set an item names. The set index is stable, so
// items of the same mesh stay valid while a batch deletes them.
func deleteSet(env *qa.Env, item qa.Item) error {
	mesh, index, err := parseSetPlug(item)
	if err != nil {
		return err
	}
	if !env.Scene.Exists(mesh) {
		return nil
	}
	m, err := env.Scene.Mesh(mesh)
	if errors.Is(err, scene.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	set, ok := m.UVSet(index)
	if !ok {
		return nil
	}
	return env.Scene.DeleteUVSet(mesh, set.Name)
}

func parseSetPlug(item string) (mesh string, index int, err error) {
	node, attr := scene.SplitPlug(item)
	if _, err := fmt.Sscanf(attr, "uvSet[%d].uvSetName", &index); err != nil {
		return "", 0, fmt.Errorf("not a uv set plug %q: %w", item, err)
	}
	return node, index, nil
}
