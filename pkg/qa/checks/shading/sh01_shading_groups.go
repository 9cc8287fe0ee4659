package shading

import (
	"iter"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(NoShadingGroup)
	qa.Register(InitialShadingGroup)
}

const initialShadingGroup = "initialShadingGroup"

// NoShadingGroup flags renderable meshes without any shading group.
var NoShadingGroup = qa.RuleDef{
	ID:          "SH01",
	Name:        "No Shading Group Assignment",
	Urgency:     qa.UrgencyError,
	Message:     "{0} mesh(es) are not connected to any shading group",
	Categories:  []string{CategoryShaders},
	Selectable:  true,
	Description: "Meshes are checked to see if they have a shading group attached.",
	Detect:      detectNoShadingGroup,
}

// InitialShadingGroup flags objects left on the default shader.
var InitialShadingGroup = qa.RuleDef{
	ID:          "SH02",
	Name:        "Initial Shading Group Assignment",
	Urgency:     qa.UrgencyError,
	Message:     "{0} object(s) are connected to the initial shading group",
	Categories:  []string{CategoryShaders},
	Selectable:  true,
	Description: "Objects are checked to see if they are assigned to the initial shading group.",
	Detect:      detectInitialShadingGroup,
}

func detectNoShadingGroup(env *qa.Env) iter.Seq2[qa.Item, error] {
	var assigned []string
	list := func() ([]string, error) {
		var err error
		if assigned, err = shadingMembers(env); err != nil {
			return nil, err
		}
		meshes, err := env.List(scene.Query{Types: []string{"mesh"}, Long: true, NoIntermediate: true})
		if err != nil {
			return nil, err
		}
		return scene.RemoveReferenced(env.Scene, meshes)
	}
	return qa.Each(list, func(mesh qa.Item) (bool, error) {
		groups, err := env.Scene.Connections(mesh, scene.ConnQuery{Type: "shadingEngine"})
		if err != nil {
			return false, err
		}
		if len(groups) > 0 {
			return false, nil
		}
		parent := scene.Parent(mesh)
		return !slices.Contains(assigned, mesh) && (parent == "" || !slices.Contains(assigned, parent)), nil
	})
}

// shadingMembers returns the node part of every shading group member.
func shadingMembers(env *qa.Env) ([]string, error) {
	groups, err := env.Scene.List(scene.Query{Types: []string{"shadingEngine"}})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, sg := range groups {
		members, err := env.Scene.Members(sg)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			node, _ := scene.SplitPlug(m)
			out = append(out, node)
		}
	}
	return out, nil
}

func detectInitialShadingGroup(env *qa.Env) iter.Seq2[qa.Item, error] {
	return qa.Each(func() ([]string, error) {
		if !env.Scene.Exists(initialShadingGroup) {
			return nil, nil
		}
		return env.Scene.Members(initialShadingGroup)
	}, nil)
}
