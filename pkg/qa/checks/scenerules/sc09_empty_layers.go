package scenerules

import (
	"iter"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(EmptyDisplayLayers)
	qa.Register(EmptyRenderLayers)
}

// EmptyDisplayLayers flags display layers without members.
var EmptyDisplayLayers = qa.RuleDef{
	ID:          "SC09",
	Name:        "Empty Display Layers",
	Urgency:     qa.UrgencyError,
	Message:     "{0} display layer(s) are empty",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Display layers are checked to see if they are empty. The default layer is skipped. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("displayLayer"), func(layer qa.Item) (bool, error) {
			if strings.HasSuffix(layer, "defaultLayer") {
				return false, nil
			}
			return hasNoMembers(env, layer)
		})
	},
	Fix: qa.DeleteNode,
}

// EmptyRenderLayers flags render layers without members.
var EmptyRenderLayers = qa.RuleDef{
	ID:          "SC10",
	Name:        "Empty Render Layers",
	Urgency:     qa.UrgencyError,
	Message:     "{0} render layer(s) are empty",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Render layers are checked to see if they are empty. Global layers are skipped. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("renderLayer"), func(layer qa.Item) (bool, error) {
			if plug := scene.Plug(layer, "global"); env.Scene.Exists(plug) {
				v, err := env.Scene.GetAttr(plug)
				if err != nil {
					return false, err
				}
				if global, _ := scene.AsBool(v); global {
					return false, nil
				}
			}
			return hasNoMembers(env, layer)
		})
	},
	Fix: qa.DeleteNode,
}

func hasNoMembers(env *qa.Env, set string) (bool, error) {
	members, err := env.Scene.Members(set)
	if err != nil {
		return false, err
	}
	return len(members) == 0, nil
}
