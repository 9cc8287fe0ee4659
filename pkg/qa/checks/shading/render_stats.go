package shading

import (
	"fmt"
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	for _, def := range RenderStats {
		qa.Register(def)
	}
}

// RenderStats are the mesh render flag rules, in declaration order.
var RenderStats = []qa.RuleDef{
	renderStat("RS01", "Primary Visibility", "{0} mesh(es) are not visible", "primaryVisibility", false),
	renderStat("RS02", "Visible in Refraction", "{0} mesh(es) are not visible in refraction", "visibleInRefractions", false),
	renderStat("RS03", "Visible in Reflection", "{0} mesh(es) are not visible in reflection", "visibleInReflections", false),
	renderStat("RS04", "Cast Shadows", "{0} mesh(es) don't cast shadows", "castsShadows", false),
	renderStat("RS05", "Receive Shadows", "{0} mesh(es) don't receive shadows", "receiveShadows", false),
	renderStat("RS06", "Smooth Shading", "{0} mesh(es) are not smooth shaded", "smoothShading", false),
	renderStat("RS07", "Double Sided", "{0} mesh(es) are not double sided", "doubleSided", false),
	renderStat("RS08", "Opposite", "{0} mesh(es) are set to opposite", "opposite", true),
}

// renderStat builds a rule flagging meshes whose attr equals errorValue.
// Fixing sets the attribute to the opposite value.
func renderStat(id, name, message, attr string, errorValue bool) qa.RuleDef {
	return qa.RuleDef{
		ID:         id,
		Name:       name,
		Urgency:    qa.UrgencyError,
		Message:    message,
		Categories: []string{CategoryRenderStats},
		Selectable: true,
		Description: fmt.Sprintf("Meshes are checked to see if %s is %t. Fixing sets it to %t.",
			attr, errorValue, !errorValue),
		Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
			return qa.Each(func() ([]string, error) {
				return env.List(scene.Query{Types: []string{"mesh"}, Long: true})
			}, func(mesh qa.Item) (bool, error) {
				plug := scene.Plug(mesh, attr)
				if !env.Scene.Exists(plug) {
					return false, nil
				}
				v, err := env.Scene.GetAttr(plug)
				if err != nil {
					return false, err
				}
				b, ok := scene.AsBool(v)
				return ok && b == errorValue, nil
			})
		},
		Fix: func(env *qa.Env, mesh qa.Item) error {
			if !env.Scene.Exists(mesh) {
				return nil
			}
			return env.Scene.SetAttr(scene.Plug(mesh, attr), !errorValue)
		},
	}
}
