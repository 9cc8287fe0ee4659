package animation

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(ComponentAnimation)
}

// ComponentAnimation flags curves connected to mesh vertex tweaks.
var ComponentAnimation = qa.RuleDef{
	ID:          "AN02",
	Name:        "Component Animation",
	Urgency:     qa.UrgencyError,
	Message:     "{0} animation curve(s) are connected to a shape",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Meshes are checked for animation curves driving their components. Fixing deletes those curves.",
	Detect:      detectComponentAnimation,
	Fix:         qa.DeleteNode,
}

func detectComponentAnimation(env *qa.Env) iter.Seq2[qa.Item, error] {
	return func(yield func(qa.Item, error) bool) {
		meshes, err := env.List(scene.Query{Types: []string{"mesh"}, Long: true})
		if err != nil {
			yield("", err)
			return
		}
		for _, mesh := range meshes {
			curves, err := env.Scene.Connections(scene.Plug(mesh, "pnts"), scene.ConnQuery{Type: "animCurve"})
			if err != nil {
				yield("", err)
				return
			}
			curves, err = scene.RemoveReferenced(env.Scene, curves)
			if err != nil {
				yield("", err)
				return
			}
			for _, c := range curves {
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}
