package animation

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(UnusedCurves)
}

// UnusedCurves flags animation curves whose output drives nothing.
var UnusedCurves = qa.RuleDef{
	ID:          "AN01",
	Name:        "Unused Animation Curve",
	Urgency:     qa.UrgencyWarning,
	Message:     "{0} animation curve(s) are unused",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Animation curves are checked to see if their output is connected. Fixing deletes the unconnected curves.",
	Detect:      detectUnusedCurves,
	Fix:         qa.DeleteNode,
}

func detectUnusedCurves(env *qa.Env) iter.Seq2[qa.Item, error] {
	return qa.Each(env.Unreferenced("animCurve"), func(curve qa.Item) (bool, error) {
		out, err := env.Scene.Connections(scene.Plug(curve, "output"), scene.ConnQuery{})
		if err != nil {
			return false, err
		}
		return len(out) == 0, nil
	})
}
