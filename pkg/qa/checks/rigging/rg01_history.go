package rigging

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(NonDeformerHistory)
	qa.Register(NonSetDrivenAnimation)
}

// deformerHistoryTypes are history node types a rigged mesh may carry.
var deformerHistoryTypes = []string{
	"geometryFilter", "tweak", "groupParts",
	"groupId", "shape", "dagPose",
	"joint", "shadingEngine", "cluster",
	"transform", "diskCache", "time",
}

// NonDeformerHistory flags meshes with history other than deformers.
var NonDeformerHistory = qa.RuleDef{
	ID:         "RG01",
	Name:       "Non Deformer History",
	Urgency:    qa.UrgencyError,
	Message:    "{0} mesh(es) contain non-deformer history nodes",
	Categories: []string{CategoryRigging},
	Selectable: true,
	Description: "Meshes are checked to see if they contain non-deformer history. " +
		"History is not always a problem. Fixing bakes the non-deformer history.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("mesh"), func(mesh qa.Item) (bool, error) {
			history, err := env.Scene.History(mesh)
			if err != nil {
				return false, err
			}
			for _, h := range history {
				ok, err := isAnyType(env.Scene, h, deformerHistoryTypes)
				if err != nil {
					return false, err
				}
				if !ok {
					return true, nil
				}
			}
			return false, nil
		})
	},
	Fix: func(env *qa.Env, mesh qa.Item) error {
		if !env.Scene.Exists(mesh) {
			return nil
		}
		return env.Scene.DeleteHistory(mesh, true)
	},
}

// NonSetDrivenAnimation flags time-based animation curves in a rig.
var NonSetDrivenAnimation = qa.RuleDef{
	ID:          "RG02",
	Name:        "Non Set-Driven Animation",
	Urgency:     qa.UrgencyError,
	Message:     "{0} non set-driven animation curve(s) in the scene",
	Categories:  []string{CategoryRigging},
	Selectable:  true,
	Description: "Animation curves are checked to see if they are set driven keys. Fixing deletes the others.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("animCurve"), func(curve qa.Item) (bool, error) {
			in, err := env.Scene.Connections(scene.Plug(curve, "input"), scene.ConnQuery{Source: true})
			if err != nil {
				return false, err
			}
			return len(in) == 0, nil
		})
	},
	Fix: qa.DeleteNode,
}

func isAnyType(r scene.Reader, node string, types []string) (bool, error) {
	for _, typ := range types {
		ok, err := r.IsType(node, typ)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
