package scenerules

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(DisconnectedIntermediates)
	qa.Register(DisconnectedGroupIDs)
}

// DisconnectedIntermediates flags intermediate shapes nothing is wired to.
var DisconnectedIntermediates = qa.RuleDef{
	ID:          "SC05",
	Name:        "Not Connected Intermediate Shape",
	Urgency:     qa.UrgencyError,
	Message:     "{0} intermediate shape(s) are not connected",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Intermediate shapes without connections are listed. Fixing deletes them.",
	Detect:      detectDisconnectedIntermediates,
	Fix:         qa.DeleteNode,
}

// DisconnectedGroupIDs flags group id nodes nothing is wired to.
var DisconnectedGroupIDs = qa.RuleDef{
	ID:          "SC06",
	Name:        "Not Connected Group ID",
	Urgency:     qa.UrgencyError,
	Message:     "{0} group id(s) are not connected",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Group id nodes without connections are listed. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("groupId"), isolated(env))
	},
	Fix: qa.DeleteNode,
}

func isolated(env *qa.Env) func(qa.Item) (bool, error) {
	return func(node qa.Item) (bool, error) {
		conns, err := env.Scene.Connections(node, scene.ConnQuery{})
		if err != nil {
			return false, err
		}
		return len(conns) == 0, nil
	}
}

func detectDisconnectedIntermediates(env *qa.Env) iter.Seq2[qa.Item, error] {
	list := func() ([]string, error) {
		shapes, err := env.List(scene.Query{Types: []string{"shape"}, Long: true, IntermediateOnly: true})
		if err != nil {
			return nil, err
		}
		return scene.RemoveReferenced(env.Scene, shapes)
	}
	return qa.Each(list, isolated(env))
}
