package scenerules

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

func init() {
	qa.Register(UnknownNodes)
}

// UnknownNodes flags nodes whose plug-in type is not available.
var UnknownNodes = qa.RuleDef{
	ID:          "SC04",
	Name:        "Unknown Nodes",
	Urgency:     qa.UrgencyError,
	Message:     "{0} unknown node(s)",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Unknown nodes are listed. Fixing unlocks and deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("unknown"), nil)
	},
	Fix: fixUnknownNode,
}

func fixUnknownNode(env *qa.Env, node qa.Item) error {
	if !env.Scene.Exists(node) {
		return nil
	}
	locked, err := env.Scene.IsLocked(node)
	if err != nil {
		return err
	}
	if locked {
		if err := env.Scene.SetLocked(node, false); err != nil {
			return err
		}
	}
	return env.Scene.Delete(node)
}
