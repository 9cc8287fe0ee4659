package scenerules

import (
	"fmt"
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(UniqueNames)
}

// UniqueNames flags transforms sharing a name with another node.
var UniqueNames = qa.RuleDef{
	ID:          "SC03",
	Name:        "Unique Names",
	Urgency:     qa.UrgencyError,
	Message:     "{0} transform(s) don't have a unique name",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Transforms are checked to see if their name is unique. Fixing appends a free numbered suffix.",
	Detect:      detectUniqueNames,
	Fix:         fixUniqueNames,
}

// nameCounts counts every node of the scene by its root name.
func nameCounts(env *qa.Env) (map[string]int, error) {
	all, err := env.Scene.List(scene.Query{Long: true})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(all))
	for _, n := range all {
		counts[scene.RootName(n)]++
	}
	return counts, nil
}

func detectUniqueNames(env *qa.Env) iter.Seq2[qa.Item, error] {
	var counts map[string]int
	list := func() ([]string, error) {
		var err error
		if counts, err = nameCounts(env); err != nil {
			return nil, err
		}
		return env.List(scene.Query{Types: []string{"transform"}, Long: true})
	}
	return qa.Each(list, func(node qa.Item) (bool, error) {
		return counts[scene.RootName(node)] > 1, nil
	})
}

func fixUniqueNames(env *qa.Env, node qa.Item) error {
	if !env.Scene.Exists(node) {
		return nil
	}
	counts, err := nameCounts(env)
	if err != nil {
		return err
	}
	root := scene.RootName(node)
	if counts[root] <= 1 {
		return nil
	}
	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s_%03d", root, i)
		if counts[candidate] == 0 {
			_, err := env.Scene.Rename(node, candidate)
			return err
		}
	}
	return fmt.Errorf("no free name for %s", root)
}
