package rigging

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(UnusedInfluences)
	qa.Register(MaximumInfluences)
}

// UnusedInfluences flags skin clusters with influences that carry no weight.
var UnusedInfluences = qa.RuleDef{
	ID:         "SK01",
	Name:       "Unused Influences",
	Urgency:    qa.UrgencyWarning,
	Message:    "{0} skin cluster(s) contain unused influences",
	Categories: []string{CategorySkinning},
	Selectable: true,
	Description: "Skin clusters are checked to see if they contain unused influences. " +
		"Fixing removes them from the skin cluster.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("skinCluster"), func(cluster qa.Item) (bool, error) {
			data, err := env.Scene.Skin(cluster)
			if err != nil {
				return false, err
			}
			if data.Geometry == "" {
				return false, nil
			}
			return len(unusedInfluences(data)) > 0, nil
		})
	},
	Fix: func(env *qa.Env, cluster qa.Item) error {
		if !env.Scene.Exists(cluster) {
			return nil
		}
		data, err := env.Scene.Skin(cluster)
		if err != nil {
			return err
		}
		unused := unusedInfluences(data)
		if len(unused) == 0 {
			return nil
		}
		env.Log().Debug("removing influences", "cluster", cluster, "count", len(unused))
		return env.Scene.SetSkin(cluster, removeInfluences(data, unused))
	},
}

// MaximumInfluences flags skin clusters with vertices above their influence
// limit.
var MaximumInfluences = qa.RuleDef{
	ID:         "SK02",
	Name:       "Maximum Influences",
	Urgency:    qa.UrgencyError,
	Message:    "{0} skin cluster(s) exceed the maximum influences",
	Categories: []string{CategorySkinning},
	Selectable: true,
	Description: "Skin clusters are checked to see if they contain vertices that exceed the maximum influences. " +
		"Fixing removes the lowest weights and normalizes the rest.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(func() ([]string, error) {
			return env.List(scene.Query{Types: []string{"skinCluster"}})
		}, func(cluster qa.Item) (bool, error) {
			data, err := env.Scene.Skin(cluster)
			if err != nil {
				return false, err
			}
			return exceedsMax(data), nil
		})
	},
	Fix: func(env *qa.Env, cluster qa.Item) error {
		if !env.Scene.Exists(cluster) {
			return nil
		}
		data, err := env.Scene.Skin(cluster)
		if err != nil {
			return err
		}
		if !exceedsMax(data) {
			return nil
		}
		out := data.Clone()
		for v, row := range out.Weights {
			if nonZero(row) > data.MaxInfluences {
				out.Weights[v] = pruneWeights(row, data.Locked, data.MaxInfluences, data.Normalize)
			}
		}
		return env.Scene.SetSkin(cluster, out)
	},
}
