package animation

import (
	"iter"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(TemplateAnimation)
}

// TemplateAnimation flags curves with locked keys.
var TemplateAnimation = qa.RuleDef{
	ID:          "AN04",
	Name:        "Template Animation",
	Urgency:     qa.UrgencyError,
	Message:     "{0} animation curve(s) are set to template",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Animation curves are checked for templated keys. Fixing unlocks every key and the key channel.",
	Detect:      detectTemplated,
	Fix:         fixTemplated,
}

func detectTemplated(env *qa.Env) iter.Seq2[qa.Item, error] {
	return qa.Each(func() ([]string, error) { return timeCurves(env) }, func(curve qa.Item) (bool, error) {
		keys, err := env.Scene.Keys(curve)
		if err != nil {
			return false, err
		}
		for _, k := range keys {
			if k.Locked {
				return true, nil
			}
		}
		return false, nil
	})
}

func fixTemplated(env *qa.Env, curve qa.Item) error {
	if !env.Scene.Exists(curve) {
		return nil
	}
	keys, err := env.Scene.Keys(curve)
	if err != nil {
		return err
	}
	for i := range keys {
		keys[i].Locked = false
	}
	if err := env.Scene.SetKeys(curve, keys); err != nil {
		return err
	}
	return env.Scene.SetAttrLocked(scene.Plug(curve, "ktv"), false)
}
