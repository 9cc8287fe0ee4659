package animation

import (
	"iter"
	"math"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(SubFrameAnimation)
}

// SubFrameAnimation flags time curves with keys off whole frames.
var SubFrameAnimation = qa.RuleDef{
	ID:          "AN03",
	Name:        "Sub-Frame Animation",
	Urgency:     qa.UrgencyWarning,
	Message:     "{0} animation curve(s) have keys in sub-frames",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Animation curves are checked for keys set on sub-frames. Fixing rounds those keys to the closest frame.",
	ConfigKeys:  []string{"tolerance"},
	Detect:      detectSubFrames,
	Fix:         fixSubFrames,
}

func timeCurves(env *qa.Env) ([]string, error) {
	curves, err := env.ListUnreferenced("animCurve")
	if err != nil {
		return nil, err
	}
	return scene.RemoveDriven(env.Scene, curves)
}

func offFrame(t, tolerance float64) bool {
	return math.Abs(math.Round(t)-t) > tolerance
}

func detectSubFrames(env *qa.Env) iter.Seq2[qa.Item, error] {
	tolerance := qa.GetFloatOption(env.Options, "tolerance", 0)
	return qa.Each(func() ([]string, error) { return timeCurves(env) }, func(curve qa.Item) (bool, error) {
		keys, err := env.Scene.Keys(curve)
		if err != nil {
			return false, err
		}
		for _, k := range keys {
			if offFrame(k.Time, tolerance) {
				return true, nil
			}
		}
		return false, nil
	})
}

func fixSubFrames(env *qa.Env, curve qa.Item) error {
	if !env.Scene.Exists(curve) {
		return nil
	}
	keys, err := env.Scene.Keys(curve)
	if err != nil {
		return err
	}
	changed := false
	for i := range keys {
		if keys[i].Time != math.Round(keys[i].Time) {
			keys[i].Time = math.Round(keys[i].Time)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return env.Scene.SetKeys(curve, keys)
}
