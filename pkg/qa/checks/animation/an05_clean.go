package animation

import (
	"errors"
	"iter"
	"math"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(CleanAnimation)
}

// CleanAnimation flags static curves and curves with redundant keys.
var CleanAnimation = qa.RuleDef{
	ID:         "AN05",
	Name:       "Clean Animation",
	Urgency:    qa.UrgencyError,
	Message:    "{0} animation curve(s) have unnecessary key(s)",
	Categories: []string{Category},
	Selectable: true,
	Description: "Animation curves are checked for unnecessary keys. Fixing removes the redundant keys, " +
		"or deletes the whole curve when the channel is static. The driven value is kept.",
	ConfigKeys: []string{"angle", "size"},
	Detect:     detectUnclean,
	Fix:        fixUnclean,
}

// Default thresholds for CleanAnimation.
const (
	DefaultAngle = 0.001
	DefaultSize  = 0.001
)

// CurveAction is the cleanup a curve needs.
type CurveAction int

const (
	// ActionPass leaves the curve alone.
	ActionPass CurveAction = iota
	// ActionDelete removes the whole curve.
	ActionDelete
	// ActionCut removes individual keys.
	ActionCut
)

// Evaluate decides how a curve should be cleaned. For ActionCut it returns the
// ascending indices of the redundant keys.
//
// An inner key is redundant when it is flat with its neighbours (tangent
// angles under angle, value steps under size), or when the curve is stepped
// around it and it repeats the previous value. A curve with at most one key,
// or whose only remaining keys are two equal flat endpoints, is static.
func Evaluate(keys []scene.Key, angle, size float64) (CurveAction, []int) {
	n := len(keys)
	in := make([]float64, n)
	out := make([]float64, n)
	for i, k := range keys {
		in[i] = math.Abs(k.InAngle)
		out[i] = math.Abs(k.OutAngle)
	}

	var indices []int
	for i := 1; i < n-1; i++ {
		stepped := keys[i-1].OutTangent == "step" &&
			keys[i].OutTangent == "step" &&
			keys[i+1].OutTangent == "step"
		flat := out[i-1] < angle && in[i] < angle && out[i] < angle && in[i+1] < angle
		if !stepped && !flat {
			continue
		}
		prev := math.Abs(keys[i-1].Value - keys[i].Value)
		next := math.Abs(keys[i+1].Value - keys[i].Value)
		if (stepped && prev < size) || (!stepped && prev < size && next < size) {
			indices = append(indices, i)
		}
	}

	switch {
	case n <= 1:
		return ActionDelete, nil
	case n-len(indices) == 2 &&
		math.Abs(keys[0].Value-keys[n-1].Value) < size &&
		out[0] < angle && in[n-1] < angle:
		return ActionDelete, nil
	case len(indices) > 0:
		return ActionCut, indices
	default:
		return ActionPass, nil
	}
}

func thresholds(env *qa.Env) (angle, size float64) {
	return qa.GetFloatOption(env.Options, "angle", DefaultAngle), qa.GetFloatOption(env.Options, "size", DefaultSize)
}

func detectUnclean(env *qa.Env) iter.Seq2[qa.Item, error] {
	angle, size := thresholds(env)
	return qa.Each(func() ([]string, error) { return timeCurves(env) }, func(curve qa.Item) (bool, error) {
		keys, err := env.Scene.Keys(curve)
		if err != nil {
			return false, err
		}
		action, _ := Evaluate(keys, angle, size)
		return action != ActionPass, nil
	})
}

func fixUnclean(env *qa.Env, curve qa.Item) error {
	if !env.Scene.Exists(curve) {
		return nil
	}
	keys, err := env.Scene.Keys(curve)
	if err != nil {
		return err
	}
	angle, size := thresholds(env)
	action, indices := Evaluate(keys, angle, size)

	switch action {
	case ActionDelete:
		return deleteStaticCurve(env, curve)
	case ActionCut:
		for _, i := range slices.Backward(indices) {
			keys = slices.Delete(keys, i, i+1)
		}
		return env.Scene.SetKeys(curve, keys)
	}
	return nil
}

// deleteStaticCurve deletes curve and writes the value it was producing back
// onto every unlocked plug it drove.
func deleteStaticCurve(env *qa.Env, curve string) error {
	plugs, err := env.Scene.Connections(scene.Plug(curve, "output"), scene.ConnQuery{Destination: true, Plugs: true})
	if err != nil {
		return err
	}
	values := make(map[string]any, len(plugs))
	for _, p := range plugs {
		v, err := env.Scene.GetAttr(p)
		if err != nil {
			if errors.Is(err, scene.ErrNotFound) {
				continue
			}
			return err
		}
		values[p] = v
	}

	if err := env.Scene.Delete(curve); err != nil {
		return err
	}

	for _, p := range plugs {
		v, ok := values[p]
		if !ok {
			continue
		}
		locked, err := env.Scene.IsAttrLocked(p)
		if err != nil {
			return err
		}
		if locked {
			continue
		}
		if err := env.Scene.SetAttr(p, v); err != nil {
			return err
		}
	}
	return nil
}
