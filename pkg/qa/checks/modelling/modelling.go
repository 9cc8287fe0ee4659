package modelling

import (
	"iter"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(FreezeTransforms)
	qa.Register(History)
	qa.Register(Animation)
}

// DefaultIgnoredTransforms are the startup cameras, which are never frozen.
var DefaultIgnoredTransforms = []string{"|persp", "|front", "|top", "|side"}

var identity = []struct {
	attr  string
	value float64
}{
	{"tx", 0}, {"ty", 0}, {"tz", 0},
	{"rx", 0}, {"ry", 0}, {"rz", 0},
	{"sx", 1}, {"sy", 1}, {"sz", 1},
}

// FreezeTransforms flags transforms carrying non-identity channels.
var FreezeTransforms = qa.RuleDef{
	ID:          "MD01",
	Name:        "Freeze Transforms",
	Urgency:     qa.UrgencyError,
	Message:     "{0} transform(s) are not frozen",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Transforms are checked to see if they have unfrozen attributes. Fixing freezes them.",
	ConfigKeys:  []string{"ignore"},
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		ignore := qa.GetStringSliceOption(env.Options, "ignore", DefaultIgnoredTransforms)
		return qa.Each(env.Unreferenced("transform"), func(node qa.Item) (bool, error) {
			if slices.Contains(ignore, node) {
				return false, nil
			}
			return unfrozen(env.Scene, node)
		})
	},
	Fix: func(env *qa.Env, node qa.Item) error {
		if !env.Scene.Exists(node) {
			return nil
		}
		return env.Scene.FreezeTransform(node)
	},
}

func unfrozen(r scene.Reader, node string) (bool, error) {
	for _, ch := range identity {
		plug := scene.Plug(node, ch.attr)
		if !r.Exists(plug) {
			continue
		}
		v, err := r.GetAttr(plug)
		if err != nil {
			return false, err
		}
		if f, ok := scene.AsFloat(v); ok && f != ch.value {
			return true, nil
		}
	}
	return false, nil
}

// historyIgnoredTypes are node types that do not count as construction
// history. They match exactly, not by inheritance.
var historyIgnoredTypes = []string{
	"tweak", "groupParts", "groupId",
	"shape", "shadingEngine", "mesh",
}

// History flags meshes with construction history.
var History = qa.RuleDef{
	ID:          "MD02",
	Name:        "History",
	Urgency:     qa.UrgencyError,
	Message:     "{0} mesh(es) contain history nodes",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Meshes are checked to see if they have history attached to them. Fixing deletes the history.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("mesh"), func(mesh qa.Item) (bool, error) {
			history, err := env.Scene.History(mesh)
			if err != nil {
				return false, err
			}
			for _, h := range history {
				typ, err := env.Scene.NodeType(h)
				if err != nil {
					return false, err
				}
				if !slices.Contains(historyIgnoredTypes, typ) {
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
		return env.Scene.DeleteHistory(mesh, false)
	},
}

// Animation flags every animation curve in a model scene.
var Animation = qa.RuleDef{
	ID:          "MD03",
	Name:        "Animation",
	Urgency:     qa.UrgencyError,
	Message:     "{0} animation curve(s) in the scene",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Every animation curve is reported. Fixing deletes them.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced("animCurve"), nil)
	},
	Fix: qa.DeleteNode,
}
