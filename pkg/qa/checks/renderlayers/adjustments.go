package renderlayers

import (
	"fmt"
	"iter"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(MissingAdjustments)
	qa.Register(DuplicateAdjustments)
}

// DefaultShadingGroup receives adjustments whose scene plug has no shading
// group of its own.
const DefaultShadingGroup = "initialShadingGroup"

// MissingAdjustments flags adjustments whose value feeds nothing.
var MissingAdjustments = qa.RuleDef{
	ID:         "RL01",
	Name:       "Missing Adjustments",
	Urgency:    qa.UrgencyError,
	Message:    "{0} missing renderlayer adjustment(s)",
	Categories: []string{Category},
	Description: "Render layer adjustments are checked to see if their value is connected. " +
		"Default layers are skipped. Fixing connects the value to the shading group of the adjusted plug.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachAdjustment(env, func(_ []adjustment, _ int, adj adjustment) (qa.Item, bool, error) {
			dst, err := valueTargets(env.Scene, adj.plug)
			if err != nil || len(dst) > 0 {
				return "", false, err
			}
			return valuePlug(adj.plug), true, nil
		})
	},
	Fix: fixMissing,
}

// DuplicateAdjustments flags adjustments of a plug that a later adjustment
// on the same layer adjusts again.
var DuplicateAdjustments = qa.RuleDef{
	ID:         "RL02",
	Name:       "Duplicate Adjustments",
	Urgency:    qa.UrgencyError,
	Message:    "{0} duplicate renderlayer adjustment(s)",
	Categories: []string{Category},
	Description: "Render layer adjustments are checked to see if a plug is adjusted more than once on a layer. " +
		"Fixing disconnects all but the last adjustment.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return eachAdjustment(env, func(all []adjustment, i int, adj adjustment) (qa.Item, bool, error) {
			for _, later := range all[i+1:] {
				if later.source == adj.source {
					return adj.plug, true, nil
				}
			}
			return "", false, nil
		})
	},
	Fix: fixDuplicate,
}

type adjustment struct {
	plug   string // layer.outAdjustments[i].outPlug
	source string // the adjusted scene plug
}

func adjustments(r scene.Reader, layer string) ([]adjustment, error) {
	pairs, err := r.Connections(scene.Plug(layer, "outAdjustments"), scene.ConnQuery{Source: true, Connected: true})
	if err != nil {
		return nil, err
	}
	out := make([]adjustment, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.HasSuffix(pairs[i], ".outPlug") {
			out = append(out, adjustment{plug: pairs[i], source: pairs[i+1]})
		}
	}
	return out, nil
}

// eachAdjustment visits the adjustments of every non-default layer.
func eachAdjustment(env *qa.Env, check func(all []adjustment, i int, adj adjustment) (qa.Item, bool, error)) iter.Seq2[qa.Item, error] {
	return func(yield func(qa.Item, error) bool) {
		layers, err := env.ListUnreferenced("renderLayer")
		if err != nil {
			yield("", err)
			return
		}
		for _, layer := range layers {
			if strings.Contains(layer, "defaultRenderLayer") {
				continue
			}
			all, err := adjustments(env.Scene, layer)
			if err != nil {
				yield("", err)
				return
			}
			for i, adj := range all {
				item, ok, err := check(all, i, adj)
				if err != nil {
					yield("", err)
					return
				}
				if ok && !yield(item, nil) {
					return
				}
			}
		}
	}
}

func valuePlug(outPlug string) string {
	return strings.TrimSuffix(outPlug, ".outPlug") + ".outValue"
}

func valueTargets(r scene.Reader, outPlug string) ([]string, error) {
	return r.Connections(valuePlug(outPlug), scene.ConnQuery{Destination: true, Plugs: true})
}

// shadingGroupFor returns the shading group the scene plug feeds. Object
// group plugs fall back to their instance plug.
func shadingGroupFor(r scene.Reader, plug string) (string, error) {
	candidates := []string{plug}
	if strings.Contains(plug, "objectGroups") {
		candidates = append(candidates, plug[:strings.LastIndex(plug, ".")])
	}
	for _, p := range candidates {
		sgs, err := r.Connections(p, scene.ConnQuery{Destination: true, Type: "shadingEngine"})
		if err != nil {
			return "", err
		}
		if len(sgs) > 0 {
			return sgs[0], nil
		}
	}
	return DefaultShadingGroup, nil
}

func fixMissing(env *qa.Env, value qa.Item) error {
	layer, _ := scene.SplitPlug(value)
	if !env.Scene.Exists(layer) {
		return nil
	}
	outPlug := strings.TrimSuffix(value, ".outValue") + ".outPlug"
	sources, err := env.Scene.Connections(outPlug, scene.ConnQuery{Source: true, Plugs: true})
	if err != nil || len(sources) == 0 {
		return err
	}
	dst, err := valueTargets(env.Scene, outPlug)
	if err != nil || len(dst) > 0 {
		return err
	}
	sg, err := shadingGroupFor(env.Scene, sources[0])
	if err != nil {
		return err
	}
	return env.Scene.Connect(value, fmt.Sprintf("%s.dagSetMembers", sg))
}

func fixDuplicate(env *qa.Env, outPlug qa.Item) error {
	layer, _ := scene.SplitPlug(outPlug)
	if !env.Scene.Exists(layer) {
		return nil
	}
	sources, err := env.Scene.Connections(outPlug, scene.ConnQuery{Source: true, Plugs: true})
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := env.Scene.Disconnect(src, outPlug); err != nil {
			return err
		}
	}
	dst, err := valueTargets(env.Scene, outPlug)
	if err != nil {
		return err
	}
	for _, d := range dst {
		if err := env.Scene.Disconnect(valuePlug(outPlug), d); err != nil {
			return err
		}
	}
	return nil
}
