package scenerules

import (
	"iter"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(HyperBookmarks)
}

var (
	bookmarkTypes   = []string{"hyperLayout", "hyperGraphInfo", "hyperView"}
	bookmarkIgnored = []string{"hyperGraphInfo", "hyperGraphLayout"}
)

// HyperBookmarks flags node editor bookmarks.
var HyperBookmarks = qa.RuleDef{
	ID:         "SC07",
	Name:       "Hyper Bookmarks",
	Urgency:    qa.UrgencyError,
	Message:    "{0} hyper bookmark(s) found",
	Categories: []string{Category},
	Selectable: true,
	Description: "Hyper bookmarks are listed. Fixing deletes them; the nodes they point at are locked " +
		"during the deletion so nothing else goes with them.",
	ConfigKeys: []string{"ignore"},
	Detect:     detectHyperBookmarks,
	Fix:        fixHyperBookmark,
}

func detectHyperBookmarks(env *qa.Env) iter.Seq2[qa.Item, error] {
	ignore := qa.GetStringSliceOption(env.Options, "ignore", bookmarkIgnored)
	return qa.Each(env.Unreferenced(bookmarkTypes...), func(node qa.Item) (bool, error) {
		return !slices.Contains(ignore, node), nil
	})
}

func fixHyperBookmark(env *qa.Env, bookmark qa.Item) (err error) {
	if !env.Scene.Exists(bookmark) {
		return nil
	}
	linked, err := env.Scene.Connections(scene.Plug(bookmark, "hyperPosition"), scene.ConnQuery{})
	if err != nil {
		return err
	}
	linked, err = scene.RemoveReferenced(env.Scene, linked)
	if err != nil {
		return err
	}

	restore := make(map[string]bool, len(linked))
	defer func() {
		for node, state := range restore {
			if lerr := env.Scene.SetLocked(node, state); lerr != nil && err == nil {
				err = lerr
			}
		}
	}()
	for _, node := range linked {
		state, err := env.Scene.IsLocked(node)
		if err != nil {
			return err
		}
		if err := env.Scene.SetLocked(node, true); err != nil {
			return err
		}
		restore[node] = state
	}
	return env.Scene.Delete(bookmark)
}
