package shading

import (
	"errors"
	"iter"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(NonExistingTextures)
}

// NonExistingTextures flags file nodes pointing at a missing texture.
var NonExistingTextures = qa.RuleDef{
	ID:         "TX01",
	Name:       "Non Existing Textures",
	Urgency:    qa.UrgencyError,
	Message:    "{0} file(s) contain a link to a not existing texture",
	Categories: []string{CategoryTextures},
	Selectable: true,
	Description: "File nodes are checked to see if their texture exists on disk. " +
		"Relative paths resolve against the root option. Fixing disables file loading.",
	ConfigKeys: []string{"root"},
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		root := qa.GetStringOption(env.Options, "root", "")
		return qa.Each(func() ([]string, error) {
			return env.List(scene.Query{Types: []string{"file"}})
		}, func(node qa.Item) (bool, error) {
			if disabled, err := fileLoadDisabled(env, node); err != nil || disabled {
				return false, err
			}
			path, err := texturePath(env, node)
			if err != nil {
				return false, err
			}
			if path == "" {
				return true, nil
			}
			if !filepath.IsAbs(path) && root != "" {
				path = filepath.Join(root, path)
			}
			_, err = os.Stat(path)
			return errors.Is(err, os.ErrNotExist), nil
		})
	},
	Fix: func(env *qa.Env, node qa.Item) error {
		if !env.Scene.Exists(node) {
			return nil
		}
		return env.Scene.SetAttr(scene.Plug(node, "disableFileLoad"), true)
	},
}

func texturePath(env *qa.Env, node string) (string, error) {
	plug := scene.Plug(node, "fileTextureName")
	if !env.Scene.Exists(plug) {
		return "", nil
	}
	v, err := env.Scene.GetAttr(plug)
	if err != nil {
		return "", err
	}
	s, _ := scene.AsString(v)
	return s, nil
}

func fileLoadDisabled(env *qa.Env, node string) (bool, error) {
	plug := scene.Plug(node, "disableFileLoad")
	if !env.Scene.Exists(plug) {
		return false, nil
	}
	v, err := env.Scene.GetAttr(plug)
	if err != nil {
		return false, err
	}
	disabled, _ := scene.AsBool(v)
	return disabled, nil
}
