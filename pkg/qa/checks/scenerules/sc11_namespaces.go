package scenerules

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(NonReferencedNamespaces)
	qa.Register(EmptyNamespaces)
}

var ignoredNamespaces = []string{"shared", "UI"}

// NonReferencedNamespaces flags local nodes living in a namespace.
var NonReferencedNamespaces = qa.RuleDef{
	ID:         "SC11",
	Name:       "Non Referenced Namespaces",
	Urgency:    qa.UrgencyError,
	Message:    "{0} node(s) have a non-referenced namespace",
	Categories: []string{Category},
	Selectable: false,
	Description: "Nodes that are not referenced are checked for a namespace. Fixing moves the node to the " +
		"root namespace and removes the namespace once it is empty.",
	Detect: func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return qa.Each(env.Unreferenced(), func(node qa.Item) (bool, error) {
			return strings.Contains(scene.RootName(node), ":"), nil
		})
	},
	Fix: fixNonReferencedNamespace,
}

// EmptyNamespaces flags namespaces that hold no nodes.
var EmptyNamespaces = qa.RuleDef{
	ID:          "SC12",
	Name:        "Empty Namespaces",
	Urgency:     qa.UrgencyError,
	Message:     "{0} namespace(s) are empty",
	Categories:  []string{Category},
	Selectable:  false,
	Description: "Namespaces are checked to see if they are empty. Fixing removes them.",
	ConfigKeys:  []string{"ignore"},
	Detect:      detectEmptyNamespaces,
	Fix:         fixEmptyNamespace,
}

func fixNonReferencedNamespace(env *qa.Env, node qa.Item) error {
	if !env.Scene.Exists(node) {
		return nil
	}
	ns := scene.Namespace(node)
	if ns == "" {
		return nil
	}
	if _, err := env.Scene.Rename(node, scene.BaseName(node)); err != nil {
		return err
	}
	empty, err := namespaceEmpty(env, ns)
	if err != nil || !empty {
		return err
	}
	if err := env.Scene.RemoveNamespace(ns); err != nil && !errors.Is(err, scene.ErrNotEmpty) {
		return err
	}
	return nil
}

func namespaceEmpty(env *qa.Env, ns string) (bool, error) {
	members, err := env.Scene.NamespaceMembers(ns)
	if errors.Is(err, scene.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(members) == 0, nil
}

func detectEmptyNamespaces(env *qa.Env) iter.Seq2[qa.Item, error] {
	ignore := qa.GetStringSliceOption(env.Options, "ignore", ignoredNamespaces)
	list := func() ([]string, error) {
		namespaces, err := env.Scene.Namespaces()
		if err != nil {
			return nil, err
		}
		// Nested namespaces come before their parents.
		slices.Reverse(namespaces)
		return namespaces, nil
	}
	return qa.Each(list, func(ns qa.Item) (bool, error) {
		if slices.Contains(ignore, ns) {
			return false, nil
		}
		return namespaceEmpty(env, ns)
	})
}

func fixEmptyNamespace(env *qa.Env, ns qa.Item) error {
	namespaces, err := env.Scene.Namespaces()
	if err != nil {
		return err
	}
	if !slices.Contains(namespaces, ns) {
		return nil
	}
	return env.Scene.RemoveNamespace(ns)
}
