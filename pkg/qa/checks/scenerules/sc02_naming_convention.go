package scenerules

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(NamingConvention)
}

// NamingConvention flags nodes that are not named in lower_snake_case.
var NamingConvention = qa.RuleDef{
	ID:         "SC02",
	Name:       "Naming Convention",
	Urgency:    qa.UrgencyWarning,
	Message:    "{0} node(s) don't follow the naming convention",
	Categories: []string{Category},
	Selectable: true,
	Description: "Nodes of the checked types must be lower case words split by underscores. " +
		"Fixing renames them to follow the convention.",
	ConfigKeys: []string{"node_types"},
	Detect:     detectNamingConvention,
	Fix:        fixNamingConvention,
}

var defaultConventionTypes = []string{"transform", "joint"}

// ConventionName converts the base name of path to the naming convention:
// "pCube1" becomes "pcube_1", "leftArm_IK" becomes "left_arm_ik".
func ConventionName(path string) string {
	var sections []string
	for _, s := range strings.Split(scene.BaseName(path), "_") {
		if s == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(s)
		sections = append(sections, string(unicode.ToUpper(r))+s[size:])
	}
	sections = splitOn(sections, unicode.IsUpper)
	sections = splitOn(sections, unicode.IsDigit)
	for i, s := range sections {
		sections[i] = strings.ToLower(s)
	}
	return strings.Join(sections, "_")
}

// splitOn breaks each section before every run of characters matching fn.
func splitOn(sections []string, fn func(rune) bool) []string {
	var out []string
	for _, s := range sections {
		var starts []int
		prev := false
		for i, r := range s {
			hit := fn(r)
			if hit && !prev {
				starts = append(starts, i)
			}
			prev = hit
		}
		if len(starts) == 0 {
			out = append(out, s)
			continue
		}
		if starts[0] != 0 {
			starts = append([]int{0}, starts...)
		}
		for j, start := range starts {
			if j == len(starts)-1 {
				out = append(out, s[start:])
			} else {
				out = append(out, s[start:starts[j+1]])
			}
		}
	}
	return out
}

func detectNamingConvention(env *qa.Env) iter.Seq2[qa.Item, error] {
	types := qa.GetStringSliceOption(env.Options, "node_types", defaultConventionTypes)
	list := func() ([]string, error) {
		nodes, err := env.ListUnreferenced(types...)
		if err != nil {
			return nil, err
		}
		// Deepest first: renaming a parent changes the paths of its children.
		slices.SortStableFunc(nodes, func(a, b string) int {
			return scene.Depth(b) - scene.Depth(a)
		})
		return nodes, nil
	}
	return qa.Each(list, func(node qa.Item) (bool, error) {
		return scene.BaseName(node) != ConventionName(node), nil
	})
}

func fixNamingConvention(env *qa.Env, node qa.Item) error {
	if !env.Scene.Exists(node) {
		return nil
	}
	name := ConventionName(node)
	if name == "" || scene.BaseName(node) == name {
		return nil
	}
	_, err := env.Scene.Rename(node, name)
	return err
}
