package scenerules

import (
	"iter"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

func init() {
	qa.Register(DefaultNames)
}

// DefaultNamePrefixes are the names the host gives to new objects.
var DefaultNamePrefixes = []string{
	"set", "locator", "imagePlane", "plane", "Text",
	"distanceDimension", "curve", "camera",
	"volumeLight", "areaLight", "spotLight", "pointLight",
	"directionalLight", "ambientLight", "pSolid", "pHelix",
	"nurbsSquare", "nurbsCircle", "cone", "box", "sphere",
	"group", "nurbsTorus", "nurbsPlane", "nurbsCone", "nurbsCylinder",
	"nurbsCube", "nurbsSphere", "pPipe", "pPyramid", "pTorus",
	"pPlane", "pCone", "pCylinder", "pCube", "pSphere", "null",
	"Char",
}

// DefaultNames flags transforms still carrying a default name.
var DefaultNames = qa.RuleDef{
	ID:          "SC01",
	Name:        "Default Names",
	Urgency:     qa.UrgencyWarning,
	Message:     "{0} transform(s) have a default name",
	Categories:  []string{Category},
	Selectable:  true,
	Description: "Transforms are checked to see if their name starts with a default name.",
	ConfigKeys:  []string{"prefixes"},
	Detect:      detectDefaultNames,
}

func defaultNamePattern(prefixes []string) *regexp.Regexp {
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^(?:" + strings.Join(quoted, "|") + ")")
}

func detectDefaultNames(env *qa.Env) iter.Seq2[qa.Item, error] {
	re := defaultNamePattern(qa.GetStringSliceOption(env.Options, "prefixes", DefaultNamePrefixes))
	return qa.Each(env.Unreferenced("transform"), func(node qa.Item) (bool, error) {
		return re.MatchString(scene.RootName(node)), nil
	})
}
