// Package renderlayers provides rules for render layer adjustments. An
// adjustment is a scene plug connected to a layer's
// outAdjustments[i].outPlug, whose outAdjustments[i].outValue feeds the
// shading group used on that layer.
//
//   - RL01: Missing Adjustments
//   - RL02: Duplicate Adjustments
package renderlayers

// Category of the rules in this package.
const Category = "Render Layers"
