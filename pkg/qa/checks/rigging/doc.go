// Package rigging provides rig and skin cluster rules.
//
// Rigging:
//   - RG01: Non Deformer History
//   - RG02: Non Set-Driven Animation
//
// Skinning:
//   - SK01: Unused Influences
//   - SK02: Maximum Influences
package rigging

// Categories of the rules in this package.
const (
	CategoryRigging  = "Rigging"
	CategorySkinning = "Skinning"
)
