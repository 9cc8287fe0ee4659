// Package shading provides look-development rules.
//
// Shaders:
//   - SH01: No Shading Group Assignment
//   - SH02: Initial Shading Group Assignment
//   - SH03: Face Assignment - shading groups holding face components
//
// Textures:
//   - TX01: Non Existing Textures - file nodes pointing at missing files
//
// Render Stats:
//   - RS01..RS08: mesh render flags left at a non-default value
package shading

// Categories of the rules in this package.
const (
	CategoryShaders     = "Shaders"
	CategoryTextures    = "Textures"
	CategoryRenderStats = "Render Stats"
)
