// Package geometry provides polygon topology rules.
//
//   - GE01: Empty Mesh
//   - GE02: Non-Manifold Edges
//   - GE03: Zero Edge Length
//   - GE04: Zero Area Faces
//   - GE05: Overlapping Faces
//   - GE06: N-Gon Faces
//   - GE07: Lamina Faces
//   - GE08: Locked Normals
//
// Meshes that carry no topology in the scene are not inspected.
package geometry

// Category of the rules in this package.
const Category = "Geometry"
