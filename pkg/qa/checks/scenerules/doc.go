// Package scenerules provides scene hygiene rules shared by every collection.
//
//   - SC01: Default Names - transforms keep a tool default name
//   - SC02: Naming Convention - names are not lower_snake_case
//   - SC03: Unique Names - transform names clash
//   - SC04: Unknown Nodes - nodes of an unknown type
//   - SC05: Not Connected Intermediate Shape
//   - SC06: Not Connected Group ID
//   - SC07: Hyper Bookmarks - node editor bookmarks
//   - SC08: Empty Transforms
//   - SC09: Empty Display Layers
//   - SC10: Empty Render Layers
//   - SC11: Non Referenced Namespaces
//   - SC12: Empty Namespaces
package scenerules

// Category is the category shared by every rule in this package.
const Category = "Scene"
