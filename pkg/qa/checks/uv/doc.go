// Package uv provides rules for uv set hygiene.
//
//   - UV01: Empty UV Sets
//   - UV02: Unused UV Sets
package uv

// Category of the rules in this package.
const Category = "UV"
