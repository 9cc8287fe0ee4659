// Package animation provides rules for animation curve hygiene.
//
//   - AN01: Unused Animation Curve - curve output is not connected
//   - AN02: Component Animation - curve drives mesh components
//   - AN03: Sub-Frame Animation - keys sit between whole frames
//   - AN04: Template Animation - keys are locked (templated)
//   - AN05: Clean Animation - static curves and redundant keys
package animation

// Category is the category shared by every rule in this package.
const Category = "Animation"
