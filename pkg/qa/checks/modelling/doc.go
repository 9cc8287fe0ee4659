// Package modelling provides rules for clean model hand-off: frozen
// transforms, no construction history and no animation.
package modelling

// Category of the rules in this package.
const Category = "Modelling"
