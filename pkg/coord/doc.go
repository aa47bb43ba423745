// Package coord implements the parametric coordinate graph of a sketch.
//
// Positions along each of the three axes are not stored as numbers but as
// nodes in a per-axis dependency graph. Every node derives its value from
// its parents and a shareable Parameter, so editing a parameter moves every
// coordinate that depends on it. The Axis type owns the nodes of one
// dimension together with the anchor used for default placement, and
// CoordinateSystem bundles the three axes with placement, snapping and
// persistence.
//
// The package is single threaded. Change events are delivered synchronously
// to every listener before the mutating call returns.
package coord
