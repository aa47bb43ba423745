package coord

import "fmt"

// AnchorCoordinates tracks the most recently picked (primary) and the
// previously picked (secondary) coordinate on one axis. Both start at, and
// reset to, the axis origin.
type AnchorCoordinates struct {
	origin    *Coordinate
	primary   *Coordinate
	secondary *Coordinate
}

func newAnchorCoordinates(origin *Coordinate) *AnchorCoordinates {
	return &AnchorCoordinates{origin: origin, primary: origin, secondary: origin}
}

// Primary returns the current primary coordinate.
func (a *AnchorCoordinates) Primary() *Coordinate { return a.primary }

// Secondary returns the current secondary coordinate.
func (a *AnchorCoordinates) Secondary() *Coordinate { return a.secondary }

// SetPrimary makes c the primary and demotes the old primary to secondary.
func (a *AnchorCoordinates) SetPrimary(c *Coordinate) {
	a.secondary = a.primary
	a.primary = c
}

// ResetPrimary points the primary back at the origin.
func (a *AnchorCoordinates) ResetPrimary() { a.primary = a.origin }

// ResetSecondary points the secondary back at the origin.
func (a *AnchorCoordinates) ResetSecondary() { a.secondary = a.origin }

// Match reports whether primary and secondary are the same node, in which
// case no midpoint exists.
func (a *AnchorCoordinates) Match() bool { return a.primary == a.secondary }

func (a *AnchorCoordinates) String() string {
	return fmt.Sprintf("anchor: primary %s, secondary %s", a.primary, a.secondary)
}

// Anchor is a read-only view of the three axes' anchor coordinates.
type Anchor struct {
	axes [3]*AnchorCoordinates
}

// PrimaryPosition returns the primary anchor as a 3D point.
func (a Anchor) PrimaryPosition() Vec3 {
	var v Vec3
	for _, id := range XYZ {
		v.Set(id, a.axes[id].primary.Value())
	}
	return v
}

// SecondaryPosition returns the secondary anchor as a 3D point.
func (a Anchor) SecondaryPosition() Vec3 {
	var v Vec3
	for _, id := range XYZ {
		v.Set(id, a.axes[id].secondary.Value())
	}
	return v
}

// Axis returns the anchor coordinates of one axis.
func (a Anchor) Axis(id AxisID) *AnchorCoordinates {
	return a.axes[id]
}
