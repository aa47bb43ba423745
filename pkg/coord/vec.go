package coord

import "fmt"

// AxisID identifies one of the three spatial dimensions.
type AxisID int

const (
	AxisX AxisID = iota
	AxisY
	AxisZ
)

// XYZ lists the axes in their canonical order.
var XYZ = [3]AxisID{AxisX, AxisY, AxisZ}

func (a AxisID) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("AxisID(%d)", int(a))
	}
}

// Vec3 is a plain 3D vector of axis values.
type Vec3 struct {
	X, Y, Z float64
}

// At returns the component along axis a.
func (v Vec3) At(a AxisID) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Set stores value as the component along axis a.
func (v *Vec3) Set(a AxisID, value float64) {
	switch a {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	default:
		v.Z = value
	}
}

// Vec holds one coordinate per axis, the parametric counterpart of Vec3.
type Vec struct {
	X, Y, Z *Coordinate
}

// At returns the coordinate on axis a.
func (v Vec) At(a AxisID) *Coordinate {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Set stores c as the coordinate on axis a.
func (v *Vec) Set(a AxisID, c *Coordinate) {
	switch a {
	case AxisX:
		v.X = c
	case AxisY:
		v.Y = c
	default:
		v.Z = c
	}
}

// Value evaluates every component. Missing components evaluate to zero.
func (v Vec) Value() Vec3 {
	var out Vec3
	for _, a := range XYZ {
		if c := v.At(a); c != nil {
			out.Set(a, c.Value())
		}
	}
	return out
}
