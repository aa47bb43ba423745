// Package sketch holds the geometry of a sketch on top of its parametric
// coordinate system. Geometry records only reference coordinates; every
// position is read from the coordinate graph when needed.
package sketch

import (
	"fmt"

	"github.com/chazu/lignin-sketch/pkg/coord"
)

// GeometryKind enumerates the geometry records.
type GeometryKind int

const (
	KindPoint GeometryKind = iota
	KindLine
	KindRectangle
)

func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// Color is the fill of a rectangle.
type Color int

const (
	ColorWhite Color = iota
	ColorBlack
	ColorGrey
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	default:
		return "grey"
	}
}

// ParseColor maps a color name to a Color. Unknown names are grey.
func ParseColor(s string) Color {
	switch s {
	case "white", "White":
		return ColorWhite
	case "black", "Black":
		return ColorBlack
	default:
		return ColorGrey
	}
}

// Geometry is a point, line or rectangle. Points only use P0; lines and
// rectangles span P0 to P1. Rectangles are axis aligned.
type Geometry struct {
	ID    string
	Kind  GeometryKind
	P0    coord.Vec
	P1    coord.Vec
	Color Color
}

// corners returns the coordinate vectors the geometry references.
func (g *Geometry) corners() []coord.Vec {
	if g.Kind == KindPoint {
		return []coord.Vec{g.P0}
	}
	return []coord.Vec{g.P0, g.P1}
}

// Coordinates returns every coordinate reference of g, axis by axis.
// A coordinate shared by two corners appears twice.
func (g *Geometry) Coordinates() []*coord.Coordinate {
	var out []*coord.Coordinate
	for _, v := range g.corners() {
		for _, a := range coord.XYZ {
			out = append(out, v.At(a))
		}
	}
	return out
}

// Bounds returns the current axis-aligned extent of g.
func (g *Geometry) Bounds() (min, max coord.Vec3) {
	p0 := g.P0.Value()
	if g.Kind == KindPoint {
		return p0, p0
	}
	p1 := g.P1.Value()
	for _, a := range coord.XYZ {
		lo, hi := p0.At(a), p1.At(a)
		if lo > hi {
			lo, hi = hi, lo
		}
		min.Set(a, lo)
		max.Set(a, hi)
	}
	return min, max
}

// IsDraft reports whether any referenced coordinate is still a draft.
func (g *Geometry) IsDraft() bool {
	for _, c := range g.Coordinates() {
		if c.IsDraft() {
			return true
		}
	}
	return false
}

func (g *Geometry) String() string {
	lo, hi := g.Bounds()
	return fmt.Sprintf("%s %s [%v .. %v]", g.Kind, g.ID[:min(8, len(g.ID))], lo, hi)
}
