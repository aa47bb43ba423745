package sketch

import (
	"fmt"

	"github.com/chazu/lignin-sketch/pkg/coord"
)

// Sketch is a coordinate system plus the geometry drawn on it.
type Sketch struct {
	System     *coord.CoordinateSystem
	geometries []*Geometry
}

// New creates an empty sketch whose axis origins sit at origin.
func New(origin coord.Vec3, opts ...coord.Option) *Sketch {
	return &Sketch{System: coord.New(origin, opts...)}
}

// Geometries returns the geometry in drawing order.
func (s *Sketch) Geometries() []*Geometry {
	out := make([]*Geometry, len(s.geometries))
	copy(out, s.geometries)
	return out
}

// Geometry returns the geometry with the given ID.
func (s *Sketch) Geometry(id string) (*Geometry, bool) {
	for _, g := range s.geometries {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// AddPoint commits a point at p.
func (s *Sketch) AddPoint(p coord.Vec) (*Geometry, error) {
	return s.add(&Geometry{ID: coord.NewID(), Kind: KindPoint, P0: p})
}

// AddLine commits a line from p0 to p1.
func (s *Sketch) AddLine(p0, p1 coord.Vec) (*Geometry, error) {
	return s.add(&Geometry{ID: coord.NewID(), Kind: KindLine, P0: p0, P1: p1})
}

// AddRectangle commits an axis-aligned rectangle spanning p0 to p1.
func (s *Sketch) AddRectangle(p0, p1 coord.Vec, color Color) (*Geometry, error) {
	return s.add(&Geometry{ID: coord.NewID(), Kind: KindRectangle, P0: p0, P1: p1, Color: color})
}

// add bakes every coordinate the geometry depends on, including draft
// ancestors, and attaches the geometry to the coordinates it references.
func (s *Sketch) add(g *Geometry) (*Geometry, error) {
	coords := g.Coordinates()
	for i, c := range coords {
		if c == nil {
			return nil, fmt.Errorf("%s: missing coordinate on axis %s", g.Kind, coord.XYZ[i%3])
		}
		axis, err := s.System.AxisContaining(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Kind, err)
		}
		if want := coord.XYZ[i%3]; axis.Direction != want {
			return nil, fmt.Errorf("%s: %s slot holds %s: %w", g.Kind, want, axis.Direction, coord.ErrWrongAxis)
		}
	}
	for _, c := range coords {
		for _, anc := range coord.AncestorsToOrigin(c) {
			anc.Bake()
		}
		c.AttachGeometry(g.ID)
	}
	s.geometries = append(s.geometries, g)
	return g, nil
}

// Remove deletes the geometry with the given ID and releases its
// coordinates. Coordinates left without geometry and dependents are deleted,
// and so are ancestors that become unused as a result.
func (s *Sketch) Remove(id string) bool {
	for i, g := range s.geometries {
		if g.ID != id {
			continue
		}
		s.geometries = append(s.geometries[:i:i], s.geometries[i+1:]...)
		work := g.Coordinates()
		for _, c := range work {
			c.DetachGeometry(g.ID)
		}
		released := make(map[*coord.Coordinate]bool)
		for len(work) > 0 {
			c := work[len(work)-1]
			work = work[:len(work)-1]
			if released[c] {
				continue
			}
			if !c.IsDeleted() && (c.AttachedGeometryCount() > 0 || c.Delete() != nil) {
				continue
			}
			released[c] = true
			work = append(work, c.Parents()...)
		}
		return true
	}
	return false
}
