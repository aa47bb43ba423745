package sketch

import (
	"fmt"

	"github.com/chazu/lignin-sketch/pkg/coord"
)

// CoordinateRefs holds one coordinate ID per axis.
type CoordinateRefs [3]string

// PersistedPoint is the stored form of a point.
type PersistedPoint struct {
	ID string         `json:"id"`
	P0 CoordinateRefs `json:"p0"`
}

// PersistedLine is the stored form of a line.
type PersistedLine struct {
	ID string         `json:"id"`
	P0 CoordinateRefs `json:"p0"`
	P1 CoordinateRefs `json:"p1"`
}

// PersistedRectangle is the stored form of a rectangle.
type PersistedRectangle struct {
	ID    string         `json:"id"`
	P0    CoordinateRefs `json:"p0"`
	P1    CoordinateRefs `json:"p1"`
	Color string         `json:"color"`
}

// Persisted is the stored form of a Sketch.
type Persisted struct {
	System     coord.PersistedSystem `json:"coordinate_system"`
	Points     []PersistedPoint      `json:"points"`
	Lines      []PersistedLine       `json:"lines"`
	Rectangles []PersistedRectangle  `json:"rectangles"`
}

func refs(v coord.Vec) CoordinateRefs {
	var r CoordinateRefs
	for _, a := range coord.XYZ {
		r[a] = v.At(a).ID
	}
	return r
}

// Persist returns the stored form of s. Draft coordinates and geometry that
// still references them are left out.
func (s *Sketch) Persist() (Persisted, error) {
	sys, err := s.System.Persist()
	if err != nil {
		return Persisted{}, fmt.Errorf("persist coordinate system: %w", err)
	}
	out := Persisted{
		System:     sys,
		Points:     []PersistedPoint{},
		Lines:      []PersistedLine{},
		Rectangles: []PersistedRectangle{},
	}
	for _, g := range s.geometries {
		if g.IsDraft() {
			continue
		}
		switch g.Kind {
		case KindPoint:
			out.Points = append(out.Points, PersistedPoint{ID: g.ID, P0: refs(g.P0)})
		case KindLine:
			out.Lines = append(out.Lines, PersistedLine{ID: g.ID, P0: refs(g.P0), P1: refs(g.P1)})
		case KindRectangle:
			out.Rectangles = append(out.Rectangles, PersistedRectangle{
				ID: g.ID, P0: refs(g.P0), P1: refs(g.P1), Color: g.Color.String(),
			})
		}
	}
	return out, nil
}

// Restore rebuilds a sketch from its stored form. Geometry is restored in
// the order points, lines, rectangles and is attached to its coordinates.
// A geometry reference to an unknown coordinate aborts the load.
func Restore(p Persisted, opts ...coord.Option) (*Sketch, error) {
	cs, err := coord.FromPersisted(p.System, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore coordinate system: %w", err)
	}
	s := &Sketch{System: cs}

	resolve := func(id string, r CoordinateRefs) (coord.Vec, error) {
		var v coord.Vec
		for _, a := range coord.XYZ {
			c, ok := cs.Lookup(a, r[a])
			if !ok {
				return coord.Vec{}, &coord.DanglingReferenceError{
					Axis: a, RecordID: id, Kind: coord.RefCoordinate, MissingID: r[a],
				}
			}
			v.Set(a, c)
		}
		return v, nil
	}
	restore := func(g *Geometry, p0, p1 *CoordinateRefs) error {
		var err error
		if g.P0, err = resolve(g.ID, *p0); err != nil {
			return err
		}
		if p1 != nil {
			if g.P1, err = resolve(g.ID, *p1); err != nil {
				return err
			}
		}
		if g.ID == "" {
			g.ID = coord.NewID()
		}
		_, err = s.add(g)
		return err
	}

	for _, r := range p.Points {
		if err := restore(&Geometry{ID: r.ID, Kind: KindPoint}, &r.P0, nil); err != nil {
			return nil, fmt.Errorf("restore point: %w", err)
		}
	}
	for _, r := range p.Lines {
		if err := restore(&Geometry{ID: r.ID, Kind: KindLine}, &r.P0, &r.P1); err != nil {
			return nil, fmt.Errorf("restore line: %w", err)
		}
	}
	for _, r := range p.Rectangles {
		g := &Geometry{ID: r.ID, Kind: KindRectangle, Color: ParseColor(r.Color)}
		if err := restore(g, &r.P0, &r.P1); err != nil {
			return nil, fmt.Errorf("restore rectangle: %w", err)
		}
	}
	return s, nil
}
