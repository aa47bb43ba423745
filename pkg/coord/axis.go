package coord

import (
	"fmt"
	"math"
	"strings"
)

// Epsilon biases snapping ties toward reusing an existing coordinate over
// creating an interpolated one.
const Epsilon = 1e-4

// Axis owns the coordinates of one spatial dimension, its anchor and the
// placement algorithms. The origin is always the first coordinate.
type Axis struct {
	Direction AxisID

	origin      *Coordinate
	coordinates []*Coordinate
	anchor      *AnchorCoordinates
	onChanged   func()
}

// NewAxis creates an axis whose origin sits at originPosition. onChanged
// may be nil; otherwise it runs whenever any coordinate of the axis changes.
func NewAxis(direction AxisID, originPosition float64, onChanged func()) *Axis {
	a := &Axis{Direction: direction, onChanged: onChanged}
	a.origin = newOrigin(NewID(), originPosition, a.handlers())
	a.coordinates = []*Coordinate{a.origin}
	a.anchor = newAnchorCoordinates(a.origin)
	return a
}

func (a *Axis) handlers() handlers {
	return handlers{changed: a.coordinateChanged, deleted: a.coordinateDeleted}
}

// Origin returns the root coordinate of the axis.
func (a *Axis) Origin() *Coordinate { return a.origin }

// Anchor returns the axis' anchor coordinates.
func (a *Axis) Anchor() *AnchorCoordinates { return a.anchor }

// Coordinates returns the live coordinates in insertion order, origin first.
func (a *Axis) Coordinates() []*Coordinate {
	out := make([]*Coordinate, len(a.coordinates))
	copy(out, a.coordinates)
	return out
}

// Len returns the number of coordinates including the origin.
func (a *Axis) Len() int { return len(a.coordinates) }

// Contains reports whether c belongs to this axis.
func (a *Axis) Contains(c *Coordinate) bool {
	for _, x := range a.coordinates {
		if x == c {
			return true
		}
	}
	return false
}

// Lookup finds a coordinate by ID.
func (a *Axis) Lookup(id string) (*Coordinate, bool) {
	for _, c := range a.coordinates {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// SmallestValue returns the minimum value over all coordinates.
func (a *Axis) SmallestValue() float64 {
	smallest := math.Inf(1)
	for _, c := range a.coordinates {
		smallest = math.Min(smallest, c.Value())
	}
	return smallest
}

// SnapAnchorToClosest makes the coordinate closest to position the new
// primary anchor.
func (a *Axis) SnapAnchorToClosest(position float64) {
	a.anchor.SetPrimary(a.FindClosest(position))
}

// FindClosest returns the coordinate whose value is nearest to position.
// The origin is checked first and ties keep the earlier node.
func (a *Axis) FindClosest(position float64) *Coordinate {
	closest := a.origin
	closestDistance := math.Abs(a.origin.Value() - position)
	for _, c := range a.coordinates {
		d := math.Abs(c.Value() - position)
		if d < closestDistance {
			closest = c
			closestDistance = d
		}
	}
	return closest
}

// AddOffset appends an offset from the primary anchor driven by a new
// parameter holding value.
func (a *Axis) AddOffset(value float64, negative, draft bool) *Coordinate {
	return a.AddOffsetWithParameter(NewParameter(value), negative, draft)
}

// AddOffsetWithParameter appends an offset from the primary anchor driven by
// an existing, shared parameter.
func (a *Axis) AddOffsetWithParameter(p *Parameter, negative, draft bool) *Coordinate {
	c := newOffset(NewID(), p, negative, draft, a.handlers())
	// A fresh node has no parents yet, so wiring cannot fail.
	_ = c.setParents(a.anchor.Primary())
	a.coordinates = append(a.coordinates, c)
	return c
}

// AddOffsetFromAbsolutePosition appends an offset from the primary anchor
// that lands on position. The parameter stores the magnitude; the sign goes
// into the direction flag.
func (a *Axis) AddOffsetFromAbsolutePosition(position float64, draft bool) *Coordinate {
	delta := position - a.anchor.Primary().Value()
	negative := delta < 0
	return a.AddOffset(math.Abs(delta), negative, draft)
}

// TrySnapToExistingCoordinate returns an existing coordinate or a new
// interpolated coordinate between the anchors when position lies within
// snapRadius of either. The existing node wins unless the anchor midpoint is
// closer by more than Epsilon. ok is false when nothing is in range.
func (a *Axis) TrySnapToExistingCoordinate(position float64, draft bool, snapRadius float64) (c *Coordinate, ok bool) {
	closest := a.FindClosest(position)
	dClosest := math.Abs(position - closest.Value())
	dMid := a.distanceToMidpoint(position)

	if dClosest > snapRadius && dMid > snapRadius {
		return nil, false
	}
	if dClosest < dMid+Epsilon {
		return closest, true
	}
	return a.addInterpolatedBetweenAnchors(draft), true
}

// ParameterSnap is the result of snapping a distance to a parameter.
type ParameterSnap struct {
	Parameter *Parameter
	Negative  bool
	Distance  float64
}

// TrySnapToExistingParameter finds the parameter whose value, or negated
// value, is closest to value. Equal distances for both signs pick the
// negative orientation; equal distances across parameters keep the first.
// ok is false when params is empty or the best match is beyond snapRadius.
func (a *Axis) TrySnapToExistingParameter(value float64, params []*Parameter, snapRadius float64) (snap ParameterSnap, ok bool) {
	found := false
	for _, p := range params {
		candidate := ParameterSnap{Parameter: p}
		dPos := math.Abs(value - p.Value())
		dNeg := math.Abs(value + p.Value())
		if dPos < dNeg {
			candidate.Distance = dPos
		} else {
			candidate.Distance = dNeg
			candidate.Negative = true
		}
		if !found || candidate.Distance < snap.Distance {
			snap = candidate
			found = true
		}
	}
	if !found || snap.Distance > snapRadius {
		return ParameterSnap{}, false
	}
	return snap, true
}

func (a *Axis) distanceToMidpoint(position float64) float64 {
	if a.anchor.Match() {
		return math.Inf(1)
	}
	mid := (a.anchor.Primary().Value() + a.anchor.Secondary().Value()) / 2
	return math.Abs(position - mid)
}

func (a *Axis) addInterpolatedBetweenAnchors(draft bool) *Coordinate {
	c := newInterpolated(NewID(), NewParameter(0.5), draft, a.handlers())
	_ = c.setParents(a.anchor.Primary(), a.anchor.Secondary())
	a.coordinates = append(a.coordinates, c)
	return c
}

func (a *Axis) coordinateChanged() {
	if a.onChanged != nil {
		a.onChanged()
	}
}

func (a *Axis) coordinateDeleted(c *Coordinate) {
	for i, x := range a.coordinates {
		if x == c {
			a.coordinates = append(a.coordinates[:i:i], a.coordinates[i+1:]...)
			break
		}
	}
	if a.anchor.Primary() == c {
		a.anchor.ResetPrimary()
	}
	if a.anchor.Secondary() == c {
		a.anchor.ResetSecondary()
	}
}

func (a *Axis) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "axis %s|", a.Direction)
	for _, c := range a.coordinates {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
