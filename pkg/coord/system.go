package coord

import (
	"fmt"
	"log/slog"
	"slices"
)

// DefaultSnapRadius is the snapping tolerance used when none is configured.
const DefaultSnapRadius = 0.01

// Option configures a CoordinateSystem.
type Option func(*CoordinateSystem)

// WithSnapRadius sets the tolerance for coordinate and parameter snapping.
func WithSnapRadius(r float64) Option {
	return func(cs *CoordinateSystem) { cs.snapRadius = r }
}

// WithLogger sets the logger used for diagnostics. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(cs *CoordinateSystem) {
		if l != nil {
			cs.logger = l
		}
	}
}

// CoordinateSystem holds the three axes of a sketch, their combined anchor
// and the provenance of the most recent placement.
type CoordinateSystem struct {
	axes   [3]*Axis
	anchor Anchor

	snapRadius float64
	logger     *slog.Logger
	observers  observerList

	snappedParameter  [3]*Parameter
	snappedCoordinate [3]*Coordinate
}

// New creates a coordinate system whose axis origins sit at origin.
func New(origin Vec3, opts ...Option) *CoordinateSystem {
	cs := newSystem(opts)
	for _, id := range XYZ {
		cs.axes[id] = NewAxis(id, origin.At(id), cs.axisChanged)
	}
	cs.bindAnchor()
	return cs
}

func newSystem(opts []Option) *CoordinateSystem {
	cs := &CoordinateSystem{
		snapRadius: DefaultSnapRadius,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

func (cs *CoordinateSystem) bindAnchor() {
	for _, id := range XYZ {
		cs.anchor.axes[id] = cs.axes[id].anchor
	}
}

// Axis returns the axis for id.
func (cs *CoordinateSystem) Axis(id AxisID) *Axis { return cs.axes[id] }

// Axes returns the three axes in X, Y, Z order.
func (cs *CoordinateSystem) Axes() [3]*Axis { return cs.axes }

// Anchor returns the combined anchor view.
func (cs *CoordinateSystem) Anchor() Anchor { return cs.anchor }

// SnapRadius returns the configured snapping tolerance.
func (cs *CoordinateSystem) SnapRadius() float64 { return cs.snapRadius }

// Observe registers fn to run whenever any coordinate in the system changes.
func (cs *CoordinateSystem) Observe(fn func()) ObserverID {
	return cs.observers.add(fn)
}

// Unobserve removes a listener registered with Observe.
func (cs *CoordinateSystem) Unobserve(id ObserverID) bool {
	return cs.observers.remove(id)
}

func (cs *CoordinateSystem) axisChanged() {
	cs.observers.fire()
}

// SnappedParameter returns the parameter the last placement snapped to on
// axis id, or nil.
func (cs *CoordinateSystem) SnappedParameter(id AxisID) *Parameter {
	return cs.snappedParameter[id]
}

// SnappedCoordinate returns the coordinate the last placement snapped to on
// axis id, or nil.
func (cs *CoordinateSystem) SnappedCoordinate(id AxisID) *Coordinate {
	return cs.snappedCoordinate[id]
}

// AxisInput is an explicit override for one axis, typically typed by the
// user. Parameter takes precedence over Dimension.
type AxisInput struct {
	Parameter *Parameter
	Dimension *float64
	Negative  bool
}

// ExplicitInput holds per-axis overrides indexed by AxisID.
type ExplicitInput [3]AxisInput

// Place returns one coordinate per axis for a new point near position.
// For each axis the first applicable rule wins:
//
//  1. an explicit parameter creates an offset bound to it;
//  2. an explicit dimension creates an offset with a fresh parameter;
//  3. an existing coordinate (or the anchor midpoint) within snap range;
//  4. an existing parameter matching the distance to the anchor;
//  5. a new offset from the primary anchor to position.
//
// input may be nil. Snap provenance is reset at the start of every call.
func (cs *CoordinateSystem) Place(position, distancesToAnchor Vec3, draft bool, input *ExplicitInput) Vec {
	cs.snappedParameter = [3]*Parameter{}
	cs.snappedCoordinate = [3]*Coordinate{}

	var out Vec
	for _, id := range XYZ {
		axis := cs.axes[id]
		var in AxisInput
		if input != nil {
			in = input[id]
		}

		if in.Parameter != nil {
			out.Set(id, axis.AddOffsetWithParameter(in.Parameter, in.Negative, draft))
			continue
		}
		if in.Dimension != nil {
			out.Set(id, axis.AddOffset(*in.Dimension, in.Negative, draft))
			continue
		}
		if c, ok := axis.TrySnapToExistingCoordinate(position.At(id), draft, cs.snapRadius); ok {
			out.Set(id, c)
			cs.snappedCoordinate[id] = c
			continue
		}
		if snap, ok := axis.TrySnapToExistingParameter(distancesToAnchor.At(id), cs.AllParameters(), cs.snapRadius); ok {
			out.Set(id, axis.AddOffsetWithParameter(snap.Parameter, snap.Negative, draft))
			cs.snappedParameter[id] = snap.Parameter
			continue
		}
		out.Set(id, axis.AddOffsetFromAbsolutePosition(position.At(id), draft))
	}
	return out
}

// SetAnchorPosition snaps each axis' primary anchor to the coordinate
// closest to position.
func (cs *CoordinateSystem) SetAnchorPosition(position Vec3) {
	for _, id := range XYZ {
		cs.axes[id].SnapAnchorToClosest(position.At(id))
	}
}

// AllParameters returns every parameter used by a non-origin coordinate on
// any axis, once per ID, sorted by ascending value. Equal values keep their
// discovery order.
func (cs *CoordinateSystem) AllParameters() []*Parameter {
	return cs.collectParameters(true)
}

func (cs *CoordinateSystem) collectParameters(includeDrafts bool) []*Parameter {
	seen := make(map[string]bool)
	var out []*Parameter
	for _, a := range cs.axes {
		for _, c := range a.coordinates {
			if c.kind == KindOrigin || (c.draft && !includeDrafts) {
				continue
			}
			if seen[c.parameter.ID] {
				continue
			}
			seen[c.parameter.ID] = true
			out = append(out, c.parameter)
		}
	}
	slices.SortStableFunc(out, func(a, b *Parameter) int {
		switch {
		case a.Value() < b.Value():
			return -1
		case a.Value() > b.Value():
			return 1
		default:
			return 0
		}
	})
	return out
}

// AxisContaining returns the axis that holds c. A miss is reported with
// ErrAxisLookupMiss, never a panic.
func (cs *CoordinateSystem) AxisContaining(c *Coordinate) (*Axis, error) {
	for _, a := range cs.axes {
		if a.Contains(c) {
			return a, nil
		}
	}
	id := "<nil>"
	if c != nil {
		id = c.ID
	}
	cs.logger.Debug("axis lookup miss", "coordinate", id)
	return nil, fmt.Errorf("%w: %s", ErrAxisLookupMiss, id)
}

// Lookup resolves a coordinate ID on axis id.
func (cs *CoordinateSystem) Lookup(id AxisID, coordinateID string) (*Coordinate, bool) {
	return cs.axes[id].Lookup(coordinateID)
}

// Delete removes c through its own deletion protocol and logs refusals.
func (cs *CoordinateSystem) Delete(c *Coordinate) error {
	if err := c.Delete(); err != nil {
		cs.logger.Debug("coordinate deletion refused", "coordinate", c.ID, "err", err)
		return err
	}
	return nil
}

// BakeAll commits every draft coordinate on all axes.
func (cs *CoordinateSystem) BakeAll() {
	for _, a := range cs.axes {
		for _, c := range a.coordinates {
			c.Bake()
		}
	}
}

// DiscardDrafts deletes draft coordinates that nothing depends on, newest
// first so chains of drafts unwind. It returns the number removed.
func (cs *CoordinateSystem) DiscardDrafts() int {
	removed := 0
	for _, a := range cs.axes {
		for i := len(a.coordinates) - 1; i > 0; i-- {
			c := a.coordinates[i]
			if c.draft && c.Delete() == nil {
				removed++
			}
		}
	}
	return removed
}
