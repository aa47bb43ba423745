package coord

import (
	"fmt"
	"math"
)

// Kind enumerates the coordinate variants.
type Kind int

const (
	KindOrigin       Kind = iota // fixed root of an axis
	KindOffset                   // parent ± parameter
	KindInterpolated             // (1-t)·parent0 + t·parent1
)

func (k Kind) String() string {
	switch k {
	case KindOrigin:
		return "origin"
	case KindOffset:
		return "offset"
	case KindInterpolated:
		return "interpolated"
	default:
		return "unknown"
	}
}

// parentCount is the number of parents each kind requires.
func (k Kind) parentCount() int {
	switch k {
	case KindOffset:
		return 1
	case KindInterpolated:
		return 2
	default:
		return 0
	}
}

// Coordinate is a node of an axis graph. Its value is recomputed from its
// parents and parameter on every call.
//
// Dependents are back references used for change fan-out and to block
// deletion; they do not own the dependent nodes.
type Coordinate struct {
	ID string

	kind      Kind
	parents   []*Coordinate
	parameter *Parameter
	negative  bool    // offsets only
	position  float64 // origins only

	draft   bool
	deleted bool

	dependents []*Coordinate
	observers  observerList
	geometry   map[string]int

	onChanged func()
	onDeleted func(*Coordinate)
}

// handlers are the owning axis' callbacks.
type handlers struct {
	changed func()
	deleted func(*Coordinate)
}

func newCoordinate(id string, kind Kind, p *Parameter, draft bool, h handlers) *Coordinate {
	c := &Coordinate{
		ID:        id,
		kind:      kind,
		parameter: p,
		draft:     draft,
		onChanged: h.changed,
		onDeleted: h.deleted,
	}
	p.attach(c)
	return c
}

func newOrigin(id string, position float64, h handlers) *Coordinate {
	c := newCoordinate(id, KindOrigin, NewParameter(0), false, h)
	c.position = position
	c.parents = []*Coordinate{}
	return c
}

func newOffset(id string, p *Parameter, negative, draft bool, h handlers) *Coordinate {
	c := newCoordinate(id, KindOffset, p, draft, h)
	c.negative = negative
	return c
}

func newInterpolated(id string, p *Parameter, draft bool, h handlers) *Coordinate {
	return newCoordinate(id, KindInterpolated, p, draft, h)
}

// Kind returns the variant of c.
func (c *Coordinate) Kind() Kind { return c.kind }

// Parameter returns the parameter that drives c.
func (c *Coordinate) Parameter() *Parameter { return c.parameter }

// Parents returns the parents of c in declaration order.
func (c *Coordinate) Parents() []*Coordinate {
	out := make([]*Coordinate, len(c.parents))
	copy(out, c.parents)
	return out
}

// Dependents returns the coordinates that list c as a parent.
func (c *Coordinate) Dependents() []*Coordinate {
	out := make([]*Coordinate, len(c.dependents))
	copy(out, c.dependents)
	return out
}

// PointsInNegativeDirection reports the sign of an offset.
func (c *Coordinate) PointsInNegativeDirection() bool { return c.negative }

// IsDraft reports whether c is an uncommitted preview.
func (c *Coordinate) IsDraft() bool { return c.draft }

// IsDeleted reports whether c has been removed from its axis.
func (c *Coordinate) IsDeleted() bool { return c.deleted }

// Value computes the position of c from its parents and parameter.
// A node whose parents are not wired yet evaluates to NaN.
func (c *Coordinate) Value() float64 {
	switch c.kind {
	case KindOrigin:
		return c.position
	case KindOffset:
		if len(c.parents) < 1 {
			return math.NaN()
		}
		if c.negative {
			return c.parents[0].Value() - c.parameter.Value()
		}
		return c.parents[0].Value() + c.parameter.Value()
	case KindInterpolated:
		if len(c.parents) < 2 {
			return math.NaN()
		}
		t := c.parameter.Value()
		return (1-t)*c.parents[0].Value() + t*c.parents[1].Value()
	default:
		return math.NaN()
	}
}

// Bounds returns the interval spanned by c. Origins are unbounded so they
// always anchor a layout; offsets span parent to value; interpolated nodes
// span their two parents.
func (c *Coordinate) Bounds() (min, max float64) {
	switch c.kind {
	case KindOffset:
		return ordered(c.parents[0].Value(), c.Value())
	case KindInterpolated:
		return ordered(c.parents[0].Value(), c.parents[1].Value())
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

func ordered(a, b float64) (float64, float64) {
	if a <= b {
		return a, b
	}
	return b, a
}

// setParents wires the parents exactly once and registers c as their
// dependent.
func (c *Coordinate) setParents(parents ...*Coordinate) error {
	if c.kind == KindOrigin {
		return ErrOriginImmutable
	}
	if c.parents != nil {
		return fmt.Errorf("%w: %s", ErrParentsWired, shortID(c.ID))
	}
	if len(parents) != c.kind.parentCount() {
		return fmt.Errorf("%s coordinate needs %d parents, got %d",
			c.kind, c.kind.parentCount(), len(parents))
	}
	c.parents = parents
	for _, p := range parents {
		p.registerDependent(c)
	}
	return nil
}

func (c *Coordinate) registerDependent(child *Coordinate) {
	c.dependents = append(c.dependents, child)
}

func (c *Coordinate) unregisterDependent(child *Coordinate) {
	for i, d := range c.dependents {
		if d == child {
			c.dependents = append(c.dependents[:i:i], c.dependents[i+1:]...)
			return
		}
	}
}

// Observe registers fn to run whenever the value of c may have changed,
// including changes inherited from ancestors.
func (c *Coordinate) Observe(fn func()) ObserverID {
	return c.observers.add(fn)
}

// Unobserve removes a listener registered with Observe.
func (c *Coordinate) Unobserve(id ObserverID) bool {
	return c.observers.remove(id)
}

// fireChanged delivers the change to the observers of c, its axis and then
// every dependent, recursively. Dependents are snapshotted first.
func (c *Coordinate) fireChanged() {
	c.observers.fire()
	if c.onChanged != nil {
		c.onChanged()
	}
	if len(c.dependents) == 0 {
		return
	}
	deps := make([]*Coordinate, len(c.dependents))
	copy(deps, c.dependents)
	for _, d := range deps {
		d.fireChanged()
	}
}

// AttachGeometry records that the geometry identified by handle uses c.
// A geometry may attach more than once, e.g. a rectangle whose corners share
// a coordinate.
func (c *Coordinate) AttachGeometry(handle string) {
	if c.geometry == nil {
		c.geometry = make(map[string]int)
	}
	c.geometry[handle]++
}

// AttachedGeometryCount returns the number of geometry references to c.
func (c *Coordinate) AttachedGeometryCount() int {
	n := 0
	for _, k := range c.geometry {
		n += k
	}
	return n
}

// DetachGeometry drops one reference from handle. When no geometry is left
// the coordinate tries to delete itself; the result reports whether it did.
func (c *Coordinate) DetachGeometry(handle string) bool {
	if k, ok := c.geometry[handle]; ok {
		if k <= 1 {
			delete(c.geometry, handle)
		} else {
			c.geometry[handle] = k - 1
		}
	}
	if c.AttachedGeometryCount() > 0 {
		return false
	}
	return c.Delete() == nil
}

// Delete removes c from its axis. It fails with ErrDeletionBlocked while
// other coordinates depend on c and with ErrGeometryAttached while geometry
// references it. The graph is left unchanged on failure.
func (c *Coordinate) Delete() error {
	switch {
	case c.deleted:
		return ErrDeleted
	case c.kind == KindOrigin:
		return ErrOriginImmutable
	case len(c.dependents) > 0:
		return fmt.Errorf("%w: %s has %d", ErrDeletionBlocked, shortID(c.ID), len(c.dependents))
	case c.AttachedGeometryCount() > 0:
		return fmt.Errorf("%w: %s", ErrGeometryAttached, shortID(c.ID))
	}

	c.deleted = true
	if c.onDeleted != nil {
		c.onDeleted(c)
	}
	for _, p := range c.parents {
		p.unregisterDependent(c)
	}
	c.parameter.detach(c)
	return nil
}

// Bake commits a draft coordinate. Baking twice is a no-op.
func (c *Coordinate) Bake() {
	c.draft = false
}

// AncestorsToOrigin returns c and every coordinate reachable through its
// parents, each once, in first-discovered order. With two parents both
// subtrees are visited, so the result is not sorted by depth.
func AncestorsToOrigin(c *Coordinate) []*Coordinate {
	seen := make(map[string]bool)
	var out []*Coordinate
	var visit func(n *Coordinate)
	visit = func(n *Coordinate) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n)
		for _, p := range n.parents {
			visit(p)
		}
	}
	visit(c)
	return out
}

func (c *Coordinate) String() string {
	switch c.kind {
	case KindOrigin:
		return fmt.Sprintf("O(%.2f)", c.position)
	case KindOffset:
		if c.negative {
			return fmt.Sprintf("M[-%s]", c.parameter)
		}
		return fmt.Sprintf("M[%s]", c.parameter)
	case KindInterpolated:
		return fmt.Sprintf("L(%s)", c.parameter)
	default:
		return "?"
	}
}
