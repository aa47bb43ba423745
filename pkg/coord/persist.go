package coord

import "fmt"

// ---------------------------------------------------------------------------
// Persisted form
// ---------------------------------------------------------------------------

// PersistedParameter is the stored form of a Parameter.
type PersistedParameter struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// PersistedOrigin is the stored form of an axis origin.
type PersistedOrigin struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
}

// PersistedOffset is the stored form of an offset coordinate.
type PersistedOffset struct {
	Index                     int    `json:"index"`
	ID                        string `json:"id"`
	ParameterID               string `json:"parameter_id"`
	ParentID                  string `json:"parent_id"`
	PointsInNegativeDirection bool   `json:"points_in_negative_direction"`
}

// PersistedInterpolated is the stored form of an interpolated coordinate.
type PersistedInterpolated struct {
	Index       int       `json:"index"`
	ID          string    `json:"id"`
	ParameterID string    `json:"parameter_id"`
	ParentIDs   [2]string `json:"parent_ids"`
}

// PersistedAxis holds the records of one axis. Index is the position of a
// node in the restored coordinate list; the origin is always index 0.
type PersistedAxis struct {
	Origin       PersistedOrigin         `json:"origin"`
	Offsets      []PersistedOffset       `json:"offsets"`
	Interpolated []PersistedInterpolated `json:"interpolated"`
}

// PersistedSystem is the stored form of a CoordinateSystem. Parameters are
// shared by ID across all three axes.
type PersistedSystem struct {
	Axes       [3]PersistedAxis     `json:"axes"`
	Parameters []PersistedParameter `json:"parameters"`
}

// NodeCount returns the number of stored coordinates including origins.
func (p PersistedSystem) NodeCount() int {
	n := 0
	for _, a := range p.Axes {
		n += 1 + len(a.Offsets) + len(a.Interpolated)
	}
	return n
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Persist returns the stored form of cs. Draft coordinates are left out;
// a committed coordinate that depends on a draft is an error, since the
// stored graph could not be restored.
func (cs *CoordinateSystem) Persist() (PersistedSystem, error) {
	var out PersistedSystem
	for _, id := range XYZ {
		pa, err := cs.axes[id].persist()
		if err != nil {
			return PersistedSystem{}, err
		}
		out.Axes[id] = pa
	}
	for _, p := range cs.collectParameters(false) {
		out.Parameters = append(out.Parameters, PersistedParameter{ID: p.ID, Value: p.Value()})
	}
	return out, nil
}

func (a *Axis) persist() (PersistedAxis, error) {
	out := PersistedAxis{
		Origin:       PersistedOrigin{ID: a.origin.ID, Position: a.origin.position},
		Offsets:      []PersistedOffset{},
		Interpolated: []PersistedInterpolated{},
	}
	index := 0
	for _, c := range a.coordinates {
		if c.draft {
			continue
		}
		for _, p := range c.parents {
			if p.draft {
				return PersistedAxis{}, fmt.Errorf("axis %s: %w: %s -> %s",
					a.Direction, ErrDraftParent, shortID(c.ID), shortID(p.ID))
			}
		}
		switch c.kind {
		case KindOrigin:
			// origin is recorded separately and always takes index 0
		case KindOffset:
			out.Offsets = append(out.Offsets, PersistedOffset{
				Index:                     index,
				ID:                        c.ID,
				ParameterID:               c.parameter.ID,
				ParentID:                  c.parents[0].ID,
				PointsInNegativeDirection: c.negative,
			})
		case KindInterpolated:
			out.Interpolated = append(out.Interpolated, PersistedInterpolated{
				Index:       index,
				ID:          c.ID,
				ParameterID: c.parameter.ID,
				ParentIDs:   [2]string{c.parents[0].ID, c.parents[1].ID},
			})
		}
		index++
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Reconstruction
// ---------------------------------------------------------------------------

// FromPersisted rebuilds a coordinate system from its stored form in two
// passes per axis: every node is instantiated at its declared index, then
// parents are resolved by ID. Any unresolved reference aborts the load with
// a *DanglingReferenceError; duplicate IDs, index gaps and parent cycles
// abort it with a *CorruptGraphError.
func FromPersisted(p PersistedSystem, opts ...Option) (*CoordinateSystem, error) {
	params := make(map[string]*Parameter, len(p.Parameters))
	for _, pp := range p.Parameters {
		if _, dup := params[pp.ID]; dup {
			return nil, &CorruptGraphError{Message: fmt.Sprintf("duplicate parameter id %s", pp.ID)}
		}
		params[pp.ID] = NewParameterWithID(pp.ID, pp.Value)
	}

	cs := newSystem(opts)
	for _, id := range XYZ {
		axis, err := restoreAxis(id, p.Axes[id], params, cs.axisChanged)
		if err != nil {
			return nil, err
		}
		cs.axes[id] = axis
	}
	cs.bindAnchor()
	return cs, nil
}

// pendingParents is the pass-two work item for one restored node.
type pendingParents struct {
	node      *Coordinate
	parentIDs []string
}

func restoreAxis(dir AxisID, pa PersistedAxis, params map[string]*Parameter, onChanged func()) (*Axis, error) {
	if pa.Origin.ID == "" {
		return nil, &CorruptGraphError{Axis: dir, Message: "origin has no id"}
	}
	a := &Axis{Direction: dir, onChanged: onChanged}
	h := a.handlers()
	a.origin = newOrigin(pa.Origin.ID, pa.Origin.Position, h)
	a.anchor = newAnchorCoordinates(a.origin)

	count := 1 + len(pa.Offsets) + len(pa.Interpolated)
	slots := make([]*Coordinate, count)
	slots[0] = a.origin
	byID := map[string]*Coordinate{a.origin.ID: a.origin}
	pending := make([]pendingParents, 0, count-1)

	place := func(index int, c *Coordinate, parentIDs []string) error {
		if index <= 0 || index >= count {
			return &CorruptGraphError{Axis: dir, ID: c.ID, Message: fmt.Sprintf("index %d out of range", index)}
		}
		if slots[index] != nil {
			return &CorruptGraphError{Axis: dir, ID: c.ID, Message: fmt.Sprintf("index %d used twice", index)}
		}
		if _, dup := byID[c.ID]; dup {
			return &CorruptGraphError{Axis: dir, ID: c.ID, Message: "duplicate coordinate id"}
		}
		slots[index] = c
		byID[c.ID] = c
		pending = append(pending, pendingParents{node: c, parentIDs: parentIDs})
		return nil
	}
	param := func(recordID, parameterID string) (*Parameter, error) {
		p, ok := params[parameterID]
		if !ok {
			return nil, &DanglingReferenceError{Axis: dir, RecordID: recordID, Kind: RefParameter, MissingID: parameterID}
		}
		return p, nil
	}

	// Pass one: instantiate without parents.
	for _, r := range pa.Offsets {
		p, err := param(r.ID, r.ParameterID)
		if err != nil {
			return nil, err
		}
		if err := place(r.Index, newOffset(r.ID, p, r.PointsInNegativeDirection, false, h), []string{r.ParentID}); err != nil {
			return nil, err
		}
	}
	for _, r := range pa.Interpolated {
		p, err := param(r.ID, r.ParameterID)
		if err != nil {
			return nil, err
		}
		if err := place(r.Index, newInterpolated(r.ID, p, false, h), r.ParentIDs[:]); err != nil {
			return nil, err
		}
	}
	// Pass two: resolve parents against the full node set.
	for _, pp := range pending {
		parents := make([]*Coordinate, len(pp.parentIDs))
		for i, pid := range pp.parentIDs {
			parent, ok := byID[pid]
			if !ok {
				return nil, &DanglingReferenceError{Axis: dir, RecordID: pp.node.ID, Kind: RefParent, MissingID: pid}
			}
			parents[i] = parent
		}
		if err := pp.node.setParents(parents...); err != nil {
			return nil, &CorruptGraphError{Axis: dir, ID: pp.node.ID, Message: err.Error()}
		}
	}

	if id, ok := findCycle(slots); ok {
		return nil, &CorruptGraphError{Axis: dir, ID: id, Message: "parent cycle"}
	}

	a.coordinates = slots
	return a, nil
}

// findCycle runs a three-colour DFS over parent edges. White nodes are
// unvisited, gray nodes are on the current path, black nodes are done;
// reaching a gray node means a cycle.
func findCycle(nodes []*Coordinate) (string, bool) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Coordinate]int, len(nodes))

	var visit func(c *Coordinate) (string, bool)
	visit = func(c *Coordinate) (string, bool) {
		switch color[c] {
		case black:
			return "", false
		case gray:
			return c.ID, true
		}
		color[c] = gray
		for _, p := range c.parents {
			if id, found := visit(p); found {
				return id, true
			}
		}
		color[c] = black
		return "", false
	}

	for _, c := range nodes {
		if id, found := visit(c); found {
			return id, true
		}
	}
	return "", false
}
