package coord

import "strconv"

// Parameter is a named scalar that can be shared by many coordinates.
// Identity is the pointer (and its ID): two parameters with equal values are
// never merged. Changing the value fires the change event of every
// coordinate that references the parameter.
type Parameter struct {
	ID    string
	value float64
	users []*Coordinate
}

// NewParameter returns a parameter with a fresh ID.
func NewParameter(value float64) *Parameter {
	return &Parameter{ID: NewID(), value: value}
}

// NewParameterWithID returns a parameter with a known ID, as used when
// restoring persisted graphs.
func NewParameterWithID(id string, value float64) *Parameter {
	return &Parameter{ID: id, value: value}
}

// Value returns the current value.
func (p *Parameter) Value() float64 {
	return p.value
}

// SetValue updates the value and notifies every referencing coordinate.
func (p *Parameter) SetValue(v float64) {
	p.value = v
	if len(p.users) == 0 {
		return
	}
	users := make([]*Coordinate, len(p.users))
	copy(users, p.users)
	for _, c := range users {
		c.fireChanged()
	}
}

// Users returns the coordinates currently referencing p.
func (p *Parameter) Users() []*Coordinate {
	out := make([]*Coordinate, len(p.users))
	copy(out, p.users)
	return out
}

func (p *Parameter) attach(c *Coordinate) {
	p.users = append(p.users, c)
}

func (p *Parameter) detach(c *Coordinate) {
	for i, u := range p.users {
		if u == c {
			p.users = append(p.users[:i:i], p.users[i+1:]...)
			return
		}
	}
}

func (p *Parameter) String() string {
	return strconv.FormatFloat(p.value, 'f', -1, 64)
}
