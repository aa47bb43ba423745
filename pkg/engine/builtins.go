package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms sketch script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: param-set -> param_set
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPosition wraps the coordinate triple returned by `place`.
type sexpPosition struct {
	vec coord.Vec
}

func (p *sexpPosition) SexpString(ps *zygo.PrintState) string {
	v := p.vec.Value()
	return fmt.Sprintf("(position %.2f %.2f %.2f)", v.X, v.Y, v.Z)
}
func (p *sexpPosition) Type() *zygo.RegisteredType { return nil }

// sexpGeometry wraps a geometry added by `point`, `line` or `rect`.
type sexpGeometry struct {
	g *sketch.Geometry
}

func (g *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", g.g.Kind, g.g.ID)
}
func (g *sexpGeometry) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords named in flags take no value and map to SexpNull, as does a
// trailing keyword.
func parseArgs(args []zygo.Sexp, flags ...string) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) && !slices.Contains(flags, name) {
			result.kw[name] = args[i+1]
			i++
			continue
		}
		result.kw[name] = zygo.SexpNull
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts booleans, numbers (non-zero is true) and bare flags.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAxis converts a keyword or string to a coord.AxisID.
func toAxis(s zygo.Sexp) (coord.AxisID, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	for _, a := range coord.XYZ {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// toPosition extracts a coordinate triple returned by `place`.
func toPosition(s zygo.Sexp) (coord.Vec, error) {
	if p, ok := s.(*sexpPosition); ok {
		return p.vec, nil
	}
	return coord.Vec{}, fmt.Errorf("expected position, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 reads three numeric positional arguments.
func toVec3(args []zygo.Sexp) (coord.Vec3, error) {
	var v coord.Vec3
	if len(args) != 3 {
		return v, fmt.Errorf("expected x y z, got %d arguments", len(args))
	}
	for i, a := range coord.XYZ {
		f, err := toFloat64(args[i])
		if err != nil {
			return v, fmt.Errorf("%s: %w", a, err)
		}
		v.Set(a, f)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// errOriginAfterPlace rejects a late (origin ...) call that would discard
// already placed coordinates.
var errOriginAfterPlace = errors.New("origin must come before any place")

// scriptState is the sketch under construction during one evaluation.
type scriptState struct {
	sketch    *sketch.Sketch
	newSketch func(origin coord.Vec3) *sketch.Sketch
	placed    bool
}

func (st *scriptState) parameter(id string) (*coord.Parameter, error) {
	for _, p := range st.sketch.System.AllParameters() {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parameter %q", id)
}

// axisInput reads the :param-x, :dim-x and :neg-x style overrides for one
// axis.
func (st *scriptState) axisInput(pa kwArgs, a coord.AxisID) (coord.AxisInput, bool, error) {
	var in coord.AxisInput
	set := false
	if v, ok := pa.kw["param-"+a.String()]; ok {
		id, err := toString(v)
		if err != nil {
			return in, false, fmt.Errorf("param-%s: %w", a, err)
		}
		p, err := st.parameter(id)
		if err != nil {
			return in, false, fmt.Errorf("param-%s: %w", a, err)
		}
		in.Parameter = p
		set = true
	}
	if v, ok := pa.kw["dim-"+a.String()]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return in, false, fmt.Errorf("dim-%s: %w", a, err)
		}
		in.Dimension = &f
		set = true
	}
	if v, ok := pa.kw["neg-"+a.String()]; ok {
		b, err := toBool(v)
		if err != nil {
			return in, false, fmt.Errorf("neg-%s: %w", a, err)
		}
		in.Negative = b
	}
	return in, set, nil
}

// registerBuiltins installs the sketch builtins into a zygomys environment.
// The builtins operate on st, populating its sketch during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {

	// -----------------------------------------------------------------------
	// (origin 0 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("origin", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if st.placed {
			return zygo.SexpNull, fmt.Errorf("origin: %w", errOriginAfterPlace)
		}
		v, err := toVec3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("origin: %w", err)
		}
		st.sketch = st.newSketch(v)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (anchor 2 3 0)
	// -----------------------------------------------------------------------
	env.AddFunction("anchor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := toVec3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("anchor: %w", err)
		}
		st.sketch.System.SetAnchorPosition(v)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (place 10 8 0 :dx 8 :param-y "id" :dim-z 4 :neg-z true :draft)
	// :draft is a bare flag.
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args, "draft")
		pos, err := toVec3(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		cs := st.sketch.System
		anchor := cs.Anchor().PrimaryPosition()
		var dist coord.Vec3
		var input coord.ExplicitInput
		explicit := false
		for _, a := range coord.XYZ {
			dist.Set(a, pos.At(a)-anchor.At(a))
			if v, ok := pa.kw["d"+a.String()]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("place: d%s: %w", a, err)
				}
				dist.Set(a, f)
			}
			in, set, err := st.axisInput(pa, a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: %w", err)
			}
			input[a] = in
			explicit = explicit || set
		}

		draft := false
		if v, ok := pa.kw["draft"]; ok {
			if draft, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: draft: %w", err)
			}
		}

		var in *coord.ExplicitInput
		if explicit {
			in = &input
		}
		st.placed = true
		return &sexpPosition{vec: cs.Place(pos, dist, draft, in)}, nil
	})

	// -----------------------------------------------------------------------
	// (point p)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("point requires exactly 1 position, got %d", len(args))
		}
		p, err := toPosition(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: %w", err)
		}
		g, err := st.sketch.AddPoint(p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: %w", err)
		}
		return &sexpGeometry{g: g}, nil
	})

	// -----------------------------------------------------------------------
	// (line p0 p1)
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires exactly 2 positions, got %d", len(args))
		}
		p0, err := toPosition(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: start: %w", err)
		}
		p1, err := toPosition(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: end: %w", err)
		}
		g, err := st.sketch.AddLine(p0, p1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		return &sexpGeometry{g: g}, nil
	})

	// -----------------------------------------------------------------------
	// (rect p0 p1 :color :black)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("rect requires exactly 2 positions, got %d", len(pa.positional))
		}
		p0, err := toPosition(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: first corner: %w", err)
		}
		p1, err := toPosition(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: second corner: %w", err)
		}
		color := sketch.ColorWhite
		if v, ok := pa.kw["color"]; ok {
			c, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rect: color: %w", err)
			}
			color = sketch.ParseColor(c)
		}
		g, err := st.sketch.AddRectangle(p0, p1, color)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		return &sexpGeometry{g: g}, nil
	})

	// -----------------------------------------------------------------------
	// (remove g)
	// -----------------------------------------------------------------------
	env.AddFunction("remove", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("remove requires exactly 1 geometry, got %d", len(args))
		}
		g, ok := args[0].(*sexpGeometry)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("remove: expected geometry, got %T (%s)", args[0], args[0].SexpString(nil))
		}
		if !st.sketch.Remove(g.g.ID) {
			return zygo.SexpNull, fmt.Errorf("remove: geometry %s is not in the sketch", g.g.ID)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (param-set "id" 12.5)
	// -----------------------------------------------------------------------
	env.AddFunction("param_set", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("param-set requires an id and a value")
		}
		id, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param-set: id: %w", err)
		}
		v, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param-set: value: %w", err)
		}
		p, err := st.parameter(id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param-set: %w", err)
		}
		p.SetValue(v)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (param-of p :x)
	// -----------------------------------------------------------------------
	env.AddFunction("param_of", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("param-of requires a position and an axis")
		}
		p, err := toPosition(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param-of: %w", err)
		}
		a, err := toAxis(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param-of: %w", err)
		}
		c := p.At(a)
		if c.Kind() == coord.KindOrigin {
			return zygo.SexpNull, fmt.Errorf("param-of: %s coordinate is the origin and has no parameter", a)
		}
		return &zygo.SexpStr{S: c.Parameter().ID}, nil
	})

	// -----------------------------------------------------------------------
	// (discard-drafts)
	// -----------------------------------------------------------------------
	env.AddFunction("discard_drafts", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(st.sketch.System.DiscardDrafts())}, nil
	})
}
