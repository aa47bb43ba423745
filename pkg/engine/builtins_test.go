package engine

import (
	"strings"
	"testing"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(rect a b :color :black)`,
			expect: `(rect a b "__kw_color" "__kw_black")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(param-set id 4)`,
			expect: `(param_set id 4)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(place -3 0 0)`,
			expect: `(place -3 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:param-x`,
			expect: `"__kw_param-x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgsFlags(t *testing.T) {
	kw := func(s string) zygo.Sexp { return &zygo.SexpStr{S: kwPrefix + s} }
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		kw("draft"),
		kw("color"), kw("black"),
		kw("tail"),
	}
	pa := parseArgs(args, "draft")

	if len(pa.positional) != 1 {
		t.Fatalf("positional = %d, want 1", len(pa.positional))
	}
	if pa.kw["draft"] != zygo.SexpNull {
		t.Errorf("draft = %v, want flag", pa.kw["draft"])
	}
	if c, _ := toKeywordString(pa.kw["color"]); c != "black" {
		t.Errorf("color = %q, want black", c)
	}
	if pa.kw["tail"] != zygo.SexpNull {
		t.Errorf("trailing keyword should be a flag")
	}
}

// ---------------------------------------------------------------------------
// Sketch builtins
// ---------------------------------------------------------------------------

// mustEval evaluates src and fails the test on any error.
func mustEval(t *testing.T, src string) *sketch.Sketch {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return s
}

// evalErr evaluates src and returns the first eval error message.
func evalErr(t *testing.T, src string) string {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if s != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval errors for %q", src)
	}
	return evalErrs[0].Message
}

const boxScript = `
;; two corners and a rectangle between them
(def p0 (place 2 3 0))
(anchor 2 3 0)
(def p1 (place 10 8 0))
(def r (rect p0 p1 :color :black))
`

func TestRectScript(t *testing.T) {
	s := mustEval(t, boxScript)

	geoms := s.Geometries()
	if len(geoms) != 1 {
		t.Fatalf("expected 1 geometry, got %d", len(geoms))
	}
	r := geoms[0]
	if r.Kind != sketch.KindRectangle {
		t.Errorf("kind = %s, want rectangle", r.Kind)
	}
	if r.Color != sketch.ColorBlack {
		t.Errorf("color = %s, want black", r.Color)
	}
	lo, hi := r.Bounds()
	if lo != (coord.Vec3{X: 2, Y: 3}) || hi != (coord.Vec3{X: 10, Y: 8}) {
		t.Errorf("bounds = %v .. %v", lo, hi)
	}
	if r.IsDraft() {
		t.Error("geometry coordinates should be baked")
	}
}

func TestParamSetMovesGeometry(t *testing.T) {
	s := mustEval(t, boxScript+`(param-set (param-of p1 :x) 18)`)
	_, hi := s.Geometries()[0].Bounds()
	if hi.X != 20 {
		t.Errorf("max x = %f, want 20", hi.X)
	}
}

func TestSharedParameter(t *testing.T) {
	src := boxScript + `
(def p2 (place 0 11 0 :param-y (param-of p1 :x)))
(def l (line p0 p2))
(param-set (param-of p1 :x) 4)
`
	s := mustEval(t, src)
	var line *sketch.Geometry
	for _, g := range s.Geometries() {
		if g.Kind == sketch.KindLine {
			line = g
		}
	}
	if line == nil {
		t.Fatal("expected a line")
	}
	// p2.y hangs off the anchor (p0.y = 3) by the shared parameter.
	if got := line.P1.Y.Value(); got != 7 {
		t.Errorf("p2.y = %f, want 7", got)
	}
	if line.P1.Y.Parameter() != s.Geometries()[0].P1.X.Parameter() {
		t.Error("p2.y should share p1.x's parameter")
	}
}

func TestExplicitDimensionNegative(t *testing.T) {
	s := mustEval(t, `(def p (place 0 0 5 :dim-z 7 :neg-z true)) (point p)`)
	p := s.Geometries()[0].P0
	if got := p.Z.Value(); got != -7 {
		t.Errorf("z = %f, want -7", got)
	}
	if !p.Z.PointsInNegativeDirection() {
		t.Error("z should point in the negative direction")
	}
}

func TestOriginBuiltin(t *testing.T) {
	s := mustEval(t, `(origin 1 2 3) (point (place 1 2 3))`)
	p := s.Geometries()[0].P0
	for _, a := range coord.XYZ {
		if p.At(a).Kind() != coord.KindOrigin {
			t.Errorf("%s should snap to the origin, got %s", a, p.At(a).Kind())
		}
	}
	if got := p.Value(); got != (coord.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("point = %v, want (1 2 3)", got)
	}
}

func TestOriginAfterPlaceFails(t *testing.T) {
	msg := evalErr(t, `(place 1 1 1) (origin 0 0 0)`)
	if !strings.Contains(msg, "origin must come before") {
		t.Errorf("message = %q", msg)
	}
}

func TestDraftPlacement(t *testing.T) {
	s := mustEval(t, `(place 5 5 5 :draft)`)
	coords := s.System.Axis(coord.AxisX).Coordinates()
	if len(coords) != 2 || !coords[1].IsDraft() {
		t.Fatalf("expected one draft coordinate beside the origin, got %v", coords)
	}

	s = mustEval(t, `(place 5 5 5 :draft) (discard-drafts)`)
	if n := s.System.Axis(coord.AxisX).Len(); n != 1 {
		t.Errorf("axis x has %d coordinates after discard, want 1", n)
	}
}

func TestRemoveReleasesCoordinates(t *testing.T) {
	s := mustEval(t, boxScript+`(remove r)`)
	if n := len(s.Geometries()); n != 0 {
		t.Fatalf("geometries = %d, want 0", n)
	}
	for _, a := range coord.XYZ {
		if n := s.System.Axis(a).Len(); n != 1 {
			t.Errorf("axis %s has %d coordinates, want only the origin", a, n)
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"place arity", `(place 1 2)`, "place"},
		{"place non-number", `(place 1 "a" 2)`, "expected number"},
		{"unknown parameter", `(param-set "nope" 1)`, "no parameter"},
		{"point needs position", `(point 3)`, "expected position"},
		{"line arity", `(line (place 1 1 1))`, "line requires exactly 2"},
		{"param-of origin", `(param-of (place 0 0 0) :x)`, "origin"},
		{"bad axis", `(param-of (place 1 1 1) :w)`, "invalid axis"},
		{"remove non-geometry", `(remove 4)`, "expected geometry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalErr(t, tt.src)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("message = %q, want containing %q", msg, tt.want)
			}
		})
	}
}
