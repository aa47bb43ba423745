package sketch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// drawBox places two corners and joins them with a rectangle, a line and a
// point, returning the sketch and the rectangle.
func drawBox(t *testing.T) (*Sketch, *Geometry) {
	t.Helper()
	s := New(coord.Vec3{}, coord.WithSnapRadius(0.5))
	cs := s.System

	p0 := cs.Place(coord.Vec3{X: 2, Y: 3, Z: 0}, coord.Vec3{X: 2, Y: 3}, true, nil)
	cs.SetAnchorPosition(coord.Vec3{X: 2, Y: 3, Z: 0})
	p1 := cs.Place(coord.Vec3{X: 10, Y: 8, Z: 0}, coord.Vec3{X: 8, Y: 5}, true, nil)

	rect, err := s.AddRectangle(p0, p1, ColorBlack)
	if err != nil {
		t.Fatalf("AddRectangle: %v", err)
	}
	if _, err := s.AddLine(p0, p1); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := s.AddPoint(p1); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	return s, rect
}

func TestAddBakesAndAttaches(t *testing.T) {
	_, rect := drawBox(t)
	if rect.IsDraft() {
		t.Fatal("geometry should bake its coordinates")
	}
	if n := rect.P1.X.AttachedGeometryCount(); n != 3 {
		t.Errorf("p1.x attached to %d geometries, want 3", n)
	}
	// z snapped to the origin for both corners, so the rectangle attaches twice.
	if rect.P0.Z != rect.P1.Z {
		t.Fatal("expected both corners to share the z origin")
	}
	lo, hi := rect.Bounds()
	if lo != (coord.Vec3{X: 2, Y: 3}) || hi != (coord.Vec3{X: 10, Y: 8}) {
		t.Errorf("bounds = %v .. %v", lo, hi)
	}
}

func TestGeometryFollowsParameterEdits(t *testing.T) {
	_, rect := drawBox(t)
	rect.P1.X.Parameter().SetValue(20)
	_, hi := rect.Bounds()
	if hi.X != 22 {
		t.Errorf("max x = %f, want 22", hi.X)
	}
}

func TestRemoveReleasesCoordinates(t *testing.T) {
	s, rect := drawBox(t)
	x := s.System.Axis(coord.AxisX)
	before := x.Len()

	if !s.Remove(rect.ID) {
		t.Fatal("Remove returned false")
	}
	if x.Len() != before {
		t.Error("coordinates still used by the line were deleted")
	}

	for _, g := range s.Geometries() {
		s.Remove(g.ID)
	}
	if len(s.Geometries()) != 0 {
		t.Fatal("geometry left after removing all")
	}
	for _, a := range s.System.Axes() {
		if a.Len() != 1 {
			t.Errorf("axis %s has %d coordinates, want only the origin", a.Direction, a.Len())
		}
	}
}

func TestAddRejectsForeignCoordinates(t *testing.T) {
	s := New(coord.Vec3{})
	other := New(coord.Vec3{})
	p := other.System.Place(coord.Vec3{X: 1, Y: 1, Z: 1}, coord.Vec3{}, false, nil)
	if _, err := s.AddPoint(p); !errors.Is(err, coord.ErrAxisLookupMiss) {
		t.Errorf("AddPoint = %v, want ErrAxisLookupMiss", err)
	}
}

func TestAddRejectsCrossedAxes(t *testing.T) {
	s := New(coord.Vec3{})
	p := s.System.Place(coord.Vec3{X: 1, Y: 2, Z: 3}, coord.Vec3{X: 1, Y: 2, Z: 3}, false, nil)
	crossed := coord.Vec{X: p.Y, Y: p.X, Z: p.Z}
	if _, err := s.AddPoint(crossed); !errors.Is(err, coord.ErrWrongAxis) {
		t.Fatalf("AddPoint = %v, want ErrWrongAxis", err)
	}
	if n := len(s.Geometries()); n != 0 {
		t.Errorf("%d geometries after rejected add, want 0", n)
	}
	if n := p.Y.AttachedGeometryCount(); n != 0 {
		t.Errorf("attachment count = %d, want 0", n)
	}
}

func TestRestoreOrdersPointsLinesRectangles(t *testing.T) {
	s, _ := drawBox(t)
	stored, err := s.Persist()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(stored)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	var kinds []GeometryKind
	for _, g := range restored.Geometries() {
		kinds = append(kinds, g.Kind)
	}
	want := []GeometryKind{KindPoint, KindLine, KindRectangle}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("restore order (-want +got):\n%s", diff)
	}
}

func TestPersistRestoreJSONAndCBOR(t *testing.T) {
	s, _ := drawBox(t)
	// A draft point must not be stored.
	s.System.Place(coord.Vec3{X: 50, Y: 50, Z: 50}, coord.Vec3{X: 40, Y: 40, Z: 40}, true, nil)

	stored, err := s.Persist()
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if len(stored.Rectangles) != 1 || len(stored.Lines) != 1 || len(stored.Points) != 1 {
		t.Fatalf("stored %d/%d/%d geometries", len(stored.Points), len(stored.Lines), len(stored.Rectangles))
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, stored); err != nil {
		t.Fatal(err)
	}
	fromJSON, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stored, fromJSON, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("json round trip (-want +got):\n%s", diff)
	}

	blob, err := EncodeCBOR(stored)
	if err != nil {
		t.Fatal(err)
	}
	fromCBOR, err := DecodeCBOR(blob)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stored, fromCBOR, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cbor round trip (-want +got):\n%s", diff)
	}

	restored, err := Restore(fromCBOR)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	geoms := restored.Geometries()
	if len(geoms) != 3 {
		t.Fatalf("restored %d geometries, want 3", len(geoms))
	}
	rect := geoms[2]
	if rect.Kind != KindRectangle || rect.Color != ColorBlack {
		t.Errorf("restored %v color %v", rect.Kind, rect.Color)
	}
	lo, hi := rect.Bounds()
	if lo != (coord.Vec3{X: 2, Y: 3}) || hi != (coord.Vec3{X: 10, Y: 8}) {
		t.Errorf("restored bounds = %v .. %v", lo, hi)
	}
	if n := rect.P1.X.AttachedGeometryCount(); n != 3 {
		t.Errorf("restored attachment count = %d, want 3", n)
	}
}

func TestRestoreDanglingGeometry(t *testing.T) {
	s, _ := drawBox(t)
	stored, err := s.Persist()
	if err != nil {
		t.Fatal(err)
	}
	stored.Lines[0].P1[coord.AxisY] = "missing"

	_, err = Restore(stored)
	var dangling *coord.DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("Restore = %v, want DanglingReferenceError", err)
	}
	if dangling.Kind != coord.RefCoordinate || dangling.Axis != coord.AxisY {
		t.Errorf("dangling = %+v", dangling)
	}
}

func TestParseColor(t *testing.T) {
	tests := map[string]Color{"white": ColorWhite, "Black": ColorBlack, "grey": ColorGrey, "teal": ColorGrey}
	for in, want := range tests {
		if got := ParseColor(in); got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
}
