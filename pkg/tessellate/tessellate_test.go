package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/kernel"
	"github.com/chazu/lignin-sketch/pkg/kernel/sdfx"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	"github.com/chazu/lignin-sketch/pkg/tessellate"
)

// boxSolid records the box a recordingKernel built.
type boxSolid struct {
	min, max [3]float64
	parts    int
}

func (b *boxSolid) BoundingBox() (min, max [3]float64) { return b.min, b.max }

// recordingKernel keeps exact bounds and reports them through a one-vertex
// mesh per corner, so tests can check placement without marching cubes.
type recordingKernel struct {
	meshed []*boxSolid
}

func (k *recordingKernel) Box(x, y, z float64) kernel.Solid {
	return &boxSolid{max: [3]float64{x, y, z}, parts: 1}
}

func (k *recordingKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := a.(*boxSolid), b.(*boxSolid)
	out := &boxSolid{parts: sa.parts + sb.parts}
	for i := 0; i < 3; i++ {
		out.min[i] = math.Min(sa.min[i], sb.min[i])
		out.max[i] = math.Max(sa.max[i], sb.max[i])
	}
	return out
}

func (k *recordingKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	b := s.(*boxSolid)
	d := [3]float64{x, y, z}
	out := &boxSolid{parts: b.parts}
	for i := range d {
		out.min[i] = b.min[i] + d[i]
		out.max[i] = b.max[i] + d[i]
	}
	return out
}

func (k *recordingKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	b := s.(*boxSolid)
	k.meshed = append(k.meshed, b)
	return &kernel.Mesh{Vertices: []float32{
		float32(b.min[0]), float32(b.min[1]), float32(b.min[2]),
		float32(b.max[0]), float32(b.max[1]), float32(b.max[2]),
	}}, nil
}

// drawSketch builds a rectangle from (2,3,0) to (10,8,0), a line along it
// and a point on its far corner.
func drawSketch(t *testing.T) (*sketch.Sketch, coord.Vec, coord.Vec) {
	t.Helper()
	s := sketch.New(coord.Vec3{}, coord.WithSnapRadius(0.5))
	cs := s.System
	p0 := cs.Place(coord.Vec3{X: 2, Y: 3}, coord.Vec3{X: 2, Y: 3}, false, nil)
	cs.SetAnchorPosition(coord.Vec3{X: 2, Y: 3})
	p1 := cs.Place(coord.Vec3{X: 10, Y: 8}, coord.Vec3{X: 8, Y: 5}, false, nil)

	if _, err := s.AddRectangle(p0, p1, sketch.ColorWhite); err != nil {
		t.Fatalf("AddRectangle: %v", err)
	}
	if _, err := s.AddPoint(p1); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	return s, p0, p1
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRectangleBecomesThinBox(t *testing.T) {
	s, _, _ := drawSketch(t)
	k := &recordingKernel{}

	meshes, err := tessellate.Tessellate(s, k, tessellate.Options{Thickness: 0.2})
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes, want 1 (points yield none)", len(meshes))
	}
	if !strings.HasPrefix(meshes[0].Name, "rectangle-") {
		t.Errorf("mesh name = %q, want rectangle- prefix", meshes[0].Name)
	}

	b := k.meshed[0]
	want := struct{ min, max [3]float64 }{
		min: [3]float64{2, 3, -0.1},
		max: [3]float64{10, 8, 0.1},
	}
	for i := 0; i < 3; i++ {
		if !near(b.min[i], want.min[i]) || !near(b.max[i], want.max[i]) {
			t.Errorf("axis %d: [%f, %f], want [%f, %f]", i, b.min[i], b.max[i], want.min[i], want.max[i])
		}
	}
}

func TestLineThickenedOnTwoAxes(t *testing.T) {
	s := sketch.New(coord.Vec3{})
	cs := s.System
	p0 := cs.Place(coord.Vec3{}, coord.Vec3{}, false, nil)
	p1 := cs.Place(coord.Vec3{X: 4}, coord.Vec3{X: 4}, false, nil)
	if _, err := s.AddLine(p0, p1); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	k := &recordingKernel{}
	if _, err := tessellate.Tessellate(s, k, tessellate.Options{}); err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	b := k.meshed[0]
	if !near(b.max[0]-b.min[0], 4) {
		t.Errorf("x extent = %f, want 4", b.max[0]-b.min[0])
	}
	for _, i := range []int{1, 2} {
		if !near(b.max[i]-b.min[i], tessellate.DefaultThickness) {
			t.Errorf("axis %d extent = %f, want %f", i, b.max[i]-b.min[i], tessellate.DefaultThickness)
		}
	}
}

func TestMeshesFollowParameterEdits(t *testing.T) {
	s, _, p1 := drawSketch(t)
	p1.X.Parameter().SetValue(18)

	k := &recordingKernel{}
	if _, err := tessellate.Tessellate(s, k, tessellate.Options{}); err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if got := k.meshed[0].max[0]; !near(got, 20) {
		t.Errorf("max x = %f, want 20", got)
	}
}

func TestMergeUnionsEverything(t *testing.T) {
	s, p0, p1 := drawSketch(t)
	if _, err := s.AddLine(p0, p1); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	k := &recordingKernel{}
	meshes, err := tessellate.Tessellate(s, k, tessellate.Options{Merge: true})
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if len(meshes) != 1 || meshes[0].Name != "sketch" {
		t.Fatalf("got %d meshes, want one merged mesh", len(meshes))
	}
	if k.meshed[0].parts != 2 {
		t.Errorf("merged %d solids, want 2", k.meshed[0].parts)
	}
}

func TestNilAndEmptySketch(t *testing.T) {
	k := &recordingKernel{}
	meshes, err := tessellate.Tessellate(nil, k, tessellate.Options{})
	if err != nil || meshes != nil {
		t.Errorf("Tessellate(nil) = %v, %v", meshes, err)
	}
	meshes, err = tessellate.Tessellate(sketch.New(coord.Vec3{}), k, tessellate.Options{Merge: true})
	if err != nil || len(meshes) != 0 {
		t.Errorf("empty sketch = %v, %v", meshes, err)
	}
}

func TestSdfxRectangleMesh(t *testing.T) {
	s, _, _ := drawSketch(t)
	meshes, err := tessellate.Tessellate(s, sdfx.NewWithCells(60), tessellate.Options{Thickness: 0.5})
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() {
		t.Fatalf("expected one non-empty mesh, got %d", len(meshes))
	}
	min, max := meshes[0].Bounds()
	const tol = 0.3
	if math.Abs(float64(min[0])-2) > tol || math.Abs(float64(max[0])-10) > tol {
		t.Errorf("x extent = [%f, %f], want about [2, 10]", min[0], max[0])
	}
}
