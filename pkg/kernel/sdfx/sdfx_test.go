package sdfx

import (
	"math"
	"testing"
)

// testCells keeps marching cubes quick in tests.
const testCells = 40

func TestBoxMesh(t *testing.T) {
	k := NewWithCells(testCells)
	mesh, err := k.ToMesh(k.Box(10, 5, 2))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoxMinCornerAtOrigin(t *testing.T) {
	k := New()
	min, max := k.Box(100, 50, 25).BoundingBox()

	const tol = 0.01
	expectMax := [3]float64{100, 50, 25}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]) > tol {
			t.Errorf("min[%d] = %f, expected 0", i, min[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	min, max := k.Translate(k.Box(10, 10, 10), 100, 200, 300).BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{100, 200, 300}
	expectMax := [3]float64{110, 210, 310}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestUnion(t *testing.T) {
	k := NewWithCells(testCells)
	u := k.Union(k.Box(5, 5, 5), k.Translate(k.Box(5, 5, 5), 3, 0, 0))

	min, max := u.BoundingBox()
	if math.Abs(min[0]) > 0.01 || math.Abs(max[0]-8) > 0.01 {
		t.Errorf("union X extent = [%f, %f], want [0, 8]", min[0], max[0])
	}
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestNewWithCellsFallback(t *testing.T) {
	if got := NewWithCells(0).Cells(); got != DefaultMeshCells {
		t.Errorf("NewWithCells(0).Cells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := NewWithCells(12).Cells(); got != 12 {
		t.Errorf("NewWithCells(12).Cells() = %d, want 12", got)
	}
}

func TestToMeshNil(t *testing.T) {
	if _, err := New().ToMesh(nil); err == nil {
		t.Error("ToMesh(nil) should fail")
	}
}
