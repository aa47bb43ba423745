// Package tessellate walks a sketch and produces triangle meshes using a
// geometry kernel. One mesh is produced per line or rectangle.
package tessellate

import (
	"fmt"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/kernel"
	"github.com/chazu/lignin-sketch/pkg/sketch"
)

// DefaultThickness is the extent given to a flat or degenerate axis. It
// must stay above the kernel cell size or marching cubes misses the slab.
const DefaultThickness = 1.0

// Options tune tessellation.
type Options struct {
	// Thickness replaces any axis extent smaller than it. Zero means
	// DefaultThickness.
	Thickness float64
	// Merge unions all solids into a single mesh named "sketch".
	Merge bool
}

func (o Options) thickness() float64 {
	if o.Thickness <= 0 {
		return DefaultThickness
	}
	return o.Thickness
}

// Tessellate turns the committed lines and rectangles of s into meshes at
// their current coordinate values. Points and draft geometry produce
// nothing. The sketch is never mutated.
func Tessellate(s *sketch.Sketch, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var (
		meshes []*kernel.Mesh
		merged kernel.Solid
	)
	for _, g := range s.Geometries() {
		if g.Kind == sketch.KindPoint || g.IsDraft() {
			continue
		}
		solid := geometrySolid(k, g, opts.thickness())
		if opts.Merge {
			if merged == nil {
				merged = solid
			} else {
				merged = k.Union(merged, solid)
			}
			continue
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", g.Kind, err)
		}
		mesh.Name = meshName(g)
		meshes = append(meshes, mesh)
	}

	if opts.Merge && merged != nil {
		mesh, err := k.ToMesh(merged)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for merged sketch: %w", err)
		}
		mesh.Name = "sketch"
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// geometrySolid builds the box spanned by g's bounds, widening thin axes
// symmetrically to the given thickness.
func geometrySolid(k kernel.Kernel, g *sketch.Geometry, thickness float64) kernel.Solid {
	lo, hi := g.Bounds()
	var size, at coord.Vec3
	for _, a := range coord.XYZ {
		l, h := lo.At(a), hi.At(a)
		if d := h - l; d < thickness {
			l -= (thickness - d) / 2
			h = l + thickness
		}
		at.Set(a, l)
		size.Set(a, h-l)
	}
	return k.Translate(k.Box(size.X, size.Y, size.Z), at.X, at.Y, at.Z)
}

func meshName(g *sketch.Geometry) string {
	id := g.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return g.Kind.String() + "-" + id
}
