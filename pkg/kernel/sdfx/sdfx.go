// Package sdfx implements the kernel.Mesher interface using the
// github.com/deadsy/sdfx marching cubes renderer.
package sdfx

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Mesher = (*Mesher)(nil)

// fieldSDF presents a voxel field as an sdf.SDF3 in millimetres.
type fieldSDF struct {
	f *grid.Field
}

// FieldSDF wraps f so sdfx can evaluate it. Points are in millimetres;
// values stay in voxels, which only matters for the sign.
func FieldSDF(f *grid.Field) sdf.SDF3 {
	return &fieldSDF{f: f}
}

// Evaluate interpolates the field at p.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	sc := s.f.Scale
	return kernel.Interp(s.f, p.X/sc.X, p.Y/sc.Y, p.Z/sc.Z)
}

// BoundingBox returns the padded field extent.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	lo, hi := kernel.Extent(s.f)
	return sdf.Box3{
		Min: v3.Vec{X: lo[0], Y: lo[1], Z: lo[2]},
		Max: v3.Vec{X: hi[0], Y: hi[1], Z: hi[2]},
	}
}

// Mesher extracts surfaces with uniform marching cubes.
type Mesher struct {
	// CellsPerVoxel sets the sampling density along the longest axis
	// relative to the voxel count. Zero means one cell per voxel.
	CellsPerVoxel float64
}

// New returns a Mesher sampling once per voxel.
func New() *Mesher {
	return &Mesher{CellsPerVoxel: 1}
}

// Name returns "sdfx".
func (m *Mesher) Name() string { return "sdfx" }

// ToMesh converts the inside region of f to a triangle mesh.
func (m *Mesher) ToMesh(f *grid.Field) (*kernel.Mesh, error) {
	per := m.CellsPerVoxel
	if per <= 0 {
		per = 1
	}
	// Padding adds one voxel on each side.
	cells := int(float64(f.Shape.Max()+2) * per)

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(FieldSDF(f), renderer)

	var b kernel.Builder
	for _, tri := range triangles {
		b.Add(vec32(tri[0]), vec32(tri[1]), vec32(tri[2]))
	}
	return b.Mesh(), nil
}

func vec32(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
