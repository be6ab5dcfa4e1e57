// Package model3d implements the kernel.Mesher interface using the
// github.com/unixpickle/model3d marching cubes search, which refines each
// vertex onto the surface by bisection.
package model3d

import (
	"math"

	m3d "github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Mesher = (*Mesher)(nil)

// FieldSolid presents the inside region of a voxel field as a model3d
// solid in millimetres.
type FieldSolid struct {
	Field *grid.Field
}

// Min gets the minimum of the bounding box.
func (s *FieldSolid) Min() m3d.Coord3D {
	lo, _ := kernel.Extent(s.Field)
	return m3d.Coord3D{X: lo[0], Y: lo[1], Z: lo[2]}
}

// Max gets the maximum of the bounding box.
func (s *FieldSolid) Max() m3d.Coord3D {
	_, hi := kernel.Extent(s.Field)
	return m3d.Coord3D{X: hi[0], Y: hi[1], Z: hi[2]}
}

// Contains checks if the interpolated field at c is inside.
func (s *FieldSolid) Contains(c m3d.Coord3D) bool {
	sc := s.Field.Scale
	return kernel.Interp(s.Field, c.X/sc.X, c.Y/sc.Y, c.Z/sc.Z) <= 0
}

// Mesher extracts surfaces with model3d.MarchingCubesSearch.
type Mesher struct {
	// Iterations is the number of bisection steps per vertex.
	Iterations int
}

// New returns a Mesher with 8 bisection steps.
func New() *Mesher {
	return &Mesher{Iterations: 8}
}

// Name returns "model3d".
func (m *Mesher) Name() string { return "model3d" }

// ToMesh converts the inside region of f to a triangle mesh.
func (m *Mesher) ToMesh(f *grid.Field) (*kernel.Mesh, error) {
	sc := f.Scale
	delta := math.Min(sc.X, math.Min(sc.Y, sc.Z))
	mesh := m3d.MarchingCubesSearch(&FieldSolid{Field: f}, delta, m.Iterations)

	var b kernel.Builder
	for _, t := range mesh.TriangleSlice() {
		b.Add(coord32(t[0]), coord32(t[1]), coord32(t[2]))
	}
	return b.Mesh(), nil
}

func coord32(c m3d.Coord3D) [3]float32 {
	return [3]float32{float32(c.X), float32(c.Y), float32(c.Z)}
}
