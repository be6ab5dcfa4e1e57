// Package seeds places Voronoi seed voxels inside solids.
package seeds

import (
	"math/rand/v2"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/jfa"
)

// Random marks each inside voxel of f independently with probability
// density / (longest grid axis), so the expected number of cells does not
// explode as the resolution grows.
func Random(f *grid.Field, density float64, r *rand.Rand) *grid.Mask {
	m := grid.NewMask(f.Shape)
	p := density / float64(f.Shape.Max())
	for i, v := range f.Data {
		// Draw for every voxel so the sequence only depends on the shape.
		hit := r.Float64() < p
		m.Data[i] = hit && v <= 0
	}
	return m
}

// FromPoints marks the given voxel coordinates. Points outside the grid
// are ignored.
func FromPoints(s grid.Shape, pts [][3]int) *grid.Mask {
	m := grid.NewMask(s)
	for _, p := range pts {
		if s.In(p[0], p[1], p[2]) {
			m.Set(p[0], p[1], p[2], true)
		}
	}
	return m
}

// Points returns the coordinates of every set voxel of m.
func Points(m *grid.Mask) [][3]int {
	idx := m.Indices()
	pts := make([][3]int, len(idx))
	for i, j := range idx {
		x, y, z := m.Shape.Coords(j)
		pts[i] = [3]int{x, y, z}
	}
	return pts
}

// Explode grows every seed into a solid ball of the given radius in
// voxels. The result is a distance field (distance to nearest seed minus
// radius); with no seeds it is everywhere outside.
func Explode(m *grid.Mask, radius float32) *grid.Field {
	if !m.Any() {
		return grid.NewFieldFilled(m.Shape, grid.UnitScale, float32(m.Shape.Nx+m.Shape.Ny+m.Shape.Nz))
	}
	d := jfa.Flood(m, jfa.Options{Order: 1}).Distance()
	for i := range d.Data {
		d.Data[i] -= radius
	}
	return d
}
