package frep

import (
	"github.com/chewxy/math32"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/parallel"
)

// Bounds returns the inclusive voxel bounding box of the inside region of
// a. ok is false when no voxel is inside.
func Bounds(a *grid.Field) (lo, hi [3]int, ok bool) {
	s := a.Shape
	lo = [3]int{s.Nx, s.Ny, s.Nz}
	hi = [3]int{-1, -1, -1}
	for i, v := range a.Data {
		if v > 0 {
			continue
		}
		x, y, z := s.Coords(i)
		c := [3]int{x, y, z}
		for d := range 3 {
			lo[d] = min(lo[d], c[d])
			hi[d] = max(hi[d], c[d])
		}
		ok = true
	}
	return lo, hi, ok
}

// Condense crops a to the bounding box of its inside region plus margin
// voxels on every side. Margin cells past the original grid read as Far.
// The result has a new shape; any consumer holding the old shape must be
// refreshed. A field with no inside voxels is returned as a copy.
func Condense(a *grid.Field, margin int) *grid.Field {
	if margin < 0 {
		margin = 0
	}
	lo, hi, ok := Bounds(a)
	if !ok {
		return a.Clone()
	}
	s := grid.NewShape(
		hi[0]-lo[0]+1+2*margin,
		hi[1]-lo[1]+1+2*margin,
		hi[2]-lo[2]+1+2*margin,
	)
	out := grid.NewField(s, a.Scale)
	ox, oy, oz := lo[0]-margin, lo[1]-margin, lo[2]-margin
	parallel.For(s.Nx, func(xlo, xhi int) {
		for x := xlo; x < xhi; x++ {
			for y := 0; y < s.Ny; y++ {
				for z := 0; z < s.Nz; z++ {
					v := Far
					if a.Shape.In(x+ox, y+oy, z+oz) {
						v = a.At(x+ox, y+oy, z+oz)
					}
					out.Set(x, y, z, v)
				}
			}
		}
	})
	return out
}

// Projection collapses a along the build axis (X, floor at x=0). A voxel
// is inside the projection when any voxel at or above it in its column is
// inside the solid, so the result is the silhouette of the model extruded
// down to the floor.
func Projection(a *grid.Field) *grid.Field {
	s := a.Shape
	out := a.Like()
	parallel.For(s.Ny, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			for z := 0; z < s.Nz; z++ {
				m := Far
				for x := s.Nx - 1; x >= 0; x-- {
					m = math32.Min(m, a.At(x, y, z))
					out.Set(x, y, z, m)
				}
			}
		}
	})
	return out
}

// Volume returns the inside volume of a in cubic millimetres.
func Volume(a *grid.Field) float64 {
	return float64(a.CountInside()) * a.VoxelVolume()
}

// Mass returns the mass in grams of the inside region of a printed in a
// material of the given density (g/cm^3).
func Mass(a *grid.Field, density float64) float64 {
	return Volume(a) / 1000 * density
}
