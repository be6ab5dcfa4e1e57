package kernel

import (
	"math"

	"github.com/chazu/voronize/pkg/grid"
)

// outsideValue is read for points beyond the grid so every surface closes.
const outsideValue = 1

// Interp returns the trilinear interpolation of f at the continuous voxel
// coordinate (x, y, z). Samples beyond the grid read as outside.
func Interp(f *grid.Field, x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := x-x0, y-y0, z-z0
	ix, iy, iz := int(x0), int(y0), int(z0)

	var v float64
	for dx := range 2 {
		wx := 1 - fx
		if dx == 1 {
			wx = fx
		}
		for dy := range 2 {
			wy := 1 - fy
			if dy == 1 {
				wy = fy
			}
			for dz := range 2 {
				wz := 1 - fz
				if dz == 1 {
					wz = fz
				}
				v += wx * wy * wz * at(f, ix+dx, iy+dy, iz+dz)
			}
		}
	}
	return v
}

func at(f *grid.Field, x, y, z int) float64 {
	if !f.Shape.In(x, y, z) {
		return outsideValue
	}
	return float64(f.At(x, y, z))
}

// Extent returns the physical box, in millimetres, that encloses the
// field with one voxel of padding on every side.
func Extent(f *grid.Field) (lo, hi [3]float64) {
	s := f.Shape
	lo = [3]float64{-f.Scale.X, -f.Scale.Y, -f.Scale.Z}
	hi = [3]float64{
		float64(s.Nx) * f.Scale.X,
		float64(s.Ny) * f.Scale.Y,
		float64(s.Nz) * f.Scale.Z,
	}
	return lo, hi
}
