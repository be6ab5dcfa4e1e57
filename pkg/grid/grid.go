// Package grid defines the dense voxel containers shared by every stage of
// the lattice pipeline. A grid covers integer coordinates
// [0,Nx)x[0,Ny)x[0,Nz) and is stored in row-major order with Z varying
// fastest. Fields carry a physical scale (mm per voxel along each axis)
// that is fixed for the lifetime of the field.
package grid

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Shape is the voxel dimensions of a grid.
type Shape struct {
	Nx, Ny, Nz int
}

// NewShape returns a Shape, panicking on non-positive dimensions.
func NewShape(nx, ny, nz int) Shape {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("grid: non-positive dimensions %dx%dx%d", nx, ny, nz))
	}
	return Shape{Nx: nx, Ny: ny, Nz: nz}
}

// Cube returns an n*n*n Shape.
func Cube(n int) Shape {
	return NewShape(n, n, n)
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Nx, s.Ny, s.Nz)
}

// Len returns the number of voxels.
func (s Shape) Len() int {
	return s.Nx * s.Ny * s.Nz
}

// Max returns the largest dimension.
func (s Shape) Max() int {
	return max(s.Nx, s.Ny, s.Nz)
}

// Index returns the linear offset of (x, y, z).
func (s Shape) Index(x, y, z int) int {
	return (x*s.Ny+y)*s.Nz + z
}

// Coords is the inverse of Index.
func (s Shape) Coords(i int) (x, y, z int) {
	z = i % s.Nz
	i /= s.Nz
	y = i % s.Ny
	x = i / s.Ny
	return x, y, z
}

// In reports whether (x, y, z) lies inside the grid.
func (s Shape) In(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < s.Nx && y < s.Ny && z < s.Nz
}

func (s Shape) validate() {
	if s.Nx <= 0 || s.Ny <= 0 || s.Nz <= 0 {
		panic(fmt.Sprintf("grid: non-positive dimensions %s", s))
	}
}

// MustMatch panics unless every shape equals the first. Boolean
// composition of fields of different sizes is a caller error.
func MustMatch(shapes ...Shape) {
	for _, s := range shapes[1:] {
		if s != shapes[0] {
			panic(fmt.Sprintf("grid: shape mismatch %s vs %s", shapes[0], s))
		}
	}
}

// UnitScale is one millimetre per voxel on every axis.
var UnitScale = r3.Vector{X: 1, Y: 1, Z: 1}
