// Package kernel defines the surface extraction interface. A Mesher turns
// the zero level set of a voxel field into a triangle mesh in
// millimetres. Implementations (sdfx, model3d) are swappable without
// changing the rest of the system.
package kernel

import (
	"github.com/chazu/voronize/pkg/grid"
)

// Mesher extracts the boundary of the inside region of a field.
type Mesher interface {
	// Name identifies the backend in logs and config.
	Name() string

	// ToMesh returns the surface of f scaled by f.Scale. Voxel (i, j, k)
	// maps to (i*Scale.X, j*Scale.Y, k*Scale.Z).
	ToMesh(f *grid.Field) (*Mesh, error)
}
