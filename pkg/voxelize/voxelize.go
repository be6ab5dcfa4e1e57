// Package voxelize rasterizes a triangle mesh file into an inside/outside
// voxel field.
package voxelize

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	m3d "github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/parallel"
)

// Extensions lists the mesh formats Load understands.
var Extensions = []string{".stl", ".off"}

// Result is a voxelized mesh.
type Result struct {
	// Field is -1 inside the mesh and +1 outside, with Buffer empty
	// voxels on every side.
	Field *grid.Field

	// Box is the size of the mesh bounding box in model units (mm).
	Box r3.Vector

	Buffer int
}

// Load reads the triangles of an STL or OFF file.
func Load(path string) ([]*m3d.Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load mesh")
	}
	defer f.Close()
	return Read(f, filepath.Ext(path))
}

// Read decodes triangles from r in the format named by ext.
func Read(r io.Reader, ext string) ([]*m3d.Triangle, error) {
	var (
		tris []*m3d.Triangle
		err  error
	)
	switch strings.ToLower(ext) {
	case ".stl":
		tris, err = m3d.ReadSTL(r)
	case ".off":
		tris, err = m3d.ReadOFF(r)
	default:
		return nil, errors.Errorf("load mesh: unsupported extension %q (have %v)", ext, Extensions)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load mesh")
	}
	if len(tris) == 0 {
		return nil, errors.New("load mesh: no triangles")
	}
	return tris, nil
}

// Voxelize loads the mesh at path and rasterizes it so that its longest
// side spans res voxels.
func Voxelize(path string, res, buffer int) (*Result, error) {
	tris, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Triangles(tris, res, buffer)
}

// Triangles rasterizes a triangle soup. Voxel centres are tested for
// containment by ray parity, so meshes with duplicated faces still
// voxelize cleanly.
func Triangles(tris []*m3d.Triangle, res, buffer int) (*Result, error) {
	if res < 1 {
		return nil, errors.Errorf("voxelize: resolution must be positive, got %d", res)
	}
	buffer = max(buffer, 0)
	mesh := m3d.NewMeshTriangles(tris)
	solid := &paritySolid{Collider: m3d.MeshToCollider(mesh)}

	lo, hi := mesh.Min(), mesh.Max()
	size := hi.Sub(lo)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	if longest <= 0 {
		return nil, errors.New("voxelize: mesh has zero extent")
	}
	step := longest / float64(res)
	dim := func(v float64) int { return max(int(math.Ceil(v/step-1e-9)), 1) + 2*buffer }
	shape := grid.NewShape(dim(size.X), dim(size.Y), dim(size.Z))

	scale := r3.Vector{X: step, Y: step, Z: step}
	f := grid.NewFieldFilled(shape, scale, 1)
	centre := func(i int, o float64) float64 { return o + (float64(i-buffer)+0.5)*step }
	parallel.For(shape.Nx, func(x0, x1 int) {
		for x := x0; x < x1; x++ {
			for y := 0; y < shape.Ny; y++ {
				for z := 0; z < shape.Nz; z++ {
					c := m3d.Coord3D{X: centre(x, lo.X), Y: centre(y, lo.Y), Z: centre(z, lo.Z)}
					if solid.Contains(c) {
						f.Set(x, y, z, -1)
					}
				}
			}
		}
	})

	logging.Logger().Info("voxelized mesh",
		"triangles", len(tris), "shape", shape.String(),
		"inside", f.CountInside(), "voxel_mm", step)
	return &Result{
		Field:  f,
		Box:    r3.Vector{X: size.X, Y: size.Y, Z: size.Z},
		Buffer: buffer,
	}, nil
}

// paritySolid treats a point as inside when rays cast in several fixed
// directions all cross the surface an odd number of times.
type paritySolid struct {
	m3d.Collider
}

var parityDirections = []m3d.Coord3D{
	{X: -0.40475415, Y: 0.86174632, Z: -0.30588783},
	{X: -0.81025101, Y: 0.38452447, Z: -0.44230559},
	{X: -0.09226702, Y: -0.74875317, Z: -0.65639584},
}

func (p *paritySolid) Contains(c m3d.Coord3D) bool {
	if !m3d.InBounds(p, c) {
		return false
	}
	for _, d := range parityDirections {
		if p.crossings(c, d)%2 == 0 {
			return false
		}
	}
	return true
}

func (p *paritySolid) crossings(origin, dir m3d.Coord3D) int {
	var scales []float64
	p.Collider.RayCollisions(&m3d.Ray{Origin: origin, Direction: dir}, func(r m3d.RayCollision) {
		scales = append(scales, r.Scale)
	})
	if len(scales) == 0 {
		return 0
	}
	sort.Float64s(scales)

	// Coincident hits come from duplicated faces or shared edges.
	eps := p.Max().Sub(p.Min()).Norm() * 1e-8
	n, last := 0, math.Inf(-1)
	for _, s := range scales {
		if s-last > eps {
			n++
		}
		last = s
	}
	return n
}
