// Package tessellate turns the output fields of a run into triangle
// meshes using a surface extraction kernel. One mesh is produced per
// part.
package tessellate

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/kernel"
	"github.com/chazu/voronize/pkg/logging"
)

// Part is a named field to be meshed.
type Part struct {
	Name  string
	Field *grid.Field
}

// Options controls post-processing.
type Options struct {
	// Smooth box-filters the field before extraction to hide the voxel
	// staircase.
	Smooth bool

	// KeepFraction is the share of vertices to keep when decimating.
	// Values at or above 0.999 disable decimation.
	KeepFraction float64
}

// Tessellate produces one mesh per part. Parts with a nil field are
// skipped. The tessellator never mutates the fields.
func Tessellate(parts []Part, m kernel.Mesher, opts Options) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, p := range parts {
		if p.Field == nil {
			continue
		}
		mesh, err := tessellatePart(p, m, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: part %s: %w", p.Name, err)
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func tessellatePart(p Part, m kernel.Mesher, opts Options) (*kernel.Mesh, error) {
	f := p.Field
	if opts.Smooth {
		f = frep.Smooth(f)
	}
	mesh, err := m.ToMesh(f)
	if err != nil {
		return nil, err
	}
	log := logging.Logger()
	if opts.KeepFraction < 0.999 {
		v0, t0 := mesh.VertexCount(), mesh.TriangleCount()
		mesh = Decimate(mesh, opts.KeepFraction)
		log.Info("decimated mesh",
			"part", p.Name,
			"vertices", fmt.Sprintf("%s->%s", humanize.Comma(int64(v0)), humanize.Comma(int64(mesh.VertexCount()))),
			"triangles", fmt.Sprintf("%s->%s", humanize.Comma(int64(t0)), humanize.Comma(int64(mesh.TriangleCount()))),
			"keep", opts.KeepFraction)
	}
	mesh.Part = p.Name
	log.Info("tessellated", "part", p.Name, "backend", m.Name(),
		"triangles", humanize.Comma(int64(mesh.TriangleCount())))
	return mesh, nil
}
