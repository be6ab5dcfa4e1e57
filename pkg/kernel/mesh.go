package kernel

import (
	"github.com/chewxy/math32"
)

// Mesh is a triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Part     string    `json:"part"`     // which output part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) [3]float32 {
	return [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh returns zero vectors.
func (m *Mesh) Bounds() (lo, hi [3]float32) {
	if m.IsEmpty() {
		return lo, hi
	}
	lo, hi = m.Vertex(0), m.Vertex(0)
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		for d := range 3 {
			lo[d] = math32.Min(lo[d], v[d])
			hi[d] = math32.Max(hi[d], v[d])
		}
	}
	return lo, hi
}

// Builder accumulates triangles with flat face normals.
type Builder struct {
	mesh Mesh
}

// Add appends the triangle a, b, c. Corners are in counter-clockwise
// order seen from outside.
func (b *Builder) Add(a, c1, c2 [3]float32) {
	n := faceNormal(a, c1, c2)
	base := uint32(len(b.mesh.Vertices) / 3)
	for _, v := range [3][3]float32{a, c1, c2} {
		b.mesh.Vertices = append(b.mesh.Vertices, v[0], v[1], v[2])
		b.mesh.Normals = append(b.mesh.Normals, n[0], n[1], n[2])
	}
	b.mesh.Indices = append(b.mesh.Indices, base, base+1, base+2)
}

// Mesh returns the accumulated mesh.
func (b *Builder) Mesh() *Mesh {
	m := b.mesh
	return &m
}

func faceNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return n
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
