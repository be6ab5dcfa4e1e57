package tessellate

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/chazu/voronize/pkg/kernel"
)

// maxClusterRounds bounds the search for a coarse enough cluster grid.
const maxClusterRounds = 8

// Decimate reduces a mesh by vertex clustering: vertices are binned into
// a uniform grid, each bin collapses to the mean of its vertices and
// triangles that lose a corner are dropped. The bin size starts at the
// size expected to leave keep*vertices bins and grows by 35% per round
// until the target is met. keep <= 0 yields an empty mesh.
func Decimate(m *kernel.Mesh, keep float64) *kernel.Mesh {
	if keep <= 0 {
		return &kernel.Mesh{Part: m.Part}
	}
	if keep >= 0.999 || m.IsEmpty() {
		return m
	}
	target := max(int(float64(m.VertexCount())*keep), 4)
	lo, hi := m.Bounds()
	span := [3]float64{}
	vol, longest := 1.0, 0.0
	for d := range 3 {
		span[d] = math.Max(float64(hi[d]-lo[d]), 1e-9)
		vol *= span[d]
		longest = math.Max(longest, span[d])
	}
	var cell float64
	if vol <= 1e-12 {
		cell = longest / math.Max(math.Floor(math.Sqrt(float64(target))), 1)
	} else {
		cell = math.Cbrt(vol / float64(target))
	}

	best := m
	for range maxClusterRounds {
		best = cluster(m, cell, lo)
		if best.VertexCount() <= target || cell >= longest {
			break
		}
		cell *= 1.35
	}
	return best
}

// cluster collapses the vertices of m that share a bin of edge cell.
func cluster(m *kernel.Mesh, cell float64, origin [3]float32) *kernel.Mesh {
	type key [3]int64
	bins := map[key]uint32{}
	remap := make([]uint32, m.VertexCount())
	var sums [][3]float64
	var counts []float64

	for i := range m.VertexCount() {
		v := m.Vertex(i)
		var k key
		for d := range 3 {
			k[d] = int64(math.Floor(float64(v[d]-origin[d]) / cell))
		}
		b, ok := bins[k]
		if !ok {
			b = uint32(len(sums))
			bins[k] = b
			sums = append(sums, [3]float64{})
			counts = append(counts, 0)
		}
		for d := range 3 {
			sums[b][d] += float64(v[d])
		}
		counts[b]++
		remap[i] = b
	}

	out := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(sums)),
		Normals:  make([]float32, 3*len(sums)),
		Part:     m.Part,
	}
	for b, s := range sums {
		n := counts[b]
		out.Vertices = append(out.Vertices, float32(s[0]/n), float32(s[1]/n), float32(s[2]/n))
	}
	for t := range m.TriangleCount() {
		tri := m.Triangle(t)
		a, b, c := remap[tri[0]], remap[tri[1]], remap[tri[2]]
		if a == b || a == c || b == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
		n := faceNormal(out.Vertex(int(a)), out.Vertex(int(b)), out.Vertex(int(c)))
		for _, v := range [3]uint32{a, b, c} {
			for d := range 3 {
				out.Normals[3*int(v)+d] += n[d]
			}
		}
	}
	for i := 0; i < len(out.Normals); i += 3 {
		l := math32.Sqrt(out.Normals[i]*out.Normals[i] + out.Normals[i+1]*out.Normals[i+1] + out.Normals[i+2]*out.Normals[i+2])
		if l > 0 {
			out.Normals[i] /= l
			out.Normals[i+1] /= l
			out.Normals[i+2] /= l
		}
	}
	return out
}

// faceNormal returns the unnormalized normal of triangle a, b, c.
func faceNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	return [3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
}
