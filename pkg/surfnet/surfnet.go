// Package surfnet builds a Voronoi net over a thin shell following the
// surface of a solid instead of through its whole volume.
//
// Seeds are drawn from a band around the zero level set. Ownership spreads
// from them by a 6-connected breadth-first flood confined to the shell,
// and every pair of face-adjacent shell voxels owned by different seeds
// becomes net material.
package surfnet

import (
	"math"
	"math/rand/v2"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
	"github.com/chazu/voronize/pkg/redistance"
)

// Params controls a surface net. Thicknesses are in voxels.
type Params struct {
	// Density scales the seed probability, density / (longest axis).
	Density float64

	// NetThickness is the shell thickness, rounded, at least one voxel.
	NetThickness float64

	// CellThickness is the strut diameter.
	CellThickness float64

	// Rand drives seed sampling. Required.
	Rand *rand.Rand
}

// Result is a finished net together with the intermediate masks.
type Result struct {
	Net      *grid.Field
	Shell    *grid.Mask
	Seeds    *grid.Mask
	Labels   []int32
	Boundary *grid.Mask
}

const unlabelled int32 = -1

var neighbours6 = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Build computes the surface net of orig.
func Build(orig *grid.Field, p Params) *Result {
	s := orig.Shape
	shellT := max(1, math.Round(p.NetThickness))
	shell := frep.Shell(orig, float32(shellT))
	mask := shell.Inside()

	tol := float32(max(1, p.NetThickness*0.75))
	band := grid.NewMask(s)
	for i, v := range orig.Data {
		band.Data[i] = v <= tol && v >= -tol
	}

	seeds := sample(band, p.Density, p.Rand)
	if seeds.Count() < 2 {
		candidates := band
		if !band.Any() {
			candidates = mask
		}
		forceSeeds(seeds, candidates, mask, p.Rand)
	}

	labels := flood(mask, seeds)
	boundary := boundaries(mask, labels)

	field := redistance.Field(boundary.Field(orig.Scale))
	net := frep.Intersection(frep.Thicken(field, float32(max(p.CellThickness/2, 0))), shell)

	logging.Logger().Info("surface net complete",
		"shell", mask.Count(), "seeds", seeds.Count(), "boundary", boundary.Count())
	return &Result{Net: net, Shell: mask, Seeds: seeds, Labels: labels, Boundary: boundary}
}

// sample marks band voxels with probability density / (longest axis).
func sample(band *grid.Mask, density float64, r *rand.Rand) *grid.Mask {
	m := grid.NewMask(band.Shape)
	p := density / float64(band.Shape.Max())
	for i, in := range band.Data {
		hit := r.Float64() < p
		m.Data[i] = in && hit
	}
	return m
}

// forceSeeds tops seeds up to two from candidates. A single seed would
// own the whole shell and leave no boundary, so the second seed is the
// candidate farthest from the first along the shell.
func forceSeeds(seeds, candidates, mask *grid.Mask, r *rand.Rand) {
	idx := candidates.Indices()
	if len(idx) == 0 {
		return
	}
	first := -1
	for i, set := range seeds.Data {
		if set {
			first = i
			break
		}
	}
	if first < 0 {
		first = idx[r.IntN(len(idx))]
		seeds.Data[first] = true
		logging.Logger().Warn("surface net: no seed landed in band; forcing one",
			"band", len(idx))
	}
	if len(idx) < 2 {
		return
	}

	one := grid.NewMask(seeds.Shape)
	one.Data[first] = true
	reach := bfs(mask, one)

	best, bestD := -1, float32(0)
	for _, i := range idx {
		if d := reach.dist[i]; i != first && !math.IsInf(float64(d), 1) && d > bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		// Unreachable through the shell; take the Euclidean farthest.
		fx, fy, fz := seeds.Shape.Coords(first)
		bestE := -1
		for _, i := range idx {
			x, y, z := seeds.Shape.Coords(i)
			if e := (x-fx)*(x-fx) + (y-fy)*(y-fy) + (z-fz)*(z-fz); e > bestE {
				best, bestE = i, e
			}
		}
	}
	seeds.Data[best] = true
}

type bfsResult struct {
	labels []int32
	dist   []float32
}

// bfs floods labels from every seed across mask voxels in FIFO order. Each
// seed gets the label of its rank in index order. A voxel keeps the first
// label that reaches it with a strictly smaller distance.
func bfs(mask, seeds *grid.Mask) bfsResult {
	s := mask.Shape
	res := bfsResult{
		labels: make([]int32, s.Len()),
		dist:   make([]float32, s.Len()),
	}
	inf := float32(math.Inf(1))
	for i := range res.labels {
		res.labels[i] = unlabelled
		res.dist[i] = inf
	}
	var queue []int
	for i, set := range seeds.Data {
		if !set {
			continue
		}
		res.labels[i] = int32(len(queue))
		res.dist[i] = 0
		queue = append(queue, i)
	}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		x, y, z := s.Coords(cur)
		nd := res.dist[cur] + 1
		for _, d := range neighbours6 {
			nx, ny, nz := x+d[0], y+d[1], z+d[2]
			if !s.In(nx, ny, nz) {
				continue
			}
			n := s.Index(nx, ny, nz)
			if !mask.Data[n] || nd >= res.dist[n] {
				continue
			}
			res.dist[n] = nd
			res.labels[n] = res.labels[cur]
			queue = append(queue, n)
		}
	}
	return res
}

// flood returns the seed label of every voxel, unlabelled outside the
// reach of any seed.
func flood(mask, seeds *grid.Mask) []int32 {
	return bfs(mask, seeds).labels
}

// boundaries marks both voxels of every face-adjacent pair that lie in
// mask and carry different labels.
func boundaries(mask *grid.Mask, labels []int32) *grid.Mask {
	s := mask.Shape
	b := grid.NewMask(s)
	for i, in := range mask.Data {
		if !in || labels[i] == unlabelled {
			continue
		}
		x, y, z := s.Coords(i)
		// Positive directions visit each pair once.
		for _, d := range [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			nx, ny, nz := x+d[0], y+d[1], z+d[2]
			if !s.In(nx, ny, nz) {
				continue
			}
			n := s.Index(nx, ny, nz)
			if mask.Data[n] && labels[n] != unlabelled && labels[n] != labels[i] {
				b.Data[i] = true
				b.Data[n] = true
			}
		}
	}
	return b
}
