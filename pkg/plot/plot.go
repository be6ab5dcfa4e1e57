// Package plot renders axis-aligned slices of voxel fields as SVG.
package plot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"
	"github.com/chewxy/math32"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
)

// Pixel is the edge length of one voxel in the rendered image.
const Pixel = 4

// RGB is an 8-bit colour.
type RGB [3]uint8

func (c RGB) fill() string {
	return fmt.Sprintf("fill:rgb(%d,%d,%d)", c[0], c[1], c[2])
}

var (
	white = RGB{255, 255, 255}
	black = RGB{0, 0, 0}
)

// plane describes a slice through the grid: the two in-plane axes and a
// lookup for the voxel at image position (u, v).
type plane struct {
	w, h int
	at   func(u, v int) float32
}

func slicePlane(f *grid.Field, axis frep.Axis, index int) (plane, error) {
	s := f.Shape
	switch axis {
	case frep.AxisX:
		if index < 0 || index >= s.Nx {
			break
		}
		return plane{s.Ny, s.Nz, func(u, v int) float32 { return f.At(index, u, v) }}, nil
	case frep.AxisY:
		if index < 0 || index >= s.Ny {
			break
		}
		return plane{s.Nx, s.Nz, func(u, v int) float32 { return f.At(u, index, v) }}, nil
	case frep.AxisZ:
		if index < 0 || index >= s.Nz {
			break
		}
		return plane{s.Nx, s.Ny, func(u, v int) float32 { return f.At(u, v, index) }}, nil
	}
	return plane{}, fmt.Errorf("slice %d along axis %d is outside %s", index, axis, s)
}

func begin(w io.Writer, p plane, title string) *svg.SVG {
	canvas := svg.New(w)
	canvas.Start(p.w*Pixel, p.h*Pixel+20)
	canvas.Title(title)
	canvas.Rect(0, 0, p.w*Pixel, p.h*Pixel+20, white.fill())
	canvas.Text(4, 14, title, "font-family:sans-serif;font-size:12px")
	return canvas
}

// Slice draws the inside voxels of one slice of f in black.
func Slice(w io.Writer, f *grid.Field, axis frep.Axis, index int, title string) error {
	p, err := slicePlane(f, axis, index)
	if err != nil {
		return err
	}
	canvas := begin(w, p, title)
	for u := range p.w {
		for v := range p.h {
			if p.at(u, v) <= 0 {
				canvas.Rect(u*Pixel, 20+v*Pixel, Pixel, Pixel, black.fill())
			}
		}
	}
	canvas.End()
	return nil
}

// Contour draws one slice of f as a diverging heat map: blue inside, red
// outside, white on the surface. Colours saturate at |value| = limit.
func Contour(w io.Writer, f *grid.Field, axis frep.Axis, index int, limit float32, title string) error {
	p, err := slicePlane(f, axis, index)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = 1
	}
	canvas := begin(w, p, title)
	for u := range p.w {
		for v := range p.h {
			canvas.Rect(u*Pixel, 20+v*Pixel, Pixel, Pixel, diverging(p.at(u, v)/limit).fill())
		}
	}
	canvas.End()
	return nil
}

func diverging(t float32) RGB {
	t = math32.Max(-1, math32.Min(1, t))
	fade := uint8(255 * (1 - math32.Abs(t)))
	if t < 0 {
		return RGB{fade, fade, 255}
	}
	return RGB{255, fade, fade}
}

// Stack writes one SVG per X layer into dir, drawing the inside voxels of
// a in colour ca and of b in colour cb. Where both are inside, a wins.
// It returns the number of files written.
func Stack(dir, name string, a *grid.Field, ca RGB, b *grid.Field, cb RGB) (int, error) {
	grid.MustMatch(a.Shape, b.Shape)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	n := 0
	for x := range a.Shape.Nx {
		pa, _ := slicePlane(a, frep.AxisX, x)
		pb, _ := slicePlane(b, frep.AxisX, x)
		path := filepath.Join(dir, fmt.Sprintf("%s_%04d.svg", name, x))
		if err := writeFile(path, func(w io.Writer) {
			canvas := begin(w, pa, fmt.Sprintf("%s layer %d", name, x))
			for u := range pa.w {
				for v := range pa.h {
					switch {
					case pa.at(u, v) <= 0:
						canvas.Rect(u*Pixel, 20+v*Pixel, Pixel, Pixel, ca.fill())
					case pb.at(u, v) <= 0:
						canvas.Rect(u*Pixel, 20+v*Pixel, Pixel, Pixel, cb.fill())
					}
				}
			}
			canvas.End()
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SliceFile writes Slice output to path.
func SliceFile(path string, f *grid.Field, axis frep.Axis, index int, title string) error {
	if _, err := slicePlane(f, axis, index); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) { Slice(w, f, axis, index, title) })
}

func writeFile(path string, draw func(io.Writer)) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	draw(out)
	return out.Close()
}
