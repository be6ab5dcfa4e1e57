package frep

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/parallel"
)

// Frame places a voxel grid in model space: voxel (0,0,0) sits at Min and
// neighbouring voxels are Step model units apart on every axis.
type Frame struct {
	Min  v3.Vec
	Step float64
}

// Linspace returns the frame of an n-voxel cube spanning [lo, hi] on every
// axis, both ends included.
func Linspace(lo, hi float64, n int) Frame {
	step := 1.0
	if n > 1 {
		step = (hi - lo) / float64(n-1)
	}
	return Frame{Min: v3.Vec{X: lo, Y: lo, Z: lo}, Step: step}
}

// Point returns the model-space position of voxel (x, y, z).
func (f Frame) Point(x, y, z int) v3.Vec {
	return v3.Vec{
		X: f.Min.X + float64(x)*f.Step,
		Y: f.Min.Y + float64(y)*f.Step,
		Z: f.Min.Z + float64(z)*f.Step,
	}
}

// Sample evaluates s at every voxel centre. Values are converted from
// model units to voxels so the result follows the field convention.
func Sample(s sdf.SDF3, shape grid.Shape, f Frame) *grid.Field {
	out := grid.NewField(shape, grid.UnitScale)
	parallel.For(shape.Nx, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := 0; y < shape.Ny; y++ {
				for z := 0; z < shape.Nz; z++ {
					d := s.Evaluate(f.Point(x, y, z)) / f.Step
					out.Set(x, y, z, float32(d))
				}
			}
		}
	})
	return out
}

// Sphere is a sphere of radius r centred at the origin.
func Sphere(r float64) (sdf.SDF3, error) {
	return sdf.Sphere3D(r)
}

// Rect is an axis-aligned box of the given edge lengths centred at the
// origin.
func Rect(x, y, z float64) (sdf.SDF3, error) {
	return sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
}

// Axis names a coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Cylinder is a cylinder of radius r along axis, spanning [lo, hi] on
// that axis.
func Cylinder(axis Axis, lo, hi, r float64) (sdf.SDF3, error) {
	if hi <= lo {
		return nil, fmt.Errorf("cylinder span [%g, %g] is empty", lo, hi)
	}
	c, err := sdf.Cylinder3D(hi-lo, r, 0)
	if err != nil {
		return nil, err
	}
	mid := (lo + hi) / 2
	var m sdf.M44
	switch axis {
	case AxisX:
		m = sdf.Translate3d(v3.Vec{X: mid}).Mul(sdf.RotateY(math.Pi / 2))
	case AxisY:
		m = sdf.Translate3d(v3.Vec{Y: mid}).Mul(sdf.RotateX(-math.Pi / 2))
	default:
		m = sdf.Translate3d(v3.Vec{Z: mid})
	}
	return sdf.Transform3D(c, m), nil
}

// heart3 is the implicit heart surface
// (x^2 + 9/4 y^2 + z^2 - 1)^3 - x^2 z^3 - 9/80 y^2 z^3.
// Its value has the right sign but is not a distance.
type heart3 struct{}

// Heart returns the heart solid, roughly unit sized.
func Heart() sdf.SDF3 { return heart3{} }

func (heart3) Evaluate(p v3.Vec) float64 {
	x2, y2, z3 := p.X*p.X, p.Y*p.Y, p.Z*p.Z*p.Z
	a := x2 + 9.0/4.0*y2 + p.Z*p.Z - 1
	return a*a*a - x2*z3 - 9.0/80.0*y2*z3
}

func (heart3) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: -1.5, Y: -1.5, Z: -1.5}, Max: v3.Vec{X: 1.5, Y: 1.5, Z: 1.5}}
}

// egg3 is an ellipsoid whose horizontal radius grows towards +Y.
type egg3 struct{}

// Egg returns the egg solid, about 8 units tall.
func Egg() sdf.SDF3 { return egg3{} }

func (egg3) Evaluate(p v3.Vec) float64 {
	r2 := (p.X*p.X + p.Z*p.Z) * (1 + 0.15*p.Y)
	return r2/9 + p.Y*p.Y/16 - 1
}

func (egg3) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: -5, Y: -5, Z: -5}, Max: v3.Vec{X: 5, Y: 5, Z: 5}}
}

// PrimitiveNames lists the names accepted by Primitive.
var PrimitiveNames = []string{"Heart", "Egg", "Cube", "Silo", "Cylinder", "Sphere"}

// Primitive samples a named demonstration solid onto a res^3 grid.
func Primitive(name string, res int) (*grid.Field, error) {
	if res < 2 {
		return nil, fmt.Errorf("primitive resolution must be at least 2, got %d", res)
	}
	var (
		s     sdf.SDF3
		frame = Linspace(-50, 50, res)
		err   error
	)
	switch name {
	case "Heart":
		s, frame = Heart(), Linspace(-1.5, 1.5, res)
	case "Egg":
		s, frame = Egg(), Linspace(-5, 5, res)
	case "Cube":
		s, err = Rect(80, 80, 80)
	case "Silo":
		var ball, body sdf.SDF3
		if ball, err = Sphere(40); err != nil {
			break
		}
		if body, err = Cylinder(AxisY, -40, 0, 40); err != nil {
			break
		}
		s = sdf.Union3D(ball, body)
	case "Cylinder":
		s, err = Cylinder(AxisX, -40, 40, 40)
	case "Sphere":
		s, err = Sphere(40)
	default:
		return nil, fmt.Errorf("primitive %q is not implemented (have %v)", name, PrimitiveNames)
	}
	if err != nil {
		return nil, fmt.Errorf("primitive %s: %w", name, err)
	}
	return Sample(s, grid.Cube(res), frame), nil
}
