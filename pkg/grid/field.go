package grid

import (
	"github.com/golang/geo/r3"
)

// Field is a scalar voxel field. When used as a signed distance field,
// negative values are inside the solid, positive values outside, and the
// magnitude approximates distance to the boundary in voxels.
//
// Operations in this module never mutate a Field they receive; they
// allocate a new one.
type Field struct {
	Shape Shape
	Scale r3.Vector
	Data  []float32
}

// NewField allocates a zero-valued field.
func NewField(s Shape, scale r3.Vector) *Field {
	s.validate()
	return &Field{Shape: s, Scale: scale, Data: make([]float32, s.Len())}
}

// NewFieldFilled allocates a field with every voxel set to v.
func NewFieldFilled(s Shape, scale r3.Vector, v float32) *Field {
	f := NewField(s, scale)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

// Like allocates an empty field with the shape and scale of f.
func (f *Field) Like() *Field {
	return NewField(f.Shape, f.Scale)
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := f.Like()
	copy(c.Data, f.Data)
	return c
}

// At returns the value at (x, y, z).
func (f *Field) At(x, y, z int) float32 {
	return f.Data[f.Shape.Index(x, y, z)]
}

// Set writes the value at (x, y, z). Only used while a stage is building
// its own output.
func (f *Field) Set(x, y, z int, v float32) {
	f.Data[f.Shape.Index(x, y, z)] = v
}

// Inside returns the mask of voxels with value <= 0.
func (f *Field) Inside() *Mask {
	m := NewMask(f.Shape)
	for i, v := range f.Data {
		m.Data[i] = v <= 0
	}
	return m
}

// CountInside returns the number of voxels with value <= 0.
func (f *Field) CountInside() int {
	n := 0
	for _, v := range f.Data {
		if v <= 0 {
			n++
		}
	}
	return n
}

// VoxelVolume is the physical volume of one voxel in mm^3.
func (f *Field) VoxelVolume() float64 {
	return f.Scale.X * f.Scale.Y * f.Scale.Z
}

// Mask is a boolean voxel grid, used for seed masks and shell masks.
type Mask struct {
	Shape Shape
	Data  []bool
}

// NewMask allocates an all-false mask.
func NewMask(s Shape) *Mask {
	s.validate()
	return &Mask{Shape: s, Data: make([]bool, s.Len())}
}

// At reports the mask value at (x, y, z).
func (m *Mask) At(x, y, z int) bool {
	return m.Data[m.Shape.Index(x, y, z)]
}

// Set marks (x, y, z).
func (m *Mask) Set(x, y, z int, v bool) {
	m.Data[m.Shape.Index(x, y, z)] = v
}

// Count returns the number of set voxels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one voxel is set.
func (m *Mask) Any() bool {
	for _, v := range m.Data {
		if v {
			return true
		}
	}
	return false
}

// Indices returns the linear offsets of all set voxels in ascending order.
func (m *Mask) Indices() []int {
	var out []int
	for i, v := range m.Data {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Field converts the mask to the raw strut encoding: -1 where set, +1
// elsewhere. The result is not metric and must be redistanced before it
// is combined with other fields.
func (m *Mask) Field(scale r3.Vector) *Field {
	f := NewField(m.Shape, scale)
	for i, v := range m.Data {
		if v {
			f.Data[i] = -1
		} else {
			f.Data[i] = 1
		}
	}
	return f
}
