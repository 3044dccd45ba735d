// Package array provides the dense multi-dimensional containers read and
// written by the morphology engines.
//
// Data are stored as a flat slice in row-major order with x varying fastest,
// so the element at (x, y, z) of a width×height×depth array lives at
// z*width*height + y*width + x.
package array

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the set of scalar element types the grayscale engines accept.
type Number interface {
	constraints.Integer | constraints.Float
}

// layout holds the shape and strides shared by every container type.
type layout struct {
	size    []int
	strides []int
}

func newLayout(size []int) (layout, error) {
	if len(size) == 0 {
		return layout{}, fmt.Errorf("array must have at least one dimension")
	}
	l := layout{
		size:    make([]int, len(size)),
		strides: make([]int, len(size)),
	}
	stride := 1
	for d, n := range size {
		if n <= 0 {
			return layout{}, fmt.Errorf("size of dimension %d must be positive, got %d", d, n)
		}
		l.size[d] = n
		l.strides[d] = stride
		stride *= n
	}
	return l, nil
}

func mustLayout(size []int) layout {
	l, err := newLayout(size)
	if err != nil {
		panic("array: " + err.Error())
	}
	return l
}

// Dims returns the number of dimensions.
func (l layout) Dims() int { return len(l.size) }

// Size returns the extent along dimension dim.
func (l layout) Size(dim int) int { return l.size[dim] }

// Shape returns a copy of the extent along every dimension.
func (l layout) Shape() []int {
	return append([]int(nil), l.size...)
}

// Len returns the total number of elements.
func (l layout) Len() int {
	n := 1
	for _, s := range l.size {
		n *= s
	}
	return n
}

// Index converts coordinates to a position in the flat data slice.
// Coordinates must lie within the array.
func (l layout) Index(coords ...int) int {
	idx := 0
	for d, c := range coords {
		idx += c * l.strides[d]
	}
	return idx
}

// Stride returns the distance in the flat data slice between two neighbours
// along dimension dim.
func (l layout) Stride(dim int) int { return l.strides[dim] }

// Contains reports whether coords lies inside the array bounds.
func (l layout) Contains(coords []int) bool {
	if len(coords) != len(l.size) {
		return false
	}
	for d, c := range coords {
		if c < 0 || c >= l.size[d] {
			return false
		}
	}
	return true
}

// SameShape reports whether the layouts have identical extents.
func (l layout) SameShape(shape []int) bool {
	if len(shape) != len(l.size) {
		return false
	}
	for d := range shape {
		if shape[d] != l.size[d] {
			return false
		}
	}
	return true
}

// Array is a dense scalar array of 1, 2 or 3 (or more) dimensions.
type Array[T Number] struct {
	layout
	data []T
}

// New allocates a zero-filled array with the given extents.
// It panics if no extent is given or an extent is not positive.
func New[T Number](size ...int) *Array[T] {
	l := mustLayout(size)
	return &Array[T]{layout: l, data: make([]T, l.Len())}
}

// FromSlice wraps data as an array of the given extents. The slice is used
// directly, not copied.
func FromSlice[T Number](data []T, size ...int) (*Array[T], error) {
	l, err := newLayout(size)
	if err != nil {
		return nil, err
	}
	if len(data) != l.Len() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), size, l.Len())
	}
	return &Array[T]{layout: l, data: data}, nil
}

// Data returns the flat backing slice.
func (a *Array[T]) Data() []T { return a.data }

// At returns the element at the given coordinates.
func (a *Array[T]) At(coords ...int) T { return a.data[a.Index(coords...)] }

// Set stores v at the given coordinates.
func (a *Array[T]) Set(v T, coords ...int) { a.data[a.Index(coords...)] = v }

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	b := New[T](a.size...)
	copy(b.data, a.data)
	return b
}

// NewLike allocates a zero-filled array with the same shape as a.
func (a *Array[T]) NewLike() *Array[T] {
	return New[T](a.size...)
}

// Fill sets every element to v.
func (a *Array[T]) Fill(v T) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Plane copies the z-th xy-plane of a 3D array into a new 2D array.
func (a *Array[T]) Plane(z int) *Array[T] {
	w, h := a.size[0], a.size[1]
	p := New[T](w, h)
	copy(p.data, a.data[z*w*h:(z+1)*w*h])
	return p
}

// SetPlane copies a 2D array into the z-th xy-plane of a 3D array.
func (a *Array[T]) SetPlane(z int, p *Array[T]) {
	w, h := a.size[0], a.size[1]
	copy(a.data[z*w*h:(z+1)*w*h], p.data)
}

// Equal reports whether b has the same shape and elements as a.
func (a *Array[T]) Equal(b *Array[T]) bool {
	if !a.SameShape(b.size) {
		return false
	}
	for i, v := range a.data {
		if b.data[i] != v {
			return false
		}
	}
	return true
}
