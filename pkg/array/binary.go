package array

import "fmt"

// Binary is a dense boolean array.
type Binary struct {
	layout
	data []bool
}

// NewBinary allocates an all-false binary array with the given extents.
func NewBinary(size ...int) *Binary {
	l := mustLayout(size)
	return &Binary{layout: l, data: make([]bool, l.Len())}
}

// BinaryFromSlice wraps data as a binary array of the given extents.
func BinaryFromSlice(data []bool, size ...int) (*Binary, error) {
	l, err := newLayout(size)
	if err != nil {
		return nil, err
	}
	if len(data) != l.Len() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), size, l.Len())
	}
	return &Binary{layout: l, data: data}, nil
}

// Data returns the flat backing slice.
func (b *Binary) Data() []bool { return b.data }

// At returns the element at the given coordinates.
func (b *Binary) At(coords ...int) bool { return b.data[b.Index(coords...)] }

// Set stores v at the given coordinates.
func (b *Binary) Set(v bool, coords ...int) { b.data[b.Index(coords...)] = v }

// Clone returns a deep copy.
func (b *Binary) Clone() *Binary {
	c := NewBinary(b.size...)
	copy(c.data, b.data)
	return c
}

// Count returns the number of true elements.
func (b *Binary) Count() int {
	n := 0
	for _, v := range b.data {
		if v {
			n++
		}
	}
	return n
}

// Equal reports whether c has the same shape and elements as b.
func (b *Binary) Equal(c *Binary) bool {
	if !b.SameShape(c.size) {
		return false
	}
	for i, v := range b.data {
		if c.data[i] != v {
			return false
		}
	}
	return true
}

// Threshold returns a binary array that is true wherever a is at least level.
func Threshold[T Number](a *Array[T], level T) *Binary {
	b := NewBinary(a.size...)
	for i, v := range a.data {
		b.data[i] = v >= level
	}
	return b
}

// FromBinary converts b into a scalar array holding on for true elements and
// zero elsewhere.
func FromBinary[T Number](b *Binary, on T) *Array[T] {
	a := New[T](b.size...)
	for i, v := range b.data {
		if v {
			a.data[i] = on
		}
	}
	return a
}
