// Package strel provides structuring elements for mathematical morphology:
// elementary line segments scanned with a sliding extremum buffer, and 2D/3D
// elements with an optional decomposition into sequences of line passes.
package strel

import (
	"fmt"
	"strings"
)

// Stage is one step of a decomposition: the union of line elements through
// a common reference sample. Successive stages combine by Minkowski sum.
// Most stages hold a single line; crosses hold one line per axis.
type Stage []Line

// Element is a 2D or 3D structuring element: a boolean mask over a box of
// the given size, with a reference sample (offset) inside the box.
//
// Elements are immutable values. The mask is stored row-major with x varying
// fastest, matching the array package.
type Element struct {
	size      []int
	offset    []int
	mask      []bool
	stages    []Stage
	separable bool
}

// New builds an element from an explicit mask. An element whose mask fills
// its whole box decomposes into one line per axis; any other mask is
// processed by direct enumeration.
func New(size, offset []int, mask []bool) (Element, error) {
	dims := len(size)
	if dims < 2 || dims > 3 {
		return Element{}, fmt.Errorf("structuring element must have 2 or 3 dimensions, got %d", dims)
	}
	if len(offset) != dims {
		return Element{}, fmt.Errorf("offset has %d dimensions, size has %d", len(offset), dims)
	}
	n := 1
	for d := range size {
		if size[d] < 1 {
			return Element{}, fmt.Errorf("size of dimension %d must be positive, got %d", d, size[d])
		}
		if offset[d] < 0 || offset[d] >= size[d] {
			return Element{}, fmt.Errorf("offset %d of dimension %d outside [0, %d)", offset[d], d, size[d])
		}
		n *= size[d]
	}
	if len(mask) != n {
		return Element{}, fmt.Errorf("mask has %d cells, size %v needs %d", len(mask), size, n)
	}

	e := Element{
		size:   append([]int(nil), size...),
		offset: append([]int(nil), offset...),
		mask:   append([]bool(nil), mask...),
	}
	full := true
	for _, v := range mask {
		full = full && v
	}
	if full {
		e.separable = true
		for d := 0; d < dims; d++ {
			if size[d] > 1 {
				e.stages = append(e.stages, Stage{NewLine(size[d], offset[d], axisDirection(d))})
			}
		}
	}
	return e, nil
}

// FromPattern builds a 2D element from rows of text, one string per row.
// 'x', 'X', '#' and '1' mark cells of the element; any other rune marks an
// empty cell. The reference sample is the centre of the box.
func FromPattern(rows ...string) (Element, error) {
	if len(rows) == 0 {
		return Element{}, fmt.Errorf("pattern has no rows")
	}
	width := len([]rune(rows[0]))
	mask := make([]bool, 0, width*len(rows))
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return Element{}, fmt.Errorf("pattern row %d has width %d, expected %d", y, len(runes), width)
		}
		for _, r := range runes {
			mask = append(mask, strings.ContainsRune("xX#1", r))
		}
	}
	return New([]int{width, len(rows)}, []int{(width - 1) / 2, (len(rows) - 1) / 2}, mask)
}

// FromStages builds the element equal to the Minkowski sum of the given
// stages. Its decomposition is the stages themselves.
func FromStages(dims int, stages ...Stage) Element {
	if dims < 2 || dims > 3 {
		panic(fmt.Sprintf("strel: element must have 2 or 3 dimensions, got %d", dims))
	}
	points := map[[3]int]struct{}{{}: {}}
	for _, stage := range stages {
		var moves [][3]int
		for _, line := range stage {
			if line.direction.MinDims() > dims {
				panic(fmt.Sprintf("strel: %s does not fit in %d dimensions", line, dims))
			}
			moves = append(moves, line.Displacements()...)
		}
		next := make(map[[3]int]struct{}, len(points)*len(moves))
		for p := range points {
			for _, m := range moves {
				next[[3]int{p[0] + m[0], p[1] + m[1], p[2] + m[2]}] = struct{}{}
			}
		}
		points = next
	}

	e := fromPoints(dims, points)
	e.separable = true
	e.stages = append([]Stage(nil), stages...)
	return e
}

// fromPoints builds an element whose displacement set is points.
func fromPoints(dims int, points map[[3]int]struct{}) Element {
	var lo, hi [3]int
	first := true
	for p := range points {
		for d := 0; d < dims; d++ {
			if first || p[d] < lo[d] {
				lo[d] = p[d]
			}
			if first || p[d] > hi[d] {
				hi[d] = p[d]
			}
		}
		first = false
	}
	e := Element{
		size:   make([]int, dims),
		offset: make([]int, dims),
	}
	n := 1
	for d := 0; d < dims; d++ {
		e.size[d] = hi[d] - lo[d] + 1
		e.offset[d] = -lo[d]
		n *= e.size[d]
	}
	e.mask = make([]bool, n)
	for p := range points {
		e.mask[e.index(p[0]-lo[0], p[1]-lo[1], p[2]-lo[2])] = true
	}
	return e
}

func (e Element) index(x, y, z int) int {
	idx := x + y*e.size[0]
	if len(e.size) == 3 {
		idx += z * e.size[0] * e.size[1]
	}
	return idx
}

// Dims returns the dimensionality of the element.
func (e Element) Dims() int { return len(e.size) }

// Size returns the extent of the element's box.
func (e Element) Size() []int { return append([]int(nil), e.size...) }

// Offset returns the position of the reference sample within the box.
func (e Element) Offset() []int { return append([]int(nil), e.offset...) }

// Mask returns a copy of the occupancy mask.
func (e Element) Mask() []bool { return append([]bool(nil), e.mask...) }

// At reports whether the cell at box coordinates (x, y[, z]) belongs to the
// element.
func (e Element) At(coords ...int) bool {
	z := 0
	if len(coords) > 2 {
		z = coords[2]
	}
	for d := range e.size {
		if coords[d] < 0 || coords[d] >= e.size[d] {
			return false
		}
	}
	return e.mask[e.index(coords[0], coords[1], z)]
}

// Count returns the number of cells in the element.
func (e Element) Count() int {
	n := 0
	for _, v := range e.mask {
		if v {
			n++
		}
	}
	return n
}

// ContainsOrigin reports whether the reference sample belongs to the element.
func (e Element) ContainsOrigin() bool {
	return e.At(e.offset...)
}

// Displacements returns the position, relative to the reference sample, of
// every cell of the element as (x, y, z) vectors; z is zero for 2D elements.
func (e Element) Displacements() [][3]int {
	depth := 1
	if len(e.size) == 3 {
		depth = e.size[2]
	}
	oz := 0
	if len(e.offset) == 3 {
		oz = e.offset[2]
	}
	var out [][3]int
	for z := 0; z < depth; z++ {
		for y := 0; y < e.size[1]; y++ {
			for x := 0; x < e.size[0]; x++ {
				if e.mask[e.index(x, y, z)] {
					out = append(out, [3]int{x - e.offset[0], y - e.offset[1], z - oz})
				}
			}
		}
	}
	return out
}

// Reverse returns the point reflection of the element about its reference
// sample. Reverse(Reverse(e)) equals e.
func (e Element) Reverse() Element {
	r := Element{
		size:      append([]int(nil), e.size...),
		offset:    make([]int, len(e.size)),
		mask:      make([]bool, len(e.mask)),
		separable: e.separable,
	}
	for d := range e.size {
		r.offset[d] = e.size[d] - 1 - e.offset[d]
	}
	// reflecting every coordinate reverses the flat mask
	for i, v := range e.mask {
		r.mask[len(e.mask)-1-i] = v
	}
	for _, stage := range e.stages {
		rs := make(Stage, len(stage))
		for i, line := range stage {
			rs[i] = line.Reverse()
		}
		r.stages = append(r.stages, rs)
	}
	return r
}

// Decompose returns the stages whose successive application is equivalent
// to filtering with the whole element. The boolean is false when the element
// has no such decomposition.
func (e Element) Decompose() ([]Stage, bool) {
	if !e.separable {
		return nil, false
	}
	return append([]Stage(nil), e.stages...), true
}

// Equal reports whether two elements have the same box, reference sample
// and mask.
func (e Element) Equal(o Element) bool {
	if len(e.size) != len(o.size) {
		return false
	}
	for d := range e.size {
		if e.size[d] != o.size[d] || e.offset[d] != o.offset[d] {
			return false
		}
	}
	for i := range e.mask {
		if e.mask[i] != o.mask[i] {
			return false
		}
	}
	return true
}

// String renders 2D elements as rows of 'x' and '.'; 3D elements are
// rendered plane by plane.
func (e Element) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "strel %v offset %v\n", e.size, e.offset)
	depth := 1
	if len(e.size) == 3 {
		depth = e.size[2]
	}
	for z := 0; z < depth; z++ {
		if z > 0 {
			sb.WriteString("\n")
		}
		for y := 0; y < e.size[1]; y++ {
			for x := 0; x < e.size[0]; x++ {
				if e.mask[e.index(x, y, z)] {
					sb.WriteByte('x')
				} else {
					sb.WriteByte('.')
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
