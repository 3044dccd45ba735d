package strel

import (
	"fmt"

	"morpho3d/pkg/array"
)

// Direction is the unit step of an elementary line element.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
	Depth
	// Diagonal steps (+1, +1) in the xy-plane.
	Diagonal
	// AntiDiagonal steps (+1, -1) in the xy-plane.
	AntiDiagonal
)

// Step returns the (x, y, z) unit step of the direction.
func (d Direction) Step() [3]int {
	switch d {
	case Horizontal:
		return [3]int{1, 0, 0}
	case Vertical:
		return [3]int{0, 1, 0}
	case Depth:
		return [3]int{0, 0, 1}
	case Diagonal:
		return [3]int{1, 1, 0}
	case AntiDiagonal:
		return [3]int{1, -1, 0}
	default:
		panic(fmt.Sprintf("strel: invalid direction %d", int(d)))
	}
}

// Axis returns the dimension a direction runs along, or -1 for the diagonals.
func (d Direction) Axis() int {
	switch d {
	case Horizontal:
		return 0
	case Vertical:
		return 1
	case Depth:
		return 2
	default:
		return -1
	}
}

// MinDims returns the smallest dimensionality in which the direction exists.
func (d Direction) MinDims() int {
	if d == Depth {
		return 3
	}
	return 2
}

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Depth:
		return "depth"
	case Diagonal:
		return "diagonal"
	case AntiDiagonal:
		return "anti-diagonal"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func axisDirection(axis int) Direction {
	return [...]Direction{Horizontal, Vertical, Depth}[axis]
}

// Line is an elementary one-dimensional structuring element: a segment of
// length samples along a direction, with the reference sample at offset.
type Line struct {
	length    int
	offset    int
	direction Direction
}

// NewLine returns a line element. It panics unless 0 <= offset < length.
func NewLine(length, offset int, direction Direction) Line {
	if length < 1 || offset < 0 || offset >= length {
		panic(fmt.Sprintf("strel: invalid line length %d / offset %d", length, offset))
	}
	direction.Step()
	return Line{length: length, offset: offset, direction: direction}
}

// CenteredLine returns a line element whose reference sample is its middle
// sample (the left-middle one for even lengths).
func CenteredLine(length int, direction Direction) Line {
	return NewLine(length, (length-1)/2, direction)
}

// Length returns the number of samples covered.
func (l Line) Length() int { return l.length }

// Offset returns the position of the reference sample.
func (l Line) Offset() int { return l.offset }

// Direction returns the scan direction.
func (l Line) Direction() Direction { return l.direction }

// Reverse returns the line reflected about its reference sample.
func (l Line) Reverse() Line {
	return Line{length: l.length, offset: l.length - 1 - l.offset, direction: l.direction}
}

// Displacements returns the offsets, relative to the reference sample, of
// every sample of the line, as (x, y, z) vectors.
func (l Line) Displacements() [][3]int {
	step := l.direction.Step()
	out := make([][3]int, 0, l.length)
	for i := 0; i < l.length; i++ {
		t := i - l.offset
		out = append(out, [3]int{t * step[0], t * step[1], t * step[2]})
	}
	return out
}

func (l Line) String() string {
	return fmt.Sprintf("line(%s, length=%d, offset=%d)", l.direction, l.length, l.offset)
}

// FilterLine replaces every sample x of values by the extremum of the window
// [x-offset, x-offset+length-1], computed in a single pass with buf.
// Window positions outside values contribute the buffer's identity.
//
// Each output sample is written only after every input sample it depends on
// has been read, so the filter works in place.
func FilterLine[T array.Number](values []T, length, offset int, buf *ExtremumBuffer[T]) {
	if buf.Capacity() != length {
		panic(fmt.Sprintf("strel: buffer capacity %d does not match line length %d", buf.Capacity(), length))
	}
	n := len(values)
	identity := buf.Identity()
	buf.Fill(identity)

	ahead := length - 1 - offset
	for j := 0; j < ahead && j < n; j++ {
		buf.Add(values[j])
	}
	for j := n; j < ahead; j++ {
		buf.Add(identity)
	}
	for x := 0; x < n; x++ {
		if j := x + ahead; j < n {
			buf.Add(values[j])
		} else {
			buf.Add(identity)
		}
		values[x] = buf.Current()
	}
}
