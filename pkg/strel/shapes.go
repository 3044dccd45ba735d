package strel

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Rectangle returns a width×height box, decomposed into a horizontal and a
// vertical line.
func Rectangle(width, height int) Element {
	return FromStages(2, axisStages(width, height)...)
}

// Square returns a size×size box.
func Square(size int) Element {
	return Rectangle(size, size)
}

// Cuboid returns a width×height×depth box, decomposed into one line per axis.
func Cuboid(width, height, depth int) Element {
	return FromStages(3, axisStages(width, height, depth)...)
}

// Cube returns a size×size×size box.
func Cube(size int) Element {
	return Cuboid(size, size, size)
}

func axisStages(lengths ...int) []Stage {
	var stages []Stage
	for axis, n := range lengths {
		if n < 1 {
			panic(fmt.Sprintf("strel: box size must be positive, got %d", n))
		}
		if n > 1 {
			stages = append(stages, Stage{CenteredLine(n, axisDirection(axis))})
		}
	}
	return stages
}

// LineSegment returns a centred segment of the given length. Depth segments
// are 3D elements; all others are 2D.
func LineSegment(length int, direction Direction) Element {
	return FromStages(direction.MinDims(), Stage{CenteredLine(length, direction)})
}

// Cross returns the 3×3 four-neighbourhood.
func Cross() Element {
	return FromStages(2, crossStage(2))
}

// Cross3D returns the 3×3×3 six-neighbourhood.
func Cross3D() Element {
	return FromStages(3, crossStage(3))
}

func crossStage(dims int) Stage {
	stage := Stage{CenteredLine(3, Horizontal), CenteredLine(3, Vertical)}
	if dims == 3 {
		stage = append(stage, CenteredLine(3, Depth))
	}
	return stage
}

// Diamond returns the set of cells within city-block distance radius of the
// centre, decomposed into radius successive crosses.
func Diamond(radius int) Element {
	stages := make([]Stage, 0, radius)
	for i := 0; i < radius; i++ {
		stages = append(stages, crossStage(2))
	}
	return FromStages(2, stages...)
}

// Octagon returns a decomposable approximation of a disc of the given radius:
// a square dilated by successive crosses. Its extent along the axes is
// radius, and about radius·√2 along the diagonals.
func Octagon(radius int) Element {
	a := int(math.Round(float64(radius) * (math.Sqrt2 - 1)))
	stages := axisStages(2*a+1, 2*a+1)
	for i := a; i < radius; i++ {
		stages = append(stages, crossStage(2))
	}
	return FromStages(2, stages...)
}

// Disk returns the cells within Euclidean distance radius+0.5 of the centre.
// Disks have no decomposition; see Octagon for a fast approximation.
func Disk(radius int) Element {
	return ellipsoid(2, radius, radius, 0)
}

// Ball returns the 3D cells within Euclidean distance radius+0.5 of the
// centre.
func Ball(radius int) Element {
	return ellipsoid(3, radius, radius, radius)
}

func ellipsoid(dims, rx, ry, rz int) Element {
	points := make(map[[3]int]struct{})
	for z := -rz; z <= rz; z++ {
		for y := -ry; y <= ry; y++ {
			for x := -rx; x <= rx; x++ {
				d := sq(float64(x)/(float64(rx)+0.5)) + sq(float64(y)/(float64(ry)+0.5))
				if dims == 3 {
					d += sq(float64(z) / (float64(rz) + 0.5))
				}
				if d <= 1 {
					points[[3]int{x, y, z}] = struct{}{}
				}
			}
		}
	}
	return fromPoints(dims, points)
}

func sq(v float64) float64 { return v * v }

// Shape names a family of structuring elements that can be built from a
// radius. Shapes are referenced by name in configuration files and on the
// command line.
type Shape string

const (
	ShapeSquare       Shape = "square"
	ShapeRectangle    Shape = "rectangle"
	ShapeDisk         Shape = "disk"
	ShapeOctagon      Shape = "octagon"
	ShapeDiamond      Shape = "diamond"
	ShapeCross        Shape = "cross"
	ShapeHorizontal   Shape = "line-h"
	ShapeVertical     Shape = "line-v"
	ShapeDiagonal     Shape = "line-d"
	ShapeAntiDiagonal Shape = "line-a"
	ShapeCube         Shape = "cube"
	ShapeCuboid       Shape = "cuboid"
	ShapeBall         Shape = "ball"
	ShapeCross3D      Shape = "cross3d"
	ShapeDepth        Shape = "line-z"
)

var shapeDims = map[Shape]int{
	ShapeSquare:       2,
	ShapeRectangle:    2,
	ShapeDisk:         2,
	ShapeOctagon:      2,
	ShapeDiamond:      2,
	ShapeCross:        2,
	ShapeHorizontal:   2,
	ShapeVertical:     2,
	ShapeDiagonal:     2,
	ShapeAntiDiagonal: 2,
	ShapeCube:         3,
	ShapeCuboid:       3,
	ShapeBall:         3,
	ShapeCross3D:      3,
	ShapeDepth:        3,
}

// Shapes lists every known shape, sorted by name.
func Shapes() []Shape {
	out := make([]Shape, 0, len(shapeDims))
	for s := range shapeDims {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseShape resolves a shape name, ignoring case and surrounding spaces.
func ParseShape(name string) (Shape, error) {
	s := Shape(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := shapeDims[s]; !ok {
		return "", fmt.Errorf("unknown structuring element shape %q", name)
	}
	return s, nil
}

// Dims returns the dimensionality of elements of this shape.
func (s Shape) Dims() int { return shapeDims[s] }

// FromRadius builds an element of this shape whose extent is 2·radius+1
// along every axis it spans.
func (s Shape) FromRadius(radius int) (Element, error) {
	return s.FromRadii(radius, radius, radius)
}

// FromRadii builds an element with per-axis radii. Only rectangles and
// cuboids use all three radii; other shapes use rx.
func (s Shape) FromRadii(rx, ry, rz int) (Element, error) {
	if rx < 0 || ry < 0 || rz < 0 {
		return Element{}, fmt.Errorf("radius must not be negative, got (%d, %d, %d)", rx, ry, rz)
	}
	switch s {
	case ShapeSquare:
		return Square(2*rx + 1), nil
	case ShapeRectangle:
		return Rectangle(2*rx+1, 2*ry+1), nil
	case ShapeDisk:
		return Disk(rx), nil
	case ShapeOctagon:
		return Octagon(rx), nil
	case ShapeDiamond:
		return Diamond(rx), nil
	case ShapeCross:
		return Cross(), nil
	case ShapeHorizontal:
		return LineSegment(2*rx+1, Horizontal), nil
	case ShapeVertical:
		return LineSegment(2*rx+1, Vertical), nil
	case ShapeDiagonal:
		return LineSegment(2*rx+1, Diagonal), nil
	case ShapeAntiDiagonal:
		return LineSegment(2*rx+1, AntiDiagonal), nil
	case ShapeCube:
		return Cube(2*rx + 1), nil
	case ShapeCuboid:
		return Cuboid(2*rx+1, 2*ry+1, 2*rz+1), nil
	case ShapeBall:
		return Ball(rx), nil
	case ShapeCross3D:
		return Cross3D(), nil
	case ShapeDepth:
		return LineSegment(2*rx+1, Depth), nil
	default:
		return Element{}, fmt.Errorf("unknown structuring element shape %q", string(s))
	}
}
