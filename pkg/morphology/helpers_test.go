package morphology

import (
	"math/rand"
	"testing"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

func randomArray[T array.Number](rng *rand.Rand, levels int, size ...int) *array.Array[T] {
	a := array.New[T](size...)
	for i := range a.Data() {
		a.Data()[i] = T(rng.Intn(levels))
	}
	return a
}

func randomBinary(rng *rand.Rand, density float64, size ...int) *array.Binary {
	b := array.NewBinary(size...)
	for i := range b.Data() {
		b.Data()[i] = rng.Float64() < density
	}
	return b
}

// coords3 returns the (x, y, z) extents of a 2D or 3D shape.
func coords3(shape []int) (w, h, d int) {
	w, h, d = shape[0], shape[1], 1
	if len(shape) == 3 {
		d = shape[2]
	}
	return
}

// naiveScan evaluates the extremum of a over x+sign·d for every
// displacement d of se, skipping neighbours outside the array.
func naiveScan[T array.Number](a *array.Array[T], se strel.Element, kind strel.Kind, sign int) *array.Array[T] {
	out := a.NewLike()
	w, h, dp := coords3(a.Shape())
	data := a.Data()
	moves := se.Displacements()
	for z := 0; z < dp; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := strel.Identity[T](kind)
				for _, m := range moves {
					nx, ny, nz := x+sign*m[0], y+sign*m[1], z+sign*m[2]
					if nx < 0 || nx >= w || ny < 0 || ny >= h || nz < 0 || nz >= dp {
						continue
					}
					s := data[nx+ny*w+nz*w*h]
					if (kind == strel.Max && s > v) || (kind == strel.Min && s < v) {
						v = s
					}
				}
				out.Data()[x+y*w+z*w*h] = v
			}
		}
	}
	return out
}

func naiveDilate[T array.Number](a *array.Array[T], se strel.Element) *array.Array[T] {
	return naiveScan(a, se, strel.Max, -1)
}

func naiveErode[T array.Number](a *array.Array[T], se strel.Element) *array.Array[T] {
	return naiveScan(a, se, strel.Min, 1)
}

// binaryReference holds a binary image on an unbounded canvas: the image
// padded by margin cells on every side, with everything beyond false.
type binaryReference struct {
	w, h, d int
	margin  int
	dims    int
	cells   []bool
}

func newBinaryReference(b *array.Binary, margin int) *binaryReference {
	w, h, d := coords3(b.Shape())
	r := &binaryReference{w: w + 2*margin, h: h + 2*margin, d: d, margin: margin, dims: b.Dims()}
	if b.Dims() == 3 {
		r.d = d + 2*margin
	}
	r.cells = make([]bool, r.w*r.h*r.d)
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if b.Data()[x+y*w+z*w*h] {
					r.set(x+margin, y+margin, r.zOf(z), true)
				}
			}
		}
	}
	return r
}

func (r *binaryReference) zOf(z int) int {
	if r.dims == 3 {
		return z + r.margin
	}
	return z
}

func (r *binaryReference) get(x, y, z int) bool {
	if x < 0 || x >= r.w || y < 0 || y >= r.h || z < 0 || z >= r.d {
		return false
	}
	return r.cells[x+y*r.w+z*r.w*r.h]
}

func (r *binaryReference) set(x, y, z int, v bool) {
	r.cells[x+y*r.w+z*r.w*r.h] = v
}

func (r *binaryReference) apply(se strel.Element, dilate bool) *binaryReference {
	out := &binaryReference{w: r.w, h: r.h, d: r.d, margin: r.margin, dims: r.dims, cells: make([]bool, len(r.cells))}
	moves := se.Displacements()
	for z := 0; z < r.d; z++ {
		for y := 0; y < r.h; y++ {
			for x := 0; x < r.w; x++ {
				var v bool
				if dilate {
					for _, m := range moves {
						v = v || r.get(x-m[0], y-m[1], z-m[2])
					}
				} else {
					v = true
					for _, m := range moves {
						v = v && r.get(x+m[0], y+m[1], z+m[2])
					}
				}
				out.set(x, y, z, v)
			}
		}
	}
	return out
}

// crop returns the part of the canvas covering the original image.
func (r *binaryReference) crop(shape []int) *array.Binary {
	out := array.NewBinary(shape...)
	w, h, d := coords3(shape)
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Data()[x+y*w+z*w*h] = r.get(x+r.margin, y+r.margin, r.zOf(z))
			}
		}
	}
	return out
}

func referenceBinary(op Operation, b *array.Binary, se strel.Element) *array.Binary {
	margin := 0
	for _, n := range se.Size() {
		margin = max(margin, n)
	}
	r := newBinaryReference(b, margin)
	switch op {
	case OpDilation:
		return r.apply(se, true).crop(b.Shape())
	case OpErosion:
		return r.apply(se, false).crop(b.Shape())
	case OpOpening:
		return r.apply(se, false).apply(se, true).crop(b.Shape())
	case OpClosing:
		return r.apply(se, true).apply(se, false).crop(b.Shape())
	}
	panic("unsupported reference operation " + op.String())
}

func mustPattern(t *testing.T, rows ...string) strel.Element {
	t.Helper()
	e, err := strel.FromPattern(rows...)
	if err != nil {
		t.Fatalf("FromPattern failed: %v", err)
	}
	return e
}

func assertArraysEqual[T array.Number](t *testing.T, name string, expected, got *array.Array[T]) {
	t.Helper()
	if !expected.SameShape(got.Shape()) {
		t.Fatalf("%s: expected shape %v, got %v", name, expected.Shape(), got.Shape())
	}
	for i := range expected.Data() {
		if expected.Data()[i] != got.Data()[i] {
			t.Fatalf("%s: first difference at index %d: expected %v, got %v", name, i, expected.Data()[i], got.Data()[i])
		}
	}
}

func assertBinaryEqual(t *testing.T, name string, expected, got *array.Binary) {
	t.Helper()
	if !expected.SameShape(got.Shape()) {
		t.Fatalf("%s: expected shape %v, got %v", name, expected.Shape(), got.Shape())
	}
	for i := range expected.Data() {
		if expected.Data()[i] != got.Data()[i] {
			t.Fatalf("%s: first difference at index %d: expected %v, got %v", name, i, expected.Data()[i], got.Data()[i])
		}
	}
}
