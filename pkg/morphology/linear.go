package morphology

import (
	"fmt"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

// lineWalk describes every scan line of an array along one direction: the
// flat index of each line's first sample, the flat step between samples and
// the number of samples.
type lineWalk struct {
	starts  []int
	lengths []int
	step    int
}

// walkLines enumerates the lines of shape along direction. A line starts at
// every cell whose predecessor along the direction lies outside the array.
func walkLines(shape []int, direction strel.Direction) lineWalk {
	dims := len(shape)
	step3 := direction.Step()
	size := [3]int{1, 1, 1}
	copy(size[:], shape)

	strides := [3]int{1, size[0], size[0] * size[1]}
	var w lineWalk
	for d := 0; d < dims; d++ {
		w.step += step3[d] * strides[d]
	}

	inside := func(x, y, z int) bool {
		return x >= 0 && x < size[0] && y >= 0 && y < size[1] && z >= 0 && z < size[2]
	}
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				if inside(x-step3[0], y-step3[1], z-step3[2]) {
					continue
				}
				n := 0
				for px, py, pz := x, y, z; inside(px, py, pz); px, py, pz = px+step3[0], py+step3[1], pz+step3[2] {
					n++
				}
				w.starts = append(w.starts, x+y*strides[1]+z*strides[2])
				w.lengths = append(w.lengths, n)
			}
		}
	}
	return w
}

// linePass filters a in place with one elementary line element: every
// sample becomes the extremum of the line window around it.
func linePass[T array.Number](a *array.Array[T], line strel.Line, kind strel.Kind, s *settings, message string) error {
	if line.Length() == 1 {
		return nil
	}
	if line.Direction().MinDims() > a.Dims() {
		return fmt.Errorf("%w: %s line in a %dD array", ErrDimensionality, line.Direction(), a.Dims())
	}
	walk := walkLines(a.Shape(), line.Direction())
	data := a.Data()

	return s.parallelFor(len(walk.starts), message, func(start, end int, tick func() error) error {
		buf := strel.NewExtremumBuffer[T](line.Length(), kind)
		var scratch []T
		for i := start; i < end; i++ {
			n, idx := walk.lengths[i], walk.starts[i]
			scratch = scratch[:0]
			for j, k := 0, idx; j < n; j, k = j+1, k+walk.step {
				scratch = append(scratch, data[k])
			}
			strel.FilterLine(scratch, line.Length(), line.Offset(), buf)
			for j, k := 0, idx; j < n; j, k = j+1, k+walk.step {
				data[k] = scratch[j]
			}
			if err := tick(); err != nil {
				return err
			}
		}
		return nil
	})
}

// stagePass applies one decomposition stage to a in place. A stage with
// several lines takes the pointwise extremum of each line's pass over the
// stage input.
func stagePass[T array.Number](a *array.Array[T], stage strel.Stage, kind strel.Kind, s *settings, message string) error {
	if len(stage) == 1 {
		return linePass(a, stage[0], kind, s, message)
	}
	input := a.Clone()
	for i, line := range stage {
		target := a
		if i > 0 {
			target = input.Clone()
		}
		if err := linePass(target, line, kind, s, message); err != nil {
			return err
		}
		if i > 0 {
			mergeExtremum(a, target, kind)
		}
	}
	return nil
}

// mergeExtremum stores in dst the pointwise extremum of dst and src.
func mergeExtremum[T array.Number](dst, src *array.Array[T], kind strel.Kind) {
	d, sv := dst.Data(), src.Data()
	for i, v := range sv {
		if (kind == strel.Max && v > d[i]) || (kind == strel.Min && v < d[i]) {
			d[i] = v
		}
	}
}
