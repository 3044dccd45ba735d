// Package morphology implements grayscale and binary mathematical morphology
// on 2D and 3D arrays.
//
// With D(S) the displacements of the cells of S from its reference sample,
//
//	Dilate(A, S)(x) = max { A(x - d) : d in D(S) }
//	Erode(A, S)(x)  = min { A(x + d) : d in D(S) }
//
// so that Erode(A, S) = -Dilate(-A, Reverse(S)). Both are computed as
// neighbourhood scans: erosion scans S itself, dilation scans Reverse(S).
// Neighbours outside a grayscale array never contribute; outside a binary
// array every cell is false.
//
// Elements that decompose into line stages are applied as successive 1D
// sliding-window passes whose cost does not depend on the element's area;
// other elements are scanned cell by cell.
package morphology

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

// Dilate returns the dilation of a by se.
func Dilate[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	return dilate(a, se, newSettings(opts))
}

// Erode returns the erosion of a by se.
func Erode[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	return erode(a, se, newSettings(opts))
}

// Open returns the erosion of a by se followed by a dilation by se, whose
// scan runs over the reversed element.
func Open[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	return open(a, se, newSettings(opts))
}

// Close returns the dilation of a by se followed by an erosion by se.
func Close[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	return closing(a, se, newSettings(opts))
}

func dilate[T array.Number](a *array.Array[T], se strel.Element, s *settings) (*array.Array[T], error) {
	return scan(a, se.Reverse(), strel.Max, s, "dilation")
}

func erode[T array.Number](a *array.Array[T], se strel.Element, s *settings) (*array.Array[T], error) {
	return scan(a, se, strel.Min, s, "erosion")
}

func open[T array.Number](a *array.Array[T], se strel.Element, s *settings) (*array.Array[T], error) {
	e, err := erode(a, se, s)
	if err != nil {
		return nil, err
	}
	return dilate(e, se, s)
}

func closing[T array.Number](a *array.Array[T], se strel.Element, s *settings) (*array.Array[T], error) {
	d, err := dilate(a, se, s)
	if err != nil {
		return nil, err
	}
	return erode(d, se, s)
}

// checkDims validates an array/element pair: arrays must be 2D or 3D and
// elements no larger in dimension than the array.
func checkDims(arrayDims, elementDims int) error {
	if arrayDims != 2 && arrayDims != 3 {
		return fmt.Errorf("%w: %dD array, expected 2D or 3D", ErrDimensionality, arrayDims)
	}
	if elementDims != 2 && elementDims != 3 {
		return fmt.Errorf("%w: %dD structuring element, expected 2D or 3D", ErrDimensionality, elementDims)
	}
	if elementDims > arrayDims {
		return fmt.Errorf("%w: %dD structuring element on a %dD array", ErrDimensionality, elementDims, arrayDims)
	}
	return nil
}

// scan computes the neighbourhood extremum of a over nb and returns it as
// a new array. 2D elements on 3D arrays are applied slice by slice.
func scan[T array.Number](a *array.Array[T], nb strel.Element, kind strel.Kind, s *settings, name string) (*array.Array[T], error) {
	if err := checkDims(a.Dims(), nb.Dims()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if a.Dims() == 3 && nb.Dims() == 2 {
		return scanPlanes(a, nb, kind, s, name)
	}
	return scanVolume(a, nb, kind, s, name)
}

func scanVolume[T array.Number](a *array.Array[T], nb strel.Element, kind strel.Kind, s *settings, name string) (*array.Array[T], error) {
	log := s.logger.WithFields(logrus.Fields{
		"operation": name,
		"element":   nb.Size(),
		"shape":     a.Shape(),
		"workers":   s.workers,
	})

	stages, ok := nb.Decompose()
	if !ok {
		log.WithField("cells", nb.Count()).Debug("element is not separable, scanning full mask")
		return directFilter(a, nb, kind, s, name)
	}

	log.WithField("stages", len(stages)).Debug("applying decomposed element as line passes")
	out := a.Clone()
	for i, stage := range stages {
		message := fmt.Sprintf("%s: stage %d/%d", name, i+1, len(stages))
		if err := stagePass(out, stage, kind, s, message); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scanPlanes filters every xy-plane of a 3D array independently, reporting
// progress once per slice.
func scanPlanes[T array.Number](a *array.Array[T], nb strel.Element, kind strel.Kind, s *settings, name string) (*array.Array[T], error) {
	out := a.NewLike()
	inner := s.quiet()
	err := s.parallelFor(a.Size(2), name+": slices", func(start, end int, tick func() error) error {
		for z := start; z < end; z++ {
			plane, err := scanVolume(a.Plane(z), nb, kind, inner, name)
			if err != nil {
				return err
			}
			out.SetPlane(z, plane)
			if err := tick(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
