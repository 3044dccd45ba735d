package morphology

import (
	"fmt"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

// Gradient returns dilation minus erosion.
func Gradient[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	s := newSettings(opts)
	d, err := dilate(a, se, s)
	if err != nil {
		return nil, err
	}
	e, err := erode(a, se, s)
	if err != nil {
		return nil, err
	}
	return difference(d, e), nil
}

// InnerGradient returns the array minus its erosion.
func InnerGradient[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	e, err := erode(a, se, newSettings(opts))
	if err != nil {
		return nil, err
	}
	return difference(a, e), nil
}

// OuterGradient returns the dilation minus the array.
func OuterGradient[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	d, err := dilate(a, se, newSettings(opts))
	if err != nil {
		return nil, err
	}
	return difference(d, a), nil
}

// Laplacian returns (dilation + erosion)/2 - array + shift. The shift
// re-centres signed results so they can be stored in unsigned types; integer
// results are rounded and clamped to the range of T.
func Laplacian[T array.Number](a *array.Array[T], se strel.Element, shift T, opts ...Option) (*array.Array[T], error) {
	s := newSettings(opts)
	d, err := dilate(a, se, s)
	if err != nil {
		return nil, err
	}
	e, err := erode(a, se, s)
	if err != nil {
		return nil, err
	}
	out := a.NewLike()
	dv, ev, av, ov := d.Data(), e.Data(), a.Data(), out.Data()
	for i := range ov {
		v := (float64(dv[i])+float64(ev[i]))/2 - float64(av[i]) + float64(shift)
		ov[i] = array.Saturate[T](v)
	}
	return out, nil
}

// WhiteTopHat returns the array minus its opening.
func WhiteTopHat[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	o, err := open(a, se, newSettings(opts))
	if err != nil {
		return nil, err
	}
	return difference(a, o), nil
}

// BlackTopHat returns the closing minus the array.
func BlackTopHat[T array.Number](a *array.Array[T], se strel.Element, opts ...Option) (*array.Array[T], error) {
	c, err := closing(a, se, newSettings(opts))
	if err != nil {
		return nil, err
	}
	return difference(c, a), nil
}

// Apply runs op on a. shift is only used by OpLaplacian.
func Apply[T array.Number](op Operation, a *array.Array[T], se strel.Element, shift T, opts ...Option) (*array.Array[T], error) {
	switch op {
	case OpDilation:
		return Dilate(a, se, opts...)
	case OpErosion:
		return Erode(a, se, opts...)
	case OpOpening:
		return Open(a, se, opts...)
	case OpClosing:
		return Close(a, se, opts...)
	case OpGradient:
		return Gradient(a, se, opts...)
	case OpInnerGradient:
		return InnerGradient(a, se, opts...)
	case OpOuterGradient:
		return OuterGradient(a, se, opts...)
	case OpLaplacian:
		return Laplacian(a, se, shift, opts...)
	case OpWhiteTopHat:
		return WhiteTopHat(a, se, opts...)
	case OpBlackTopHat:
		return BlackTopHat(a, se, opts...)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownOperation, op)
	}
}

// difference returns a - b, saturated at zero and at the highest value of T.
func difference[T array.Number](a, b *array.Array[T]) *array.Array[T] {
	_, highest := array.Limits[T]()
	out := a.NewLike()
	av, bv, ov := a.Data(), b.Data(), out.Data()
	for i := range ov {
		if av[i] > bv[i] {
			d := av[i] - bv[i]
			if d < 0 {
				// signed overflow
				d = highest
			}
			ov[i] = d
		}
	}
	return out
}
