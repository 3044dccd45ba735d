package morphology

import (
	"fmt"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

// Marginal applies fn to every channel of v independently and groups the
// results into a new vector array.
func Marginal[T array.Number](v *array.Vector[T], fn func(*array.Array[T]) (*array.Array[T], error)) (*array.Vector[T], error) {
	out := make([]*array.Array[T], v.Channels())
	for c := range out {
		ch, err := fn(v.Channel(c))
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
		out[c] = ch
	}
	return array.VectorFromChannels(out...)
}

// ApplyVector runs op channel by channel.
func ApplyVector[T array.Number](op Operation, v *array.Vector[T], se strel.Element, shift T, opts ...Option) (*array.Vector[T], error) {
	return Marginal(v, func(ch *array.Array[T]) (*array.Array[T], error) {
		return Apply(op, ch, se, shift, opts...)
	})
}

// Filter runs op on an image whose element type is only known at run time.
// Scalar and vector arrays of every built-in integer and floating point type
// are accepted, as are binary arrays. The result has the same type as the
// input. shift is converted to the input's element type and only used by
// OpLaplacian.
func Filter(op Operation, input any, se strel.Element, shift float64, opts ...Option) (any, error) {
	switch in := input.(type) {
	case *array.Binary:
		out, err := ApplyBinary(op, in, se, opts...)
		if err != nil {
			return nil, err
		}
		return out, nil
	case *array.Array[uint8]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[uint16]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[uint32]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[uint64]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[uint]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[uintptr]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[int8]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[int16]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[int32]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[int64]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[int]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[float32]:
		return filterArray(op, in, se, shift, opts)
	case *array.Array[float64]:
		return filterArray(op, in, se, shift, opts)
	case *array.Vector[uint8]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[uint16]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[uint32]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[uint64]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[uint]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[uintptr]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[int8]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[int16]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[int32]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[int64]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[int]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[float32]:
		return filterVector(op, in, se, shift, opts)
	case *array.Vector[float64]:
		return filterVector(op, in, se, shift, opts)
	default:
		return nil, fmt.Errorf("%s: %w: %T", op, ErrUnsupportedType, input)
	}
}

func filterArray[T array.Number](op Operation, a *array.Array[T], se strel.Element, shift float64, opts []Option) (any, error) {
	out, err := Apply(op, a, se, array.Saturate[T](shift), opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func filterVector[T array.Number](op Operation, v *array.Vector[T], se strel.Element, shift float64, opts []Option) (any, error) {
	out, err := ApplyVector(op, v, se, array.Saturate[T](shift), opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
