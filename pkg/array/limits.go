package array

import (
	"math"
	"reflect"
)

// Limits returns the lowest and highest values representable by T.
// Floating point types report -Inf and +Inf.
func Limits[T Number]() (lowest, highest T) {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Float32, reflect.Float64:
		lo, hi := math.Inf(-1), math.Inf(1)
		return T(lo), T(hi)
	case reflect.Int8:
		var lo, hi int64 = math.MinInt8, math.MaxInt8
		return T(lo), T(hi)
	case reflect.Int16:
		var lo, hi int64 = math.MinInt16, math.MaxInt16
		return T(lo), T(hi)
	case reflect.Int32:
		var lo, hi int64 = math.MinInt32, math.MaxInt32
		return T(lo), T(hi)
	case reflect.Int, reflect.Int64:
		var lo, hi int64 = math.MinInt64, math.MaxInt64
		if reflect.TypeOf(zero).Size() == 4 {
			lo, hi = math.MinInt32, math.MaxInt32
		}
		return T(lo), T(hi)
	case reflect.Uint8:
		var hi uint64 = math.MaxUint8
		return 0, T(hi)
	case reflect.Uint16:
		var hi uint64 = math.MaxUint16
		return 0, T(hi)
	case reflect.Uint32:
		var hi uint64 = math.MaxUint32
		return 0, T(hi)
	default:
		var hi uint64 = math.MaxUint64
		if reflect.TypeOf(zero).Size() == 4 {
			hi = math.MaxUint32
		}
		return 0, T(hi)
	}
}

// IsFloat reports whether T is a floating point type.
func IsFloat[T Number]() bool {
	var zero T
	k := reflect.TypeOf(zero).Kind()
	return k == reflect.Float32 || k == reflect.Float64
}

// Saturate converts v to T, rounding to the nearest integer for integer
// types and clamping to the representable range.
func Saturate[T Number](v float64) T {
	if IsFloat[T]() {
		return T(v)
	}
	lo, hi := Limits[T]()
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v <= float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return T(v)
}
