package morphology

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

func spike(value uint8) *array.Array[uint8] {
	a := array.New[uint8](5, 5)
	a.Set(value, 2, 2)
	return a
}

func TestCompositeFiltersOnSpike(t *testing.T) {
	se := strel.Square(3)
	testCases := []struct {
		op     Operation
		centre uint8
		corner uint8
		border uint8
	}{
		{OpGradient, 100, 0, 100},
		{OpInnerGradient, 100, 0, 0},
		{OpOuterGradient, 0, 0, 100},
		{OpWhiteTopHat, 100, 0, 0},
		{OpBlackTopHat, 0, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.op.String(), func(t *testing.T) {
			out, err := Apply(tc.op, spike(100), se, 0)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got := out.At(2, 2); got != tc.centre {
				t.Errorf("centre: expected %d, got %d", tc.centre, got)
			}
			if got := out.At(0, 0); got != tc.corner {
				t.Errorf("corner: expected %d, got %d", tc.corner, got)
			}
			if got := out.At(1, 2); got != tc.border {
				t.Errorf("neighbour: expected %d, got %d", tc.border, got)
			}
		})
	}
}

func TestLaplacian(t *testing.T) {
	out, err := Laplacian(spike(100), strel.Square(3), 128)
	if err != nil {
		t.Fatalf("Laplacian failed: %v", err)
	}
	// (100 + 0)/2 - 100 + 128
	if got := out.At(2, 2); got != 78 {
		t.Errorf("centre: expected 78, got %d", got)
	}
	// (100 + 0)/2 - 0 + 128
	if got := out.At(1, 1); got != 178 {
		t.Errorf("neighbour: expected 178, got %d", got)
	}
	if got := out.At(4, 4); got != 128 {
		t.Errorf("flat region: expected the shift 128, got %d", got)
	}

	flat := array.New[float64](6, 6)
	flat.Fill(3.5)
	lap, err := Laplacian(flat, strel.Octagon(2), 0)
	if err != nil {
		t.Fatalf("Laplacian failed: %v", err)
	}
	if !scalar.EqualWithinAbs(floats.Max(lap.Data()), 0, 1e-12) || !scalar.EqualWithinAbs(floats.Min(lap.Data()), 0, 1e-12) {
		t.Errorf("Expected a zero Laplacian on a flat image, got range [%f, %f]", floats.Min(lap.Data()), floats.Max(lap.Data()))
	}

	clamped, err := Laplacian(spike(255), strel.Square(3), 255)
	if err != nil {
		t.Fatalf("Laplacian failed: %v", err)
	}
	if got := clamped.At(1, 1); got != 255 {
		t.Errorf("Expected the result to saturate at 255, got %d", got)
	}
}

func TestGradientsAreNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	a := array.New[float64](10, 9)
	for i := range a.Data() {
		a.Data()[i] = rng.NormFloat64() * 100
	}
	signed := randomArray[int16](rng, 30000, 10, 9)
	for i := range signed.Data() {
		signed.Data()[i] -= 15000
	}

	se := mustPattern(t, "x.x", ".x.", "x..")
	for _, op := range []Operation{OpGradient, OpInnerGradient, OpOuterGradient, OpWhiteTopHat, OpBlackTopHat} {
		out, err := Apply(op, a, se, 0)
		if err != nil {
			t.Fatalf("%s failed: %v", op, err)
		}
		if m := floats.Min(out.Data()); m < 0 {
			t.Errorf("%s: negative value %f", op, m)
		}
		sout, err := Apply(op, signed, se, 0)
		if err != nil {
			t.Fatalf("%s failed: %v", op, err)
		}
		for i, v := range sout.Data() {
			if v < 0 {
				t.Fatalf("%s: negative int16 value %d at %d", op, v, i)
			}
		}
	}
}

func TestDifferenceSaturates(t *testing.T) {
	a, _ := array.FromSlice([]int8{100, -100, 5, -128}, 4)
	b, _ := array.FromSlice([]int8{-100, 100, 5, 127}, 4)
	got := difference(a, b).Data()
	expected := []int8{127, 0, 0, 0}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("index %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestApplyUnknownOperation(t *testing.T) {
	_, err := Apply(Operation(99), array.New[uint8](3, 3), strel.Square(3), 0)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Expected ErrUnknownOperation, got %v", err)
	}
}

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(op.String())
		if err != nil || got != op {
			t.Errorf("ParseOperation(%q): expected %v, got %v (%v)", op.String(), op, got, err)
		}
	}

	testCases := []struct {
		name     string
		expected Operation
	}{
		{"Dilation", OpDilation},
		{" white_tophat ", OpWhiteTopHat},
		{"INNER-GRADIENT", OpInnerGradient},
	}
	for _, tc := range testCases {
		if got, err := ParseOperation(tc.name); err != nil || got != tc.expected {
			t.Errorf("ParseOperation(%q): expected %v, got %v (%v)", tc.name, tc.expected, got, err)
		}
	}

	if _, err := ParseOperation("skeleton"); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Expected ErrUnknownOperation, got %v", err)
	}
	if s := Operation(-1).String(); s != "Operation(-1)" {
		t.Errorf("Unexpected name for an invalid operation: %s", s)
	}
}

func TestVectorMarginal(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	v := array.NewVector[uint8](3, 7, 6)
	for c := 0; c < 3; c++ {
		copy(v.Channel(c).Data(), randomArray[uint8](rng, 256, 7, 6).Data())
	}
	se := strel.Diamond(1)

	out, err := ApplyVector(OpClosing, v, se, 0)
	if err != nil {
		t.Fatalf("ApplyVector failed: %v", err)
	}
	if out.Channels() != 3 {
		t.Fatalf("Expected 3 channels, got %d", out.Channels())
	}
	for c := 0; c < 3; c++ {
		want, err := Close(v.Channel(c), se)
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		assertArraysEqual(t, "channel", want, out.Channel(c))
	}

	_, err = ApplyVector(OpDilation, v, strel.Cube(3), 0)
	if !errors.Is(err, ErrDimensionality) {
		t.Errorf("Expected ErrDimensionality from a channel, got %v", err)
	}
}

func TestFilterDispatch(t *testing.T) {
	se := strel.Cross()
	testCases := []struct {
		name  string
		input any
		check func(any) bool
	}{
		{"uint8", array.New[uint8](4, 4), func(o any) bool { _, ok := o.(*array.Array[uint8]); return ok }},
		{"uint16", array.New[uint16](4, 4), func(o any) bool { _, ok := o.(*array.Array[uint16]); return ok }},
		{"uint32", array.New[uint32](4, 4), func(o any) bool { _, ok := o.(*array.Array[uint32]); return ok }},
		{"uint64", array.New[uint64](4, 4), func(o any) bool { _, ok := o.(*array.Array[uint64]); return ok }},
		{"uint", array.New[uint](4, 4), func(o any) bool { _, ok := o.(*array.Array[uint]); return ok }},
		{"int8", array.New[int8](4, 4), func(o any) bool { _, ok := o.(*array.Array[int8]); return ok }},
		{"int16", array.New[int16](4, 4), func(o any) bool { _, ok := o.(*array.Array[int16]); return ok }},
		{"int32", array.New[int32](4, 4), func(o any) bool { _, ok := o.(*array.Array[int32]); return ok }},
		{"int64", array.New[int64](4, 4), func(o any) bool { _, ok := o.(*array.Array[int64]); return ok }},
		{"int", array.New[int](4, 4), func(o any) bool { _, ok := o.(*array.Array[int]); return ok }},
		{"float32", array.New[float32](4, 4), func(o any) bool { _, ok := o.(*array.Array[float32]); return ok }},
		{"float64", array.New[float64](4, 4), func(o any) bool { _, ok := o.(*array.Array[float64]); return ok }},
		{"binary", array.NewBinary(4, 4), func(o any) bool { _, ok := o.(*array.Binary); return ok }},
		{"rgb", array.NewVector[uint8](3, 4, 4), func(o any) bool { _, ok := o.(*array.Vector[uint8]); return ok }},
		{"int16 vector", array.NewVector[int16](2, 4, 4), func(o any) bool { _, ok := o.(*array.Vector[int16]); return ok }},
		{"float32 vector", array.NewVector[float32](3, 4, 4), func(o any) bool { _, ok := o.(*array.Vector[float32]); return ok }},
		{"float64 vector", array.NewVector[float64](3, 4, 4), func(o any) bool { _, ok := o.(*array.Vector[float64]); return ok }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Filter(OpDilation, tc.input, se, 0)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if !tc.check(out) {
				t.Errorf("unexpected result type %T", out)
			}
		})
	}

	for _, input := range []any{[]float64{1, 2}, "image", nil} {
		out, err := Filter(OpDilation, input, se, 0)
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Expected ErrUnsupportedType for %T, got %v", input, err)
		}
		if out != nil {
			t.Errorf("Expected no result for %T, got %v", input, out)
		}
	}

	out, err := Filter(OpLaplacian, spike(100), strel.Square(3), 128)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if got := out.(*array.Array[uint8]).At(2, 2); got != 78 {
		t.Errorf("Expected the shift to reach the Laplacian, got %d at the centre", got)
	}
}

func TestFilterSignedAndFloatValues(t *testing.T) {
	signed, _ := array.FromSlice([]int8{-100, -5, -128, 7, -50}, 5, 1)
	out, err := Filter(OpDilation, signed, strel.Rectangle(3, 1), 0)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	expected := []int8{-5, -5, 7, 7, 7}
	for i, v := range out.(*array.Array[int8]).Data() {
		if v != expected[i] {
			t.Errorf("int8 index %d: expected %d, got %d", i, expected[i], v)
		}
	}

	// the shift saturates to the element type
	lap, err := Filter(OpLaplacian, array.New[int8](3, 3), strel.Square(3), 1000)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if got := lap.(*array.Array[int8]).At(1, 1); got != 127 {
		t.Errorf("Expected the shift to saturate at 127, got %d", got)
	}

	vec := array.NewVector[float32](2, 3, 3)
	vec.Channel(0).Set(0.25, 1, 1)
	vec.Channel(1).Set(-2.5, 1, 1)
	res, err := Filter(OpLaplacian, vec, strel.Square(3), 0.5)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	v := res.(*array.Vector[float32])
	// channel 0 centre: (0.25 + 0)/2 - 0.25 + 0.5
	if got := v.Channel(0).At(1, 1); !scalar.EqualWithinAbs(float64(got), 0.375, 1e-6) {
		t.Errorf("channel 0: expected 0.375, got %f", got)
	}
	// channel 1 centre: (0 - 2.5)/2 + 2.5 + 0.5
	if got := v.Channel(1).At(1, 1); !scalar.EqualWithinAbs(float64(got), 1.75, 1e-6) {
		t.Errorf("channel 1: expected 1.75, got %f", got)
	}

	if _, err := Filter(OpDilation, array.New[int64](4, 4), strel.Cube(3), 0); !errors.Is(err, ErrDimensionality) {
		t.Errorf("Expected ErrDimensionality, got %v", err)
	}
}
