package morphology

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"

	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

func TestDilateGrowsBlock(t *testing.T) {
	a := array.New[uint8](8, 7)
	for y := 2; y < 6; y++ {
		for x := 2; x < 7; x++ {
			a.Set(10, x, y)
		}
	}

	out, err := Dilate(a, strel.Square(3))
	if err != nil {
		t.Fatalf("Dilate failed: %v", err)
	}

	for y := 0; y < 7; y++ {
		for x := 0; x < 8; x++ {
			var want uint8
			if x >= 1 && x <= 7 && y >= 1 && y <= 6 {
				want = 10
			}
			if got := out.At(x, y); got != want {
				t.Errorf("at (%d, %d): expected %d, got %d", x, y, want, got)
			}
		}
	}
	if !out.SameShape(a.Shape()) {
		t.Errorf("Expected shape %v, got %v", a.Shape(), out.Shape())
	}
}

func TestDilateMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	elements := map[string]strel.Element{
		"asymmetric": mustPattern(t,
			"xx.",
			".x.",
			"..x",
		),
		"no origin": mustPattern(t,
			"x.x",
			"...",
			".x.",
		),
		"square 3":  strel.Square(3),
		"disk 2":    strel.Disk(2),
		"line even": strel.LineSegment(4, strel.Horizontal),
	}

	for name, se := range elements {
		t.Run(name, func(t *testing.T) {
			a := randomArray[uint8](rng, 256, 9, 8)
			d, err := Dilate(a, se)
			if err != nil {
				t.Fatalf("Dilate failed: %v", err)
			}
			assertArraysEqual(t, "dilation", naiveDilate(a, se), d)

			e, err := Erode(a, se)
			if err != nil {
				t.Fatalf("Erode failed: %v", err)
			}
			assertArraysEqual(t, "erosion", naiveErode(a, se), e)
		})
	}
}

func separableElements() map[string]strel.Element {
	return map[string]strel.Element{
		"square 3":      strel.Square(3),
		"rectangle 4x2": strel.Rectangle(4, 2),
		"cross":         strel.Cross(),
		"diamond 2":     strel.Diamond(2),
		"octagon 3":     strel.Octagon(3),
		"diagonal 5":    strel.LineSegment(5, strel.Diagonal),
		"anti-diagonal": strel.LineSegment(4, strel.AntiDiagonal),
		"vertical 7":    strel.LineSegment(7, strel.Vertical),
		"cube 3":        strel.Cube(3),
		"cuboid 2x3x4":  strel.Cuboid(2, 3, 4),
		"cross 3d":      strel.Cross3D(),
		"depth 3":       strel.LineSegment(3, strel.Depth),
	}
}

func TestDecompositionMatchesFullMask(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for name, se := range separableElements() {
		if _, ok := se.Decompose(); !ok {
			t.Fatalf("%s: expected a decomposition", name)
		}
		size := []int{11, 9}
		if se.Dims() == 3 {
			size = []int{7, 6, 5}
		}
		t.Run(name+"/uint8", func(t *testing.T) {
			a := randomArray[uint8](rng, 256, size...)
			s := newSettings(nil)
			for _, kind := range []strel.Kind{strel.Min, strel.Max} {
				fast, err := scanVolume(a, se, kind, s, "test")
				if err != nil {
					t.Fatalf("scanVolume failed: %v", err)
				}
				slow, err := directFilter(a, se, kind, s, "test")
				if err != nil {
					t.Fatalf("directFilter failed: %v", err)
				}
				assertArraysEqual(t, kind.String(), slow, fast)
			}
		})

		t.Run(name+"/float64", func(t *testing.T) {
			a := array.New[float64](size...)
			for i := range a.Data() {
				a.Data()[i] = rng.NormFloat64()
			}
			fast, err := Dilate(a, se)
			if err != nil {
				t.Fatalf("Dilate failed: %v", err)
			}
			if !floats.EqualApprox(fast.Data(), naiveDilate(a, se).Data(), 1e-12) {
				t.Error("decomposed dilation differs from the full mask")
			}
			fast, err = Erode(a, se)
			if err != nil {
				t.Fatalf("Erode failed: %v", err)
			}
			if !floats.EqualApprox(fast.Data(), naiveErode(a, se).Data(), 1e-12) {
				t.Error("decomposed erosion differs from the full mask")
			}
		})
	}
}

func TestDuality(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	elements := []strel.Element{
		mustPattern(t, "xx.", ".xx", "..x"),
		strel.Octagon(2),
		strel.Disk(1),
		strel.Cuboid(2, 1, 3),
	}
	for i, se := range elements {
		size := []int{10, 8}
		if se.Dims() == 3 {
			size = []int{6, 5, 4}
		}
		a := randomArray[float64](rng, 1000, size...)
		neg := a.Clone()
		for j, v := range neg.Data() {
			neg.Data()[j] = -v
		}

		e, err := Erode(a, se)
		if err != nil {
			t.Fatalf("element %d: Erode failed: %v", i, err)
		}
		d, err := Dilate(neg, se.Reverse())
		if err != nil {
			t.Fatalf("element %d: Dilate failed: %v", i, err)
		}
		floats.Scale(-1, d.Data())
		if !floats.Equal(e.Data(), d.Data()) {
			t.Errorf("element %d: erosion differs from the negated dilation of the negation", i)
		}
	}
}

func TestOrderingAndIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	elements := map[string]strel.Element{
		"square":     strel.Square(3),
		"octagon":    strel.Octagon(2),
		"disk":       strel.Disk(2),
		"asymmetric": mustPattern(t, "xx.", ".x.", ".xx"),
		"no origin":  mustPattern(t, "x.x", "...", "x.."),
		"ball":       strel.Ball(1),
	}

	for name, se := range elements {
		t.Run(name, func(t *testing.T) {
			size := []int{12, 10}
			if se.Dims() == 3 {
				size = []int{7, 6, 5}
			}
			a := randomArray[int16](rng, 500, size...)

			open, err := Open(a, se)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			closed, err := Close(a, se)
			if err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			for i, v := range a.Data() {
				if open.Data()[i] > v || closed.Data()[i] < v {
					t.Fatalf("index %d: expected opening %d <= %d <= closing %d", i, open.Data()[i], v, closed.Data()[i])
				}
			}

			open2, err := Open(open, se)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			assertArraysEqual(t, "opening twice", open, open2)
			closed2, err := Close(closed, se)
			if err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			assertArraysEqual(t, "closing twice", closed, closed2)

			if !se.ContainsOrigin() {
				return
			}
			e, _ := Erode(a, se)
			d, _ := Dilate(a, se)
			for i, v := range a.Data() {
				if e.Data()[i] > v || d.Data()[i] < v {
					t.Fatalf("index %d: expected erosion %d <= %d <= dilation %d", i, e.Data()[i], v, d.Data()[i])
				}
			}
		})
	}
}

func TestPlanewiseProcessing(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	a := randomArray[uint16](rng, 4000, 9, 7, 4)
	se := strel.Octagon(2)

	out, err := Dilate(a, se, WithWorkers(3))
	if err != nil {
		t.Fatalf("Dilate failed: %v", err)
	}
	for z := 0; z < 4; z++ {
		want, err := Dilate(a.Plane(z), se)
		if err != nil {
			t.Fatalf("Dilate of plane %d failed: %v", z, err)
		}
		assertArraysEqual(t, "plane", want, out.Plane(z))
	}

	disk, err := Erode(a, strel.Disk(1))
	if err != nil {
		t.Fatalf("Erode failed: %v", err)
	}
	assertArraysEqual(t, "disk planes", naiveErode(a, strel.Disk(1)), disk)
}

func TestWorkersDoNotChangeResults(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	a := randomArray[float32](rng, 100, 13, 11, 6)
	for _, se := range []strel.Element{strel.Cube(3), strel.Ball(1), strel.Cross3D()} {
		single, err := Close(a, se, WithWorkers(1))
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		multi, err := Close(a, se, WithWorkers(8))
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		assertArraysEqual(t, "workers", single, multi)
	}
}

func TestDimensionalityErrors(t *testing.T) {
	testCases := []struct {
		name string
		run  func() error
	}{
		{"3d element on 2d array", func() error {
			_, err := Dilate(array.New[uint8](5, 5), strel.Cube(3))
			return err
		}},
		{"1d array", func() error {
			_, err := Erode(array.New[uint8](5), strel.Square(3))
			return err
		}},
		{"4d array", func() error {
			_, err := Open(array.New[float64](3, 3, 3, 3), strel.Cube(3))
			return err
		}},
		{"binary 3d element on 2d", func() error {
			_, err := DilateBinary(array.NewBinary(4, 4), strel.Cross3D())
			return err
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, ErrDimensionality) {
				t.Errorf("expected ErrDimensionality, got %v", err)
			}
		})
	}
}

func TestEmptyElement(t *testing.T) {
	se, err := strel.New([]int{3, 3}, []int{1, 1}, make([]bool, 9))
	if err != nil {
		t.Fatalf("strel.New failed: %v", err)
	}
	a := array.New[uint8](4, 4)
	a.Fill(7)

	d, err := Dilate(a, se)
	if err != nil {
		t.Fatalf("Dilate failed: %v", err)
	}
	e, err := Erode(a, se)
	if err != nil {
		t.Fatalf("Erode failed: %v", err)
	}
	for i := range a.Data() {
		if d.Data()[i] != 0 || e.Data()[i] != 255 {
			t.Fatalf("index %d: expected identities 0 and 255, got %d and %d", i, d.Data()[i], e.Data()[i])
		}
	}
}
