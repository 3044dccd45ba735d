package morphology

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"morpho3d/pkg/array"
	"morpho3d/pkg/runlength"
	"morpho3d/pkg/strel"
)

// elementRows groups the displacements of se by (dy, dz); each group's dx
// values form one row.
type elementRows struct {
	keys []runlength.Key
	rows []runlength.Row
}

func newElementRows(se strel.Element) elementRows {
	xs := make(map[runlength.Key][]int)
	for _, d := range se.Displacements() {
		k := runlength.Key{Y: d[1], Z: d[2]}
		xs[k] = append(xs[k], d[0])
	}
	var er elementRows
	for k := range xs {
		er.keys = append(er.keys, k)
	}
	sortKeys(er.keys)
	for _, k := range er.keys {
		er.rows = append(er.rows, runlength.RowFromPoints(xs[k]...))
	}
	return er
}

func sortKeys(keys []runlength.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Z != keys[j].Z {
			return keys[i].Z < keys[j].Z
		}
		return keys[i].Y < keys[j].Y
	})
}

// uniqueKeys returns the sorted set {k + sign·d} over rows of v and keys of
// er.
func uniqueKeys(v *runlength.Volume, er elementRows, sign int) []runlength.Key {
	set := make(map[runlength.Key]struct{})
	for _, k := range v.Keys() {
		for _, d := range er.keys {
			set[runlength.Key{Y: k.Y + sign*d.Y, Z: k.Z + sign*d.Z}] = struct{}{}
		}
	}
	keys := make([]runlength.Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// binaryOp computes one output row per candidate key and assembles the
// resulting volume, bounded to the input's size when crop is set.
func binaryOp(v *runlength.Volume, candidates []runlength.Key, crop bool, s *settings, message string, row func(k runlength.Key) runlength.Row) (*runlength.Volume, error) {
	if crop {
		kept := candidates[:0:0]
		for _, k := range candidates {
			if k.Y >= 0 && k.Y < v.Height() && k.Z >= 0 && k.Z < v.Depth() {
				kept = append(kept, k)
			}
		}
		candidates = kept
	}

	results := make([]runlength.Row, len(candidates))
	err := s.parallelFor(len(candidates), message, func(start, end int, tick func() error) error {
		for i := start; i < end; i++ {
			r := row(candidates[i])
			if crop {
				r = r.Crop(0, v.Width())
			}
			results[i] = r
			if err := tick(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make(map[runlength.Key]runlength.Row, len(candidates))
	for i, k := range candidates {
		if len(results[i]) > 0 {
			rows[k] = results[i]
		}
	}
	return runlength.NewVolume(v.Shape(), rows)
}

// dilateRuns returns v ⊕ se. Output rows are the union, over every
// element row (dy, dz), of input row (y-dy, z-dz) dilated by that element
// row.
func dilateRuns(v *runlength.Volume, se strel.Element, crop bool, s *settings) (*runlength.Volume, error) {
	er := newElementRows(se)
	return binaryOp(v, uniqueKeys(v, er, 1), crop, s, "binary dilation", func(k runlength.Key) runlength.Row {
		var acc runlength.Row
		for i, d := range er.keys {
			src := v.Row(k.Y-d.Y, k.Z-d.Z)
			if src.Empty() {
				continue
			}
			acc = acc.Union(src.DilateBy(er.rows[i]))
		}
		return acc
	})
}

// erodeRuns returns v ⊖ se: the cells x with x+d in v for every
// displacement d. Cells outside the volume are false, so an output row is
// empty as soon as one required input row is missing.
func erodeRuns(v *runlength.Volume, se strel.Element, crop bool, s *settings) (*runlength.Volume, error) {
	er := newElementRows(se)
	if len(er.keys) == 0 {
		return fullVolume(v), nil
	}
	// every output row needs input row k+d for all d, in particular the first
	first := er.keys[0]
	set := make(map[runlength.Key]struct{})
	for _, k := range v.Keys() {
		set[runlength.Key{Y: k.Y - first.Y, Z: k.Z - first.Z}] = struct{}{}
	}
	candidates := make([]runlength.Key, 0, len(set))
	for k := range set {
		candidates = append(candidates, k)
	}
	sortKeys(candidates)

	return binaryOp(v, candidates, crop, s, "binary erosion", func(k runlength.Key) runlength.Row {
		var acc runlength.Row
		for i, d := range er.keys {
			src := v.Row(k.Y+d.Y, k.Z+d.Z)
			if src.Empty() {
				return nil
			}
			part := src.ErodeBy(er.rows[i])
			if i == 0 {
				acc = part
			} else {
				acc = acc.Intersection(part)
			}
			if acc.Empty() {
				return nil
			}
		}
		return acc
	})
}

// fullVolume returns a volume of v's size with every cell true.
func fullVolume(v *runlength.Volume) *runlength.Volume {
	rows := make(map[runlength.Key]runlength.Row)
	full := runlength.Row{{Start: 0, End: v.Width() - 1}}
	for z := 0; z < v.Depth(); z++ {
		for y := 0; y < v.Height(); y++ {
			rows[runlength.Key{Y: y, Z: z}] = full
		}
	}
	out, err := runlength.NewVolume(v.Shape(), rows)
	if err != nil {
		panic("morphology: " + err.Error())
	}
	return out
}

func checkVolume(v *runlength.Volume, se strel.Element, s *settings, name string) error {
	if err := checkDims(v.Dims(), se.Dims()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.WithFields(logrus.Fields{
		"operation": name,
		"element":   se.Size(),
		"rows":      v.RowCount(),
		"runs":      v.RunCount(),
		"workers":   s.workers,
	}).Debug("running binary morphology on run-length rows")
	return nil
}

// DilateVolume returns the dilation of v by se, limited to v's size.
func DilateVolume(v *runlength.Volume, se strel.Element, opts ...Option) (*runlength.Volume, error) {
	s := newSettings(opts)
	if err := checkVolume(v, se, s, "binary dilation"); err != nil {
		return nil, err
	}
	return dilateRuns(v, se, true, s)
}

// ErodeVolume returns the erosion of v by se. Cells outside v count as
// false.
func ErodeVolume(v *runlength.Volume, se strel.Element, opts ...Option) (*runlength.Volume, error) {
	s := newSettings(opts)
	if err := checkVolume(v, se, s, "binary erosion"); err != nil {
		return nil, err
	}
	return erodeRuns(v, se, true, s)
}

// OpenVolume returns the erosion of v by se followed by a dilation by se.
// The intermediate result is not cropped, so the opening is a subset of v.
func OpenVolume(v *runlength.Volume, se strel.Element, opts ...Option) (*runlength.Volume, error) {
	s := newSettings(opts)
	if err := checkVolume(v, se, s, "binary opening"); err != nil {
		return nil, err
	}
	return openRuns(v, se, s)
}

func openRuns(v *runlength.Volume, se strel.Element, s *settings) (*runlength.Volume, error) {
	e, err := erodeRuns(v, se, false, s)
	if err != nil {
		return nil, err
	}
	return dilateRuns(e, se, true, s)
}

// CloseVolume returns the dilation of v by se followed by an erosion by se.
// The dilation may grow past v's border before the erosion brings it back,
// so the closing is a superset of v.
func CloseVolume(v *runlength.Volume, se strel.Element, opts ...Option) (*runlength.Volume, error) {
	s := newSettings(opts)
	if err := checkVolume(v, se, s, "binary closing"); err != nil {
		return nil, err
	}
	return closeRuns(v, se, s)
}

func closeRuns(v *runlength.Volume, se strel.Element, s *settings) (*runlength.Volume, error) {
	d, err := dilateRuns(v, se, false, s)
	if err != nil {
		return nil, err
	}
	return erodeRuns(d, se, true, s)
}

// ApplyVolume runs op on a run-length volume. Laplacian is not defined for
// binary images.
func ApplyVolume(op Operation, v *runlength.Volume, se strel.Element, opts ...Option) (*runlength.Volume, error) {
	s := newSettings(opts)
	if err := checkVolume(v, se, s, "binary "+op.String()); err != nil {
		return nil, err
	}
	switch op {
	case OpDilation:
		return dilateRuns(v, se, true, s)
	case OpErosion:
		return erodeRuns(v, se, true, s)
	case OpOpening:
		return openRuns(v, se, s)
	case OpClosing:
		return closeRuns(v, se, s)
	case OpGradient:
		d, err := dilateRuns(v, se, true, s)
		if err != nil {
			return nil, err
		}
		e, err := erodeRuns(v, se, true, s)
		if err != nil {
			return nil, err
		}
		return d.Difference(e), nil
	case OpInnerGradient:
		e, err := erodeRuns(v, se, true, s)
		if err != nil {
			return nil, err
		}
		return v.Difference(e), nil
	case OpOuterGradient:
		d, err := dilateRuns(v, se, true, s)
		if err != nil {
			return nil, err
		}
		return d.Difference(v), nil
	case OpWhiteTopHat:
		o, err := openRuns(v, se, s)
		if err != nil {
			return nil, err
		}
		return v.Difference(o), nil
	case OpBlackTopHat:
		c, err := closeRuns(v, se, s)
		if err != nil {
			return nil, err
		}
		return c.Difference(v), nil
	case OpLaplacian:
		return nil, fmt.Errorf("%w: %s is not defined for binary images", ErrUnsupportedType, op)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownOperation, op)
	}
}

// ApplyBinary runs op on a dense binary array through its run-length form
// and returns a new dense array of the same shape.
func ApplyBinary(op Operation, b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	if b.Dims() != 2 && b.Dims() != 3 {
		return nil, fmt.Errorf("binary %s: %w: %dD array, expected 2D or 3D", op, ErrDimensionality, b.Dims())
	}
	v, err := runlength.FromBinary(b)
	if err != nil {
		return nil, err
	}
	out, err := ApplyVolume(op, v, se, opts...)
	if err != nil {
		return nil, err
	}
	return out.ToBinary(), nil
}

// DilateBinary returns the dilation of a dense binary array.
func DilateBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpDilation, b, se, opts...)
}

// ErodeBinary returns the erosion of a dense binary array.
func ErodeBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpErosion, b, se, opts...)
}

// OpenBinary returns the opening of a dense binary array.
func OpenBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpOpening, b, se, opts...)
}

// CloseBinary returns the closing of a dense binary array.
func CloseBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpClosing, b, se, opts...)
}

// GradientBinary keeps the cells of the dilation that are not in the erosion.
func GradientBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpGradient, b, se, opts...)
}

// InnerGradientBinary keeps the cells removed by the erosion.
func InnerGradientBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpInnerGradient, b, se, opts...)
}

// OuterGradientBinary keeps the cells added by the dilation.
func OuterGradientBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpOuterGradient, b, se, opts...)
}

// WhiteTopHatBinary keeps the cells removed by the opening.
func WhiteTopHatBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpWhiteTopHat, b, se, opts...)
}

// BlackTopHatBinary keeps the cells added by the closing.
func BlackTopHatBinary(b *array.Binary, se strel.Element, opts ...Option) (*array.Binary, error) {
	return ApplyBinary(OpBlackTopHat, b, se, opts...)
}
