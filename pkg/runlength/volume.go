package runlength

import (
	"fmt"
	"sort"

	"morpho3d/pkg/array"
)

// Key addresses one row of a volume: row Y of slice Z. Z is zero in 2D.
type Key struct {
	Y, Z int
}

// Volume is a sparse 2D or 3D binary image holding one Row per non-empty
// (row, slice) pair. Absent keys are empty rows.
//
// Rows may hold cells outside the nominal size; such cells are dropped by
// Crop and ToBinary. A Volume is not modified after construction.
type Volume struct {
	size []int
	rows map[Key]Row
}

// NewVolume wraps rows as a volume of the given size. Empty rows are
// discarded and every remaining row is validated; the map must not be used
// by the caller afterwards.
func NewVolume(size []int, rows map[Key]Row) (*Volume, error) {
	if len(size) != 2 && len(size) != 3 {
		return nil, fmt.Errorf("run-length volume must have 2 or 3 dimensions, got %d", len(size))
	}
	for d, n := range size {
		if n <= 0 {
			return nil, fmt.Errorf("size of dimension %d must be positive, got %d", d, n)
		}
	}
	if rows == nil {
		rows = make(map[Key]Row)
	}
	for k, row := range rows {
		if len(row) == 0 {
			delete(rows, k)
			continue
		}
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("row (%d, %d): %w", k.Y, k.Z, err)
		}
		if len(size) == 2 && k.Z != 0 {
			return nil, fmt.Errorf("row (%d, %d) has a slice index in a 2D volume", k.Y, k.Z)
		}
	}
	return &Volume{size: append([]int(nil), size...), rows: rows}, nil
}

// FromBinary converts a dense 2D or 3D binary array, scanning each row once.
func FromBinary(b *array.Binary) (*Volume, error) {
	if b.Dims() != 2 && b.Dims() != 3 {
		return nil, fmt.Errorf("run-length volume must have 2 or 3 dimensions, got %d", b.Dims())
	}
	width, height := b.Size(0), b.Size(1)
	depth := 1
	if b.Dims() == 3 {
		depth = b.Size(2)
	}
	data := b.Data()
	rows := make(map[Key]Row)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			start := (z*height + y) * width
			if row := RowFromBools(data[start : start+width]); len(row) > 0 {
				rows[Key{y, z}] = row
			}
		}
	}
	return &Volume{size: b.Shape(), rows: rows}, nil
}

// ToBinary renders the volume as a dense array, dropping cells outside it.
func (v *Volume) ToBinary() *array.Binary {
	b := array.NewBinary(v.size...)
	width, height, depth := v.Width(), v.Height(), v.Depth()
	data := b.Data()
	for k, row := range v.rows {
		if k.Y < 0 || k.Y >= height || k.Z < 0 || k.Z >= depth {
			continue
		}
		start := (k.Z*height + k.Y) * width
		row.Fill(data[start : start+width])
	}
	return b
}

// Dims returns 2 or 3.
func (v *Volume) Dims() int { return len(v.size) }

// Shape returns a copy of the volume extents.
func (v *Volume) Shape() []int { return append([]int(nil), v.size...) }

// Width returns the extent along x.
func (v *Volume) Width() int { return v.size[0] }

// Height returns the extent along y.
func (v *Volume) Height() int { return v.size[1] }

// Depth returns the extent along z, 1 for 2D volumes.
func (v *Volume) Depth() int {
	if len(v.size) == 3 {
		return v.size[2]
	}
	return 1
}

// Row returns row y of slice z, or nil when it is empty.
func (v *Volume) Row(y, z int) Row { return v.rows[Key{y, z}] }

// Keys returns the keys of non-empty rows sorted by slice, then row.
func (v *Volume) Keys() []Key {
	keys := make([]Key, 0, len(v.rows))
	for k := range v.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Z != keys[j].Z {
			return keys[i].Z < keys[j].Z
		}
		return keys[i].Y < keys[j].Y
	})
	return keys
}

// RowCount returns the number of non-empty rows.
func (v *Volume) RowCount() int { return len(v.rows) }

// RunCount returns the total number of runs.
func (v *Volume) RunCount() int {
	n := 0
	for _, row := range v.rows {
		n += len(row)
	}
	return n
}

// Cardinality returns the number of true cells.
func (v *Volume) Cardinality() int {
	n := 0
	for _, row := range v.rows {
		n += row.Cardinality()
	}
	return n
}

// Get reports whether the cell at (x, y, z) is true.
func (v *Volume) Get(x, y, z int) bool {
	return v.rows[Key{y, z}].Contains(x)
}

// Crop drops every cell outside the nominal size.
func (v *Volume) Crop() *Volume {
	rows := make(map[Key]Row, len(v.rows))
	for k, row := range v.rows {
		if k.Y < 0 || k.Y >= v.Height() || k.Z < 0 || k.Z >= v.Depth() {
			continue
		}
		if cropped := row.Crop(0, v.Width()); len(cropped) > 0 {
			rows[k] = cropped
		}
	}
	return &Volume{size: v.size, rows: rows}
}

// Equal reports whether both volumes have the same size and cells.
func (v *Volume) Equal(o *Volume) bool {
	if len(v.size) != len(o.size) {
		return false
	}
	for d := range v.size {
		if v.size[d] != o.size[d] {
			return false
		}
	}
	if len(v.rows) != len(o.rows) {
		return false
	}
	for k, row := range v.rows {
		if !row.Equal(o.rows[k]) {
			return false
		}
	}
	return true
}

// Union returns the cells true in either volume. Both must have the same
// size.
func (v *Volume) Union(o *Volume) *Volume {
	return v.combine(o, true, Row.Union)
}

// Intersection returns the cells true in both volumes.
func (v *Volume) Intersection(o *Volume) *Volume {
	return v.combine(o, false, Row.Intersection)
}

// Difference returns the cells true in v and false in o.
func (v *Volume) Difference(o *Volume) *Volume {
	rows := make(map[Key]Row, len(v.rows))
	for k, row := range v.rows {
		if d := row.Difference(o.rows[k]); len(d) > 0 {
			rows[k] = d
		}
	}
	return &Volume{size: v.size, rows: rows}
}

func (v *Volume) combine(o *Volume, keepOther bool, op func(Row, Row) Row) *Volume {
	rows := make(map[Key]Row, len(v.rows))
	for k, row := range v.rows {
		if r := op(row, o.rows[k]); len(r) > 0 {
			rows[k] = r
		}
	}
	if keepOther {
		for k, row := range o.rows {
			if _, ok := v.rows[k]; !ok {
				rows[k] = row
			}
		}
	}
	return &Volume{size: v.size, rows: rows}
}
