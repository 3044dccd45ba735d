// Package runlength implements sparse binary images as rows of runs.
//
// A Row is a sorted list of disjoint closed intervals of true cells. Row
// operations cost time proportional to the number of runs involved, not to
// the number of cells they cover, which keeps binary morphology on large
// volumes tractable.
package runlength

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidRun reports a row whose runs are malformed, unsorted or
// overlapping.
var ErrInvalidRun = errors.New("invalid run-length row")

// Run is the closed interval [Start, End] of contiguous true cells.
type Run struct {
	Start int
	End   int
}

// Len returns the number of cells covered by the run.
func (r Run) Len() int { return r.End - r.Start + 1 }

// Contains reports whether x lies in the run.
func (r Run) Contains(x int) bool { return x >= r.Start && x <= r.End }

func (r Run) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.End) }

// Row is a sorted sequence of maximal runs: runs never overlap and never
// abut (End+1 == Start). Every operation returns rows in this form.
//
// Rows are treated as immutable: every operation returns a new row.
type Row []Run

// NewRow builds a row from runs given in any order, merging runs that overlap
// or abut.
func NewRow(runs ...Run) Row {
	sorted := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.End < r.Start {
			panic(fmt.Errorf("%w: run %v ends before it starts", ErrInvalidRun, r))
		}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	var out Row
	for _, r := range sorted {
		out = out.appendRun(r)
	}
	return out
}

// RowFromBools returns the maximal runs of true values.
func RowFromBools(values []bool) Row {
	var out Row
	start := -1
	for x, v := range values {
		switch {
		case v && start < 0:
			start = x
		case !v && start >= 0:
			out = append(out, Run{start, x - 1})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Run{start, len(values) - 1})
	}
	return out
}

// RowFromPoints returns the row holding exactly the given cells.
func RowFromPoints(xs ...int) Row {
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	var out Row
	for _, x := range sorted {
		out = out.appendRun(Run{x, x})
	}
	return out
}

// appendRun adds r, which must not start before the last run, merging it
// with the last run when they overlap or abut. Out-of-order input is a logic
// error and aborts.
func (row Row) appendRun(r Run) Row {
	n := len(row)
	if n == 0 {
		return append(row, r)
	}
	last := &row[n-1]
	if r.Start < last.Start {
		panic(fmt.Errorf("%w: run %v appended after %v", ErrInvalidRun, r, *last))
	}
	if r.Start <= last.End+1 {
		if r.End > last.End {
			last.End = r.End
		}
		return row
	}
	return append(row, r)
}

// Validate checks that runs are well formed, sorted, disjoint and maximal.
func (row Row) Validate() error {
	for i, r := range row {
		if r.End < r.Start {
			return fmt.Errorf("%w: run %d %v ends before it starts", ErrInvalidRun, i, r)
		}
		if i > 0 && r.Start <= row[i-1].End+1 {
			return fmt.Errorf("%w: run %d %v overlaps, abuts or precedes %v", ErrInvalidRun, i, r, row[i-1])
		}
	}
	return nil
}

// Empty reports whether the row has no true cell.
func (row Row) Empty() bool { return len(row) == 0 }

// Cardinality returns the number of true cells.
func (row Row) Cardinality() int {
	n := 0
	for _, r := range row {
		n += r.Len()
	}
	return n
}

// Contains reports whether cell x is true.
func (row Row) Contains(x int) bool {
	i := sort.Search(len(row), func(i int) bool { return row[i].End >= x })
	return i < len(row) && row[i].Start <= x
}

// Normalize returns the row with overlapping and abutting runs joined. Rows
// written as literals need it before use; rows returned by this package are
// already normalized.
func (row Row) Normalize() Row {
	if len(row) == 0 {
		return nil
	}
	out := make(Row, 0, len(row))
	cur := row[0]
	for _, r := range row[1:] {
		if r.Start <= cur.End+1 {
			if r.End > cur.End {
				cur.End = r.End
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// Equal reports whether both rows hold the same set of cells.
func (row Row) Equal(other Row) bool {
	a, b := row.Normalize(), other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Union returns the cells true in either row.
func (row Row) Union(other Row) Row {
	out := make(Row, 0, len(row)+len(other))
	i, j := 0, 0
	for i < len(row) || j < len(other) {
		if j >= len(other) || (i < len(row) && row[i].Start <= other[j].Start) {
			out = out.appendRun(row[i])
			i++
		} else {
			out = out.appendRun(other[j])
			j++
		}
	}
	return out
}

// Intersection returns the cells true in both rows.
func (row Row) Intersection(other Row) Row {
	var out Row
	i, j := 0, 0
	for i < len(row) && j < len(other) {
		a, b := row[i], other[j]
		start, end := max(a.Start, b.Start), min(a.End, b.End)
		if start <= end {
			out = out.appendRun(Run{start, end})
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Difference returns the cells true in row and false in other.
func (row Row) Difference(other Row) Row {
	var out Row
	j := 0
	for _, r := range row {
		start := r.Start
		for j < len(other) && other[j].End < start {
			j++
		}
		k := j
		for k < len(other) && other[k].Start <= r.End {
			if other[k].Start > start {
				out = out.appendRun(Run{start, other[k].Start - 1})
			}
			if other[k].End+1 > start {
				start = other[k].End + 1
			}
			k++
		}
		if start <= r.End {
			out = out.appendRun(Run{start, r.End})
		}
	}
	return out
}

// Complement returns the cells of [0, n) that are false in row.
func (row Row) Complement(n int) Row {
	var out Row
	next := 0
	for _, r := range row {
		if r.Start > next {
			out = out.appendRun(Run{next, min(r.Start, n) - 1})
		}
		if r.End+1 > next {
			next = r.End + 1
		}
		if next >= n {
			return out
		}
	}
	if next < n {
		out = out.appendRun(Run{next, n - 1})
	}
	return out
}

// Shift translates every run by delta.
func (row Row) Shift(delta int) Row {
	if len(row) == 0 {
		return nil
	}
	out := make(Row, len(row))
	for i, r := range row {
		out[i] = Run{r.Start + delta, r.End + delta}
	}
	return out
}

// Crop keeps the cells of row lying in [lo, hi), clipping runs that
// straddle the bounds.
func (row Row) Crop(lo, hi int) Row {
	var out Row
	for _, r := range row {
		if r.End < lo {
			continue
		}
		if r.Start >= hi {
			break
		}
		out = out.appendRun(Run{max(r.Start, lo), min(r.End, hi-1)})
	}
	return out
}

// DilateBy returns the Minkowski sum of row and s: every cell x+d with x in
// row and d in s.
func (row Row) DilateBy(s Row) Row {
	if len(row) == 0 || len(s) == 0 {
		return nil
	}
	runs := make([]Run, 0, len(row)*len(s))
	for _, o := range s {
		for _, r := range row {
			runs = append(runs, Run{r.Start + o.Start, r.End + o.End})
		}
	}
	return NewRow(runs...)
}

// ErodeBy returns the cells x such that x+d is in row for every d in s, that
// is the intersection of row shifted by -d for every offset d of s.
// Eroding by an empty row yields an empty row. The window test needs maximal
// runs, so row is normalized first.
func (row Row) ErodeBy(s Row) Row {
	if len(row) == 0 || len(s) == 0 {
		return nil
	}
	row = row.Normalize()
	var out Row
	for i, o := range s {
		// cells whose whole window [x+o.Start, x+o.End] fits in one run
		var part Row
		for _, r := range row {
			if r.Len() >= o.Len() {
				part = part.appendRun(Run{r.Start - o.Start, r.End - o.End})
			}
		}
		if i == 0 {
			out = part
		} else {
			out = out.Intersection(part)
		}
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

// Fill sets dst[x] for every cell x of row lying in [0, len(dst)).
func (row Row) Fill(dst []bool) {
	for _, r := range row.Crop(0, len(dst)) {
		for x := r.Start; x <= r.End; x++ {
			dst[x] = true
		}
	}
}

func (row Row) String() string {
	parts := make([]string, len(row))
	for i, r := range row {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
