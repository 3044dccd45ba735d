package strel

import (
	"fmt"

	"morpho3d/pkg/array"
)

// Kind selects which extremum a buffer tracks.
type Kind int

const (
	// Min tracks the running minimum (erosion).
	Min Kind = iota
	// Max tracks the running maximum (dilation).
	Max
)

func (k Kind) String() string {
	switch k {
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Identity returns the value that never wins an extremum of this kind: the
// highest representable value for Min and the lowest for Max.
func Identity[T array.Number](k Kind) T {
	lo, hi := array.Limits[T]()
	if k == Max {
		return lo
	}
	return hi
}

// ExtremumBuffer is a fixed-capacity window over the last n samples of a scan
// line that keeps their minimum or maximum up to date.
//
// Only samples that can still become the extremum are kept, in a ring
// ordered by arrival whose values are strictly monotonic, so Add costs O(1)
// amortised whatever the input order.
//
// A buffer holds per-line state: use one buffer per goroutine.
type ExtremumBuffer[T array.Number] struct {
	kind Kind

	// candidates, oldest first, starting at head
	values []T
	seqs   []int
	head   int
	count  int

	// sequence number of the newest sample
	seq int
}

// NewExtremumBuffer creates a buffer of the given capacity filled with the
// identity of kind.
func NewExtremumBuffer[T array.Number](capacity int, kind Kind) *ExtremumBuffer[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("strel: extremum buffer capacity must be positive, got %d", capacity))
	}
	b := &ExtremumBuffer[T]{
		kind:   kind,
		values: make([]T, capacity),
		seqs:   make([]int, capacity),
	}
	b.Fill(Identity[T](kind))
	return b
}

// Capacity returns the window length.
func (b *ExtremumBuffer[T]) Capacity() int { return len(b.values) }

// Kind returns the tracked extremum.
func (b *ExtremumBuffer[T]) Kind() Kind { return b.kind }

// Identity returns the padding value for this buffer's kind.
func (b *ExtremumBuffer[T]) Identity() T { return Identity[T](b.kind) }

// Fill sets every slot to v.
func (b *ExtremumBuffer[T]) Fill(v T) {
	// equal samples are represented by the newest one
	b.seq = len(b.values) - 1
	b.head, b.count = 0, 1
	b.values[0], b.seqs[0] = v, b.seq
}

// Add evicts the oldest sample and inserts v.
func (b *ExtremumBuffer[T]) Add(v T) {
	n := len(b.values)
	b.seq++
	if b.count > 0 && b.seqs[b.head] <= b.seq-n {
		b.head = (b.head + 1) % n
		b.count--
	}
	// drop candidates that v outlives without being beaten by them
	for b.count > 0 {
		last := (b.head + b.count - 1) % n
		if b.beats(b.values[last], v) {
			break
		}
		b.count--
	}
	tail := (b.head + b.count) % n
	b.values[tail], b.seqs[tail] = v, b.seq
	b.count++
}

// Current returns the extremum of the samples in the window.
func (b *ExtremumBuffer[T]) Current() T { return b.values[b.head] }

// beats reports whether x is strictly more extreme than y.
func (b *ExtremumBuffer[T]) beats(x, y T) bool {
	if b.kind == Max {
		return x > y
	}
	return x < y
}
