package array

import "fmt"

// Vector is a multi-channel array, stored as one scalar array per channel.
// Colour images are vectors with three channels.
type Vector[T Number] struct {
	layout
	channels []*Array[T]
}

// NewVector allocates a zero-filled vector array with the given number of
// channels and extents.
func NewVector[T Number](channels int, size ...int) *Vector[T] {
	if channels <= 0 {
		panic(fmt.Sprintf("array: channel count must be positive, got %d", channels))
	}
	v := &Vector[T]{layout: mustLayout(size)}
	for c := 0; c < channels; c++ {
		v.channels = append(v.channels, New[T](size...))
	}
	return v
}

// VectorFromChannels groups scalar arrays of identical shape into a vector
// array. The arrays are used directly, not copied.
func VectorFromChannels[T Number](channels ...*Array[T]) (*Vector[T], error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("vector array needs at least one channel")
	}
	for c, ch := range channels[1:] {
		if !ch.SameShape(channels[0].size) {
			return nil, fmt.Errorf("channel %d has shape %v, expected %v", c+1, ch.size, channels[0].size)
		}
	}
	return &Vector[T]{layout: channels[0].layout, channels: channels}, nil
}

// Channels returns the number of channels.
func (v *Vector[T]) Channels() int { return len(v.channels) }

// Channel returns the scalar array backing channel c.
func (v *Vector[T]) Channel(c int) *Array[T] { return v.channels[c] }

// At returns the channel values at the given coordinates.
func (v *Vector[T]) At(coords ...int) []T {
	idx := v.Index(coords...)
	out := make([]T, len(v.channels))
	for c, ch := range v.channels {
		out[c] = ch.data[idx]
	}
	return out
}

// Set stores the channel values at the given coordinates.
func (v *Vector[T]) Set(values []T, coords ...int) {
	idx := v.Index(coords...)
	for c, ch := range v.channels {
		ch.data[idx] = values[c]
	}
}
