package models

import (
	"fmt"
	"image"
	"strings"
)

// Slice represents one decoded input image with metadata
type Slice struct {
	// Image is the decoded image data
	Image image.Image

	// Index is the position of this slice in the stack
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// Stack is an ordered sequence of equally sized slices forming a volume
type Stack struct {
	// Slices are sorted by Index
	Slices []Slice

	// Width and Height are the common extents of every slice
	Width  int
	Height int
}

// Depth returns the number of slices in the stack
func (s *Stack) Depth() int { return len(s.Slices) }

// Shape returns the array extents of the stack: width and height for a
// single slice, width, height and depth otherwise
func (s *Stack) Shape() []int {
	if len(s.Slices) == 1 {
		return []int{s.Width, s.Height}
	}
	return []int{s.Width, s.Height, len(s.Slices)}
}

// Mode selects how pixels of a stack are interpreted
type Mode int

const (
	Gray Mode = iota
	Binary
	RGB
)

var modeNames = map[Mode]string{Gray: "gray", Binary: "binary", RGB: "rgb"}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode resolves a mode name as written in configuration files
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}
