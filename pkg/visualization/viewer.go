// Package visualization cuts 2D images out of filtered arrays and writes them
// to disk.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"morpho3d/pkg/array"
)

// Viewer extracts slices from a 2D or 3D array with one channel (rendered
// as 16-bit gray) or three channels (rendered as RGB).
type Viewer[T array.Number] struct {
	channels []*array.Array[T]

	width  int
	height int
	depth  int
}

// NewViewer creates a viewer over the given channels, which must share one
// shape.
func NewViewer[T array.Number](channels ...*array.Array[T]) (*Viewer[T], error) {
	if len(channels) != 1 && len(channels) != 3 {
		return nil, fmt.Errorf("viewer needs 1 or 3 channels, got %d", len(channels))
	}
	first := channels[0]
	if first.Dims() != 2 && first.Dims() != 3 {
		return nil, fmt.Errorf("viewer needs a 2D or 3D array, got %dD", first.Dims())
	}
	for c, ch := range channels[1:] {
		if !ch.SameShape(first.Shape()) {
			return nil, fmt.Errorf("channel %d has shape %v, expected %v", c+1, ch.Shape(), first.Shape())
		}
	}
	v := &Viewer[T]{channels: channels, width: first.Size(0), height: first.Size(1), depth: 1}
	if first.Dims() == 3 {
		v.depth = first.Size(2)
	}
	return v, nil
}

// NewVectorViewer creates a viewer over the channels of a vector array.
func NewVectorViewer[T array.Number](vec *array.Vector[T]) (*Viewer[T], error) {
	channels := make([]*array.Array[T], vec.Channels())
	for c := range channels {
		channels[c] = vec.Channel(c)
	}
	return NewViewer(channels...)
}

// SliceCount returns the number of slices along axis.
func (v *Viewer[T]) SliceCount(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.width, nil
	case "y", "Y":
		return v.height, nil
	case "z", "Z":
		return v.depth, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts a 2D slice from the array along the specified axis.
// x slices are depth×height, y slices width×depth and z slices
// width×height.
func (v *Viewer[T]) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	n, err := v.SliceCount(axis)
	if err != nil {
		return nil, err
	}
	if position >= n {
		return nil, fmt.Errorf("position %d exceeds %s extent %d", position, axis, n)
	}

	// coords maps an image pixel to array coordinates
	var w, h int
	var coords func(px, py int) (x, y, z int)
	switch strings.ToLower(axis) {
	case "x":
		w, h = v.depth, v.height
		coords = func(px, py int) (int, int, int) { return position, py, px }
	case "y":
		w, h = v.width, v.depth
		coords = func(px, py int) (int, int, int) { return px, position, py }
	default:
		w, h = v.width, v.height
		coords = func(px, py int) (int, int, int) { return px, py, position }
	}

	rect := image.Rect(0, 0, w, h)
	if len(v.channels) == 1 {
		img := image.NewGray16(rect)
		data := v.channels[0].Data()
		for py := 0; py < h; py++ {
			for px := 0; px < w; px++ {
				img.SetGray16(px, py, color.Gray16{Y: toUint16(data[v.index(coords(px, py))])})
			}
		}
		return img, nil
	}

	img := image.NewRGBA64(rect)
	r, g, b := v.channels[0].Data(), v.channels[1].Data(), v.channels[2].Data()
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			i := v.index(coords(px, py))
			img.SetRGBA64(px, py, color.RGBA64{R: toUint16(r[i]), G: toUint16(g[i]), B: toUint16(b[i]), A: 0xffff})
		}
	}
	return img, nil
}

func (v *Viewer[T]) index(x, y, z int) int {
	return x + y*v.width + z*v.width*v.height
}

// toUint16 maps a sample to the 16-bit range: floats are taken as
// intensities in [0, 1], 8-bit values are scaled by 257 and other integers
// are clamped.
func toUint16[T array.Number](value T) uint16 {
	if array.IsFloat[T]() {
		return uint16(math.Max(0, math.Min(65535, float64(value)*65535)))
	}
	if _, highest := array.Limits[T](); uint64(highest) == math.MaxUint8 {
		return uint16(value) * 257
	}
	return array.Saturate[uint16](float64(value))
}

// SaveSlice saves an extracted slice. The format follows the file
// extension: .png, .jpg/.jpeg or .tif/.tiff.
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// SaveSliceSequence extracts and saves every slice along the specified axis
// and returns the written file names in slice order.
func (v *Viewer[T]) SaveSliceSequence(axis, outputDir, format string) ([]string, error) {
	n, err := v.SliceCount(axis)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(strings.ToLower(format), ".")
	files := make([]string, 0, n)
	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return nil, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", strings.ToLower(axis), pos, ext))
		if err := SaveSlice(img, filename); err != nil {
			return nil, err
		}
		files = append(files, filename)
	}

	return files, nil
}
