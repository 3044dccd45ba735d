package pipeline

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/tiff"

	"morpho3d/internal/models"
	"morpho3d/pkg/array"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// LoadStack reads a single image, or every image of a directory ordered by
// the number embedded in each file name.
func LoadStack(path string) (*models.Stack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no images found in input directory %s", path)
		}
		sort.SliceStable(files, func(i, j int) bool {
			numI, numJ := extractNumber(files[i]), extractNumber(files[j])
			if numI != numJ {
				return numI < numJ
			}
			return files[i] < files[j]
		})
	} else {
		files = []string{path}
	}

	stack := &models.Stack{}
	for i, filename := range files {
		img, err := loadImage(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
		}
		bounds := img.Bounds()
		if i == 0 {
			stack.Width, stack.Height = bounds.Dx(), bounds.Dy()
		} else if bounds.Dx() != stack.Width || bounds.Dy() != stack.Height {
			return nil, fmt.Errorf("image %s is %dx%d, expected %dx%d",
				filename, bounds.Dx(), bounds.Dy(), stack.Width, stack.Height)
		}
		stack.Slices = append(stack.Slices, models.Slice{Image: img, Index: i, Filename: filename})
	}
	return stack, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// GrayArray converts a stack to a 16-bit gray array of the stack's shape.
func GrayArray(stack *models.Stack) *array.Array[uint16] {
	a := array.New[uint16](stack.Shape()...)
	data := a.Data()
	plane := stack.Width * stack.Height
	for z, s := range stack.Slices {
		b := s.Image.Bounds()
		for y := 0; y < stack.Height; y++ {
			for x := 0; x < stack.Width; x++ {
				g := color.Gray16Model.Convert(s.Image.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				data[z*plane+y*stack.Width+x] = g.Y
			}
		}
	}
	return a
}

// RGBVector converts a stack to a three-channel 16-bit vector array.
func RGBVector(stack *models.Stack) *array.Vector[uint16] {
	v := array.NewVector[uint16](3, stack.Shape()...)
	r, g, bl := v.Channel(0).Data(), v.Channel(1).Data(), v.Channel(2).Data()
	plane := stack.Width * stack.Height
	for z, s := range stack.Slices {
		b := s.Image.Bounds()
		for y := 0; y < stack.Height; y++ {
			for x := 0; x < stack.Width; x++ {
				cr, cg, cb, _ := s.Image.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := z*plane + y*stack.Width + x
				r[i], g[i], bl[i] = uint16(cr), uint16(cg), uint16(cb)
			}
		}
	}
	return v
}
