package morphology

import (
	"morpho3d/pkg/array"
	"morpho3d/pkg/strel"
)

// directFilter computes, for every sample x, the extremum of src over the
// neighbours x+d for each displacement d of nb. Neighbours outside the
// array are skipped. Cost is proportional to the element's cell count.
func directFilter[T array.Number](src *array.Array[T], nb strel.Element, kind strel.Kind, s *settings, message string) (*array.Array[T], error) {
	dst := src.NewLike()
	moves := nb.Displacements()
	size := [3]int{1, 1, 1}
	copy(size[:], src.Shape())
	width, height, depth := size[0], size[1], size[2]

	offsets := make([]int, len(moves))
	for i, m := range moves {
		offsets[i] = m[0] + m[1]*width + m[2]*width*height
	}
	identity := strel.Identity[T](kind)
	in, out := src.Data(), dst.Data()

	err := s.parallelFor(height*depth, message, func(start, end int, tick func() error) error {
		for row := start; row < end; row++ {
			y, z := row%height, row/height
			base := row * width
			for x := 0; x < width; x++ {
				v := identity
				for i, m := range moves {
					nx, ny, nz := x+m[0], y+m[1], z+m[2]
					if nx < 0 || nx >= width || ny < 0 || ny >= height || nz < 0 || nz >= depth {
						continue
					}
					w := in[base+x+offsets[i]]
					if (kind == strel.Max && w > v) || (kind == strel.Min && w < v) {
						v = w
					}
				}
				out[base+x] = v
			}
			if err := tick(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}
