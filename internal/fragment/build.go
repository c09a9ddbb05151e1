package fragment

import (
	"github.com/ndstore/arrayread/internal/schema"
)

// FromManifest materializes a Fragment from a decoded Manifest and its
// loaded tile bytes: one concatenated block per attribute, in schema
// attribute order, sized cellCount*CellSize where cellCount is the
// number of cells in Bounds (dense) or len(Coords) (sparse).
func FromManifest[T schema.Numeric](sch *schema.Schema[T], m Manifest, raw []byte) (Fragment[T], error) {
	if m.Dense {
		bounds := convertRect[T](m.Bounds)
		data, err := splitAttributeBlocks(sch, boundsCellCount(bounds), raw)
		if err != nil {
			return nil, err
		}
		return NewDenseFragment(sch, bounds, data), nil
	}

	coords := make([][]T, len(m.Coords))
	for i, c := range m.Coords {
		coords[i] = convertPoint[T](c)
	}
	data, err := splitAttributeBlocks(sch, len(coords), raw)
	if err != nil {
		return nil, err
	}
	return NewSparseFragment(sch, coords, data), nil
}

func convertRect[T schema.Numeric](r [][2]int64) [][2]T {
	out := make([][2]T, len(r))
	for i, d := range r {
		out[i] = [2]T{T(d[0]), T(d[1])}
	}
	return out
}

func convertPoint[T schema.Numeric](p []int64) []T {
	out := make([]T, len(p))
	for i, v := range p {
		out[i] = T(v)
	}
	return out
}

func boundsCellCount[T schema.Numeric](bounds [][2]T) int {
	n := 1
	for _, b := range bounds {
		n *= int(b[1]-b[0]) + 1
	}
	return n
}

func splitAttributeBlocks[T schema.Numeric](sch *schema.Schema[T], cellCount int, raw []byte) ([][]byte, error) {
	data := make([][]byte, len(sch.Attributes))
	offset := 0
	for i, a := range sch.Attributes {
		n := cellCount * a.CellSize
		if offset+n > len(raw) {
			return nil, readErrorf("fragment data too short for attribute %q", a.Name)
		}
		data[i] = raw[offset : offset+n]
		offset += n
	}
	return data, nil
}
