// SPDX-License-Identifier: MIT

package volume

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask marks the spatial locations to analyze. Immutable once built.
// The set bits are kept as a roaring bitmap of row-major flat indices, so
// iteration is always ascending (deterministic) and sparse masks stay small.
type Mask struct {
	shape Shape
	on    *roaring.Bitmap
}

// NewMask builds a Mask from row-major values restricted to {0, 1}.
// Errors: ErrInvalidShape, ErrDimensionMismatch (len), ErrInvalidMask (other values).
func NewMask(shape Shape, values []float64) (*Mask, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}
	if len(values) != shape.Size() {
		return nil, fmt.Errorf("volume.NewMask: %d values for %d voxels: %w",
			len(values), shape.Size(), ErrDimensionMismatch)
	}
	on := roaring.New()
	for idx, v := range values {
		switch v {
		case 0:
		case 1:
			on.Add(uint32(idx))
		default:
			return nil, fmt.Errorf("volume.NewMask: voxel %d has value %g: %w", idx, v, ErrInvalidMask)
		}
	}

	return &Mask{shape: append(Shape(nil), shape...), on: on}, nil
}

// FullMask selects every voxel of shape.
func FullMask(shape Shape) (*Mask, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}
	on := roaring.New()
	on.AddRange(0, uint64(shape.Size()))

	return &Mask{shape: append(Shape(nil), shape...), on: on}, nil
}

// MaskFromCoords selects exactly the listed coordinates.
// Errors: ErrInvalidShape, ErrDimensionMismatch, ErrOutOfBounds.
func MaskFromCoords(shape Shape, coords ...[]int) (*Mask, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}
	on := roaring.New()
	for _, c := range coords {
		idx, err := shape.Index(c)
		if err != nil {
			return nil, err
		}
		on.Add(uint32(idx))
	}

	return &Mask{shape: append(Shape(nil), shape...), on: on}, nil
}

// Shape returns a copy of the mask shape.
func (m *Mask) Shape() Shape { return append(Shape(nil), m.shape...) }

// Contains reports whether flat index idx is selected.
func (m *Mask) Contains(idx int) bool {
	return idx >= 0 && idx < m.shape.Size() && m.on.Contains(uint32(idx))
}

// Count returns the number of selected voxels.
func (m *Mask) Count() int { return int(m.on.GetCardinality()) }

// Bitmap returns a copy of the selected flat indices.
func (m *Mask) Bitmap() *roaring.Bitmap { return m.on.Clone() }

// Indices returns the selected flat indices in ascending (row-major) order.
func (m *Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	it := m.on.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}

	return out
}

// Values returns the mask as a row-major 0/1 buffer.
func (m *Mask) Values() []float64 {
	out := make([]float64, m.shape.Size())
	it := m.on.Iterator()
	for it.HasNext() {
		out[it.Next()] = 1
	}

	return out
}
