// SPDX-License-Identifier: MIT

// Package volume holds the in-memory containers the searchlight engine reads
// and writes: a spatial Shape with row-major (C order, last axis fastest)
// indexing, a Volume of per-voxel sample vectors, a binary Mask, and a Scalar
// output volume.
//
// All containers are immutable once built, except Scalar which the driver
// fills cell by cell. Constructors deep-copy their inputs.
package volume

import "fmt"

// Shape lists the spatial dimension sizes, e.g. Shape{64, 64, 40}.
type Shape []int

// NewShape validates and copies dims.
// Returns ErrInvalidShape if dims is empty or any size is ≤ 0.
func NewShape(dims ...int) (Shape, error) {
	if len(dims) == 0 {
		return nil, ErrInvalidShape
	}
	for _, d := range dims {
		if d <= 0 {
			return nil, ErrInvalidShape
		}
	}
	s := make(Shape, len(dims))
	copy(s, dims)

	return s, nil
}

// NDim returns the number of spatial dimensions.
func (s Shape) NDim() int { return len(s) }

// Size returns the number of voxels (product of dimension sizes).
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}

	return n
}

// Equal reports whether both shapes have identical sizes.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}

	return true
}

// InBounds reports whether coord lies within the grid. A coordinate of the
// wrong dimensionality is never in bounds.
// Complexity: O(ndim).
func (s Shape) InBounds(coord []int) bool {
	if len(coord) != len(s) {
		return false
	}
	for i, c := range coord {
		if c < 0 || c >= s[i] {
			return false
		}
	}

	return true
}

// Index maps coord to its row-major flat index.
// Errors: ErrDimensionMismatch, ErrOutOfBounds.
func (s Shape) Index(coord []int) (int, error) {
	if len(coord) != len(s) {
		return 0, fmt.Errorf("Shape.Index(%v): %w", coord, ErrDimensionMismatch)
	}
	if !s.InBounds(coord) {
		return 0, fmt.Errorf("Shape.Index(%v): %w", coord, ErrOutOfBounds)
	}

	return s.index(coord), nil
}

// index is Index without validation.
func (s Shape) index(coord []int) int {
	idx := 0
	for i, c := range coord {
		idx = idx*s[i] + c
	}

	return idx
}

// Coordinate converts a row-major flat index back to a coordinate.
// Errors: ErrOutOfBounds.
func (s Shape) Coordinate(idx int) ([]int, error) {
	if idx < 0 || idx >= s.Size() {
		return nil, fmt.Errorf("Shape.Coordinate(%d): %w", idx, ErrOutOfBounds)
	}
	coord := make([]int, len(s))
	s.coordinateInto(idx, coord)

	return coord, nil
}

// coordinateInto writes the coordinate of idx into dst (len(dst)==NDim()).
func (s Shape) coordinateInto(idx int, dst []int) {
	for i := len(s) - 1; i >= 0; i-- {
		dst[i] = idx % s[i]
		idx /= s[i]
	}
}

// String renders the shape as "64x64x40".
func (s Shape) String() string {
	out := ""
	for i, d := range s {
		if i > 0 {
			out += "x"
		}
		out += fmt.Sprint(d)
	}

	return out
}
