// SPDX-License-Identifier: MIT

package volume

import "fmt"

// Scalar is a spatial grid with one float64 per voxel: the searchlight output.
// Cells default to 0. Writers must target distinct cells when used concurrently.
type Scalar struct {
	shape Shape
	data  []float64
}

// NewScalar allocates a zero-filled Scalar.
// Errors: ErrInvalidShape.
func NewScalar(shape Shape) (*Scalar, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}

	return &Scalar{shape: append(Shape(nil), shape...), data: make([]float64, shape.Size())}, nil
}

// Shape returns a copy of the spatial shape.
func (s *Scalar) Shape() Shape { return append(Shape(nil), s.shape...) }

// At returns the value at flat index idx.
// Errors: ErrOutOfBounds.
func (s *Scalar) At(idx int) (float64, error) {
	if idx < 0 || idx >= len(s.data) {
		return 0, fmt.Errorf("Scalar.At(%d): %w", idx, ErrOutOfBounds)
	}

	return s.data[idx], nil
}

// AtCoord returns the value at coord.
// Errors: ErrDimensionMismatch, ErrOutOfBounds.
func (s *Scalar) AtCoord(coord []int) (float64, error) {
	idx, err := s.shape.Index(coord)
	if err != nil {
		return 0, err
	}

	return s.data[idx], nil
}

// Set writes v at flat index idx.
// Errors: ErrOutOfBounds.
func (s *Scalar) Set(idx int, v float64) error {
	if idx < 0 || idx >= len(s.data) {
		return fmt.Errorf("Scalar.Set(%d): %w", idx, ErrOutOfBounds)
	}
	s.data[idx] = v

	return nil
}

// Values returns a row-major copy of all cells.
func (s *Scalar) Values() []float64 {
	out := make([]float64, len(s.data))
	copy(out, s.data)

	return out
}
