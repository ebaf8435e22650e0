// SPDX-License-Identifier: MIT

package searchlight

import (
	"errors"
	"fmt"
)

// Sentinel errors for searchlight operations.
var (
	// ErrInvalidRadius indicates a negative searchlight radius, or one whose
	// bounding cube is too large to enumerate.
	ErrInvalidRadius = errors.New("searchlight: invalid radius")
	// ErrEmptyNeighborhood indicates a center with no in-bounds voxel; only an
	// out-of-bounds center produces it.
	ErrEmptyNeighborhood = errors.New("searchlight: empty neighborhood")
	// ErrLabelCount indicates a label list whose length differs from the sample axis.
	ErrLabelCount = errors.New("searchlight: label count does not match samples")
	// ErrInvalidPolicy indicates an unknown DegeneratePolicy value or name.
	ErrInvalidPolicy = errors.New("searchlight: invalid degenerate policy")
	// ErrNilInput indicates a nil volume or mask.
	ErrNilInput = errors.New("searchlight: nil volume or mask")
)

// slErrorf wraps err with an operation tag.
func slErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
