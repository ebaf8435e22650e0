// SPDX-License-Identifier: MIT

package volume

import "errors"

// Sentinel errors for volume operations.
var (
	// ErrInvalidShape indicates an empty shape or a non-positive dimension size.
	ErrInvalidShape = errors.New("volume: shape must have at least one dimension, all sizes > 0")
	// ErrDimensionMismatch indicates a coordinate, shape or buffer that does not fit the volume.
	ErrDimensionMismatch = errors.New("volume: dimension mismatch")
	// ErrOutOfBounds indicates a coordinate or flat index outside the spatial grid.
	ErrOutOfBounds = errors.New("volume: coordinate out of bounds")
	// ErrInvalidMask indicates a mask value other than 0 or 1.
	ErrInvalidMask = errors.New("volume: mask values must be 0 or 1")
	// ErrNoSamples indicates a volume without a sample axis.
	ErrNoSamples = errors.New("volume: sample axis must be non-empty")
)
