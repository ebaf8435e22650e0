// SPDX-License-Identifier: MIT

package rsa

import (
	"errors"
	"fmt"
)

// Sentinel errors for rsa operations.
var (
	// ErrEmptyLayout indicates a layout built from zero labels.
	ErrEmptyLayout = errors.New("rsa: layout needs at least one label")
	// ErrInvalidGranularity indicates an unknown Granularity value or name.
	ErrInvalidGranularity = errors.New("rsa: invalid granularity")
	// ErrBadPermutation indicates a permutation that is not a bijection on the units.
	ErrBadPermutation = errors.New("rsa: invalid unit permutation")
	// ErrNoPatterns indicates an RDM request over an empty neighborhood.
	ErrNoPatterns = errors.New("rsa: no patterns to compare")
	// ErrSampleCountMismatch indicates patterns whose length differs from the layout's sample count.
	ErrSampleCountMismatch = errors.New("rsa: pattern length does not match layout samples")
	// ErrDegenerateCondition indicates a unit without contributing samples or
	// with a constant mean pattern, so its correlation is undefined.
	ErrDegenerateCondition = errors.New("rsa: degenerate condition")
	// ErrRDMDimensionMismatch indicates data and model RDMs that differ in size or unit order.
	ErrRDMDimensionMismatch = errors.New("rsa: RDM dimension or ordering mismatch")
	// ErrUndefinedScore indicates a comparison with fewer than two pairs or no rank spread.
	ErrUndefinedScore = errors.New("rsa: score undefined")
	// ErrUnknownCondition indicates a label pair missing from a hypothesis table.
	ErrUnknownCondition = errors.New("rsa: unknown condition")
	// ErrInvalidHypothesis indicates a negative or non-finite hypothesis distance.
	ErrInvalidHypothesis = errors.New("rsa: hypothesis distance must be finite and >= 0")
	// ErrInvalidRDM indicates a matrix that is not a dissimilarity matrix.
	ErrInvalidRDM = errors.New("rsa: matrix is not symmetric with zero diagonal")
)

// rsaErrorf wraps err with an operation tag.
func rsaErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
