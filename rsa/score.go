// SPDX-License-Identifier: MIT

package rsa

import (
	"errors"
	"fmt"

	"github.com/trossi/searchlight/matrix"
)

// Score compares a data RDM with a model RDM: Spearman rank correlation
// between their strict upper triangles, taken in the same row-major pair order.
//
// Both RDMs must have the same size and, when both carry a layout, the same
// unit order (ErrRDMDimensionMismatch). Fewer than two pairs (fewer than three
// units) or a triangle without rank spread fails with ErrUndefinedScore.
func Score(data, model *RDM) (float64, error) {
	const op = "Score"
	if err := matrix.ValidateSameShape(data, model); err != nil {
		if errors.Is(err, matrix.ErrDimensionMismatch) {
			return 0, fmt.Errorf("%s: %d vs %d units: %w", op, data.Rows(), model.Rows(), ErrRDMDimensionMismatch)
		}
		return 0, rsaErrorf(op, err)
	}
	if data.layout != nil && model.layout != nil && !data.layout.Equal(model.layout) {
		return 0, fmt.Errorf("%s: unit order differs: %w", op, ErrRDMDimensionMismatch)
	}
	if n := data.Rows(); n*(n-1)/2 < 2 {
		return 0, fmt.Errorf("%s: %d units give fewer than 2 pairs: %w", op, n, ErrUndefinedScore)
	}

	x, err := data.Triangle()
	if err != nil {
		return 0, rsaErrorf(op, err)
	}
	y, err := model.Triangle()
	if err != nil {
		return 0, rsaErrorf(op, err)
	}
	rho, err := matrix.Spearman(x, y)
	if err != nil {
		if errors.Is(err, matrix.ErrZeroVariance) {
			return 0, fmt.Errorf("%s: %w: %w", op, ErrUndefinedScore, err)
		}
		return 0, rsaErrorf(op, err)
	}

	return rho, nil
}
