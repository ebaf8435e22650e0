// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Correlation statistics on flat vectors: Pearson (delegating the kernel to
//     gonum/stat), average-tie ranking and Spearman rank correlation.
//   - Fail loudly on undefined statistics instead of returning 0: a zero-variance
//     input yields ErrZeroVariance, a short input ErrTooFewObservations.
//
// Determinism:
//   - Ranking uses a stable sort, so tie groups are resolved identically across runs.

package matrix

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const (
	opPearson  = "Pearson"
	opRank     = "Rank"
	opSpearman = "Spearman"
)

// validatePair checks the shared preconditions of the correlation functions.
func validatePair(x, y []float64) error {
	if len(x) != len(y) {
		return ErrDimensionMismatch
	}
	if len(x) < 2 {
		return ErrTooFewObservations
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return ErrNaNInf
		}
	}
	if isConstant(x) || isConstant(y) {
		return ErrZeroVariance
	}

	return nil
}

// isConstant reports whether every element equals the first one.
func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}

	return true
}

// Pearson returns the product-moment correlation of x and y in [-1, 1].
//
// Errors:
//   - ErrDimensionMismatch (len differ), ErrTooFewObservations (len<2),
//     ErrNaNInf (non-finite input), ErrZeroVariance (constant x or y).
//
// Complexity: O(n).
func Pearson(x, y []float64) (float64, error) {
	if err := validatePair(x, y); err != nil {
		return 0, matrixErrorf(opPearson, err)
	}
	r := stat.Correlation(x, y, nil)
	// Rounding can push |r| a hair past 1; clamp so 1-r stays a valid distance.
	switch {
	case r > 1:
		r = 1
	case r < -1:
		r = -1
	}

	return r, nil
}

// Rank returns 1-based ranks of x; tied values share the mean of their ranks.
// Example: Rank([10, 20, 10, 30]) = [1.5, 3, 1.5, 4].
// Errors: ErrNaNInf (NaN has no order).
// Complexity: O(n log n).
func Rank(x []float64) ([]float64, error) {
	idx := make([]int, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			return nil, matrixErrorf(opRank, ErrNaNInf)
		}
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(x[a], x[b]) })

	ranks := make([]float64, len(x))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && x[idx[end]] == x[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end; their mean:
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}

	return ranks, nil
}

// Spearman returns the rank correlation of x and y: Pearson on average-tie ranks.
// Errors: as Pearson; ErrZeroVariance when either side is all ties.
// Complexity: O(n log n).
func Spearman(x, y []float64) (float64, error) {
	if err := validatePair(x, y); err != nil {
		return 0, matrixErrorf(opSpearman, err)
	}
	rx, err := Rank(x)
	if err != nil {
		return 0, matrixErrorf(opSpearman, err)
	}
	ry, err := Rank(y)
	if err != nil {
		return 0, matrixErrorf(opSpearman, err)
	}
	r, err := Pearson(rx, ry)
	if err != nil {
		return 0, matrixErrorf(opSpearman, err)
	}

	return r, nil
}
