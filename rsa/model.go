// SPDX-License-Identifier: MIT

package rsa

import (
	"fmt"
	"math"

	"github.com/trossi/searchlight/matrix"
)

// Hypothesis returns the expected dissimilarity between two distinct
// condition labels. It is only consulted for a != b; equal labels are 0.
type Hypothesis func(a, b string) (float64, error)

// Categorical is the default hypothesis: every pair of distinct conditions is
// equally dissimilar (1).
func Categorical(a, b string) (float64, error) {
	if a == b {
		return 0, nil
	}

	return 1, nil
}

// HypothesisFromTable looks pairs up in either orientation.
// Missing pairs fail with ErrUnknownCondition.
func HypothesisFromTable(table map[[2]string]float64) Hypothesis {
	return func(a, b string) (float64, error) {
		if d, ok := table[[2]string{a, b}]; ok {
			return d, nil
		}
		if d, ok := table[[2]string{b, a}]; ok {
			return d, nil
		}

		return 0, fmt.Errorf("pair (%q, %q): %w", a, b, ErrUnknownCondition)
	}
}

// Ordinal places conditions on a line in the given order; the distance is the
// gap between positions. Labels not listed fail with ErrUnknownCondition.
func Ordinal(levels ...string) Hypothesis {
	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		pos[l] = i
	}

	return func(a, b string) (float64, error) {
		pa, ok := pos[a]
		if !ok {
			return 0, fmt.Errorf("label %q: %w", a, ErrUnknownCondition)
		}
		pb, ok := pos[b]
		if !ok {
			return 0, fmt.Errorf("label %q: %w", b, ErrUnknownCondition)
		}

		return math.Abs(float64(pa - pb)), nil
	}
}

// BuildModelRDM evaluates h over the strict upper triangle of the layout and
// mirrors it; the diagonal and same-label pairs are 0. A nil h means Categorical.
//
// Errors: ErrEmptyLayout, ErrInvalidHypothesis, errors returned by h.
// Complexity: O(U²) hypothesis calls.
func BuildModelRDM(layout *Layout, h Hypothesis) (*RDM, error) {
	const op = "BuildModelRDM"
	if layout == nil || layout.Len() == 0 {
		return nil, rsaErrorf(op, ErrEmptyLayout)
	}
	if h == nil {
		h = Categorical
	}
	n := layout.Len()
	m, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, rsaErrorf(op, err)
	}
	for i := 0; i < n; i++ {
		a := layout.units[i].Label
		for j := i + 1; j < n; j++ {
			b := layout.units[j].Label
			if a == b {
				continue
			}
			d, err := h(a, b)
			if err != nil {
				return nil, rsaErrorf(op, err)
			}
			if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
				return nil, fmt.Errorf("%s: pair (%q, %q) = %g: %w", op, a, b, d, ErrInvalidHypothesis)
			}
			if err = m.SetSymmetric(i, j, d); err != nil {
				return nil, rsaErrorf(op, err)
			}
		}
	}

	return &RDM{m: m, layout: layout}, nil
}

// ValidateModel reports whether model can produce a defined Score at all: it
// needs at least two pairs and at least two distinct distances in its upper
// triangle. A model without rank spread makes every comparison undefined, e.g.
// Categorical over a PerCondition layout, where every pair is 1.
// Errors: matrix.ErrNilMatrix, ErrUndefinedScore.
func ValidateModel(model *RDM) error {
	const op = "ValidateModel"
	if err := matrix.ValidateNotNil(model); err != nil {
		return rsaErrorf(op, err)
	}
	if n := model.Rows(); n*(n-1)/2 < 2 {
		return fmt.Errorf("%s: %d units give fewer than 2 pairs: %w", op, n, ErrUndefinedScore)
	}

	first, spread := math.NaN(), false
	model.m.Do(func(i, j int, v float64) bool {
		if j <= i {
			return true
		}
		if math.IsNaN(first) {
			first = v
			return true
		}
		spread = v != first
		return !spread
	})
	if !spread {
		return fmt.Errorf("%s: every pair is %g: %w", op, first, ErrUndefinedScore)
	}

	return nil
}
