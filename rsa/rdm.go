// SPDX-License-Identifier: MIT

package rsa

import (
	"errors"
	"fmt"

	"github.com/trossi/searchlight/matrix"
)

// rdmTol is the tolerance NewRDM uses for the symmetry and diagonal checks.
const rdmTol = 1e-12

// PatternSource is what BuildRDM reads: Len voxels, each with a full
// sample-axis response vector. searchlight.Neighborhood implements it.
type PatternSource interface {
	Len() int
	Pattern(i int) []float64
}

// RDM is a square, symmetric, zero-diagonal dissimilarity matrix whose rows
// follow a Layout. Read-only once built; safe to share across goroutines.
type RDM struct {
	m      *matrix.Dense
	layout *Layout
}

var _ matrix.Matrix = (*RDM)(nil)

// NewRDM wraps an existing dissimilarity matrix. The matrix is copied and must
// be symmetric with zero diagonal; when layout is non-nil its Len must match.
// Errors: ErrInvalidRDM, ErrRDMDimensionMismatch.
func NewRDM(m *matrix.Dense, layout *Layout) (*RDM, error) {
	if err := matrix.ValidateDissimilarity(m, rdmTol); err != nil {
		return nil, fmt.Errorf("NewRDM: %w: %w", ErrInvalidRDM, err)
	}
	if layout != nil && layout.Len() != m.Rows() {
		return nil, rsaErrorf("NewRDM", ErrRDMDimensionMismatch)
	}

	return &RDM{m: m.Clone(), layout: layout}, nil
}

// IsNil reports whether r, or the matrix it wraps, is nil.
func (r *RDM) IsNil() bool { return r == nil || r.m == nil }

// Rows returns the number of units.
func (r *RDM) Rows() int { return r.m.Rows() }

// Cols equals Rows.
func (r *RDM) Cols() int { return r.m.Cols() }

// At returns the dissimilarity between units i and j.
func (r *RDM) At(i, j int) (float64, error) { return r.m.At(i, j) }

// Layout returns the unit ordering, or nil for a bare matrix.
func (r *RDM) Layout() *Layout { return r.layout }

// Dense returns a mutable copy of the underlying matrix.
func (r *RDM) Dense() *matrix.Dense { return r.m.Clone() }

// Triangle returns the strict upper triangle in row-major pair order.
func (r *RDM) Triangle() ([]float64, error) { return matrix.UpperTriangle(r.m) }

// String renders the matrix.
func (r *RDM) String() string { return r.m.String() }

// BuildRDM computes the empirical RDM of a neighborhood.
//
// Implementation:
//   - Stage 1: validate the source (non-empty, every pattern has NSamples entries).
//   - Stage 2: mean pattern per unit: element v is the mean of voxel v's
//     responses over the unit's member samples.
//   - Stage 3: reject units without members or with a constant mean pattern
//     (a one-voxel neighborhood is always constant) as ErrDegenerateCondition.
//   - Stage 4: RDM[i,j] = RDM[j,i] = 1 − Pearson(mean_i, mean_j), diagonal 0.
//
// Complexity: O(V·S) for the means plus O(U²·V) for the pairs
// (V voxels, S samples, U units).
func BuildRDM(src PatternSource, layout *Layout) (*RDM, error) {
	const op = "BuildRDM"
	if layout == nil {
		return nil, rsaErrorf(op, ErrEmptyLayout)
	}
	nv := src.Len()
	if nv == 0 {
		return nil, rsaErrorf(op, ErrNoPatterns)
	}
	for v := 0; v < nv; v++ {
		if len(src.Pattern(v)) != layout.NSamples() {
			return nil, fmt.Errorf("%s: voxel %d has %d samples, layout %d: %w",
				op, v, len(src.Pattern(v)), layout.NSamples(), ErrSampleCountMismatch)
		}
	}

	nu := layout.Len()
	means := make([][]float64, nu)
	for u := 0; u < nu; u++ {
		unit := layout.units[u]
		if len(unit.Members) == 0 {
			return nil, fmt.Errorf("%s: condition %q has no samples: %w", op, unit.Label, ErrDegenerateCondition)
		}
		mean := make([]float64, nv)
		inv := 1.0 / float64(len(unit.Members))
		for v := 0; v < nv; v++ {
			p := src.Pattern(v)
			var s float64
			for _, k := range unit.Members {
				s += p[k]
			}
			mean[v] = s * inv
		}
		means[u] = mean
	}

	m, err := matrix.NewDense(nu, nu)
	if err != nil {
		return nil, rsaErrorf(op, err)
	}
	for i := 0; i < nu; i++ {
		for j := i + 1; j < nu; j++ {
			r, err := matrix.Pearson(means[i], means[j])
			if err != nil {
				if errors.Is(err, matrix.ErrZeroVariance) || errors.Is(err, matrix.ErrTooFewObservations) {
					return nil, fmt.Errorf("%s: condition %q vs %q over %d voxels: %w: %w",
						op, layout.units[i].Label, layout.units[j].Label, nv, ErrDegenerateCondition, err)
				}
				return nil, rsaErrorf(op, err)
			}
			if err = m.SetSymmetric(i, j, 1-r); err != nil {
				return nil, rsaErrorf(op, err)
			}
		}
	}

	return &RDM{m: m, layout: layout}, nil
}
