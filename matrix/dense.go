// SPDX-License-Identifier: MIT

// Package matrix - Dense storage for dissimilarity matrices.
//
// Purpose:
//   - Keep cells in one row-major slice (offset i*cols + j).
//   - At/Set report bad indices as errors; nothing on the public surface panics.
//   - Reject NaN/Inf on Set so a dissimilarity matrix never silently carries an undefined cell.
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Clone: O(r*c); Permute: O(n²).

package matrix

import (
	"fmt"
	"math"
	"strings"
)

// ---------- error context tags ----------

const (
	ctxAt           = "At"
	ctxSet          = "Set"
	ctxSetSymmetric = "SetSymmetric"
	ctxFromRows     = "NewDenseFromRows"
	ctxPermute      = "Permute"
)

// ---------- Formatting literals ----------
const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// denseErrorf tags err with the Dense method and the offending cell.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a row-major float64 matrix; RDMs are square Dense values.
type Dense struct {
	r, c int
	data []float64
}

var (
	_ Matrix       = (*Dense)(nil)
	_ fmt.Stringer = (*Dense)(nil)
)

// NewDense creates an r×c zero matrix.
// Returns ErrInvalidDimensions unless rows>0 && cols>0.
// Complexity: O(r*c).
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewDenseFromRows copies a rectangular [][]float64 into a new Dense.
// Errors: ErrInvalidDimensions (empty), ErrDimensionMismatch (ragged),
// ErrNaNInf (non-finite cell).
func NewDenseFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, matrixErrorf(ctxFromRows, ErrInvalidDimensions)
	}
	m, err := NewDense(len(rows), len(rows[0]))
	if err != nil {
		return nil, matrixErrorf(ctxFromRows, err)
	}
	for i, row := range rows {
		if len(row) != m.c {
			return nil, matrixErrorf(ctxFromRows, ErrDimensionMismatch)
		}
		for j, v := range row {
			if err = m.Set(i, j, v); err != nil {
				return nil, matrixErrorf(ctxFromRows, err)
			}
		}
	}

	return m, nil
}

// Rows returns the row count. O(1).
func (m *Dense) Rows() int { return m.r }

// IsNil reports whether m is a nil *Dense. Validators use it to reject typed
// nils hidden behind the Matrix interface.
func (m *Dense) IsNil() bool { return m == nil }

// Cols returns the column count. O(1).
func (m *Dense) Cols() int { return m.c }

// Shape packs Rows() and Cols() into a single call.
func (m *Dense) Shape() (rows, cols int) { return m.r, m.c }

// indexOf maps (row, col) to a slice offset, or ErrOutOfRange.
func (m *Dense) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, ErrOutOfRange
	}

	return row*m.c + col, nil
}

// At returns element (row, col).
// Errors: ErrOutOfRange wrapped with coordinates.
func (m *Dense) At(row, col int) (float64, error) {
	off, err := m.indexOf(row, col)
	if err != nil {
		return 0, denseErrorf(ctxAt, row, col, err)
	}

	return m.data[off], nil
}

// Set writes v at (row, col).
// Errors: ErrOutOfRange, ErrNaNInf (non-finite v), both wrapped with coordinates.
func (m *Dense) Set(row, col int, v float64) error {
	off, err := m.indexOf(row, col)
	if err != nil {
		return denseErrorf(ctxSet, row, col, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return denseErrorf(ctxSet, row, col, ErrNaNInf)
	}
	m.data[off] = v

	return nil
}

// SetSymmetric writes v at (i, j) and (j, i) in one call.
// On a non-square matrix the mirrored write fails with ErrOutOfRange.
func (m *Dense) SetSymmetric(i, j int, v float64) error {
	if m.r != m.c {
		return denseErrorf(ctxSetSymmetric, i, j, ErrNonSquare)
	}
	if err := m.Set(i, j, v); err != nil {
		return err
	}

	return m.Set(j, i, v)
}

// Clone returns a deep copy. O(r*c).
func (m *Dense) Clone() *Dense {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)

	return &Dense{r: m.r, c: m.c, data: cp}
}

// Permute returns P·M·Pᵀ for the permutation perm: result[i][j] = m[perm[i]][perm[j]].
// Requires a square matrix and a bijection on 0..n-1.
// Errors: ErrNonSquare, ErrBadPermutation.
// Complexity: O(n²).
func (m *Dense) Permute(perm []int) (*Dense, error) {
	if m.r != m.c {
		return nil, matrixErrorf(ctxPermute, ErrNonSquare)
	}
	n := m.r
	if len(perm) != n {
		return nil, matrixErrorf(ctxPermute, ErrBadPermutation)
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return nil, matrixErrorf(ctxPermute, ErrBadPermutation)
		}
		seen[p] = true
	}

	out := &Dense{r: n, c: n, data: make([]float64, n*n)}
	var i, j int
	for i = 0; i < n; i++ {
		src := perm[i] * n
		dst := i * n
		for j = 0; j < n; j++ {
			out.data[dst+j] = m.data[src+perm[j]]
		}
	}

	return out, nil
}

// String renders the matrix one bracketed row per line.
func (m *Dense) String() string {
	var b strings.Builder
	var i, j, base int
	for i = 0; i < m.r; i++ {
		b.WriteString(_fmtRowOpen)
		base = i * m.c
		for j = 0; j < m.c; j++ {
			b.WriteString(fmt.Sprintf("%g", m.data[base+j]))
			if j+1 < m.c {
				b.WriteString(_fmtSep)
			}
		}
		b.WriteString(_fmtRowClose)
	}

	return b.String()
}

// Do calls f for every element in row-major order; f returns false to stop.
func (m *Dense) Do(f func(i, j int, v float64) bool) {
	var i, j, base int
	for i = 0; i < m.r; i++ {
		base = i * m.c
		for j = 0; j < m.c; j++ {
			if !f(i, j, m.data[base+j]) {
				return
			}
		}
	}
}
