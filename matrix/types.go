// SPDX-License-Identifier: MIT

package matrix

// Matrix is the read-only view every validator and statistic accepts.
// *Dense is the only implementation in this module; the interface exists so
// callers can pass wrappers (e.g. RDM types embedding *Dense).
type Matrix interface {
	// Rows returns the number of rows. O(1).
	Rows() int
	// Cols returns the number of columns. O(1).
	Cols() int
	// At returns element (i, j) or ErrOutOfRange. O(1).
	At(i, j int) (float64, error)
}
