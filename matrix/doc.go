// SPDX-License-Identifier: MIT

// Package matrix provides the small dense-matrix toolkit used by the RSA engine.
//
// What is inside:
//
//   - Dense: a row-major float64 matrix with bounds-checked At/Set that return
//     errors instead of panicking.
//   - Validators: square, same-shape, symmetric and zero-diagonal checks that
//     return package sentinels (match them with errors.Is).
//   - Triangle helpers: UpperTriangle flattens the strict upper triangle in a
//     fixed row-major order, Permute reorders rows and columns together.
//   - Statistics: Pearson correlation (gonum/stat), average-tie ranking and
//     Spearman rank correlation.
//
// Determinism:
//
//	Every loop runs in a fixed i→j order and no map iteration is involved, so
//	two runs over the same input produce bit-identical output.
//
// Quick example:
//
//	m, _ := matrix.NewDense(3, 3)
//	_ = m.SetSymmetric(0, 1, 0.5)
//	tri, _ := matrix.UpperTriangle(m) // [0.5, 0, 0]
package matrix
