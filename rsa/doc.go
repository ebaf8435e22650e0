// SPDX-License-Identifier: MIT

// Package rsa builds representational dissimilarity matrices (RDMs) and
// compares them.
//
// The pieces:
//
//   - Layout: the single ordered list of RDM units (one per sample, or one
//     per distinct condition). Both the empirical and the model RDM are built
//     from the same *Layout, so row i always means the same condition.
//   - BuildRDM: 1 − Pearson(mean_i, mean_j) between unit mean patterns of a
//     searchlight neighborhood.
//   - BuildModelRDM: the hypothesis matrix, from a Hypothesis over labels
//     (Categorical by default).
//   - Score: Spearman rank correlation between the strict upper triangles.
//
// Undefined results are errors, never zeros: a unit whose mean pattern has no
// spread yields ErrDegenerateCondition, and a comparison with fewer than two
// pairs or a constant triangle yields ErrUndefinedScore.
package rsa
