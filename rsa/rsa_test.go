// SPDX-License-Identifier: MIT
package rsa_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trossi/searchlight/matrix"
	"github.com/trossi/searchlight/rsa"
)

const tol = 1e-12

// patterns is a PatternSource backed by a voxel × sample table.
type patterns [][]float64

func (p patterns) Len() int                { return len(p) }
func (p patterns) Pattern(i int) []float64 { return p[i] }

// threeVoxels holds 4 samples labelled b, a, b, a.
var (
	fourLabels  = []string{"b", "a", "b", "a"}
	threeVoxels = patterns{
		{1, 2, 3, 4},
		{5, 0, 7, 2},
		{0, 4, 2, 6},
	}
)

func mustLayout(t *testing.T, labels []string, g rsa.Granularity) *rsa.Layout {
	t.Helper()
	l, err := rsa.NewLayout(labels, g)
	require.NoError(t, err)
	return l
}

func mustRDM(t *testing.T, rows [][]float64, l *rsa.Layout) *rsa.RDM {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)
	r, err := rsa.NewRDM(m, l)
	require.NoError(t, err)
	return r
}

func TestNewLayout_PerSample(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	require.Equal(t, 4, l.Len())
	require.Equal(t, 4, l.NSamples())
	require.Equal(t, []string{"a", "a", "b", "b"}, l.Labels())
	require.Equal(t, []string{"a", "b"}, l.Conditions())
	// stable: sample 1 before sample 3, sample 0 before sample 2
	require.Equal(t, []int{1}, l.Unit(0).Members)
	require.Equal(t, []int{3}, l.Unit(1).Members)
	require.Equal(t, []int{0}, l.Unit(2).Members)
	require.Equal(t, []int{2}, l.Unit(3).Members)
}

func TestNewLayout_PerCondition(t *testing.T) {
	l := mustLayout(t, []string{"c", "a", "c", "b", "a"}, rsa.PerCondition)
	require.Equal(t, []string{"a", "b", "c"}, l.Labels())
	require.Equal(t, []int{1, 4}, l.Unit(0).Members)
	require.Equal(t, []int{3}, l.Unit(1).Members)
	require.Equal(t, []int{0, 2}, l.Unit(2).Members)
}

func TestNewLayout_Errors(t *testing.T) {
	_, err := rsa.NewLayout(nil, rsa.PerSample)
	require.ErrorIs(t, err, rsa.ErrEmptyLayout)
	_, err = rsa.NewLayout([]string{"a"}, rsa.Granularity(7))
	require.ErrorIs(t, err, rsa.ErrInvalidGranularity)
}

func TestParseGranularity(t *testing.T) {
	g, err := rsa.ParseGranularity("Condition")
	require.NoError(t, err)
	require.Equal(t, rsa.PerCondition, g)
	require.Equal(t, "condition", g.String())

	g, err = rsa.ParseGranularity("")
	require.NoError(t, err)
	require.Equal(t, rsa.PerSample, g)

	_, err = rsa.ParseGranularity("voxel")
	require.ErrorIs(t, err, rsa.ErrInvalidGranularity)
}

func TestLayout_UnitIsCopy(t *testing.T) {
	l := mustLayout(t, []string{"a", "a"}, rsa.PerCondition)
	u := l.Unit(0)
	u.Members[0] = 99
	require.Equal(t, []int{0, 1}, l.Unit(0).Members)
}

func TestLayout_PermuteAndEqual(t *testing.T) {
	l := mustLayout(t, []string{"a", "b", "c"}, rsa.PerSample)
	p, err := l.Permute([]int{2, 0, 1})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, p.Labels())
	require.False(t, l.Equal(p))
	require.True(t, l.Equal(mustLayout(t, []string{"a", "b", "c"}, rsa.PerSample)))

	_, err = l.Permute([]int{0, 0, 1})
	require.ErrorIs(t, err, rsa.ErrBadPermutation)
}

func TestBuildRDM_PerCondition(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerCondition)
	r, err := rsa.BuildRDM(threeVoxels, l)
	require.NoError(t, err)
	require.Equal(t, 2, r.Rows())

	// mean_a = [3,1,5], mean_b = [2,6,1]: sxy=-10, sxx=8, syy=14.
	want := 1 + 10/math.Sqrt(112)
	v, err := r.At(0, 1)
	require.NoError(t, err)
	require.InDelta(t, want, v, tol)
	require.NoError(t, matrix.ValidateDissimilarity(r, 0))
}

func TestBuildRDM_PerSampleIsSymmetricZeroDiagonal(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	r, err := rsa.BuildRDM(threeVoxels, l)
	require.NoError(t, err)
	require.Equal(t, 4, r.Rows())
	require.NoError(t, matrix.ValidateSymmetric(r, 0))
	require.NoError(t, matrix.ValidateZeroDiagonal(r, 0))
	require.Same(t, l, r.Layout())

	// Unit 0 is sample 1 = [2,0,4], unit 2 is sample 0 = [1,5,0].
	// devs [0,-2,2] and [-1,3,-2]: r = -10/sqrt(8*14).
	v, _ := r.At(0, 2)
	require.InDelta(t, 1+10/math.Sqrt(112), v, tol)
}

func TestBuildRDM_DegenerateSingleVoxel(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	_, err := rsa.BuildRDM(patterns{{1, 2, 3, 4}}, l)
	require.ErrorIs(t, err, rsa.ErrDegenerateCondition)
}

func TestBuildRDM_DegenerateConstantPattern(t *testing.T) {
	l := mustLayout(t, []string{"a", "b", "c"}, rsa.PerSample)
	// Sample "b" reads 7 in every voxel.
	_, err := rsa.BuildRDM(patterns{{1, 7, 3}, {2, 7, 1}, {5, 7, 0}}, l)
	require.ErrorIs(t, err, rsa.ErrDegenerateCondition)
	require.ErrorContains(t, err, `"b"`)
}

func TestBuildRDM_InputErrors(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	_, err := rsa.BuildRDM(patterns{}, l)
	require.ErrorIs(t, err, rsa.ErrNoPatterns)
	_, err = rsa.BuildRDM(patterns{{1, 2}, {3, 4}}, l)
	require.ErrorIs(t, err, rsa.ErrSampleCountMismatch)
	_, err = rsa.BuildRDM(threeVoxels, nil)
	require.ErrorIs(t, err, rsa.ErrEmptyLayout)
}

func TestBuildModelRDM_Categorical(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	m, err := rsa.BuildModelRDM(l, nil)
	require.NoError(t, err)
	require.Equal(t, "[0, 0, 1, 1]\n[0, 0, 1, 1]\n[1, 1, 0, 0]\n[1, 1, 0, 0]\n", m.String())
	require.NoError(t, matrix.ValidateDissimilarity(m, 0))
}

func TestBuildModelRDM_OrdinalAndTable(t *testing.T) {
	l := mustLayout(t, []string{"low", "mid", "high"}, rsa.PerCondition)
	// layout order is lexicographic: high, low, mid
	m, err := rsa.BuildModelRDM(l, rsa.Ordinal("low", "mid", "high"))
	require.NoError(t, err)
	require.Equal(t, "[0, 2, 1]\n[2, 0, 1]\n[1, 1, 0]\n", m.String())

	tbl := rsa.HypothesisFromTable(map[[2]string]float64{
		{"low", "high"}: 3,
		{"mid", "low"}:  1,
		{"high", "mid"}: 2,
	})
	m, err = rsa.BuildModelRDM(l, tbl)
	require.NoError(t, err)
	require.Equal(t, "[0, 3, 2]\n[3, 0, 1]\n[2, 1, 0]\n", m.String())
}

func TestBuildModelRDM_Errors(t *testing.T) {
	l := mustLayout(t, []string{"a", "b"}, rsa.PerCondition)

	_, err := rsa.BuildModelRDM(l, rsa.HypothesisFromTable(nil))
	require.ErrorIs(t, err, rsa.ErrUnknownCondition)

	_, err = rsa.BuildModelRDM(l, rsa.Ordinal("a"))
	require.ErrorIs(t, err, rsa.ErrUnknownCondition)

	neg := func(_, _ string) (float64, error) { return -1, nil }
	_, err = rsa.BuildModelRDM(l, neg)
	require.ErrorIs(t, err, rsa.ErrInvalidHypothesis)

	nan := func(_, _ string) (float64, error) { return math.NaN(), nil }
	_, err = rsa.BuildModelRDM(l, nan)
	require.ErrorIs(t, err, rsa.ErrInvalidHypothesis)

	_, err = rsa.BuildModelRDM(nil, nil)
	require.ErrorIs(t, err, rsa.ErrEmptyLayout)
}

func TestNewRDM_Validation(t *testing.T) {
	m, _ := matrix.NewDenseFromRows([][]float64{{0, 1}, {2, 0}})
	_, err := rsa.NewRDM(m, nil)
	require.ErrorIs(t, err, rsa.ErrInvalidRDM)
	require.ErrorIs(t, err, matrix.ErrAsymmetry)

	ok, _ := matrix.NewDenseFromRows([][]float64{{0, 1}, {1, 0}})
	_, err = rsa.NewRDM(ok, mustLayout(t, []string{"a", "b", "c"}, rsa.PerSample))
	require.ErrorIs(t, err, rsa.ErrRDMDimensionMismatch)
}

func TestScore_HandComputed(t *testing.T) {
	l := mustLayout(t, []string{"a", "b", "c"}, rsa.PerCondition)
	data := mustRDM(t, [][]float64{
		{0, 0.2, 0.9},
		{0.2, 0, 0.7},
		{0.9, 0.7, 0},
	}, l)
	model, err := rsa.BuildModelRDM(l, rsa.Ordinal("a", "b", "c"))
	require.NoError(t, err)

	// data ranks [1,3,2], model triangle [1,2,1] ranks [1.5,3,1.5]:
	// sxy = 1.5, sxx = 2, syy = 1.5 → rho = 1.5/sqrt(3).
	rho, err := rsa.Score(data, model)
	require.NoError(t, err)
	require.InDelta(t, 1.5/math.Sqrt(3), rho, tol)
}

func TestScore_SelfSimilarityIsOne(t *testing.T) {
	l := mustLayout(t, fourLabels, rsa.PerSample)
	model, err := rsa.BuildModelRDM(l, nil)
	require.NoError(t, err)
	rho, err := rsa.Score(model, model)
	require.NoError(t, err)
	require.InDelta(t, 1.0, rho, tol)

	data, err := rsa.BuildRDM(threeVoxels, l)
	require.NoError(t, err)
	rho, err = rsa.Score(data, data)
	require.NoError(t, err)
	require.InDelta(t, 1.0, rho, tol)
}

func TestScore_PermutationInvariant(t *testing.T) {
	l := mustLayout(t, []string{"a", "b", "c", "d"}, rsa.PerCondition)
	rows := [][]float64{
		{0, 0.3, 1.2, 0.8},
		{0.3, 0, 0.5, 1.9},
		{1.2, 0.5, 0, 0.1},
		{0.8, 1.9, 0.1, 0},
	}
	data := mustRDM(t, rows, l)
	model, err := rsa.BuildModelRDM(l, rsa.Ordinal("a", "b", "c", "d"))
	require.NoError(t, err)
	base, err := rsa.Score(data, model)
	require.NoError(t, err)

	perm := []int{2, 0, 3, 1}
	pl, err := l.Permute(perm)
	require.NoError(t, err)
	pd, err := data.Dense().Permute(perm)
	require.NoError(t, err)
	pm, err := model.Dense().Permute(perm)
	require.NoError(t, err)
	pdata, err := rsa.NewRDM(pd, pl)
	require.NoError(t, err)
	pmodel, err := rsa.NewRDM(pm, pl)
	require.NoError(t, err)

	got, err := rsa.Score(pdata, pmodel)
	require.NoError(t, err)
	require.InDelta(t, base, got, tol)
}

func TestScore_Errors(t *testing.T) {
	l3 := mustLayout(t, []string{"a", "b", "c"}, rsa.PerCondition)
	l4 := mustLayout(t, []string{"a", "b", "c", "d"}, rsa.PerCondition)
	m3, _ := rsa.BuildModelRDM(l3, rsa.Ordinal("a", "b", "c"))
	m4, _ := rsa.BuildModelRDM(l4, rsa.Ordinal("a", "b", "c", "d"))

	_, err := rsa.Score(m3, m4)
	require.ErrorIs(t, err, rsa.ErrRDMDimensionMismatch)

	// same size, different order
	p3, _ := l3.Permute([]int{1, 0, 2})
	other := mustRDM(t, [][]float64{{0, 1, 2}, {1, 0, 1}, {2, 1, 0}}, p3)
	_, err = rsa.Score(other, m3)
	require.ErrorIs(t, err, rsa.ErrRDMDimensionMismatch)

	// two units: a single pair
	l2 := mustLayout(t, []string{"a", "b"}, rsa.PerCondition)
	m2, _ := rsa.BuildModelRDM(l2, nil)
	_, err = rsa.Score(m2, m2)
	require.ErrorIs(t, err, rsa.ErrUndefinedScore)

	// categorical model over conditions: every pair equals 1, no rank spread
	flat, _ := rsa.BuildModelRDM(l3, nil)
	_, err = rsa.Score(m3, flat)
	require.ErrorIs(t, err, rsa.ErrUndefinedScore)

	_, err = rsa.Score(nil, m3)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestValidateModel(t *testing.T) {
	l3 := mustLayout(t, []string{"a", "b", "c"}, rsa.PerCondition)
	ordinal, err := rsa.BuildModelRDM(l3, rsa.Ordinal("a", "b", "c"))
	require.NoError(t, err)
	require.NoError(t, rsa.ValidateModel(ordinal))

	perSample, err := rsa.BuildModelRDM(mustLayout(t, fourLabels, rsa.PerSample), nil)
	require.NoError(t, err)
	require.NoError(t, rsa.ValidateModel(perSample))

	tests := []struct {
		name   string
		labels []string
		g      rsa.Granularity
	}{
		{"categorical over conditions", []string{"a", "b", "c", "a"}, rsa.PerCondition},
		{"single pair", []string{"a", "b"}, rsa.PerCondition},
		{"single unit", []string{"a", "a"}, rsa.PerCondition},
		{"one label per sample", []string{"a", "a", "a"}, rsa.PerSample},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model, err := rsa.BuildModelRDM(mustLayout(t, tc.labels, tc.g), nil)
			require.NoError(t, err)
			require.ErrorIs(t, rsa.ValidateModel(model), rsa.ErrUndefinedScore)
		})
	}

	require.ErrorIs(t, rsa.ValidateModel(nil), matrix.ErrNilMatrix)
}

func TestRDM_TypedNilIsRejected(t *testing.T) {
	var r *rsa.RDM
	require.True(t, r.IsNil())
	require.True(t, (&rsa.RDM{}).IsNil())
	require.ErrorIs(t, matrix.ValidateNotNil(r), matrix.ErrNilMatrix)
	require.ErrorIs(t, matrix.ValidateSquare(r), matrix.ErrNilMatrix)

	_, err := matrix.UpperTriangle(r)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)

	l3 := mustLayout(t, []string{"a", "b", "c"}, rsa.PerCondition)
	m3, err := rsa.BuildModelRDM(l3, rsa.Ordinal("a", "b", "c"))
	require.NoError(t, err)
	_, err = rsa.Score(m3, r)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
