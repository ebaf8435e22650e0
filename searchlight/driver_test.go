// SPDX-License-Identifier: MIT
package searchlight_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trossi/searchlight/rsa"
	"github.com/trossi/searchlight/searchlight"
	"github.com/trossi/searchlight/volume"
)

const tol = 1e-12

// designLabels is 2 conditions × 3 samples.
var designLabels = []string{"A", "A", "A", "B", "B", "B"}

// ramp is 1 + x + 3y + 9z (generalized to any rank): never constant over two
// or more voxels.
func ramp(c []int) float64 {
	v, w := 1.0, 1.0
	for _, x := range c {
		v += w * float64(x)
		w *= 3
	}
	return v
}

// signedRampVolume sets sample s of every voxel to signs[s]·ramp(coord).
func signedRampVolume(t *testing.T, signs []float64, dims ...int) *volume.Volume {
	t.Helper()
	shape, err := volume.NewShape(dims...)
	require.NoError(t, err)
	v, err := volume.FromFunc(shape, len(signs), func(c []int, s int) float64 {
		return signs[s] * ramp(c)
	})
	require.NoError(t, err)
	return v
}

func randomVolume(t *testing.T, samples int, dims ...int) *volume.Volume {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	shape, err := volume.NewShape(dims...)
	require.NoError(t, err)
	v, err := volume.FromFunc(shape, samples, func([]int, int) float64 { return rng.NormFloat64() })
	require.NoError(t, err)
	return v
}

func fullMask(t *testing.T, vol *volume.Volume) *volume.Mask {
	t.Helper()
	m, err := volume.FullMask(vol.Shape())
	require.NoError(t, err)
	return m
}

// With A1..A3 = +ramp, B1 = B2 = −ramp, B3 = +ramp every neighborhood has
// correlations of exactly ±1, so the data RDM holds 0 and 2 only:
//
//	data\model   1   0
//	    2        6   2
//	    0        3   4
//
// Spearman on two-valued triangles is the phi coefficient:
// (6·4 − 2·3) / sqrt(8·7·9·6) = sqrt(3/28).
func TestRun_EndToEnd3x3x3(t *testing.T) {
	vol := signedRampVolume(t, []float64{1, 1, 1, -1, -1, 1}, 3, 3, 3)
	res, err := searchlight.Run(context.Background(), vol, fullMask(t, vol), designLabels,
		searchlight.WithRadius(1))
	require.NoError(t, err)
	require.Equal(t, 27, res.Visited)
	require.Zero(t, res.FlagCounts.Total())
	require.True(t, res.Flagged.IsEmpty())

	want := math.Sqrt(3.0 / 28.0)
	center, err := res.Scores.AtCoord([]int{1, 1, 1})
	require.NoError(t, err)
	require.InDelta(t, want, center, tol)

	corner, err := res.Scores.AtCoord([]int{0, 0, 0})
	require.NoError(t, err)
	require.False(t, math.IsNaN(corner))
	require.InDelta(t, want, corner, tol)
}

func TestRun_PerfectModelFit(t *testing.T) {
	vol := signedRampVolume(t, []float64{1, 1, 1, -1, -1, -1}, 3, 3, 3)
	res, err := searchlight.Run(context.Background(), vol, fullMask(t, vol), designLabels,
		searchlight.WithRadius(1))
	require.NoError(t, err)
	for _, v := range res.Scores.Values() {
		require.InDelta(t, 1.0, v, tol)
	}
	require.Equal(t, 6, res.Layout.Len())
	require.Equal(t, 6, res.Model.Rows())
}

func TestRun_RadiusZeroFlagsEveryLocation(t *testing.T) {
	vol := randomVolume(t, 6, 3, 3, 3)
	mask, err := volume.MaskFromCoords(vol.Shape(), []int{0, 0, 0}, []int{1, 1, 1}, []int{2, 1, 0})
	require.NoError(t, err)

	res, err := searchlight.Run(context.Background(), vol, mask, designLabels,
		searchlight.WithRadius(0))
	require.NoError(t, err)
	require.Equal(t, 1, res.Geometry.Len())
	require.Equal(t, 3, res.Visited)
	require.Equal(t, 3, res.FlagCounts.Degenerate)
	require.Equal(t, uint64(3), res.Flagged.GetCardinality())

	shape := vol.Shape()
	for idx, v := range res.Scores.Values() {
		if mask.Contains(idx) {
			require.True(t, math.IsNaN(v), "masked voxel %d", idx)
			require.True(t, res.IsFlagged(idx))
			// every unit of a one-voxel neighborhood holds a single sample value
			c, _ := shape.Coordinate(idx)
			nb, err := searchlight.Extract(vol, res.Geometry, c)
			require.NoError(t, err)
			require.Equal(t, 1, nb.Len())
			_, err = rsa.BuildRDM(nb, res.Layout)
			require.ErrorIs(t, err, rsa.ErrDegenerateCondition)
			continue
		}
		require.Zero(t, v)
		require.False(t, res.IsFlagged(idx))
	}
}

func TestRun_RadiusZeroFailPolicy(t *testing.T) {
	vol := randomVolume(t, 6, 3, 3, 3)
	_, err := searchlight.Run(context.Background(), vol, fullMask(t, vol), designLabels,
		searchlight.WithRadius(0),
		searchlight.WithDegeneratePolicy(searchlight.PolicyFail))
	require.ErrorIs(t, err, rsa.ErrDegenerateCondition)
	require.ErrorContains(t, err, "voxel [0 0 0]")
}

func TestRun_ModelWithoutRankSpreadAbortsSetup(t *testing.T) {
	ctx := context.Background()
	threeConditions := []string{"a", "b", "c", "a", "b", "c", "a", "b", "c"}

	tests := []struct {
		name   string
		labels []string
	}{
		{"two conditions", designLabels},
		{"categorical over three conditions", threeConditions},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vol := randomVolume(t, len(tc.labels), 4, 4, 4)
			var visited int
			res, err := searchlight.Run(ctx, vol, fullMask(t, vol), tc.labels,
				searchlight.WithRadius(1),
				searchlight.WithGranularity(rsa.PerCondition),
				searchlight.WithProgress(func(done, _ int) { visited = done }))
			require.ErrorIs(t, err, rsa.ErrUndefinedScore)
			require.Nil(t, res)
			require.Zero(t, visited)
		})
	}
}

func TestRun_PerConditionOrdinal(t *testing.T) {
	labels := []string{"a", "b", "c", "a", "b", "c", "a", "b", "c"}
	vol := randomVolume(t, len(labels), 4, 4, 4)
	mask := fullMask(t, vol)

	for _, workers := range []int{1, 3} {
		res, err := searchlight.Run(context.Background(), vol, mask, labels,
			searchlight.WithRadius(1),
			searchlight.WithWorkers(workers),
			searchlight.WithGranularity(rsa.PerCondition),
			searchlight.WithHypothesis(rsa.Ordinal("a", "b", "c")))
		require.NoError(t, err)
		require.Equal(t, 64, res.Visited)
		require.Zero(t, res.FlagCounts.Total())
		require.Equal(t, 3, res.Layout.Len())

		for idx, v := range res.Scores.Values() {
			require.False(t, math.IsNaN(v), "voxel %d", idx)
			require.LessOrEqual(t, math.Abs(v), 1.0+tol)
		}
	}
}

func TestRun_IsolatedEdgeVoxel(t *testing.T) {
	vol := signedRampVolume(t, []float64{1, 1, 1, -1, -1, 1}, 4, 4, 4)
	mask, err := volume.MaskFromCoords(vol.Shape(), []int{0, 3, 2})
	require.NoError(t, err)

	res, err := searchlight.Run(context.Background(), vol, mask, designLabels,
		searchlight.WithRadius(20))
	require.NoError(t, err)
	require.Equal(t, 1, res.Visited)

	for idx, v := range res.Scores.Values() {
		if mask.Contains(idx) {
			require.InDelta(t, math.Sqrt(3.0/28.0), v, tol)
			continue
		}
		require.Zero(t, v)
	}
}

func TestRun_HugeRadiusIsClamped(t *testing.T) {
	vol := randomVolume(t, 6, 3, 3, 3)
	mask := fullMask(t, vol)

	huge, err := searchlight.Run(context.Background(), vol, mask, designLabels,
		searchlight.WithRadius(1<<30))
	require.NoError(t, err)
	require.Equal(t, 4, huge.Geometry.Radius())
	require.Equal(t, 27, huge.Visited)

	exact, err := searchlight.Run(context.Background(), vol, mask, designLabels,
		searchlight.WithRadius(4))
	require.NoError(t, err)
	require.Equal(t, exact.Scores.Values(), huge.Scores.Values())
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	vol := randomVolume(t, 8, 6, 5, 4)
	labels := []string{"a", "b", "c", "d", "a", "b", "c", "d"}
	mask := fullMask(t, vol)

	seq, err := searchlight.Run(context.Background(), vol, mask, labels, searchlight.WithRadius(1))
	require.NoError(t, err)
	for _, workers := range []int{2, 4, 16} {
		par, err := searchlight.Run(context.Background(), vol, mask, labels,
			searchlight.WithRadius(1), searchlight.WithWorkers(workers))
		require.NoError(t, err)
		require.Equal(t, seq.Scores.Values(), par.Scores.Values(), "workers=%d", workers)
		require.Equal(t, seq.Visited, par.Visited)
		require.True(t, seq.Flagged.Equals(par.Flagged))
	}
}

func TestRun_ParallelFlagsMatchSequential(t *testing.T) {
	vol := randomVolume(t, 6, 4, 4, 4)
	mask := fullMask(t, vol)
	seq, err := searchlight.Run(context.Background(), vol, mask, designLabels, searchlight.WithRadius(0))
	require.NoError(t, err)
	par, err := searchlight.Run(context.Background(), vol, mask, designLabels,
		searchlight.WithRadius(0), searchlight.WithWorkers(3))
	require.NoError(t, err)
	require.Equal(t, seq.FlagCounts, par.FlagCounts)
	require.True(t, seq.Flagged.Equals(par.Flagged))
	require.Equal(t, uint64(64), par.Flagged.GetCardinality())
}

func TestRun_Progress(t *testing.T) {
	vol := randomVolume(t, 6, 3, 3, 3)
	mask := fullMask(t, vol)
	for _, workers := range []int{1, 4} {
		var calls, last int
		_, err := searchlight.Run(context.Background(), vol, mask, designLabels,
			searchlight.WithRadius(1),
			searchlight.WithWorkers(workers),
			searchlight.WithProgress(func(done, total int) {
				calls++
				last = done
				assert.Equal(t, 27, total)
			}))
		require.NoError(t, err)
		require.Equal(t, 27, calls)
		require.Equal(t, 27, last)
	}
}

func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	vol := randomVolume(t, 6, 2, 2, 2)
	_, err := searchlight.Run(context.Background(), vol, fullMask(t, vol), designLabels,
		searchlight.WithRadius(0),
		searchlight.WithLogger(logger),
		searchlight.WithProgressInterval(0))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "searchlight start")
	require.Contains(t, out, "masked=8")
	require.Contains(t, out, "location flagged")
	require.Contains(t, out, "kind=degenerate")
	require.Contains(t, out, "searchlight progress")
	require.Contains(t, out, "searchlight done")
}

func TestRun_Cancellation(t *testing.T) {
	vol := randomVolume(t, 6, 4, 4, 4)
	mask := fullMask(t, vol)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		_, err := searchlight.Run(ctx, vol, mask, designLabels, searchlight.WithWorkers(workers))
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	var seen atomic.Int64
	_, err := searchlight.Run(ctx, vol, mask, designLabels,
		searchlight.WithRadius(1),
		searchlight.WithProgress(func(done, _ int) {
			seen.Store(int64(done))
			if done == 5 {
				cancel()
			}
		}))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int64(5), seen.Load())
}

func TestRun_SetupErrors(t *testing.T) {
	vol := randomVolume(t, 6, 3, 3, 3)
	mask := fullMask(t, vol)
	ctx := context.Background()

	_, err := searchlight.Run(ctx, vol, mask, designLabels[:5])
	require.ErrorIs(t, err, searchlight.ErrLabelCount)

	small, _ := volume.FullMask(volume.Shape{3, 3})
	_, err = searchlight.Run(ctx, vol, small, designLabels)
	require.ErrorIs(t, err, volume.ErrDimensionMismatch)

	_, err = searchlight.Run(ctx, vol, mask, designLabels, searchlight.WithRadius(-2))
	require.ErrorIs(t, err, searchlight.ErrInvalidRadius)

	_, err = searchlight.Run(ctx, nil, mask, designLabels)
	require.ErrorIs(t, err, searchlight.ErrNilInput)

	_, err = searchlight.Run(ctx, vol, mask, designLabels,
		searchlight.WithDegeneratePolicy(searchlight.DegeneratePolicy(9)))
	require.ErrorIs(t, err, searchlight.ErrInvalidPolicy)

	_, err = searchlight.Run(ctx, vol, mask, designLabels, searchlight.WithHypothesis(rsa.Ordinal("A")))
	require.ErrorIs(t, err, rsa.ErrUnknownCondition)

	_, err = searchlight.Run(ctx, vol, mask, designLabels, searchlight.WithGranularity(rsa.Granularity(5)))
	require.ErrorIs(t, err, rsa.ErrInvalidGranularity)
}

func TestParsePolicy(t *testing.T) {
	p, err := searchlight.ParsePolicy("FAIL")
	require.NoError(t, err)
	require.Equal(t, searchlight.PolicyFail, p)
	require.Equal(t, "fail", p.String())

	p, err = searchlight.ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, searchlight.PolicyFlag, p)

	_, err = searchlight.ParsePolicy("ignore")
	require.ErrorIs(t, err, searchlight.ErrInvalidPolicy)
}
