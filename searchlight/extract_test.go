// SPDX-License-Identifier: MIT
package searchlight_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trossi/searchlight/searchlight"
	"github.com/trossi/searchlight/volume"
)

// indexVolume stores, in every sample of a voxel, the voxel's flat index plus
// the sample number, so a pattern identifies its source voxel.
func indexVolume(t *testing.T, samples int, dims ...int) *volume.Volume {
	t.Helper()
	shape, err := volume.NewShape(dims...)
	require.NoError(t, err)
	v, err := volume.FromFunc(shape, samples, func(c []int, s int) float64 {
		idx, _ := shape.Index(c)
		return float64(idx*10 + s)
	})
	require.NoError(t, err)
	return v
}

func mustGeometry(t *testing.T, r, ndim int) searchlight.Geometry {
	t.Helper()
	g, err := searchlight.BuildGeometry(r, ndim)
	require.NoError(t, err)
	return g
}

func TestExtract_InteriorIsUnclipped(t *testing.T) {
	vol := indexVolume(t, 2, 5, 5, 5)
	for r := 0; r <= 1; r++ {
		g := mustGeometry(t, r, 3)
		nb, err := searchlight.Extract(vol, g, []int{2, 2, 2})
		require.NoError(t, err)
		require.Equal(t, g.Len(), nb.Len())
	}
}

func TestExtract_PatternsMatchCoords(t *testing.T) {
	vol := indexVolume(t, 3, 4, 4, 4)
	shape := vol.Shape()
	nb, err := searchlight.Extract(vol, mustGeometry(t, 1, 3), []int{1, 2, 1})
	require.NoError(t, err)

	coords := nb.Coords()
	indices := nb.Indices()
	require.Len(t, coords, nb.Len())
	for i, c := range coords {
		idx, err := shape.Index(c)
		require.NoError(t, err)
		require.Equal(t, idx, indices[i])
		require.Equal(t, []float64{float64(idx * 10), float64(idx*10 + 1), float64(idx*10 + 2)}, nb.Pattern(i))
	}
	require.Equal(t, []int{1, 2, 1}, nb.Center())
}

func TestExtract_BoundaryClips(t *testing.T) {
	vol := indexVolume(t, 1, 5, 5, 5)
	g := mustGeometry(t, 1, 3)
	shape := vol.Shape()

	cases := map[string][]int{
		"face":   {0, 2, 2},
		"edge":   {0, 0, 2},
		"corner": {4, 4, 4},
	}
	want := map[string]int{"face": 6, "edge": 5, "corner": 4}
	for name, center := range cases {
		t.Run(name, func(t *testing.T) {
			nb, err := searchlight.Extract(vol, g, center)
			require.NoError(t, err)
			require.Less(t, nb.Len(), g.Len())
			require.Equal(t, want[name], nb.Len())
			for _, c := range nb.Coords() {
				require.True(t, shape.InBounds(c), "coord %v", c)
			}
		})
	}
}

func TestExtract_IsolatedEdgeVoxelHugeRadius(t *testing.T) {
	vol := indexVolume(t, 1, 3, 4, 2)
	g := mustGeometry(t, 10, 3)
	nb, err := searchlight.Extract(vol, g, []int{0, 3, 1})
	require.NoError(t, err)
	// the ball swallows the whole grid and nothing else
	require.Equal(t, 3*4*2, nb.Len())
	shape := vol.Shape()
	for _, c := range nb.Coords() {
		require.True(t, shape.InBounds(c))
	}
}

func TestExtract_DoesNotMutate(t *testing.T) {
	vol := indexVolume(t, 2, 3, 3)
	before, _ := vol.Pattern(4)
	snapshot := append([]float64(nil), before...)
	nb, err := searchlight.Extract(vol, mustGeometry(t, 1, 2), []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, 5, nb.Len())
	after, _ := vol.Pattern(4)
	require.Equal(t, snapshot, after)
}

func TestExtract_Errors(t *testing.T) {
	vol := indexVolume(t, 1, 3, 3, 3)
	g3 := mustGeometry(t, 1, 3)

	_, err := searchlight.Extract(vol, g3, []int{1, 1})
	require.ErrorIs(t, err, volume.ErrDimensionMismatch)

	_, err = searchlight.Extract(vol, mustGeometry(t, 1, 2), []int{1, 1, 1})
	require.ErrorIs(t, err, volume.ErrDimensionMismatch)

	_, err = searchlight.Extract(vol, g3, []int{3, 0, 0})
	require.ErrorIs(t, err, searchlight.ErrEmptyNeighborhood)
}
