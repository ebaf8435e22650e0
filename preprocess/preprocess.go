// SPDX-License-Identifier: MIT

// Package preprocess conditions voxel time courses before a searchlight run:
// linear detrending and z-scoring, both applied separately within each chunk
// (acquisition run) so drifts between runs do not leak into the patterns.
//
// Every function returns a new volume; inputs are never modified.
package preprocess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/trossi/searchlight/volume"
)

// ErrChunkCount indicates a chunk list whose length differs from the sample axis.
var ErrChunkCount = errors.New("preprocess: chunk count does not match samples")

// Options selects the steps Apply runs.
type Options struct {
	Detrend bool
	ZScore  bool
}

// DefaultOptions enables both steps.
func DefaultOptions() Options {
	return Options{Detrend: true, ZScore: true}
}

// Apply runs the enabled steps in the order detrend, z-score.
// With no step enabled the input volume is returned as is.
func Apply(vol *volume.Volume, chunks []int, opts Options) (*volume.Volume, error) {
	var err error
	if opts.Detrend {
		if vol, err = Detrend(vol, chunks); err != nil {
			return nil, err
		}
	}
	if opts.ZScore {
		if vol, err = ZScore(vol, chunks); err != nil {
			return nil, err
		}
	}

	return vol, nil
}

// Detrend removes, per voxel and chunk, the least-squares line fitted against
// the sample position inside the chunk. Single-sample chunks become 0.
// Errors: ErrChunkCount.
func Detrend(vol *volume.Volume, chunks []int) (*volume.Volume, error) {
	return perChunk("Detrend", vol, chunks, func(y, out []float64) {
		if len(y) < 2 {
			clear(out)
			return
		}
		x := make([]float64, len(y))
		for i := range x {
			x[i] = float64(i)
		}
		alpha, beta := stat.LinearRegression(x, y, nil, false)
		for i := range y {
			out[i] = y[i] - (alpha + beta*x[i])
		}
	})
}

// ZScore standardizes, per voxel and chunk, to zero mean and unit sample
// standard deviation. Series without spread (or a single sample) become 0.
// Errors: ErrChunkCount.
func ZScore(vol *volume.Volume, chunks []int) (*volume.Volume, error) {
	return perChunk("ZScore", vol, chunks, func(y, out []float64) {
		mean, std := stat.MeanStdDev(y, nil)
		if len(y) < 2 || std == 0 || math.IsNaN(std) {
			clear(out)
			return
		}
		for i, v := range y {
			out[i] = (v - mean) / std
		}
	})
}

// perChunk gathers every chunk's samples of a voxel into a contiguous buffer,
// runs f on it and scatters the result back.
func perChunk(op string, vol *volume.Volume, chunks []int, f func(y, out []float64)) (*volume.Volume, error) {
	groups, err := groupChunks(vol.NSamples(), chunks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	y := make([]float64, vol.NSamples())
	out := make([]float64, vol.NSamples())

	res, err := vol.Transform(func(_ int, src, dst []float64) error {
		for _, members := range groups {
			n := len(members)
			for k, s := range members {
				y[k] = src[s]
			}
			f(y[:n], out[:n])
			for k, s := range members {
				dst[s] = out[k]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// groupChunks returns the sample indices of each chunk, in order of first
// appearance, samples ascending within a chunk.
func groupChunks(samples int, chunks []int) ([][]int, error) {
	if len(chunks) != samples {
		return nil, fmt.Errorf("%d chunks for %d samples: %w", len(chunks), samples, ErrChunkCount)
	}
	pos := make(map[int]int)
	var groups [][]int
	for s, c := range chunks {
		g, ok := pos[c]
		if !ok {
			g = len(groups)
			pos[c] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], s)
	}

	return groups, nil
}
