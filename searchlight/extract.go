// SPDX-License-Identifier: MIT

package searchlight

import (
	"fmt"

	"github.com/trossi/searchlight/rsa"
	"github.com/trossi/searchlight/volume"
)

const opExtract = "Extract"

// Neighborhood is the in-bounds part of a searchlight ball around one center.
// Patterns are read-only views into the source volume.
type Neighborhood struct {
	center   []int
	indices  []int
	coords   [][]int
	patterns [][]float64
}

var _ rsa.PatternSource = (*Neighborhood)(nil)

// Extract places geom at center and keeps the offsets that land inside vol.
// Neighborhoods at the volume edge are smaller than geom; they are never padded
// or wrapped. The volume is not modified.
//
// Errors: volume.ErrDimensionMismatch (center or geometry dimensionality differs
// from the volume), ErrEmptyNeighborhood (center outside the volume).
func Extract(vol *volume.Volume, geom Geometry, center []int) (*Neighborhood, error) {
	shape := vol.Shape()
	if len(center) != shape.NDim() || geom.ndim != shape.NDim() {
		return nil, fmt.Errorf("%s: center %v, geometry %dD, volume %s: %w",
			opExtract, center, geom.ndim, shape, volume.ErrDimensionMismatch)
	}
	if !shape.InBounds(center) {
		return nil, fmt.Errorf("%s: center %v outside %s: %w", opExtract, center, shape, ErrEmptyNeighborhood)
	}

	nb := &Neighborhood{
		center:   append([]int(nil), center...),
		indices:  make([]int, 0, geom.Len()),
		coords:   make([][]int, 0, geom.Len()),
		patterns: make([][]float64, 0, geom.Len()),
	}
	cand := make([]int, shape.NDim())
	for _, off := range geom.offsets {
		for i := range cand {
			cand[i] = center[i] + off[i]
		}
		if !shape.InBounds(cand) {
			continue
		}
		idx, err := shape.Index(cand)
		if err != nil {
			return nil, slErrorf(opExtract, err)
		}
		p, err := vol.Pattern(idx)
		if err != nil {
			return nil, slErrorf(opExtract, err)
		}
		nb.indices = append(nb.indices, idx)
		nb.coords = append(nb.coords, append([]int(nil), cand...))
		nb.patterns = append(nb.patterns, p)
	}
	if len(nb.patterns) == 0 {
		return nil, slErrorf(opExtract, ErrEmptyNeighborhood)
	}

	return nb, nil
}

// Len returns the number of in-bounds voxels.
func (n *Neighborhood) Len() int { return len(n.patterns) }

// Pattern returns the sample vector of the i-th voxel (geometry order).
func (n *Neighborhood) Pattern(i int) []float64 { return n.patterns[i] }

// Center returns the center coordinate.
func (n *Neighborhood) Center() []int { return append([]int(nil), n.center...) }

// Indices returns the row-major flat indices of the voxels, in geometry order.
func (n *Neighborhood) Indices() []int { return append([]int(nil), n.indices...) }

// Coords returns the absolute coordinates of the voxels, in geometry order.
func (n *Neighborhood) Coords() [][]int {
	out := make([][]int, len(n.coords))
	for i, c := range n.coords {
		out[i] = append([]int(nil), c...)
	}

	return out
}
