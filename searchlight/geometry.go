// SPDX-License-Identifier: MIT
// Package: searchlight
//
// Purpose:
//   - Enumerate the integer offsets of an n-dimensional ball once per run, so
//     every location reuses the same immutable offset list.
//
// Determinism:
//   - Offsets come out in lexicographic order (first axis slowest), the order
//     the bounding cube [-r, r]^n is walked in.

package searchlight

import (
	"fmt"
	"math"

	"github.com/trossi/searchlight/volume"
)

const opBuildGeometry = "BuildGeometry"

// maxGeometryCells caps the bounding cube BuildGeometry walks: 2^28 cells is
// radius 322 in 3-D, far beyond any volume the driver can be handed.
const maxGeometryCells = 1 << 28

// Geometry is the ordered set of offsets making up a searchlight ball.
// The zero offset is always present. The value is immutable and safe to share.
type Geometry struct {
	radius  int
	ndim    int
	offsets [][]int
}

// BuildGeometry returns every integer offset v of dimension ndim with
// Σ v_i² ≤ radius².
//
// Errors: ErrInvalidRadius (radius < 0, or more than 2^28 cube cells),
// volume.ErrInvalidShape (ndim < 1).
// Complexity: O((2r+1)^ndim · ndim).
func BuildGeometry(radius, ndim int) (Geometry, error) {
	if radius < 0 {
		return Geometry{}, fmt.Errorf("%s(%d): %w", opBuildGeometry, radius, ErrInvalidRadius)
	}
	if ndim < 1 {
		return Geometry{}, slErrorf(opBuildGeometry, volume.ErrInvalidShape)
	}

	if radius > (maxGeometryCells-1)/2 {
		return Geometry{}, fmt.Errorf("%s(%d): bounding cube too large: %w", opBuildGeometry, radius, ErrInvalidRadius)
	}
	side := 2*radius + 1
	total := 1
	for i := 0; i < ndim; i++ {
		if total > maxGeometryCells/side {
			return Geometry{}, fmt.Errorf("%s(%d): %d-d bounding cube too large: %w", opBuildGeometry, radius, ndim, ErrInvalidRadius)
		}
		total *= side
	}
	r2 := radius * radius

	g := Geometry{radius: radius, ndim: ndim}
	cur := make([]int, ndim)
	for k := 0; k < total; k++ {
		// decode k in base side, last axis fastest
		rem, n2 := k, 0
		for i := ndim - 1; i >= 0; i-- {
			cur[i] = rem%side - radius
			rem /= side
			n2 += cur[i] * cur[i]
		}
		if n2 <= r2 {
			g.offsets = append(g.offsets, append([]int(nil), cur...))
		}
	}

	return g, nil
}

// ReachRadius is the smallest radius whose ball holds every offset between
// two voxels of shape. Any larger radius clips to the same neighborhoods.
func ReachRadius(shape volume.Shape) int {
	s := 0
	for _, d := range shape {
		s += (d - 1) * (d - 1)
	}
	r := int(math.Sqrt(float64(s)))
	for r*r < s {
		r++
	}

	return r
}

// Len returns the number of offsets.
func (g Geometry) Len() int { return len(g.offsets) }

// Radius returns the radius the geometry was built with.
func (g Geometry) Radius() int { return g.radius }

// NDim returns the offset dimensionality.
func (g Geometry) NDim() int { return g.ndim }

// Offsets returns a deep copy of the offsets.
func (g Geometry) Offsets() [][]int {
	out := make([][]int, len(g.offsets))
	for i, o := range g.offsets {
		out[i] = append([]int(nil), o...)
	}

	return out
}
