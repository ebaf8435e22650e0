// SPDX-License-Identifier: MIT

package searchlight

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/trossi/searchlight/rsa"
	"github.com/trossi/searchlight/volume"
)

// FlagCounts tallies flagged locations by cause.
type FlagCounts struct {
	// Degenerate counts locations whose RDM could not be built
	// (rsa.ErrDegenerateCondition).
	Degenerate int
	// Undefined counts locations whose RDM comparison had no rank spread or
	// too few pairs (rsa.ErrUndefinedScore).
	Undefined int
}

// Total returns the number of flagged locations.
func (c FlagCounts) Total() int { return c.Degenerate + c.Undefined }

// Result is the outcome of Run.
type Result struct {
	// Scores holds one value per voxel: the RSA score inside the mask, 0
	// outside it, NaN at flagged locations.
	Scores *volume.Scalar
	// Flagged holds the row-major flat indices whose score was undefined.
	Flagged *roaring.Bitmap
	// FlagCounts splits Flagged by cause.
	FlagCounts FlagCounts
	// Visited is the number of masked locations processed.
	Visited int
	// Geometry is the ball used at every location.
	Geometry Geometry
	// Layout is the unit order shared by every data RDM and the model.
	Layout *rsa.Layout
	// Model is the model RDM every location was scored against.
	Model *rsa.RDM
	// Elapsed is the wall time of the iteration phase.
	Elapsed time.Duration
}

// IsFlagged reports whether flat index idx was flagged.
func (r *Result) IsFlagged(idx int) bool {
	return idx >= 0 && r.Flagged.Contains(uint32(idx))
}
