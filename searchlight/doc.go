// SPDX-License-Identifier: MIT

// Package searchlight runs representational similarity analysis over a volume,
// one ball-shaped neighborhood at a time.
//
// For every voxel selected by a mask, the driver gathers the in-bounds voxels
// within a fixed radius (BuildGeometry, Extract), builds the neighborhood's
// empirical RDM and scores it against a model RDM built once from the sample
// labels (package rsa). The score lands in the matching cell of a Scalar
// volume.
//
//	res, err := searchlight.Run(ctx, vol, mask, labels,
//		searchlight.WithRadius(2),
//		searchlight.WithWorkers(runtime.NumCPU()),
//	)
//
// Locations are independent, so Run can fan them out over a bounded pool of
// goroutines; the result does not depend on the worker count. Locations whose
// score is undefined (a constant neighborhood pattern, fewer than three RDM
// units) are either flagged with NaN and recorded in Result.Flagged, or abort
// the run, depending on the DegeneratePolicy.
package searchlight
