// SPDX-License-Identifier: MIT
// Package: searchlight
//
// Purpose:
//   - Drive the per-location pipeline Extract → rsa.BuildRDM → rsa.Score over
//     every masked voxel and assemble the Scalar result.
//
// Concurrency:
//   - Geometry, layout and model RDM are built once and only read afterwards.
//   - Each location writes its own output cell; flag bookkeeping and progress
//     share one mutex.
//   - ctx is checked before every location in both the sequential and the
//     pooled mode.

package searchlight

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/trossi/searchlight/rsa"
	"github.com/trossi/searchlight/volume"
)

const opRun = "Run"

// Run scores every voxel selected by mask. labels holds one condition label
// per sample of vol.
//
// Setup failures (nil inputs, shape or label-count mismatch, bad radius,
// layout or hypothesis errors) abort before any location is visited. Per
// location, an undefined score is handled by the DegeneratePolicy; any other
// error aborts. Cancellation of ctx aborts with ctx.Err() wrapped.
func Run(ctx context.Context, vol *volume.Volume, mask *volume.Mask, labels []string, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r, err := newRunner(vol, mask, labels, o)
	if err != nil {
		return nil, err
	}

	indices := mask.Bitmap()
	r.total = int(indices.GetCardinality())
	o.logger.Info("searchlight start",
		"shape", r.shape.String(),
		"samples", vol.NSamples(),
		"radius", r.geom.Radius(),
		"geometry", r.geom.Len(),
		"granularity", o.granularity.String(),
		"units", r.layout.Len(),
		"conditions", len(r.layout.Conditions()),
		"masked", r.total,
		"workers", max(o.workers, 1),
		"policy", o.policy.String(),
	)

	start := time.Now()
	if o.workers <= 1 {
		err = r.runSequential(ctx, indices)
	} else {
		err = r.runPooled(ctx, indices, o.workers)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Scores:     r.out,
		Flagged:    r.flagged,
		FlagCounts: r.counts,
		Visited:    r.done,
		Geometry:   r.geom,
		Layout:     r.layout,
		Model:      r.model,
		Elapsed:    time.Since(start),
	}
	o.logger.Info("searchlight done",
		"visited", res.Visited,
		"flagged", res.FlagCounts.Total(),
		"degenerate", res.FlagCounts.Degenerate,
		"undefined", res.FlagCounts.Undefined,
		"elapsed", res.Elapsed,
	)

	return res, nil
}

// runner holds the immutable run context plus the mutable result state.
type runner struct {
	vol    *volume.Volume
	shape  volume.Shape
	geom   Geometry
	layout *rsa.Layout
	model  *rsa.RDM
	opts   options
	out    *volume.Scalar

	mu       sync.Mutex
	flagged  *roaring.Bitmap
	counts   FlagCounts
	done     int
	total    int
	sometime rate.Sometimes
}

func newRunner(vol *volume.Volume, mask *volume.Mask, labels []string, o options) (*runner, error) {
	if vol == nil || mask == nil {
		return nil, slErrorf(opRun, ErrNilInput)
	}
	shape := vol.Shape()
	if !shape.Equal(mask.Shape()) {
		return nil, fmt.Errorf("%s: mask %s, volume %s: %w", opRun, mask.Shape(), shape, volume.ErrDimensionMismatch)
	}
	if len(labels) != vol.NSamples() {
		return nil, fmt.Errorf("%s: %d labels for %d samples: %w", opRun, len(labels), vol.NSamples(), ErrLabelCount)
	}
	if o.policy != PolicyFlag && o.policy != PolicyFail {
		return nil, slErrorf(opRun, ErrInvalidPolicy)
	}

	radius := o.radius
	if reach := ReachRadius(shape); radius > reach {
		o.logger.Info("radius clamped to volume extent", "radius", radius, "effective", reach)
		radius = reach
	}
	geom, err := BuildGeometry(radius, shape.NDim())
	if err != nil {
		return nil, slErrorf(opRun, err)
	}
	layout, err := rsa.NewLayout(labels, o.granularity)
	if err != nil {
		return nil, slErrorf(opRun, err)
	}
	model, err := rsa.BuildModelRDM(layout, o.hypothesis)
	if err != nil {
		return nil, slErrorf(opRun, err)
	}
	if err = rsa.ValidateModel(model); err != nil {
		return nil, fmt.Errorf("%s: %s layout: %w", opRun, o.granularity, err)
	}
	out, err := volume.NewScalar(shape)
	if err != nil {
		return nil, slErrorf(opRun, err)
	}

	r := &runner{
		vol:     vol,
		shape:   shape,
		geom:    geom,
		layout:  layout,
		model:   model,
		opts:    o,
		out:     out,
		flagged: roaring.New(),
	}
	if o.progressInterval > 0 {
		r.sometime = rate.Sometimes{Interval: o.progressInterval}
	} else {
		r.sometime = rate.Sometimes{Every: 1}
	}

	return r, nil
}

func (r *runner) runSequential(ctx context.Context, indices *roaring.Bitmap) error {
	it := indices.Iterator()
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return slErrorf(opRun, err)
		}
		if err := r.visit(int(it.Next())); err != nil {
			return err
		}
	}

	return nil
}

func (r *runner) runPooled(ctx context.Context, indices *roaring.Bitmap, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	it := indices.Iterator()
	for it.HasNext() && gctx.Err() == nil {
		idx := int(it.Next())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.visit(idx)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return slErrorf(opRun, err)
		}
		return err
	}
	// every goroutine may have finished cleanly while ctx was cancelled
	// before the loop handed out the remaining locations
	if r.done < r.total {
		return slErrorf(opRun, ctx.Err())
	}

	return nil
}

// visit computes and writes the score of one masked location.
func (r *runner) visit(idx int) error {
	coord, err := r.shape.Coordinate(idx)
	if err != nil {
		return slErrorf(opRun, err)
	}
	nb, err := Extract(r.vol, r.geom, coord)
	if err != nil {
		return fmt.Errorf("%s: voxel %v: %w", opRun, coord, err)
	}

	score, err := r.score(nb)
	switch {
	case err == nil:
		_ = r.out.Set(idx, score) // idx came from the mask, always in range
		r.advance(idx, nil, nil)
		return nil
	case errors.Is(err, rsa.ErrDegenerateCondition), errors.Is(err, rsa.ErrUndefinedScore):
		if r.opts.policy == PolicyFail {
			return fmt.Errorf("%s: voxel %v: %w", opRun, coord, err)
		}
		_ = r.out.Set(idx, math.NaN())
		r.advance(idx, coord, err)
		return nil
	default:
		return fmt.Errorf("%s: voxel %v: %w", opRun, coord, err)
	}
}

func (r *runner) score(nb *Neighborhood) (float64, error) {
	data, err := rsa.BuildRDM(nb, r.layout)
	if err != nil {
		return 0, err
	}

	return rsa.Score(data, r.model)
}

// advance records one finished location; flagErr is non-nil for a flagged one.
func (r *runner) advance(idx int, coord []int, flagErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if flagErr != nil {
		r.flagged.Add(uint32(idx))
		kind := "undefined"
		if errors.Is(flagErr, rsa.ErrDegenerateCondition) {
			r.counts.Degenerate++
			kind = "degenerate"
		} else {
			r.counts.Undefined++
		}
		r.opts.logger.Debug("location flagged", "voxel", coord, "kind", kind, "err", flagErr)
	}

	r.done++
	r.sometime.Do(func() {
		r.opts.logger.Info("searchlight progress",
			"done", r.done,
			"total", r.total,
			"pct", fmt.Sprintf("%.1f", 100*float64(r.done)/float64(r.total)),
		)
	})
	if r.opts.progress != nil {
		r.opts.progress(r.done, r.total)
	}
}
