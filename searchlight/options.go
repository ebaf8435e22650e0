// SPDX-License-Identifier: MIT

package searchlight

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trossi/searchlight/rsa"
)

// DefaultRadius is the searchlight radius used when WithRadius is not given.
const DefaultRadius = 2

// DefaultProgressInterval is the minimum spacing between progress log lines.
const DefaultProgressInterval = 2 * time.Second

// DegeneratePolicy decides what happens to a location whose score is undefined.
type DegeneratePolicy int

const (
	// PolicyFlag writes NaN to the location, records it in Result.Flagged and
	// keeps going.
	PolicyFlag DegeneratePolicy = iota
	// PolicyFail aborts the run on the first undefined score.
	PolicyFail
)

// String returns "flag" or "fail".
func (p DegeneratePolicy) String() string {
	switch p {
	case PolicyFlag:
		return "flag"
	case PolicyFail:
		return "fail"
	default:
		return fmt.Sprintf("DegeneratePolicy(%d)", int(p))
	}
}

// ParsePolicy maps "flag" / "fail" (case-insensitive, "" means flag).
func ParsePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flag", "":
		return PolicyFlag, nil
	case "fail":
		return PolicyFail, nil
	default:
		return 0, fmt.Errorf("ParsePolicy(%q): %w", s, ErrInvalidPolicy)
	}
}

type options struct {
	radius           int
	workers          int
	granularity      rsa.Granularity
	hypothesis       rsa.Hypothesis
	policy           DegeneratePolicy
	logger           *slog.Logger
	progressInterval time.Duration
	progress         func(done, total int)
}

func defaultOptions() options {
	return options{
		radius:           DefaultRadius,
		workers:          1,
		granularity:      rsa.PerSample,
		hypothesis:       rsa.Categorical,
		policy:           PolicyFlag,
		logger:           slog.New(slog.DiscardHandler),
		progressInterval: DefaultProgressInterval,
	}
}

// Option configures Run.
type Option func(*options)

// WithRadius sets the ball radius in voxels. 0 means the center voxel alone.
func WithRadius(r int) Option {
	return func(o *options) {
		o.radius = r
	}
}

// WithWorkers sets how many locations are processed concurrently.
// n <= 1 runs sequentially in row-major order.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithGranularity selects whether RDM rows are samples (default) or conditions.
func WithGranularity(g rsa.Granularity) Option {
	return func(o *options) {
		o.granularity = g
	}
}

// WithHypothesis sets the model hypothesis. If nil is passed, rsa.Categorical is used.
func WithHypothesis(h rsa.Hypothesis) Option {
	return func(o *options) {
		if h == nil {
			h = rsa.Categorical
		}
		o.hypothesis = h
	}
}

// WithDegeneratePolicy chooses between flagging and failing on undefined scores.
func WithDegeneratePolicy(p DegeneratePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger for run summaries, flags and progress.
// If nil is passed, logging is discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

// WithProgressInterval sets the minimum time between progress log lines.
// d <= 0 logs after every location.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithProgress registers a callback invoked after every location with the
// number of locations done and the total. Calls are serialized.
func WithProgress(f func(done, total int)) Option {
	return func(o *options) {
		o.progress = f
	}
}
