// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultChunkSize is the unit by which a mapped output stream grows its file.
const DefaultChunkSize = 64 * 1024

// GrowthPolicy decides how far a mapped output stream grows past what it needs.
type GrowthPolicy int

const (
	// GrowFixed grows by the deficit rounded up to a whole number of chunks.
	GrowFixed GrowthPolicy = iota
	// GrowDoubling grows by at least the current mapped length (still rounded
	// up to whole chunks), amortizing remaps for large outputs.
	GrowDoubling
)

func (p GrowthPolicy) String() string {
	switch p {
	case GrowFixed:
		return "fixed"
	case GrowDoubling:
		return "doubling"
	default:
		return fmt.Sprintf("GrowthPolicy(%d)", int(p))
	}
}

// Option configures a stream.  Options that don't apply to a backend are ignored.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	chunkSize int64
	growth    GrowthPolicy
}

// WithLogger sets an optional logger for mapping, growth and teardown events.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithChunkSize sets the growth chunk of a mapped output stream, which is also
// the size of its initial mapping.
func WithChunkSize(size int64) Option {
	return func(opts *options) {
		opts.chunkSize = size
	}
}

// WithGrowthPolicy sets how far a mapped output stream grows; GrowFixed by default.
func WithGrowthPolicy(policy GrowthPolicy) Option {
	return func(opts *options) {
		opts.growth = policy
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{
		chunkSize: DefaultChunkSize,
		growth:    GrowFixed,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.chunkSize <= 0 {
		return o, fmt.Errorf("%w: chunk size must be positive (got %d)", ErrInvalidOption, o.chunkSize)
	}
	if o.growth != GrowFixed && o.growth != GrowDoubling {
		return o, fmt.Errorf("%w: unknown growth policy %s", ErrInvalidOption, o.growth)
	}
	return o, nil
}
