package query

import (
	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/metrics"
)

const DefaultConcurrency = 16

type options struct {
	logger         *zap.Logger
	reg            *codec.Registry
	maxArrayLength uint64
	concurrency    int
	metrics        *metrics.Collectors
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry value types beyond the builtin ones
func WithRegistry(reg *codec.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// WithMaxArrayLength upper bound of a decoded array count
func WithMaxArrayLength(n uint64) Option {
	return func(o *options) { o.maxArrayLength = n }
}

// WithConcurrency limit of outstanding single-key fetches of one call
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithMetrics observes every provider round-trip
func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) { o.metrics = m }
}
