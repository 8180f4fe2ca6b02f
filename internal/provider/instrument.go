package provider

import (
	"context"
	"io"
	"time"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/metrics"
)

// Instrumented decorates a provider with round-trip metrics, keeping its capabilities
type Instrumented struct {
	inner Provider
	caps  Capabilities
	m     *metrics.Collectors
}

func Instrument(p Provider, m *metrics.Collectors) *Instrumented {
	return &Instrumented{inner: p, caps: Probe(p), m: m}
}

func (i *Instrumented) Name() string {
	return i.inner.Name()
}

// Capabilities has the same shape as the wrapped provider, every call is observed
func (i *Instrumented) Capabilities() Capabilities {
	var c Capabilities
	if i.caps.One != nil {
		c.One = instrumentedOne{i}
	}
	if i.caps.Batch != nil {
		c.Batch = instrumentedBatch{i}
	}
	if i.caps.All != nil {
		c.All = instrumentedAll{i}
	}
	return c
}

// Close closes the wrapped provider when it holds a connection
func (i *Instrumented) Close() error {
	if c, ok := i.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (i *Instrumented) observe(op string, keys int, start time.Time, err error) {
	if i.m == nil {
		return
	}
	i.m.Observe(i.inner.Name(), op, keys, time.Since(start).Seconds(), err)
}

type instrumentedOne struct{ *Instrumented }

func (f instrumentedOne) FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error) {
	start := time.Now()
	v, err := f.caps.One.FetchOne(ctx, address, key)
	f.observe("one", 1, start, err)
	return v, err
}

type instrumentedBatch struct{ *Instrumented }

func (f instrumentedBatch) FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	start := time.Now()
	pairs, err := f.caps.Batch.FetchBatch(ctx, address, keys)
	f.observe("batch", len(keys), start, err)
	return pairs, err
}

type instrumentedAll struct{ *Instrumented }

func (f instrumentedAll) FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error) {
	start := time.Now()
	pairs, err := f.caps.All.FetchAll(ctx, address)
	f.observe("all", 0, start, err)
	return pairs, err
}
