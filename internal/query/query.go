// Package query reads and decodes schema entries of one address through any provider.
package query

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/S0me0neR0man/kvschema/internal/entry"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/plan"
	"github.com/S0me0neR0man/kvschema/internal/provider"
	"github.com/S0me0neR0man/kvschema/internal/schema"
)

var (
	ErrNoCapability = errors.New("provider supports no fetch operation")
	// ErrUnknownEntry neither a name nor a key of the schema
	ErrUnknownEntry = schema.ErrUnknownEntry
)

// Orchestrator the query session of one schema and one address.
// Safe for concurrent use, calls share nothing but the read-only configuration.
type Orchestrator struct {
	schema      *schema.Schema
	address     kv.Address
	provider    provider.Provider
	caps        provider.Capabilities
	codec       *entry.Codec
	concurrency int
	sugar       *zap.SugaredLogger
}

func New(s *schema.Schema, address kv.Address, p provider.Provider, opts ...Option) (*Orchestrator, error) {
	o := options{
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.metrics != nil {
		p = provider.Instrument(p, o.metrics)
	}

	caps := provider.Probe(p)
	if caps.Empty() {
		return nil, ErrNoCapability
	}
	return &Orchestrator{
		schema:      s,
		address:     address,
		provider:    p,
		caps:        caps,
		codec:       entry.New(o.reg, o.maxArrayLength),
		concurrency: o.concurrency,
		sugar:       o.logger.Sugar(),
	}, nil
}

func (o *Orchestrator) Schema() *schema.Schema {
	return o.schema
}

func (o *Orchestrator) Address() kv.Address {
	return o.address
}

// Close closes the provider when it holds a connection
func (o *Orchestrator) Close() error {
	if c, ok := o.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// GetData fetches and decodes the entry called name. name may also be the hex storage key of an entry.
func (o *Orchestrator) GetData(ctx context.Context, name string) (any, error) {
	e, err := o.schema.Resolve(name)
	if err != nil {
		return nil, err
	}
	sugar := o.sugar.With("query", uuid.NewString(), "address", o.address.Hex())
	sugar.Debugw("getData", "name", name, "provider", o.provider.Name())

	v, err := o.run(ctx, plan.New(e, o.codec), sugar)
	if err != nil {
		sugar.Debugw("getData failed", "name", name, "error", err)
		return nil, err
	}
	return v, nil
}

// run drives one plan to completion
func (o *Orchestrator) run(ctx context.Context, p *plan.Plan, sugar *zap.SugaredLogger) (any, error) {
	for p.State() != plan.Complete {
		keys := p.Keys()
		sugar.Debugw("fetch", "name", p.Entry().Name, "state", p.State(), "keys", len(keys))
		values, err := o.fetch(ctx, keys)
		if err != nil {
			return nil, err
		}
		if err := p.Feed(values); err != nil {
			return nil, err
		}
	}
	return p.Decode()
}

// fetch values of keys in order, a missing pair is an unset slot
func (o *Orchestrator) fetch(ctx context.Context, keys []kv.Key) ([][]byte, error) {
	switch {
	case o.caps.Batch != nil:
		pairs, err := o.caps.Batch.FetchBatch(ctx, o.address, keys)
		if err != nil {
			return nil, provider.Unavailable(err)
		}
		return kv.Select(pairs, keys), nil
	case o.caps.One != nil:
		return o.fetchEach(ctx, keys)
	default:
		pairs, err := o.caps.All.FetchAll(ctx, o.address)
		if err != nil {
			return nil, provider.Unavailable(err)
		}
		return kv.Select(pairs, keys), nil
	}
}

func (o *Orchestrator) fetchEach(ctx context.Context, keys []kv.Key) ([][]byte, error) {
	values := make([][]byte, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, k := range keys {
		g.Go(func() error {
			v, err := o.caps.One.FetchOne(gctx, o.address, k)
			if err != nil {
				return provider.Unavailable(err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// GetAllData fetches and decodes every schema entry. Entries that fail are left out of the
// map and reported as *entry.Error combined with multierr, siblings are unaffected.
func (o *Orchestrator) GetAllData(ctx context.Context) (map[string]any, error) {
	sugar := o.sugar.With("query", uuid.NewString(), "address", o.address.Hex())
	sugar.Debugw("getAllData", "entries", o.schema.Len(), "provider", o.provider.Name())

	var (
		out map[string]any
		err error
	)
	switch {
	case o.caps.All != nil:
		out, err = o.getAllAtOnce(ctx)
	case o.caps.Batch != nil:
		out, err = o.getAllBatched(ctx, sugar)
	default:
		out, err = o.getAllEach(ctx, sugar)
	}
	if err != nil {
		sugar.Debugw("getAllData failed", "entries", len(entry.Errors(err)), "error", err)
	}
	return out, err
}

// getAllAtOnce one request for every stored pair of the address
func (o *Orchestrator) getAllAtOnce(ctx context.Context) (map[string]any, error) {
	pairs, err := o.caps.All.FetchAll(ctx, o.address)
	if err != nil {
		return o.failAll(provider.Unavailable(err))
	}
	return o.codec.DecodeAllData(o.schema, pairs)
}

// getAllBatched one combined request per phase across the entries still planning
func (o *Orchestrator) getAllBatched(ctx context.Context, sugar *zap.SugaredLogger) (map[string]any, error) {
	entries := o.schema.Entries()
	plans := make([]*plan.Plan, len(entries))
	for i, e := range entries {
		plans[i] = plan.New(e, o.codec)
	}
	errs := make([]error, len(entries))

	for round := 1; ; round++ {
		var keys []kv.Key
		for i, p := range plans {
			if errs[i] == nil && p.State() != plan.Complete {
				keys = append(keys, p.Keys()...)
			}
		}
		if len(keys) == 0 {
			break
		}
		sugar.Debugw("fetch batch", "round", round, "keys", len(keys))

		pairs, err := o.caps.Batch.FetchBatch(ctx, o.address, keys)
		if err != nil {
			err = provider.Unavailable(err)
			for i, p := range plans {
				if errs[i] == nil && p.State() != plan.Complete {
					errs[i] = err
				}
			}
			break
		}
		idx := kv.Index(pairs)
		for i, p := range plans {
			if errs[i] != nil || p.State() == plan.Complete {
				continue
			}
			planned := p.Keys()
			values := make([][]byte, len(planned))
			for j, k := range planned {
				values[j] = idx[k]
			}
			errs[i] = p.Feed(values)
		}
	}

	out := make(map[string]any, len(entries))
	for i, p := range plans {
		if errs[i] != nil {
			continue
		}
		v, err := p.Decode()
		if err != nil {
			errs[i] = err
			continue
		}
		out[entries[i].Name] = v
	}
	return out, combine(entries, errs)
}

// getAllEach independent plans per entry, run concurrently
func (o *Orchestrator) getAllEach(ctx context.Context, sugar *zap.SugaredLogger) (map[string]any, error) {
	entries := o.schema.Entries()
	errs := make([]error, len(entries))
	out := make(map[string]any, len(entries))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(o.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			// per-entry errors never cancel siblings
			v, err := o.run(ctx, plan.New(e, o.codec), sugar)
			if err != nil {
				errs[i] = err
				return nil
			}
			mu.Lock()
			out[e.Name] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, combine(entries, errs)
}

func (o *Orchestrator) failAll(err error) (map[string]any, error) {
	entries := o.schema.Entries()
	errs := make([]error, len(entries))
	for i := range errs {
		errs[i] = err
	}
	return map[string]any{}, combine(entries, errs)
}

// combine per-entry errors in schema order
func combine(entries []schema.Entry, errs []error) error {
	var combined error
	for i, err := range errs {
		if err != nil {
			combined = multierr.Append(combined, &entry.Error{Name: entries[i].Name, Err: err})
		}
	}
	return combined
}
