package query

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/provider"
)

var errTimeout = errors.New("i/o timeout")

// oneOnly single-key provider, records the keys in call order and can fail one key
type oneOnly struct {
	store *memstore.Store
	fail  map[kv.Key]bool

	mu   sync.Mutex
	seen []kv.Key
}

func (p *oneOnly) Name() string { return "one" }

func (p *oneOnly) FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error) {
	p.mu.Lock()
	p.seen = append(p.seen, key)
	p.mu.Unlock()
	if p.fail[key] {
		return nil, errTimeout
	}
	return p.store.FetchOne(ctx, address, key)
}

func (p *oneOnly) keys() []kv.Key {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.seen)
}

// closingBatch batchOnly holding a connection
type closingBatch struct {
	batchOnly
	closed atomic.Int32
}

func (p *closingBatch) Close() error {
	p.closed.Add(1)
	return nil
}

// batchOnly answers in reverse order, callers must correlate by key
type batchOnly struct {
	store *memstore.Store

	mu      sync.Mutex
	batches [][]kv.Key
}

func (p *batchOnly) Name() string { return "batch" }

func (p *batchOnly) FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	p.mu.Lock()
	p.batches = append(p.batches, slices.Clone(keys))
	p.mu.Unlock()
	pairs, err := p.store.FetchBatch(ctx, address, keys)
	slices.Reverse(pairs)
	return pairs, err
}

func (p *batchOnly) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

// allOnly graph-style provider answering with every stored pair
type allOnly struct {
	store *memstore.Store
	err   error
	n     atomic.Int32
}

func (p *allOnly) Name() string { return "all" }

func (p *allOnly) FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error) {
	p.n.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.store.FetchAll(ctx, address)
}

func answer(store *memstore.Store, req *provider.Request) (json.RawMessage, error) {
	address, key, err := provider.ParseGetDataCall(req)
	if err != nil {
		return nil, err
	}
	v, _ := store.Get(address, key)
	return json.Marshal(kv.EncodeHex(provider.EncodeBytesResult(v)))
}

// callbackOver completes every request on another goroutine
func callbackOver(store *memstore.Store) provider.Provider {
	return provider.FromCallback(provider.SendFunc(func(req *provider.Request, cb func(*provider.Response, error)) {
		go func() {
			result, err := answer(store, req)
			if err != nil {
				cb(nil, err)
				return
			}
			cb(&provider.Response{JSONRPC: "2.0", ID: req.ID, Result: result}, nil)
		}()
	}), nil)
}

func requesterOver(store *memstore.Store) provider.Provider {
	return provider.FromRequester(provider.RequestFunc(func(ctx context.Context, req *provider.Request) (json.RawMessage, error) {
		return answer(store, req)
	}))
}
