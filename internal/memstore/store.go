// Package memstore sync.map based contract storage
package memstore

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
)

// Store address -> key -> value, safe for concurrent use.
// A slot that was never written and a slot holding an empty value are the same thing.
type Store struct {
	m     sync.Map // kv.Address -> *sync.Map (kv.Key -> []byte)
	sugar *zap.SugaredLogger
}

func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{sugar: logger.Sugar()}
}

func (s *Store) Name() string {
	return "memstore"
}

func (s *Store) slots(address kv.Address, create bool) *sync.Map {
	if v, ok := s.m.Load(address); ok {
		return v.(*sync.Map)
	}
	if !create {
		return nil
	}
	v, _ := s.m.LoadOrStore(address, &sync.Map{})
	return v.(*sync.Map)
}

// Put stores a copy of value, an empty value clears the slot
func (s *Store) Put(address kv.Address, key kv.Key, value []byte) {
	if len(value) == 0 {
		if slots := s.slots(address, false); slots != nil {
			slots.Delete(key)
		}
		return
	}
	s.slots(address, true).Store(key, bytes.Clone(value))
}

// PutPairs stores every pair, e.g. the output of an entry encoder
func (s *Store) PutPairs(address kv.Address, pairs ...kv.Pair) {
	for _, p := range pairs {
		s.Put(address, p.Key, p.Value)
	}
}

func (s *Store) Get(address kv.Address, key kv.Key) ([]byte, bool) {
	slots := s.slots(address, false)
	if slots == nil {
		return nil, false
	}
	v, ok := slots.Load(key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(v.([]byte)), true
}

// Query stored pairs for keys in request order, unset keys are omitted.
// No keys means every stored pair.
func (s *Store) Query(address kv.Address, keys []kv.Key) []kv.Pair {
	if len(keys) == 0 {
		return s.All(address)
	}
	out := make([]kv.Pair, 0, len(keys))
	for _, k := range keys {
		if v, ok := s.Get(address, k); ok {
			out = append(out, kv.Pair{Key: k, Value: v})
		}
	}
	return out
}

// All stored pairs of address sorted by key
func (s *Store) All(address kv.Address) []kv.Pair {
	slots := s.slots(address, false)
	if slots == nil {
		return []kv.Pair{}
	}
	out := make([]kv.Pair, 0)
	slots.Range(func(k, v any) bool {
		out = append(out, kv.Pair{Key: k.(kv.Key), Value: bytes.Clone(v.([]byte))})
		return true
	})
	slices.SortFunc(out, func(a, b kv.Pair) int {
		return bytes.Compare(a.Key[:], b.Key[:])
	})
	return out
}

// Addresses with at least one stored slot, sorted
func (s *Store) Addresses() []kv.Address {
	out := make([]kv.Address, 0)
	s.m.Range(func(k, v any) bool {
		empty := true
		v.(*sync.Map).Range(func(_, _ any) bool {
			empty = false
			return false
		})
		if !empty {
			out = append(out, k.(kv.Address))
		}
		return true
	})
	slices.SortFunc(out, func(a, b kv.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

func (s *Store) FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Unavailable(err)
	}
	v, _ := s.Get(address, key)
	return v, nil
}

func (s *Store) FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Unavailable(err)
	}
	s.sugar.Debugw("memstore batch", "address", address, "keys", len(keys))
	return s.Query(address, keys), nil
}

func (s *Store) FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Unavailable(err)
	}
	return s.All(address), nil
}
