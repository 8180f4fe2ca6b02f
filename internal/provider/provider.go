// Package provider normalizes storage read transports into one raw key/value fetch contract.
//
// A transport implements any subset of Fetcher, BatchFetcher and AllFetcher;
// callers discover what it can do with Probe.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
)

var (
	// ErrUnavailable transport failure or timeout
	ErrUnavailable = errors.New("provider unavailable")
)

// Provider every transport has a name, used in logs and metrics
type Provider interface {
	Name() string
}

// Fetcher reads one slot. A never written slot returns nil, nil.
type Fetcher interface {
	Provider
	FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error)
}

// BatchFetcher reads many slots in one exchange. The result may come back in any order
// and may omit keys; callers correlate by key.
type BatchFetcher interface {
	Provider
	FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error)
}

// AllFetcher returns every stored pair of an address in one exchange
type AllFetcher interface {
	Provider
	FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error)
}

// Capabilities what a provider can do, nil for unsupported operations
type Capabilities struct {
	One   Fetcher
	Batch BatchFetcher
	All   AllFetcher
}

// SupportsBatch reports whether a batched fetch is available
func (c Capabilities) SupportsBatch() bool {
	return c.Batch != nil
}

// Empty reports whether nothing at all is supported
func (c Capabilities) Empty() bool {
	return c.One == nil && c.Batch == nil && c.All == nil
}

// capabilityReporter lets decorators expose the capabilities of what they wrap
type capabilityReporter interface {
	Capabilities() Capabilities
}

// Probe detects the capabilities of p
func Probe(p Provider) Capabilities {
	if r, ok := p.(capabilityReporter); ok {
		return r.Capabilities()
	}
	var c Capabilities
	if f, ok := p.(Fetcher); ok {
		c.One = f
	}
	if f, ok := p.(BatchFetcher); ok {
		c.Batch = f
	}
	if f, ok := p.(AllFetcher); ok {
		c.All = f
	}
	return c
}

// Unavailable wraps a transport error into ErrUnavailable.
// Malformed value errors and errors already wrapping ErrUnavailable pass through.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, codec.ErrMalformedValue) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
