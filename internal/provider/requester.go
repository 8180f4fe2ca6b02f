package provider

import (
	"context"
	"encoding/json"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

// Requester request/response transport returning the JSON-RPC result.
// Concurrent requests are allowed.
type Requester interface {
	Request(ctx context.Context, req *Request) (json.RawMessage, error)
}

// The RequestFunc type is an adapter to allow the use of
// ordinary functions as requesters.
type RequestFunc func(ctx context.Context, req *Request) (json.RawMessage, error)

// Request calls f(ctx, req).
func (f RequestFunc) Request(ctx context.Context, req *Request) (json.RawMessage, error) {
	return f(ctx, req)
}

// RequestProvider turns a Requester into a Fetcher
type RequestProvider struct {
	requester Requester
}

func FromRequester(r Requester) *RequestProvider {
	return &RequestProvider{requester: r}
}

func (p *RequestProvider) Name() string {
	return "request"
}

func (p *RequestProvider) FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error) {
	result, err := p.requester.Request(ctx, NewGetDataCall(address, key))
	if err != nil {
		return nil, Unavailable(err)
	}
	return DecodeGetDataResult(result)
}
