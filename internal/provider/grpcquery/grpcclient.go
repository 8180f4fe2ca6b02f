// Package grpcquery batched provider over the storage gRPC service
package grpcquery

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
	"github.com/S0me0neR0man/kvschema/internal/storagerpc"
)

type options struct {
	creds     credentials.PerRPCCredentials
	transport credentials.TransportCredentials
	timeout   time.Duration
	dial      []grpc.DialOption
}

type Option func(*options)

// WithCredentials per-RPC credentials, e.g. token.Tokens
func WithCredentials(c credentials.PerRPCCredentials) Option {
	return func(o *options) { o.creds = c }
}

// WithTransportCredentials replaces the default plaintext transport
func WithTransportCredentials(c credentials.TransportCredentials) Option {
	return func(o *options) { o.transport = c }
}

// WithTimeout per call, 0 - only ctx
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dial = append(o.dial, opts...) }
}

type GRPCClient struct {
	conn    *grpc.ClientConn
	client  storagerpc.StorageClient
	timeout time.Duration
}

func Dial(target string, opts ...Option) (*GRPCClient, error) {
	o := options{transport: insecure.NewCredentials()}
	for _, opt := range opts {
		opt(&o)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(o.transport),
	}
	if o.creds != nil {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(o.creds))
	}
	dialOpts = append(dialOpts, o.dial...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, provider.Unavailable(err)
	}
	return &GRPCClient{
		conn:    conn,
		client:  storagerpc.NewStorageClient(conn),
		timeout: o.timeout,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Name() string {
	return "grpc"
}

func (c *GRPCClient) FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	if len(keys) == 0 {
		// an empty key list would ask for everything
		return []kv.Pair{}, nil
	}
	return c.query(ctx, address, keys)
}

func (c *GRPCClient) FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error) {
	return c.query(ctx, address, nil)
}

func (c *GRPCClient) query(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := storagerpc.NewQueryRequest(address, keys)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Query(ctx, req)
	if err != nil {
		return nil, provider.Unavailable(err)
	}
	pairs, err := storagerpc.ParseQueryResponse(resp)
	if err != nil {
		return nil, provider.Unavailable(err)
	}
	return pairs, nil
}
