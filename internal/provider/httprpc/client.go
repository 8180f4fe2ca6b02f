// Package httprpc JSON-RPC over HTTP, exposed as a provider.Requester
package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/S0me0neR0man/kvschema/internal/provider"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	endpoint string
	http     *http.Client
	source   oauth2.TokenSource
	group    singleflight.Group
	sugar    *zap.SugaredLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource authorizes every request with a bearer token from source
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) { c.source = source }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.sugar = logger.Sugar() }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		sugar:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.source != nil {
		hc := *c.http
		hc.Transport = &oauth2.Transport{Source: c.source, Base: hc.Transport}
		c.http = &hc
	}
	return c
}

// Provider the fetcher view of the client
func (c *Client) Provider() *provider.RequestProvider {
	return provider.FromRequester(c)
}

// Request posts req and returns its result. Identical concurrent calls share one round-trip that
// no caller's cancellation stops. Each caller waits on its own ctx.
func (c *Client) Request(ctx context.Context, req *provider.Request) (json.RawMessage, error) {
	key, err := json.Marshal([]any{req.Method, req.Params})
	if err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(key), func() (interface{}, error) {
		return c.do(shared, req)
	})

	select {
	case <-ctx.Done():
		c.sugar.Debugw("httprpc request abandoned", "id", req.ID, "method", req.Method, "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.sugar.Debugw("httprpc request", "id", req.ID, "method", req.Method, "shared", res.Shared, "error", res.Err)
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

func (c *Client) do(ctx context.Context, req *provider.Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: http status %s", c.endpoint, httpResp.Status)
	}
	var resp provider.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: %w", c.endpoint, err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Result, nil
}
