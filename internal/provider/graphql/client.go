// Package graphql batched provider over a GraphQL indexer of contract storage
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
)

const (
	DefaultQuery = `query DataStores($address: String!, $keys: [String!]) {
  dataStores(address: $address, keys: $keys) { key value }
}`
	// DefaultPath gjson path of the {key, value} list in the response
	DefaultPath = "data.dataStores"

	defaultTimeout = 30 * time.Second
	maxResponse    = 32 << 20
)

var (
	errNoData = errors.New("no data in response")
)

type Client struct {
	endpoint string
	query    string
	path     string
	http     *http.Client
	source   oauth2.TokenSource
	sugar    *zap.SugaredLogger
}

type Option func(*Client)

func WithQuery(q string) Option {
	return func(c *Client) { c.query = q }
}

func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) { c.source = source }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.sugar = logger.Sugar() }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		query:    DefaultQuery,
		path:     DefaultPath,
		http:     &http.Client{Timeout: defaultTimeout},
		sugar:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.source != nil {
		c.http = oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, c.http), c.source)
	}
	return c
}

func (c *Client) Name() string {
	return "graphql"
}

func (c *Client) FetchBatch(ctx context.Context, address kv.Address, keys []kv.Key) ([]kv.Pair, error) {
	if len(keys) == 0 {
		return []kv.Pair{}, nil
	}
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k.String())
	}
	return c.post(ctx, map[string]any{"address": address.Hex(), "keys": list})
}

// FetchAll leaves the keys variable out, the indexer answers with every stored pair
func (c *Client) FetchAll(ctx context.Context, address kv.Address) ([]kv.Pair, error) {
	return c.post(ctx, map[string]any{"address": address.Hex()})
}

func (c *Client) post(ctx context.Context, variables map[string]any) ([]kv.Pair, error) {
	body, err := json.Marshal(map[string]any{"query": c.query, "variables": variables})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.Unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.Unavailable(fmt.Errorf("%s: http status %s", c.endpoint, resp.Status))
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, provider.Unavailable(err)
	}
	return c.parse(raw)
}

func (c *Client) parse(raw []byte) ([]kv.Pair, error) {
	if !gjson.ValidBytes(raw) {
		return nil, provider.Unavailable(fmt.Errorf("%s: invalid json response", c.endpoint))
	}
	if errs := gjson.GetBytes(raw, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, provider.Unavailable(fmt.Errorf("%s: graphql: %s", c.endpoint, errs.Get("0.message").String()))
	}
	list := gjson.GetBytes(raw, c.path)
	if !list.IsArray() {
		return nil, provider.Unavailable(fmt.Errorf("%s: %w at %s", c.endpoint, errNoData, c.path))
	}

	var (
		pairs = make([]kv.Pair, 0)
		err   error
	)
	list.ForEach(func(_, item gjson.Result) bool {
		var p kv.Pair
		if p.Key, err = kv.ParseKey(item.Get("key").String()); err != nil {
			err = &codec.DataError{Type: "graphql key", Data: []byte(item.Raw), Msg: err.Error()}
			return false
		}
		if p.Value, err = kv.DecodeHex(item.Get("value").String()); err != nil {
			err = &codec.DataError{Type: "graphql value", Data: []byte(item.Raw), Msg: err.Error()}
			return false
		}
		pairs = append(pairs, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	c.sugar.Debugw("graphql response", "endpoint", c.endpoint, "pairs", len(pairs))
	return pairs, nil
}
