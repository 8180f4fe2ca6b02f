// Package wsrpc JSON-RPC over websocket, exposed as a provider.CallbackSender
package wsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/provider"
)

const defaultWriteTimeout = 10 * time.Second

var (
	ErrClosed = errors.New("websocket closed")
)

type callback func(*provider.Response, error)

// Client one websocket connection, responses are matched to requests by id
type Client struct {
	conn  *websocket.Conn
	sugar *zap.SugaredLogger

	writeMu      sync.Mutex
	writeTimeout time.Duration

	mu      sync.Mutex
	pending map[string]callback
	err     error // set once the connection is gone

	done chan struct{}
}

type Option func(*Client)

// WithWriteTimeout bound of one frame write, a peer that stops reading fails the connection after it
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) { c.writeTimeout = d }
}

// Dial connects to url (ws:// or wss://), header may carry an Authorization token
func Dial(ctx context.Context, url string, header http.Header, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, provider.Unavailable(err)
	}

	c := &Client{
		conn:         conn,
		sugar:        logger.Sugar(),
		writeTimeout: defaultWriteTimeout,
		pending:      make(map[string]callback),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c, nil
}

// Provider the awaitable view of the client
func (c *Client) Provider(logger *zap.Logger) *provider.CallbackProvider {
	return provider.FromCallback(c, logger)
}

// Send writes req, cb fires from the read loop when the response with the same id arrives
func (c *Client) Send(req *provider.Request, cb func(*provider.Response, error)) {
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		cb(nil, err)
		return
	}
	c.pending[req.ID] = cb
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err == nil {
		err = c.conn.WriteJSON(req)
	}
	c.writeMu.Unlock()
	if err != nil {
		// a failed write leaves the connection unusable, this request included
		c.fail(err)
	}
}

func (c *Client) take(id string) callback {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	return cb
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}

		var resp provider.Response
		if err := json.Unmarshal(message, &resp); err != nil {
			c.sugar.Errorw("wsrpc bad message", "error", err)
			continue
		}
		cb := c.take(resp.ID)
		if cb == nil {
			c.sugar.Debugw("wsrpc response without request", "id", resp.ID)
			continue
		}
		cb(&resp, nil)
	}
}

// fail completes every pending callback with err, later Sends fail immediately
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.err = provider.Unavailable(err)
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.sugar.Debugw("wsrpc connection lost", "error", err, "pending", len(pending))
	for _, cb := range pending {
		cb(nil, c.err)
	}
}

// Close fails pending requests with ErrUnavailable and closes the connection
func (c *Client) Close() error {
	c.fail(ErrClosed)

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(c.writeTimeout))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}
