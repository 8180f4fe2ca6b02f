package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

// CallbackSender transport that completes out of band: cb fires once, possibly on another goroutine
type CallbackSender interface {
	Send(req *Request, cb func(*Response, error))
}

// The SendFunc type is an adapter to allow the use of
// ordinary functions as callback senders.
type SendFunc func(req *Request, cb func(*Response, error))

// Send calls f(req, cb).
func (f SendFunc) Send(req *Request, cb func(*Response, error)) {
	f(req, cb)
}

// CallbackProvider turns a CallbackSender into a Fetcher.
// Every FetchOne suspends until the callback fires or ctx is done.
type CallbackProvider struct {
	sender CallbackSender
	sugar  *zap.SugaredLogger
}

func FromCallback(sender CallbackSender, logger *zap.Logger) *CallbackProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackProvider{
		sender: sender,
		sugar:  logger.Sugar(),
	}
}

func (p *CallbackProvider) Name() string {
	return "callback"
}

type completion struct {
	resp *Response
	err  error
}

func (p *CallbackProvider) FetchOne(ctx context.Context, address kv.Address, key kv.Key) ([]byte, error) {
	req := NewGetDataCall(address, key)

	done := make(chan completion, 1)
	var once sync.Once
	p.sender.Send(req, func(resp *Response, err error) {
		once.Do(func() {
			done <- completion{resp: resp, err: err}
		})
	})
	p.sugar.Debugw("callback sent", "id", req.ID, "key", key)

	select {
	case <-ctx.Done():
		return nil, Unavailable(ctx.Err())
	case c := <-done:
		if c.err != nil {
			return nil, Unavailable(c.err)
		}
		if c.resp == nil {
			return nil, Unavailable(fmt.Errorf("request %s: empty response", req.ID))
		}
		if err := c.resp.Err(); err != nil {
			return nil, Unavailable(err)
		}
		return DecodeGetDataResult(c.resp.Result)
	}
}
