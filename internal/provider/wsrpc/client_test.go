package wsrpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/provider"
	"github.com/S0me0neR0man/kvschema/internal/server"
)

var (
	testAddress = kv.MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")
	testKey     = kv.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")
)

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestClient_GetData(t *testing.T) {
	store := memstore.New(nil)
	store.Put(testAddress, testKey, []byte("hello"))
	srv := httptest.NewServer(server.NewHTTPServer(store, config.Default(), nil, nil, zap.NewNop()).Handler())
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv, "/rpc"), nil, nil)
	require.NoError(t, err)
	defer c.Close()

	p := c.Provider(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			v, err := p.FetchOne(ctx, testAddress, testKey)
			if err == nil && string(v) != "hello" {
				err = fmt.Errorf("unexpected value %q", v)
			}
			done <- err
		}()
	}
	for i := 0; i < cap(done); i++ {
		require.NoError(t, <-done)
	}

	v, err := p.FetchOne(ctx, testAddress, testKey.Element(1))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestClient_Close(t *testing.T) {
	// accepts requests and never answers
	received := make(chan struct{}, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv, "/"), nil, nil)
	require.NoError(t, err)

	fired := make(chan error, 1)
	c.Send(provider.NewGetDataCall(testAddress, testKey), func(resp *provider.Response, err error) {
		fired <- err
	})
	<-received

	require.NoError(t, c.Close())
	require.ErrorIs(t, <-fired, provider.ErrUnavailable)

	// closed client fails right away
	c.Send(provider.NewGetDataCall(testAddress, testKey), func(resp *provider.Response, err error) {
		fired <- err
	})
	require.ErrorIs(t, <-fired, ErrClosed)
}

func TestClient_WriteTimeout(t *testing.T) {
	// upgrades and never reads
	stop := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-stop
	}))
	defer srv.Close()
	defer close(stop)

	c, err := Dial(context.Background(), wsURL(srv, "/"), nil, nil, WithWriteTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	// larger than the socket buffers, the write blocks until the deadline
	big := provider.NewRequest("eth_call", strings.Repeat("a", 32<<20))
	fired := make(chan error, 1)
	start := time.Now()
	go c.Send(big, func(resp *provider.Response, err error) {
		fired <- err
	})
	select {
	case err := <-fired:
		require.ErrorIs(t, err, provider.ErrUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("write is not bounded by the deadline")
	}
	require.Less(t, time.Since(start), 5*time.Second)

	// the connection is failed for later requests
	c.Send(provider.NewGetDataCall(testAddress, testKey), func(resp *provider.Response, err error) {
		fired <- err
	})
	require.ErrorIs(t, <-fired, provider.ErrUnavailable)
}

func TestClient_ServerGone(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv, "/"), nil, nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Provider(nil).FetchOne(context.Background(), testAddress, testKey)
	require.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestDial_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := Dial(context.Background(), wsURL(srv, "/"), nil, nil)
	require.ErrorIs(t, err, provider.ErrUnavailable)
}
