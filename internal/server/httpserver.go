package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/metrics"
	"github.com/S0me0neR0man/kvschema/internal/token"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer json-rpc (post and websocket), graphql and /metrics over the same store
type HTTPServer struct {
	store    *memstore.Store
	conf     *config.Config
	metrics  *metrics.Collectors
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	sugar    *zap.SugaredLogger
}

// NewHTTPServer m and gatherer may be nil, a nil gatherer leaves /metrics out
func NewHTTPServer(store *memstore.Store, conf *config.Config, m *metrics.Collectors, gatherer prometheus.Gatherer, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		store:    store,
		conf:     conf,
		metrics:  m,
		gatherer: gatherer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sugar: logger.Sugar(),
	}
}

func (hs *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/rpc", hs.authorized(http.HandlerFunc(hs.handleRPC)))
	mux.Handle("/graphql", hs.authorized(http.HandlerFunc(hs.handleGraphQL)))
	if hs.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(hs.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves on conf.HTTPListen until ctx is done
func (hs *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              hs.conf.HTTPListen,
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			hs.sugar.Errorw("httpserver shutdown", "error", err)
		}
	}()

	hs.sugar.Infow("httpserver start", "listen", hs.conf.HTTPListen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (hs *HTTPServer) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !token.Valid(r.Header.Values("Authorization"), hs.conf.Token) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (hs *HTTPServer) observe(op string, keys int, start time.Time, err error) {
	if hs.metrics == nil {
		return
	}
	hs.metrics.Observe("http", op, keys, time.Since(start).Seconds(), err)
}
