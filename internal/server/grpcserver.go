// Package server storage query servers backed by a memstore.Store
package server

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/metrics"
	"github.com/S0me0neR0man/kvschema/internal/storagerpc"
	"github.com/S0me0neR0man/kvschema/internal/token"
)

var (
	errMissingMetadata = status.Errorf(codes.InvalidArgument, "missing metadata")
	errInvalidToken    = status.Errorf(codes.Unauthenticated, "invalid token")
)

type GRPCServer struct {
	storagerpc.UnimplementedStorageServer

	store   *memstore.Store
	sugar   *zap.SugaredLogger
	gserv   *grpc.Server
	conf    *config.Config
	metrics *metrics.Collectors

	wg sync.WaitGroup
}

// NewStorageServer m may be nil
func NewStorageServer(store *memstore.Store, conf *config.Config, m *metrics.Collectors, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{
		store:   store,
		conf:    conf,
		metrics: m,
		sugar:   logger.Sugar(),
	}
}

// Start listens on conf.Listen and serves until ctx is done
func (ss *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", ss.conf.Listen)
	if err != nil {
		return err
	}
	return ss.Serve(ctx, lis)
}

func (ss *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(ss.ensureValidToken),
	}

	ss.gserv = grpc.NewServer(opts...)
	storagerpc.RegisterStorageServer(ss.gserv, ss)
	ss.sugar.Infow("grpcserver start", "listen", lis.Addr().String())

	ss.wg.Add(2)
	go ss.saveToDisk(ctx)
	go ss.gracefulStop(ctx)

	return ss.gserv.Serve(lis)
}

func (ss *GRPCServer) saveToDisk(ctx context.Context) {
	defer ss.wg.Done()
	ss.store.SaveEvery(ctx, ss.conf.StoreFile, ss.conf.StoreInterval)
}

func (ss *GRPCServer) gracefulStop(ctx context.Context) {
	defer ss.wg.Done()

	<-ctx.Done()
	ss.gserv.GracefulStop()
	ss.sugar.Infow("grpcserver stopped")
}

// Wait for the background goroutines after ctx is done
func (ss *GRPCServer) Wait() {
	ss.wg.Wait()
}

func (ss *GRPCServer) ensureValidToken(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if ss.conf.Token == "" {
		return handler(ctx, req)
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errMissingMetadata
	}
	// The keys within metadata.MD are normalized to lowercase.
	// See: https://godoc.org/google.golang.org/grpc/metadata#New
	if !token.Valid(md[token.MetadataKey], ss.conf.Token) {
		ss.sugar.Debugw("ensureValidToken", "method", info.FullMethod, "error", errInvalidToken)
		return nil, errInvalidToken
	}
	return handler(ctx, req)
}

func (ss *GRPCServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	address, keys, err := storagerpc.ParseQueryRequest(in)
	if err != nil {
		ss.observe("query", 0, start, err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pairs := ss.store.Query(address, keys)
	ss.sugar.Debugw("query", "address", address.Hex(), "keys", len(keys), "pairs", len(pairs))

	resp, err := storagerpc.NewQueryResponse(pairs)
	ss.observe("query", len(keys), start, err)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (ss *GRPCServer) observe(op string, keys int, start time.Time, err error) {
	if ss.metrics == nil {
		return
	}
	ss.metrics.Observe("grpc", op, keys, time.Since(start).Seconds(), err)
}
