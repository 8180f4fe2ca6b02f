package server

import (
	"context"
	"log"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/storagerpc"
	"github.com/S0me0neR0man/kvschema/internal/token"
)

var (
	once   sync.Once
	logger *zap.Logger

	testAddress = kv.MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")
	testKey     = kv.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")
)

func getTestLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	})

	return logger
}

func testStore() *memstore.Store {
	s := memstore.New(getTestLogger())
	s.Put(testAddress, testKey, []byte{0x6f, 0x35, 0x7c, 0x6a})
	s.Put(testAddress, testKey.Element(1), []byte{0x01})
	return s
}

func startGRPC(t *testing.T, conf *config.Config, creds grpc.DialOption) storagerpc.StorageClient {
	lis := bufconn.Listen(1024 * 1024)
	ctx, cancel := context.WithCancel(context.Background())

	ss := NewStorageServer(testStore(), conf, nil, getTestLogger())
	go func() {
		_ = ss.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		ss.Wait()
	})

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	opts := []grpc.DialOption{
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if creds != nil {
		opts = append(opts, creds)
	}
	cc, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	return storagerpc.NewStorageClient(cc)
}

func TestGRPCServer_Query(t *testing.T) {
	client := startGRPC(t, config.Default(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := storagerpc.NewQueryRequest(testAddress, []kv.Key{testKey, testKey.Element(2)})
	require.NoError(t, err)
	resp, err := client.Query(ctx, req)
	require.NoError(t, err)
	pairs, err := storagerpc.ParseQueryResponse(resp)
	require.NoError(t, err)
	require.Equal(t, []kv.Pair{{Key: testKey, Value: []byte{0x6f, 0x35, 0x7c, 0x6a}}}, pairs)

	req, err = storagerpc.NewQueryRequest(testAddress, nil)
	require.NoError(t, err)
	resp, err = client.Query(ctx, req)
	require.NoError(t, err)
	pairs, err = storagerpc.ParseQueryResponse(resp)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestGRPCServer_InvalidRequest(t *testing.T) {
	client := startGRPC(t, config.Default(), nil)

	req, err := storagerpc.NewQueryRequest(testAddress, nil)
	require.NoError(t, err)
	delete(req.Fields, "address")

	_, err = client.Query(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCServer_Token(t *testing.T) {
	conf := config.Default()
	conf.Token = "secret"

	req, err := storagerpc.NewQueryRequest(testAddress, nil)
	require.NoError(t, err)

	_, err = startGRPC(t, conf, nil).Query(context.Background(), req)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = startGRPC(t, conf, grpc.WithPerRPCCredentials(token.Static("wrong", true))).Query(context.Background(), req)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = startGRPC(t, conf, grpc.WithPerRPCCredentials(token.Static("secret", true))).Query(context.Background(), req)
	require.NoError(t, err)
}
