package memstore

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
)

var (
	addrA = kv.MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")
	addrB = kv.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	key1  = kv.MustParseKey("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")
	key2  = kv.MustParseKey("0x0cfc51aec37c55a4d0b1a65c6255c4bf2fbdf6277f3cc0730c45b828b6db8b47")
)

func TestStore_PutGet(t *testing.T) {
	s := New(nil)

	_, ok := s.Get(addrA, key1)
	require.False(t, ok)

	v := []byte{1, 2, 3}
	s.Put(addrA, key1, v)
	v[0] = 9 // stored value is a copy

	got, ok := s.Get(addrA, key1)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)

	_, ok = s.Get(addrB, key1)
	require.False(t, ok)

	s.Put(addrA, key1, nil)
	_, ok = s.Get(addrA, key1)
	require.False(t, ok)
}

func TestStore_QueryAll(t *testing.T) {
	s := New(nil)
	s.PutPairs(addrA,
		kv.Pair{Key: key1, Value: []byte{1}},
		kv.Pair{Key: key2, Value: []byte{2}},
	)

	got := s.Query(addrA, []kv.Key{key1, key1.Element(1), key2})
	require.Equal(t, []kv.Pair{{Key: key1, Value: []byte{1}}, {Key: key2, Value: []byte{2}}}, got)

	all := s.All(addrA)
	require.Len(t, all, 2)
	require.Equal(t, key2, all[0].Key) // 0x0c... sorts first
	require.Equal(t, all, s.Query(addrA, nil))

	require.Empty(t, s.All(addrB))
	require.Equal(t, []kv.Address{addrA}, s.Addresses())
}

func TestStore_Provider(t *testing.T) {
	s := New(nil)
	s.Put(addrA, key1, []byte("hello"))

	c := provider.Probe(s)
	require.NotNil(t, c.One)
	require.NotNil(t, c.Batch)
	require.NotNil(t, c.All)

	ctx := context.Background()
	v, err := s.FetchOne(ctx, addrA, key1)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)

	v, err = s.FetchOne(ctx, addrA, key2)
	require.NoError(t, err)
	require.Nil(t, v)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.FetchBatch(cancelled, addrA, []kv.Key{key1})
	require.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestStore_Concurrent(t *testing.T) {
	s := New(nil)
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 1; i <= n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Put(addrA, key1.Element(uint64(i)), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	require.Len(t, s.All(addrA), n)
	got, ok := s.Get(addrA, key1.Element(42))
	require.True(t, ok)
	require.Equal(t, []byte{42}, got)
}

func TestStore_Seed(t *testing.T) {
	doc := `{
	  "0x0c03fba782b07bcf810deb3b7f0595024a444f4e": {
	    "0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5": "0x6f357c6a",
	    "0x0cfc51aec37c55a4d0b1a65c6255c4bf2fbdf6277f3cc0730c45b828b6db8b47": "0x"
	  }
	}`
	s := New(nil)
	require.NoError(t, s.LoadSeed(strings.NewReader(doc)))

	v, ok := s.Get(addrA, key1)
	require.True(t, ok)
	require.Equal(t, []byte{0x6f, 0x35, 0x7c, 0x6a}, v)
	_, ok = s.Get(addrA, key2)
	require.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, s.Snapshot(&buf))
	restored := New(nil)
	require.NoError(t, restored.LoadSeed(&buf))
	require.Equal(t, s.All(addrA), restored.All(addrA))

	for _, bad := range []string{`[]`, `{"0x12": {}}`, `{"0x0c03fba782b07bcf810deb3b7f0595024a444f4e": {"0x12": "0x"}}`} {
		require.ErrorIs(t, New(nil).LoadSeed(strings.NewReader(bad)), ErrInvalidSeed, bad)
	}
}

func TestStore_SaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s := New(nil)
	s.Put(addrB, key2, []byte{0xca, 0xfe})
	require.NoError(t, s.SaveFile(path))

	restored := New(nil)
	require.NoError(t, restored.LoadSeedFile(path))
	v, ok := restored.Get(addrB, key2)
	require.True(t, ok)
	require.Equal(t, []byte{0xca, 0xfe}, v)
}
