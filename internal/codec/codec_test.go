package codec

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

func word(tail ...byte) []byte {
	b := make([]byte, wordLength)
	copy(b[wordLength-len(tail):], tail)
	return b
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	for _, tag := range []string{"uint256", "Number", "BOOL", "string", "URL", "address", "bytes", "bytes32", "Keccak256", "JSONURL"} {
		require.True(t, r.Supports(tag), tag)
	}

	_, err := r.Lookup("float64")
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = r.Decode("float64", []byte{1})
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = r.Encode("float64", 1.5)
	require.ErrorIs(t, err, ErrUnsupportedType)

	empty := NewEmptyRegistry()
	require.Empty(t, empty.Tags())
	empty.Register(stringCodec{name: "name"}, "Name", "title")
	require.Equal(t, []string{"name", "title"}, empty.Tags())
}

func TestDefault(t *testing.T) {
	require.Same(t, Default(), Default())
	require.ElementsMatch(t, NewRegistry().Tags(), Default().Tags())
}

func TestDecode_Unset(t *testing.T) {
	r := NewRegistry()
	zero := map[string]any{
		TypeBool:    false,
		TypeString:  "",
		TypeURL:     "",
		TypeAddress: kv.Address{},
		TypeBytes:   []byte{},
		TypeBytes32: kv.Hash{},
		TypeJSONURL: JSONURL{},
	}
	for tag, want := range zero {
		for _, raw := range [][]byte{nil, {}} {
			got, err := r.Decode(tag, raw)
			require.NoError(t, err, tag)
			require.Equal(t, want, got, tag)
		}
	}

	got, err := r.Decode(TypeUint256, nil)
	require.NoError(t, err)
	require.Equal(t, 0, got.(*big.Int).Sign())
}

func TestRoundTrip(t *testing.T) {
	r := NewRegistry()
	addr := kv.MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")
	hash := kv.Keccak256([]byte("hash"))

	tests := []struct {
		tag   string
		value any
	}{
		{TypeBool, true},
		{TypeBool, false},
		{TypeString, "hello"},
		{TypeString, "ünïcödé"},
		{TypeURL, "ipfs://QmYr1VJLwerg6pEoscdhVGugo39pa6rycEZLjtRPDfW84UAx"},
		{TypeAddress, addr},
		{TypeBytes, []byte{0x12, 0x34}},
		{TypeBytes32, hash},
		{TypeJSONURL, NewJSONURL([]byte(`{"LSP3Profile":{}}`), "ipfs://QmXybcFAT7UQ9RBjbP6pvHkrChU5jk7bpv1ZoKXV3WbGwe")},
	}
	for _, tt := range tests {
		b, err := r.Encode(tt.tag, tt.value)
		require.NoError(t, err, tt.tag)
		got, err := r.Decode(tt.tag, b)
		require.NoError(t, err, tt.tag)
		require.Equal(t, tt.value, got, tt.tag)
	}

	for _, n := range []*big.Int{big.NewInt(1), big.NewInt(2), new(big.Int).Lsh(big.NewInt(1), 255)} {
		b, err := r.Encode(TypeUint256, n)
		require.NoError(t, err)
		require.Len(t, b, wordLength)
		got, err := r.Decode(TypeUint256, b)
		require.NoError(t, err)
		require.Equal(t, 0, n.Cmp(got.(*big.Int)), n.String())
	}
}

func TestCanonicalize(t *testing.T) {
	r := NewRegistry()
	addr := kv.MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")

	tests := []struct {
		tag  string
		in   []byte
		want []byte
	}{
		{TypeUint256, []byte{0x02}, word(0x02)},
		{TypeUint256, word(0x01, 0x00), word(0x01, 0x00)},
		{TypeBool, word(0x01), []byte{0x01}},
		{TypeAddress, word(addr[:]...), addr.Bytes()},
		{TypeAddress, addr.Bytes(), addr.Bytes()},
		{TypeString, []byte("abc"), []byte("abc")},
	}
	for _, tt := range tests {
		got, err := r.Canonicalize(tt.tag, tt.in)
		require.NoError(t, err, tt.tag)
		require.True(t, bytes.Equal(tt.want, got), "%s: %x != %x", tt.tag, tt.want, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	r := NewRegistry()
	dirty := word(0x01)
	dirty[0] = 0xff

	tests := []struct {
		tag string
		in  []byte
	}{
		{TypeUint256, make([]byte, 33)},
		{TypeBool, []byte{0x02}},
		{TypeBool, []byte{0x00, 0x01}},
		{TypeBool, dirty},
		{TypeString, []byte{0xff, 0xfe}},
		{TypeURL, []byte{0xc3, 0x28}},
		{TypeAddress, []byte{0x01, 0x02}},
		{TypeAddress, dirty},
		{TypeBytes32, []byte{0x01}},
		{TypeJSONURL, []byte{0x6f, 0x35, 0x7c, 0x6a}},
	}
	for _, tt := range tests {
		_, err := r.Decode(tt.tag, tt.in)
		require.ErrorIs(t, err, ErrMalformedValue, "%s %x", tt.tag, tt.in)

		var de *DataError
		require.ErrorAs(t, err, &de)
		require.Equal(t, tt.tag, de.Type)
	}
}

func TestEncode_Inputs(t *testing.T) {
	r := NewRegistry()

	for _, v := range []any{2, int64(2), uint8(2), uint64(2), "2", "0x02", big.NewInt(2)} {
		b, err := r.Encode(TypeUint256, v)
		require.NoError(t, err, "%T", v)
		require.Equal(t, word(0x02), b, "%T", v)
	}

	_, err := r.Encode(TypeUint256, -1)
	require.ErrorIs(t, err, ErrMalformedValue)
	_, err = r.Encode(TypeUint256, new(big.Int).Lsh(big.NewInt(1), 256))
	require.ErrorIs(t, err, ErrMalformedValue)
	_, err = r.Encode(TypeUint256, "ten")
	require.ErrorIs(t, err, ErrMalformedValue)
	_, err = r.Encode(TypeBool, "true")
	require.ErrorIs(t, err, ErrMalformedValue)

	b, err := r.Encode(TypeAddress, "0x0C03fBa782b07bcf810DEb3b7f0595024A444F4e")
	require.NoError(t, err)
	require.Len(t, b, kv.AddressLength)

	b, err = r.Encode(TypeBytes, "0x1234")
	require.NoError(t, err)
	require.Equal(t, []byte{0x12, 0x34}, b)

	_, err = r.Encode(TypeBytes32, "0x1234")
	require.ErrorIs(t, err, ErrMalformedValue)
}

func TestDataError_Error(t *testing.T) {
	err := malformed(TypeBytes, bytes.Repeat([]byte{0xab}, 100), "too long")
	msg := err.Error()
	require.True(t, strings.HasPrefix(msg, "malformed value: bytes: too long: (100) abab"), msg)
	require.Contains(t, msg, "...")
}

func TestJSONURL(t *testing.T) {
	doc := []byte(`{"name":"profile"}`)
	j := NewJSONURL(doc, "ipfs://Qm")
	require.Equal(t, "keccak256(utf8)", j.HashFunctionName())
	require.True(t, j.Verify(doc))
	require.False(t, j.Verify([]byte("tampered")))

	raw, err := Default().Encode(TypeJSONURL, &j)
	require.NoError(t, err)
	require.Equal(t, []byte{0x6f, 0x35, 0x7c, 0x6a}, raw[:4])
	require.Equal(t, "ipfs://Qm", string(raw[36:]))
}

func TestArrayLength(t *testing.T) {
	n, err := DecodeArrayLength(nil, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = DecodeArrayLength(EncodeArrayLength(3), 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	n, err = DecodeArrayLength([]byte{0x02}, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = DecodeArrayLength(EncodeArrayLength(11), 10)
	require.ErrorIs(t, err, ErrMalformedValue)

	_, err = DecodeArrayLength(bytes.Repeat([]byte{0xff}, 32), 0)
	require.ErrorIs(t, err, ErrMalformedValue)
}
