package kv

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	h := Keccak256(nil)
	require.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(h[:]))
}

func TestAddress_Hex(t *testing.T) {
	// EIP-55 test vectors
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		a, err := ParseAddress(strings.ToLower(v))
		require.NoError(t, err)
		require.Equal(t, v, a.Hex())
	}
}

func TestParseAddress(t *testing.T) {
	_, err := ParseAddress("0x1234")
	require.ErrorIs(t, err, ErrInvalidAddress)

	a := MustParseAddress("0x0c03fba782b07bcf810deb3b7f0595024a444f4e")
	require.False(t, a.IsZero())

	text, err := a.MarshalText()
	require.NoError(t, err)
	var back Address
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, a, back)
}

func TestSelect(t *testing.T) {
	k1 := MustParseKey(baseHex)
	k2 := k1.Element(1)
	k3 := k1.Element(2)

	pairs := []Pair{
		{Key: k3, Value: []byte{3}},
		{Key: k1, Value: []byte{1}},
	}
	got := Select(pairs, []Key{k1, k2, k3})
	require.Equal(t, [][]byte{{1}, nil, {3}}, got)
	require.True(t, Pair{Key: k2}.IsUnset())
}
