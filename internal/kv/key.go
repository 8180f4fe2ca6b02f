// Package kv raw storage primitives: fixed-width keys, addresses and key/value pairs.
package kv

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// KeyLength width of a storage key in bytes
	KeyLength = 32
	// ElementPrefixLength bytes of the base key kept in every array element key
	ElementPrefixLength = 16
)

var (
	ErrInvalidKey = errors.New("invalid key")
)

// Key the storage slot address. All digits stored in BigEndian notation.
//
// Array element keys:
//
// [0:16] first 16 bytes of the array base key
//
// [16:32] element index uint128, 1-based
//
// index 0 reserved: the element count lives at the base key itself
type Key [KeyLength]byte

// ParseKey parses 64 hex characters with an optional 0x prefix
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := decodeHex(s)
	if err != nil {
		return k, fmt.Errorf("%w %q: %v", ErrInvalidKey, s, err)
	}
	if len(b) != KeyLength {
		return k, fmt.Errorf("%w %q: want %d bytes, got %d", ErrInvalidKey, s, KeyLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// MustParseKey like ParseKey but panics on error
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyFromBytes copies b into a key, b must be exactly KeyLength long
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeyLength {
		return k, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeyLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ElementKey the key of the index-th element of the array stored at base.
// Panics if index is zero.
func ElementKey(base Key, index uint64) Key {
	if index == 0 {
		panic("kv: element index 0 is reserved for the array length")
	}
	var k Key
	copy(k[:ElementPrefixLength], base[:ElementPrefixLength])
	// upper 8 bytes of the uint128 stay zero
	binary.BigEndian.PutUint64(k[KeyLength-8:], index)
	return k
}

// Element shortcut for ElementKey(k, index)
func (k Key) Element(index uint64) Key {
	return ElementKey(k, index)
}

// IsZero reports whether all bytes are zero
func (k Key) IsZero() bool {
	return k == Key{}
}

// Bytes returns a copy of the key bytes
func (k Key) Bytes() []byte {
	b := make([]byte, KeyLength)
	copy(b, k[:])
	return b
}

// String is Stringer implementation
func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// MarshalText encoding.TextMarshaler implementation
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText encoding.TextUnmarshaler implementation
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// DecodeHex decodes a hex string with an optional 0x prefix. "" and "0x" decode to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// EncodeHex renders b as 0x-prefixed lowercase hex
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
