package kv

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	AddressLength = 20
	HashLength    = 32
)

var (
	ErrInvalidAddress = errors.New("invalid address")
)

// Address 20-byte account address
type Address [AddressLength]byte

// Hash 32-byte opaque value
type Hash [HashLength]byte

// Keccak256 legacy keccak (pre-NIST sha3) of the concatenated input
func Keccak256(data ...[]byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// ParseAddress parses 40 hex characters with an optional 0x prefix.
// Checksum case is not validated.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := decodeHex(s)
	if err != nil {
		return a, fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w %q: want %d bytes, got %d", ErrInvalidAddress, s, AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress like ParseAddress but panics on error
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// Hex EIP-55 mixed-case checksum encoding
func (a Address) Hex() string {
	lower := []byte(hex.EncodeToString(a[:]))
	sum := Keccak256(lower)
	for i, c := range lower {
		if c < 'a' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			lower[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(lower)
}

// String is Stringer implementation
func (a Address) String() string {
	return a.Hex()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (h Hash) Bytes() []byte {
	b := make([]byte, HashLength)
	copy(b, h[:])
	return b
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
