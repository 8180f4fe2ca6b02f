package codec

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

const (
	TypeUint256 = "uint256"
	TypeBool    = "bool"
	TypeString  = "string"
	TypeURL     = "url"
	TypeAddress = "address"
	TypeBytes   = "bytes"
	TypeBytes32 = "bytes32"
	TypeJSONURL = "jsonurl"

	wordLength = 32
)

func registerBuiltins(r *Registry) {
	r.Register(uintCodec{}, TypeUint256, "number", "integer", "uint", "arraylength")
	r.Register(boolCodec{}, TypeBool, "boolean")
	r.Register(stringCodec{name: TypeString}, TypeString)
	r.Register(stringCodec{name: TypeURL}, TypeURL)
	r.Register(addressCodec{}, TypeAddress)
	r.Register(bytesCodec{}, TypeBytes)
	r.Register(hashCodec{}, TypeBytes32, "keccak256", "hash")
	r.Register(jsonURLCodec{}, TypeJSONURL, "assets")
}

// uint256: 32-byte big-endian word, shorter inputs are implicitly left-padded
type uintCodec struct{}

func (uintCodec) Zero() any {
	return new(big.Int)
}

func (uintCodec) Decode(b []byte) (any, error) {
	if len(b) > wordLength {
		return nil, malformed(TypeUint256, b, "longer than %d bytes", wordLength)
	}
	return new(big.Int).SetBytes(b), nil
}

func (uintCodec) Encode(v any) ([]byte, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, malformed(TypeUint256, nil, "negative value %s", n)
	}
	if n.BitLen() > wordLength*8 {
		return nil, malformed(TypeUint256, nil, "value %s overflows 256 bits", n)
	}
	return n.FillBytes(make([]byte, wordLength)), nil
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int), nil
		}
		return n, nil
	case big.Int:
		return &n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		// base 0 accepts decimal and 0x-prefixed hex
		parsed, ok := new(big.Int).SetString(strings.TrimSpace(n), 0)
		if !ok {
			return nil, malformed(TypeUint256, nil, "cannot parse %q as integer", n)
		}
		return parsed, nil
	default:
		return nil, malformed(TypeUint256, nil, "cannot encode %T", v)
	}
}

// bool: one byte, or a 32-byte word
type boolCodec struct{}

func (boolCodec) Zero() any {
	return false
}

func (boolCodec) Decode(b []byte) (any, error) {
	var last byte
	switch len(b) {
	case 1:
		last = b[0]
	case wordLength:
		if !allZero(b[:wordLength-1]) {
			return nil, malformed(TypeBool, b, "dirty word padding")
		}
		last = b[wordLength-1]
	default:
		return nil, malformed(TypeBool, b, "want 1 or %d bytes", wordLength)
	}
	switch last {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return nil, malformed(TypeBool, b, "not 0 or 1")
}

func (boolCodec) Encode(v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, malformed(TypeBool, nil, "cannot encode %T", v)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

// string, url: UTF-8 bytes
type stringCodec struct {
	name string
}

func (stringCodec) Zero() any {
	return ""
}

func (c stringCodec) Decode(b []byte) (any, error) {
	if !utf8.Valid(b) {
		return nil, malformed(c.name, b, "invalid utf-8")
	}
	return string(b), nil
}

func (c stringCodec) Encode(v any) ([]byte, error) {
	var b []byte
	switch s := v.(type) {
	case string:
		b = []byte(s)
	case []byte:
		b = append([]byte{}, s...)
	case fmt.Stringer:
		b = []byte(s.String())
	default:
		return nil, malformed(c.name, nil, "cannot encode %T", v)
	}
	if !utf8.Valid(b) {
		return nil, malformed(c.name, b, "invalid utf-8")
	}
	return b, nil
}

// address: 20 bytes, or a left-padded 32-byte word
type addressCodec struct{}

func (addressCodec) Zero() any {
	return kv.Address{}
}

func (addressCodec) Decode(b []byte) (any, error) {
	var a kv.Address
	switch len(b) {
	case kv.AddressLength:
		copy(a[:], b)
	case wordLength:
		pad := wordLength - kv.AddressLength
		if !allZero(b[:pad]) {
			return nil, malformed(TypeAddress, b, "dirty word padding")
		}
		copy(a[:], b[pad:])
	default:
		return nil, malformed(TypeAddress, b, "want %d or %d bytes", kv.AddressLength, wordLength)
	}
	return a, nil
}

func (addressCodec) Encode(v any) ([]byte, error) {
	switch a := v.(type) {
	case kv.Address:
		return a.Bytes(), nil
	case *kv.Address:
		if a == nil {
			return nil, malformed(TypeAddress, nil, "nil address")
		}
		return a.Bytes(), nil
	case string:
		parsed, err := kv.ParseAddress(a)
		if err != nil {
			return nil, malformed(TypeAddress, nil, "%v", err)
		}
		return parsed.Bytes(), nil
	case []byte:
		if len(a) != kv.AddressLength {
			return nil, malformed(TypeAddress, a, "want %d bytes", kv.AddressLength)
		}
		return append([]byte{}, a...), nil
	}
	return nil, malformed(TypeAddress, nil, "cannot encode %T", v)
}

// bytes: opaque
type bytesCodec struct{}

func (bytesCodec) Zero() any {
	return []byte{}
}

func (bytesCodec) Decode(b []byte) (any, error) {
	return append([]byte{}, b...), nil
}

func (bytesCodec) Encode(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte{}, b...), nil
	case string:
		decoded, err := kv.DecodeHex(b)
		if err != nil {
			return nil, malformed(TypeBytes, nil, "cannot parse %q as hex", b)
		}
		return decoded, nil
	case kv.Hash:
		return b.Bytes(), nil
	}
	return nil, malformed(TypeBytes, nil, "cannot encode %T", v)
}

// bytes32: exactly 32 bytes
type hashCodec struct{}

func (hashCodec) Zero() any {
	return kv.Hash{}
}

func (hashCodec) Decode(b []byte) (any, error) {
	if len(b) != kv.HashLength {
		return nil, malformed(TypeBytes32, b, "want %d bytes", kv.HashLength)
	}
	var h kv.Hash
	copy(h[:], b)
	return h, nil
}

func (c hashCodec) Encode(v any) ([]byte, error) {
	switch h := v.(type) {
	case kv.Hash:
		return h.Bytes(), nil
	case kv.Key:
		return h.Bytes(), nil
	case [kv.HashLength]byte:
		return append([]byte{}, h[:]...), nil
	case []byte:
		if len(h) != kv.HashLength {
			return nil, malformed(TypeBytes32, h, "want %d bytes", kv.HashLength)
		}
		return append([]byte{}, h...), nil
	case string:
		decoded, err := kv.DecodeHex(h)
		if err != nil {
			return nil, malformed(TypeBytes32, nil, "cannot parse %q as hex", h)
		}
		return c.Encode(decoded)
	}
	return nil, malformed(TypeBytes32, nil, "cannot encode %T", v)
}

func allZero(b []byte) bool {
	return len(bytes.TrimLeft(b, "\x00")) == 0
}
