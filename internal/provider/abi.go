package provider

import (
	"encoding/binary"

	"github.com/S0me0neR0man/kvschema/internal/codec"
)

const abiWord = 32

// DecodeBytesResult unpacks an ABI-encoded dynamic `bytes` return value:
// offset word, length word at offset, then the data. Empty input is an unset slot.
func DecodeBytesResult(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	offset, ok := abiUint(b, 0)
	if !ok || offset > uint64(len(b)-abiWord) {
		return nil, &codec.DataError{Type: "abi bytes", Data: b, Msg: "bad offset"}
	}
	length, ok := abiUint(b, offset)
	start := offset + abiWord
	if !ok || length > uint64(len(b))-start {
		return nil, &codec.DataError{Type: "abi bytes", Data: b, Msg: "bad length"}
	}
	if length == 0 {
		return nil, nil
	}
	out := make([]byte, length)
	copy(out, b[start:start+length])
	return out, nil
}

// EncodeBytesResult ABI-encodes data as a single dynamic `bytes` return value
func EncodeBytesResult(data []byte) []byte {
	padded := (len(data) + abiWord - 1) / abiWord * abiWord
	out := make([]byte, 2*abiWord+padded)
	binary.BigEndian.PutUint64(out[abiWord-8:abiWord], abiWord)
	binary.BigEndian.PutUint64(out[2*abiWord-8:2*abiWord], uint64(len(data)))
	copy(out[2*abiWord:], data)
	return out
}

// abiUint reads the word at off, ok is false if it is out of range or does not fit in uint64
func abiUint(b []byte, off uint64) (uint64, bool) {
	if off > uint64(len(b)) || uint64(len(b))-off < abiWord {
		return 0, false
	}
	w := b[off : off+abiWord]
	for _, c := range w[:abiWord-8] {
		if c != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(w[abiWord-8:]), true
}
