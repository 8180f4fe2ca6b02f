package codec

import (
	"encoding/hex"
	"unicode/utf8"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

// HashFunctionKeccak256UTF8 identifier of keccak256 over the utf-8 bytes of the document
var HashFunctionKeccak256UTF8 = [4]byte{0x6f, 0x35, 0x7c, 0x6a}

const jsonURLHeaderLength = 4 + kv.HashLength

// JSONURL reference to an off-chain document together with its hash.
//
// Layout: hash function id (4) | hash (32) | url (utf-8, rest)
type JSONURL struct {
	HashFunction [4]byte
	Hash         kv.Hash
	URL          string
}

// NewJSONURL references document at url, hashed with keccak256(utf8)
func NewJSONURL(document []byte, url string) JSONURL {
	return JSONURL{
		HashFunction: HashFunctionKeccak256UTF8,
		Hash:         kv.Keccak256(document),
		URL:          url,
	}
}

// HashFunctionName human readable hash function, hex id if unknown
func (j JSONURL) HashFunctionName() string {
	if j.HashFunction == HashFunctionKeccak256UTF8 {
		return "keccak256(utf8)"
	}
	return "0x" + hex.EncodeToString(j.HashFunction[:])
}

// Verify reports whether document matches the referenced hash
func (j JSONURL) Verify(document []byte) bool {
	if j.HashFunction != HashFunctionKeccak256UTF8 {
		return false
	}
	return kv.Keccak256(document) == j.Hash
}

type jsonURLCodec struct{}

func (jsonURLCodec) Zero() any {
	return JSONURL{}
}

func (jsonURLCodec) Decode(b []byte) (any, error) {
	if len(b) < jsonURLHeaderLength {
		return nil, malformed(TypeJSONURL, b, "shorter than %d bytes", jsonURLHeaderLength)
	}
	url := b[jsonURLHeaderLength:]
	if !utf8.Valid(url) {
		return nil, malformed(TypeJSONURL, b, "invalid utf-8 url")
	}
	var j JSONURL
	copy(j.HashFunction[:], b[:4])
	copy(j.Hash[:], b[4:jsonURLHeaderLength])
	j.URL = string(url)
	return j, nil
}

func (jsonURLCodec) Encode(v any) ([]byte, error) {
	var j JSONURL
	switch x := v.(type) {
	case JSONURL:
		j = x
	case *JSONURL:
		if x == nil {
			return nil, malformed(TypeJSONURL, nil, "nil value")
		}
		j = *x
	default:
		return nil, malformed(TypeJSONURL, nil, "cannot encode %T", v)
	}
	if !utf8.ValidString(j.URL) {
		return nil, malformed(TypeJSONURL, nil, "invalid utf-8 url")
	}
	out := make([]byte, 0, jsonURLHeaderLength+len(j.URL))
	out = append(out, j.HashFunction[:]...)
	out = append(out, j.Hash[:]...)
	out = append(out, j.URL...)
	return out, nil
}
