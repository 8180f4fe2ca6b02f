package codec

import (
	"math/big"
)

// DefaultMaxArrayLength upper bound for decoded array counts
const DefaultMaxArrayLength = 1 << 16

// DecodeArrayLength decodes an array length slot. Unset decodes to 0.
// Counts above max (0 - DefaultMaxArrayLength) are malformed.
func DecodeArrayLength(b []byte, max uint64) (uint64, error) {
	if max == 0 {
		max = DefaultMaxArrayLength
	}
	if len(b) == 0 {
		return 0, nil
	}
	v, err := uintCodec{}.Decode(b)
	if err != nil {
		return 0, err
	}
	n := v.(*big.Int)
	if !n.IsUint64() || n.Uint64() > max {
		return 0, malformed(TypeUint256, b, "array length %s exceeds %d", n, max)
	}
	return n.Uint64(), nil
}

// EncodeArrayLength canonical encoding of an array length slot
func EncodeArrayLength(n uint64) []byte {
	b, _ := uintCodec{}.Encode(n)
	return b
}
