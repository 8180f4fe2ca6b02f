package kv

import (
	"bytes"
	"fmt"
)

// Pair raw key/value as produced by a provider. Nil or empty Value means an unset slot.
type Pair struct {
	Key   Key
	Value []byte
}

// IsUnset reports whether the slot was never written
func (p Pair) IsUnset() bool {
	return len(p.Value) == 0
}

func (p Pair) Equal(o Pair) bool {
	return p.Key == o.Key && bytes.Equal(p.Value, o.Value)
}

func (p Pair) String() string {
	return fmt.Sprintf("%s=%s", p.Key, EncodeHex(p.Value))
}

// Index maps pairs by key, the last pair for a duplicated key wins
func Index(pairs []Pair) map[Key][]byte {
	m := make(map[Key][]byte, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}

// Select returns the values for keys in keys order, nil for keys absent from pairs
func Select(pairs []Pair, keys []Key) [][]byte {
	m := Index(pairs)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
