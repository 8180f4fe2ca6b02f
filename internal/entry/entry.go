// Package entry decodes and encodes the raw pairs of one schema entry.
package entry

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/schema"
)

var (
	ErrArrayLengthMismatch = errors.New("array length mismatch")
	ErrKeyMismatch         = errors.New("key mismatch")
)

// Error failure of a single entry
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errors splits an error returned by DecodeAllData or GetAllData into per-entry errors
func Errors(err error) []*Error {
	var out []*Error
	for _, e := range multierr.Errors(err) {
		var ee *Error
		if errors.As(e, &ee) {
			out = append(out, ee)
		}
	}
	return out
}

// Codec schema entry codec over a type registry
type Codec struct {
	reg            *codec.Registry
	maxArrayLength uint64
}

// New reg nil - builtin types, maxArrayLength 0 - codec.DefaultMaxArrayLength
func New(reg *codec.Registry, maxArrayLength uint64) *Codec {
	if reg == nil {
		reg = codec.Default()
	}
	if maxArrayLength == 0 {
		maxArrayLength = codec.DefaultMaxArrayLength
	}
	return &Codec{reg: reg, maxArrayLength: maxArrayLength}
}

func (c *Codec) Registry() *codec.Registry {
	return c.reg
}

func (c *Codec) MaxArrayLength() uint64 {
	return c.maxArrayLength
}

// DecodeLength decodes an array length slot
func (c *Codec) DecodeLength(raw []byte) (uint64, error) {
	return codec.DecodeArrayLength(raw, c.maxArrayLength)
}

// Decode pairs in fetch-plan order: the primary pair, then for arrays one pair per element.
// No pairs at all reads as an unset slot.
func (c *Codec) Decode(e schema.Entry, pairs []kv.Pair) (any, error) {
	if !e.IsArray() {
		switch len(pairs) {
		case 0:
			return c.reg.Decode(e.ValueType, nil)
		case 1:
			if pairs[0].Key != e.Key {
				return nil, fmt.Errorf("%w: want %s, got %s", ErrKeyMismatch, e.Key, pairs[0].Key)
			}
			return c.reg.Decode(e.ValueType, pairs[0].Value)
		}
		return nil, fmt.Errorf("%w: singleton got %d pairs", ErrKeyMismatch, len(pairs))
	}

	if len(pairs) == 0 {
		return []any{}, nil
	}
	if pairs[0].Key != e.Key {
		return nil, fmt.Errorf("%w: length slot want %s, got %s", ErrKeyMismatch, e.Key, pairs[0].Key)
	}
	count, err := c.DecodeLength(pairs[0].Value)
	if err != nil {
		return nil, err
	}
	elements := pairs[1:]
	if uint64(len(elements)) != count {
		return nil, fmt.Errorf("%w: count %d, got %d elements", ErrArrayLengthMismatch, count, len(elements))
	}

	out := make([]any, len(elements))
	for i, p := range elements {
		want := kv.ElementKey(e.Key, uint64(i+1))
		if p.Key != want {
			return nil, fmt.Errorf("%w: element %d: %w: want %s, got %s", ErrArrayLengthMismatch, i+1, ErrKeyMismatch, want, p.Key)
		}
		out[i], err = c.reg.Decode(e.ValueType, p.Value)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i+1, err)
		}
	}
	return out, nil
}

// Encode returns the pairs Decode consumes: the length pair followed by one pair per element for arrays
func (c *Codec) Encode(e schema.Entry, v any) ([]kv.Pair, error) {
	if !e.IsArray() {
		b, err := c.reg.Encode(e.ValueType, v)
		if err != nil {
			return nil, err
		}
		return []kv.Pair{{Key: e.Key, Value: b}}, nil
	}

	elements, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	if uint64(len(elements)) > c.maxArrayLength {
		return nil, fmt.Errorf("%w: %d elements exceed %d", codec.ErrMalformedValue, len(elements), c.maxArrayLength)
	}

	pairs := make([]kv.Pair, 0, len(elements)+1)
	pairs = append(pairs, kv.Pair{Key: e.Key, Value: codec.EncodeArrayLength(uint64(len(elements)))})
	for i, el := range elements {
		b, err := c.reg.Encode(e.ValueType, el)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i+1, err)
		}
		pairs = append(pairs, kv.Pair{Key: kv.ElementKey(e.Key, uint64(i+1)), Value: b})
	}
	return pairs, nil
}

func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: array value must be a slice, got %T", codec.ErrMalformedValue, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// DecodeKeyValue decodes raw values without keys.
// Singleton: values[0]. Array: values[0] is the count, the rest the elements in order.
func (c *Codec) DecodeKeyValue(e schema.Entry, values ...[]byte) (any, error) {
	pairs := make([]kv.Pair, len(values))
	for i, v := range values {
		pairs[i].Value = v
		if i == 0 {
			pairs[i].Key = e.Key
		} else {
			pairs[i].Key = kv.ElementKey(e.Key, uint64(i))
		}
	}
	return c.Decode(e, pairs)
}

// DecodeAllData decodes every schema entry from an unordered set of pairs, correlated by key.
// Keys absent from pairs are unset slots. Entries that fail are left out of the result
// and reported as *Error combined with multierr.
func (c *Codec) DecodeAllData(s *schema.Schema, pairs []kv.Pair) (map[string]any, error) {
	idx := kv.Index(pairs)
	out := make(map[string]any, s.Len())

	var errs error
	for _, e := range s.Entries() {
		v, err := c.decodeIndexed(e, idx)
		if err != nil {
			errs = multierr.Append(errs, &Error{Name: e.Name, Err: err})
			continue
		}
		out[e.Name] = v
	}
	return out, errs
}

func (c *Codec) decodeIndexed(e schema.Entry, idx map[kv.Key][]byte) (any, error) {
	if !e.IsArray() {
		return c.reg.Decode(e.ValueType, idx[e.Key])
	}
	count, err := c.DecodeLength(idx[e.Key])
	if err != nil {
		return nil, err
	}
	pairs := make([]kv.Pair, 0, count+1)
	pairs = append(pairs, kv.Pair{Key: e.Key, Value: idx[e.Key]})
	for i := uint64(1); i <= count; i++ {
		k := kv.ElementKey(e.Key, i)
		pairs = append(pairs, kv.Pair{Key: k, Value: idx[k]})
	}
	return c.Decode(e, pairs)
}

var defaultCodec = New(nil, 0)

// EncodeKeyValue encodes with the builtin types
func EncodeKeyValue(e schema.Entry, v any) ([]kv.Pair, error) {
	return defaultCodec.Encode(e, v)
}

// DecodeKeyValue decodes with the builtin types
func DecodeKeyValue(e schema.Entry, values ...[]byte) (any, error) {
	return defaultCodec.DecodeKeyValue(e, values...)
}

// DecodeAllData decodes with the builtin types
func DecodeAllData(s *schema.Schema, pairs []kv.Pair) (map[string]any, error) {
	return defaultCodec.DecodeAllData(s, pairs)
}
