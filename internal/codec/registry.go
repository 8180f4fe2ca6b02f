// Package codec maps value-type tags to binary encode/decode routines.
//
// Decoding an empty value never fails: it yields the zero value of the type,
// the same way an unset storage slot reads back.
package codec

import (
	"sort"
	"strings"
	"sync"
)

// Codec binary representation of one value type
type Codec interface {
	// Encode returns the canonical encoding of v
	Encode(v any) ([]byte, error)
	// Decode parses a non-empty raw value
	Decode(b []byte) (any, error)
	// Zero the value of an unset slot
	Zero() any
}

// Registry value-type tag to Codec. Tags are case-insensitive.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns a registry preloaded with the builtin types
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	registerBuiltins(r)
	return r
}

// NewEmptyRegistry returns a registry without any types
func NewEmptyRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Register binds c to tag and to every alias, replacing previous bindings
func (r *Registry) Register(c Codec, tag string, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[normalize(tag)] = c
	for _, a := range aliases {
		r.codecs[normalize(a)] = c
	}
}

// Lookup returns the codec bound to tag or ErrUnsupportedType
func (r *Registry) Lookup(tag string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[normalize(tag)]
	if !ok {
		return nil, unsupported(tag)
	}
	return c, nil
}

// Supports reports whether tag is registered
func (r *Registry) Supports(tag string) bool {
	_, err := r.Lookup(tag)
	return err == nil
}

// Tags returns all registered tags and aliases, sorted
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.codecs))
	for t := range r.codecs {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Encode encodes v as tag
func (r *Registry) Encode(tag string, v any) ([]byte, error) {
	c, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	return c.Encode(v)
}

// Decode decodes b as tag. Empty b yields the zero value.
func (r *Registry) Decode(tag string, b []byte) (any, error) {
	c, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return c.Zero(), nil
	}
	return c.Decode(b)
}

// Canonicalize re-encodes b in the canonical form of tag
func (r *Registry) Canonicalize(tag string, b []byte) ([]byte, error) {
	v, err := r.Decode(tag, b)
	if err != nil {
		return nil, err
	}
	return r.Encode(tag, v)
}

var defaultRegistry = NewRegistry()

// Default the shared registry of the builtin types. Types registered on it are seen by
// every schema and entry codec built without an explicit registry.
func Default() *Registry {
	return defaultRegistry
}
