// Package schema binds field names to storage keys, layouts and value types.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
)

type KeyType string

const (
	// Singleton one slot holds the whole value
	Singleton KeyType = "Singleton"
	// Array the slot at the key holds the element count, derived slots hold the elements
	Array KeyType = "Array"
)

var (
	ErrUnknownEntry   = errors.New("unknown schema entry")
	ErrInvalidSchema  = errors.New("invalid schema")
	ErrUnknownKeyType = errors.New("unknown key type")
)

// ParseKeyType case-insensitive
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "singleton", "":
		return Singleton, nil
	case "array":
		return Array, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKeyType, s)
}

// Entry one named field.
// For Array entries ValueType is the type of every element.
type Entry struct {
	Name      string
	Key       kv.Key
	KeyType   KeyType
	ValueType string
}

func (e Entry) IsArray() bool {
	return e.KeyType == Array
}

func (e Entry) String() string {
	return fmt.Sprintf("%s(%s %s %s)", e.Name, e.Key, e.KeyType, e.ValueType)
}

// KeyForName ERC725Y convention: keccak256 of the field name
func KeyForName(name string) kv.Key {
	return kv.Key(kv.Keccak256([]byte(name)))
}

// Schema immutable ordered set of entries
type Schema struct {
	entries []Entry
	byName  map[string]int
	byKey   map[kv.Key]int
}

// New validates entries against reg (nil - builtin types)
func New(reg *codec.Registry, entries ...Entry) (*Schema, error) {
	if reg == nil {
		reg = codec.Default()
	}
	s := &Schema{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
		byKey:   make(map[kv.Key]int, len(entries)),
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidSchema, i)
		}
		if _, ok := s.byName[e.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidSchema, e.Name)
		}
		if prev, ok := s.byKey[e.Key]; ok {
			return nil, fmt.Errorf("%w: %q and %q share key %s", ErrInvalidSchema, s.entries[prev].Name, e.Name, e.Key)
		}
		kt, err := ParseKeyType(string(e.KeyType))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, e.Name, err)
		}
		e.KeyType = kt
		if _, err := reg.Lookup(e.ValueType); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}

		s.byName[e.Name] = len(s.entries)
		s.byKey[e.Key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// MustNew like New but panics on error
func MustNew(reg *codec.Registry, entries ...Entry) *Schema {
	s, err := New(reg, entries...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup by name
func (s *Schema) Lookup(name string) (Entry, error) {
	i, ok := s.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w %q", ErrUnknownEntry, name)
	}
	return s.entries[i], nil
}

// Resolve by name, or by the hex storage key when no entry has that name
func (s *Schema) Resolve(nameOrKey string) (Entry, error) {
	e, err := s.Lookup(nameOrKey)
	if err == nil {
		return e, nil
	}
	if k, kerr := kv.ParseKey(nameOrKey); kerr == nil {
		if e, ok := s.ByKey(k); ok {
			return e, nil
		}
	}
	return Entry{}, err
}

// ByKey entry whose primary key is k
func (s *Schema) ByKey(k kv.Key) (Entry, bool) {
	i, ok := s.byKey[k]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries copy in declaration order
func (s *Schema) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Schema) Len() int {
	return len(s.entries)
}
