package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
)

// document entry as found in ERC725Y JSON schemas
type document struct {
	Name         string `json:"name"`
	Key          string `json:"key"`
	KeyType      string `json:"keyType"`
	ValueType    string `json:"valueType"`
	ValueContent string `json:"valueContent"`
}

// Load reads a JSON array of {name, key, keyType, valueType | valueContent}.
// An entry without key gets KeyForName(name).
func Load(r io.Reader, reg *codec.Registry) (*Schema, error) {
	var docs []document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	entries := make([]Entry, 0, len(docs))
	for i, d := range docs {
		e := Entry{
			Name:      d.Name,
			KeyType:   KeyType(d.KeyType),
			ValueType: d.ValueType,
		}
		if e.ValueType == "" {
			e.ValueType = d.ValueContent
		}
		if d.Key == "" {
			e.Key = KeyForName(d.Name)
		} else {
			k, err := kv.ParseKey(d.Key)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d (%s): %w", ErrInvalidSchema, i, d.Name, err)
			}
			e.Key = k
		}
		entries = append(entries, e)
	}
	return New(reg, entries...)
}

// LoadFile opens path and calls Load
func LoadFile(path string, reg *codec.Registry) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, reg)
}
