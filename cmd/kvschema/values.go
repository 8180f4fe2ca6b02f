package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/S0me0neR0man/kvschema/internal/codec"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/schema"
)

type jsonURLView struct {
	HashFunction string `json:"hashFunction"`
	Hash         string `json:"hash"`
	URL          string `json:"url"`
}

// render decoded values for JSON output: bytes as hex, integers as decimal strings
func render(v any) any {
	switch x := v.(type) {
	case []byte:
		return kv.EncodeHex(x)
	case *big.Int:
		return x.String()
	case codec.JSONURL:
		return jsonURLView{HashFunction: x.HashFunctionName(), Hash: x.Hash.String(), URL: x.URL}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = render(e)
		}
		return out
	}
	return v
}

// parseValue a command line value for entry e. Anything that is not JSON is a plain string,
// arrays are JSON lists and jsonurl values are {"url", "hash"} objects.
func parseValue(e schema.Entry, arg string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil || dec.More() {
		if e.IsArray() {
			return nil, fmt.Errorf("%s: want a JSON list", e.Name)
		}
		return arg, nil
	}

	if !e.IsArray() {
		return scalar(e.ValueType, raw)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: want a JSON list", e.Name)
	}
	out := make([]any, len(list))
	for i, item := range list {
		v, err := scalar(e.ValueType, item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", e.Name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func scalar(valueType string, raw any) (any, error) {
	switch x := raw.(type) {
	case json.Number:
		return x.String(), nil
	case map[string]any:
		url, _ := x["url"].(string)
		hash, _ := x["hash"].(string)
		h, err := kv.DecodeHex(hash)
		if err != nil || len(h) != kv.HashLength {
			return nil, fmt.Errorf("%s: hash must be %d bytes of hex", valueType, kv.HashLength)
		}
		j := codec.JSONURL{HashFunction: codec.HashFunctionKeccak256UTF8, URL: url}
		copy(j.Hash[:], h)
		return j, nil
	}
	return raw, nil
}
