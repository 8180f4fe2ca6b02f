package storagerpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

const (
	fieldAddress = "address"
	fieldKeys    = "keys"
	fieldPairs   = "pairs"
	fieldKey     = "key"
	fieldValue   = "value"
)

var (
	ErrInvalidMessage = errors.New("invalid storage message")
)

// NewQueryRequest {address, keys[]}, no keys asks for every stored pair
func NewQueryRequest(address kv.Address, keys []kv.Key) (*structpb.Struct, error) {
	list := make([]any, 0, len(keys))
	for _, k := range keys {
		list = append(list, k.String())
	}
	return structpb.NewStruct(map[string]any{
		fieldAddress: address.Hex(),
		fieldKeys:    list,
	})
}

func ParseQueryRequest(in *structpb.Struct) (kv.Address, []kv.Key, error) {
	var address kv.Address
	fields := in.GetFields()

	a, ok := fields[fieldAddress]
	if !ok {
		return address, nil, fmt.Errorf("%w: missing %s", ErrInvalidMessage, fieldAddress)
	}
	address, err := kv.ParseAddress(a.GetStringValue())
	if err != nil {
		return address, nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	values := fields[fieldKeys].GetListValue().GetValues()
	keys := make([]kv.Key, 0, len(values))
	for i, v := range values {
		k, err := kv.ParseKey(v.GetStringValue())
		if err != nil {
			return address, nil, fmt.Errorf("%w: keys[%d]: %w", ErrInvalidMessage, i, err)
		}
		keys = append(keys, k)
	}
	return address, keys, nil
}

// NewQueryResponse {pairs: [{key, value}]}, values hex encoded
func NewQueryResponse(pairs []kv.Pair) (*structpb.Struct, error) {
	list := make([]any, 0, len(pairs))
	for _, p := range pairs {
		list = append(list, map[string]any{
			fieldKey:   p.Key.String(),
			fieldValue: kv.EncodeHex(p.Value),
		})
	}
	return structpb.NewStruct(map[string]any{fieldPairs: list})
}

func ParseQueryResponse(in *structpb.Struct) ([]kv.Pair, error) {
	values := in.GetFields()[fieldPairs].GetListValue().GetValues()
	pairs := make([]kv.Pair, 0, len(values))
	for i, v := range values {
		fields := v.GetStructValue().GetFields()
		k, err := kv.ParseKey(fields[fieldKey].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: pairs[%d]: %w", ErrInvalidMessage, i, err)
		}
		value, err := kv.DecodeHex(fields[fieldValue].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: pairs[%d]: %w", ErrInvalidMessage, i, err)
		}
		pairs = append(pairs, kv.Pair{Key: k, Value: value})
	}
	return pairs, nil
}
