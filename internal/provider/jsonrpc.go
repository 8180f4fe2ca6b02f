package provider

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

const (
	jsonRPCVersion = "2.0"

	// MethodCall eth_call
	MethodCall = "eth_call"
	// getDataSelector first 4 bytes of keccak256("getData(bytes32)")
	getDataSelector = "0x54f6127f"
)

// Request JSON-RPC 2.0 request
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// Response JSON-RPC 2.0 response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError error member of a response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// NewRequest with a fresh uuid id
func NewRequest(method string, params ...any) *Request {
	if params == nil {
		params = []any{}
	}
	return &Request{
		JSONRPC: jsonRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
}

// NewGetDataCall eth_call of getData(key) on address at the latest block
func NewGetDataCall(address kv.Address, key kv.Key) *Request {
	return NewRequest(MethodCall, callParams{
		To:   address.Hex(),
		Data: getDataSelector + key.String()[2:],
	}, "latest")
}

// ParseGetDataCall inverse of NewGetDataCall, for servers
func ParseGetDataCall(req *Request) (kv.Address, kv.Key, error) {
	var (
		addr kv.Address
		key  kv.Key
	)
	if req.Method != MethodCall || len(req.Params) == 0 {
		return addr, key, fmt.Errorf("not a getData call: %s", req.Method)
	}
	// params arrive as decoded JSON on the server side
	raw, err := json.Marshal(req.Params[0])
	if err != nil {
		return addr, key, err
	}
	var p callParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return addr, key, err
	}
	if len(p.Data) != len(getDataSelector)+2*kv.KeyLength || p.Data[:len(getDataSelector)] != getDataSelector {
		return addr, key, fmt.Errorf("not a getData call data: %s", p.Data)
	}
	if addr, err = kv.ParseAddress(p.To); err != nil {
		return addr, key, err
	}
	key, err = kv.ParseKey(p.Data[len(getDataSelector):])
	return addr, key, err
}

// Err returns the rpc error, if any
func (r *Response) Err() error {
	if r.Error != nil {
		return r.Error
	}
	return nil
}

// DecodeGetDataResult decodes the JSON result of a getData eth_call
func DecodeGetDataResult(result json.RawMessage) ([]byte, error) {
	var s string
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}
	if err := json.Unmarshal(result, &s); err != nil {
		return nil, fmt.Errorf("eth_call result: %w", err)
	}
	b, err := kv.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("eth_call result: %w", err)
	}
	return DecodeBytesResult(b)
}
