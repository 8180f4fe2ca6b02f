package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// handleRPC answers eth_call getData requests, over websocket on upgrade
func (hs *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		hs.serveWS(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		req  provider.Request
		resp *provider.Response
	)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp = &provider.Response{
			JSONRPC: "2.0",
			Error:   &provider.RPCError{Code: codeParseError, Message: err.Error()},
		}
	} else {
		resp = hs.answer(&req)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		hs.sugar.Errorw("rpc write", "error", err)
	}
}

func (hs *HTTPServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hs.sugar.Errorw("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req provider.Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				hs.sugar.Debugw("websocket read", "error", err)
			}
			return
		}
		if err := conn.WriteJSON(hs.answer(&req)); err != nil {
			hs.sugar.Debugw("websocket write", "error", err)
			return
		}
	}
}

func (hs *HTTPServer) answer(req *provider.Request) *provider.Response {
	start := time.Now()
	resp := &provider.Response{JSONRPC: "2.0", ID: req.ID}

	address, key, err := provider.ParseGetDataCall(req)
	if err != nil {
		code := codeInvalidParams
		if req.Method != provider.MethodCall {
			code = codeMethodNotFound
		}
		resp.Error = &provider.RPCError{Code: code, Message: err.Error()}
		hs.observe("rpc", 0, start, err)
		return resp
	}

	value, _ := hs.store.Get(address, key)
	resp.Result, err = json.Marshal(kv.EncodeHex(provider.EncodeBytesResult(value)))
	hs.observe("rpc", 1, start, err)
	if err != nil {
		resp.Error = &provider.RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return resp
}
