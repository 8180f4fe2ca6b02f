package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/S0me0neR0man/kvschema/internal/kv"
)

type graphQLRequest struct {
	Query     string `json:"query"`
	Variables struct {
		Address string   `json:"address"`
		Keys    []string `json:"keys"`
	} `json:"variables"`
}

type dataStore struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   *graphQLData   `json:"data,omitempty"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLData struct {
	DataStores []dataStore `json:"dataStores"`
}

// handleGraphQL resolves the dataStores of an address from the request variables only
func (hs *HTTPServer) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var (
		req  graphQLRequest
		resp graphQLResponse
		keys int
	)
	err := json.NewDecoder(r.Body).Decode(&req)
	if err == nil {
		resp, keys, err = hs.resolve(&req)
	}
	if err != nil {
		resp = graphQLResponse{Errors: []graphQLError{{Message: err.Error()}}}
	}
	hs.observe("graphql", keys, start, err)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		hs.sugar.Errorw("graphql write", "error", err)
	}
}

func (hs *HTTPServer) resolve(req *graphQLRequest) (graphQLResponse, int, error) {
	address, err := kv.ParseAddress(req.Variables.Address)
	if err != nil {
		return graphQLResponse{}, 0, err
	}
	keys := make([]kv.Key, 0, len(req.Variables.Keys))
	for _, s := range req.Variables.Keys {
		k, err := kv.ParseKey(s)
		if err != nil {
			return graphQLResponse{}, 0, err
		}
		keys = append(keys, k)
	}

	pairs := hs.store.Query(address, keys)
	stores := make([]dataStore, 0, len(pairs))
	for _, p := range pairs {
		stores = append(stores, dataStore{Key: p.Key.String(), Value: kv.EncodeHex(p.Value)})
	}
	hs.sugar.Debugw("graphql", "address", address.Hex(), "keys", len(keys), "pairs", len(pairs))
	return graphQLResponse{Data: &graphQLData{DataStores: stores}}, len(keys), nil
}
