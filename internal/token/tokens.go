// Package token bearer token credentials for the storage gRPC service
package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/grpc/credentials"
)

const (
	// MetadataKey metadata keys are normalized to lowercase by grpc
	MetadataKey = "authorization"
	bearer      = "Bearer"
)

var (
	ErrNoToken = errors.New("no token")
)

// Tokens per-RPC credentials backed by an oauth2.TokenSource
type Tokens struct {
	source   oauth2.TokenSource
	insecure bool

	// Cached metadata to avoid asking the source for every call
	// to GetRequestMetadata.
	mu            sync.Mutex
	token         *oauth2.Token
	tokenMetadata map[string]string
}

// New credentials from source. With insecure the token is sent over plaintext connections too.
func New(source oauth2.TokenSource, insecure bool) *Tokens {
	return &Tokens{source: source, insecure: insecure}
}

// Static credentials for a fixed access token
func Static(accessToken string, insecure bool) *Tokens {
	return New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: bearer}), insecure)
}

func (t *Tokens) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	if !t.insecure {
		ri, _ := credentials.RequestInfoFromContext(ctx)
		if err := credentials.CheckSecurityLevel(ri.AuthInfo, credentials.PrivacyAndIntegrity); err != nil {
			return nil, err
		}
	}

	// Holding the lock for the whole token refresh ensures that concurrent RPCs
	// don't end up in multiple requests being made.
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token.Valid() && t.tokenMetadata != nil {
		return t.tokenMetadata, nil
	}
	tok, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	t.token = tok
	t.tokenMetadata = map[string]string{MetadataKey: tok.Type() + " " + tok.AccessToken}
	return t.tokenMetadata, nil
}

func (t *Tokens) RequireTransportSecurity() bool {
	return !t.insecure
}

// Valid reports whether an authorization metadata value carries want.
// An empty want accepts everything.
func Valid(authorization []string, want string) bool {
	if want == "" {
		return true
	}
	for _, a := range authorization {
		got := strings.TrimSpace(strings.TrimPrefix(a, bearer))
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1 {
			return true
		}
	}
	return false
}
