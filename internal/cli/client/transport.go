package client

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

type anonymousKey struct{}

// withoutCredentials marks a request that must not carry the stored token.
// Login uses it so a rejected password is never mistaken for a revoked session.
func withoutCredentials(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// BearerToken returns the token a request was sent with, if any
func BearerToken(req *http.Request) string {
	if req == nil {
		return ""
	}
	header := req.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// authTransport attaches the stored token to outgoing requests and applies
// the session invalidation policy to 401 responses.
type authTransport struct {
	base   http.RoundTripper
	store  credstore.Store
	logger zerolog.Logger

	mu             sync.RWMutex
	onUnauthorized func(*http.Request)
}

func (t *authTransport) setHandler(fn func(*http.Request)) {
	t.mu.Lock()
	t.onUnauthorized = fn
	t.mu.Unlock()
}

func (t *authTransport) handler() func(*http.Request) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onUnauthorized
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var token string
	if !isAnonymous(req.Context()) {
		token = t.store.Load().Token
	}

	if token != "" {
		// RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		t.invalidate(req, token)
	}
	return resp, nil
}

// invalidate clears the store if it still holds the rejected token, then
// notifies the registered handler
func (t *authTransport) invalidate(req *http.Request, token string) {
	if current := t.store.Load().Token; current == token {
		if err := t.store.Clear(); err != nil {
			t.logger.Error().Err(err).Msg("Failed to clear rejected credentials")
		}
	}

	t.logger.Info().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("API rejected the session token")

	if fn := t.handler(); fn != nil {
		fn(req)
	}
}
