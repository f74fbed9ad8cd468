package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dklbreitling/go-appd/oauth2client"
)

// OAuth2Transport is an http.RoundTripper that adds the token manager's
// bearer token to outgoing HTTP requests.
//
// It wraps an existing transport (typically http.DefaultTransport) and sets
// the Authorization header before each request. A request that already
// carries an Authorization header is passed through untouched, so callers
// can override authentication per request.
type OAuth2Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// TokenManager provides the bearer tokens.
	TokenManager *oauth2client.TokenManager
}

// RoundTrip implements http.RoundTripper. The token fetch respects the
// request context's cancellation and deadline.
func (t *OAuth2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.TokenManager == nil {
		return nil, errors.New("httpclient: TokenManager is nil")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// A caller-supplied Authorization header wins.
	if req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	tok, err := t.TokenManager.GetTokenWithContext(req.Context())
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	// Clone the request to avoid modifying the original.
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+tok.Value())

	return base.RoundTrip(reqClone)
}

// NewOAuth2Transport creates a new OAuth2Transport with the given token manager.
// The base transport defaults to http.DefaultTransport if not specified.
func NewOAuth2Transport(tm *oauth2client.TokenManager, base http.RoundTripper) *OAuth2Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &OAuth2Transport{
		Base:         base,
		TokenManager: tm,
	}
}
