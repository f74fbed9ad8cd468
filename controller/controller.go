package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dklbreitling/go-appd/oauth2client"
)

// oauthEndpoint is the controller-relative path of the OAuth2 token endpoint.
const oauthEndpoint = "/controller/api/oauth/access_token"

// APIError indicates the controller answered a request with an unexpected
// HTTP status.
type APIError struct {
	// Method is the HTTP method of the failed request.
	Method string
	// Object describes what was being fetched, e.g. "applications".
	Object string
	// StatusCode is the HTTP status the controller returned.
	StatusCode int
	// Body is a truncated copy of the response body.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("controller: could not %s %s, received status code %d", e.Method, e.Object, e.StatusCode)
}

// Controller is an AppDynamics controller API client, authorized using the
// OAuth2 client-credentials flow. Requires an API client configured on the
// controller.
//
// All request methods inject the current bearer token unless the caller
// supplied an Authorization header of their own. Safe for concurrent use.
type Controller struct {
	baseURL string
	auth    *oauth2client.TokenManager
	client  *http.Client
}

// Option is a functional option for configuring a Controller.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	oauthOpts  []oauth2client.Option
}

// WithHTTPClient sets the HTTP client used for API and token requests.
// If not set, a client with a 30 second timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithOAuthOptions forwards options to the underlying token manager, e.g.
// oauth2client.WithLoggingEnabled or oauth2client.WithAutoRenewDisabled.
func WithOAuthOptions(opts ...oauth2client.Option) Option {
	return func(s *settings) {
		s.oauthOpts = append(s.oauthOpts, opts...)
	}
}

// New creates a Controller for the given base URL (e.g.
// "https://mytenant.saas.appdynamics.com") and performs the initial token
// fetch. It fails if the controller rejects the client credentials.
func New(ctx context.Context, baseURL, clientID, clientSecret string, opts ...Option) (*Controller, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	base := strings.TrimRight(baseURL, "/")

	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	oauthOpts := append([]oauth2client.Option{
		oauth2client.WithHTTPClient(s.httpClient),
	}, s.oauthOpts...)

	auth, err := oauth2client.NewTokenManager(ctx, base+oauthEndpoint, clientID, clientSecret, oauthOpts...)
	if err != nil {
		return nil, fmt.Errorf("controller: authorization failed: %w", err)
	}

	return &Controller{
		baseURL: base,
		auth:    auth,
		client:  s.httpClient,
	}, nil
}

// TokenManager returns the credential manager, e.g. to share it with other
// clients or to inspect the current token.
func (c *Controller) TokenManager() *oauth2client.TokenManager {
	return c.auth
}

// Close stops background token renewal. The controller remains usable;
// expired tokens are then refreshed lazily on demand.
func (c *Controller) Close() {
	c.auth.Stop()
}

// Request performs an authenticated request against a controller-relative
// endpoint. The bearer token is injected unless header already contains an
// Authorization entry. The caller owns the response body.
func (c *Controller) Request(ctx context.Context, method, endpoint string, query url.Values, header http.Header) (*http.Response, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("controller: build request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if req.Header.Get("Authorization") == "" {
		tok, err := c.auth.GetTokenWithContext(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok.Value())
	}

	return c.client.Do(req)
}

// Get performs an authenticated GET against a controller-relative endpoint.
func (c *Controller) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, query, nil)
}

// requestOrFail performs a request and maps any status other than 200 OK to
// an *APIError describing the object being fetched.
func (c *Controller) requestOrFail(ctx context.Context, method, endpoint, object string, query url.Values) (*http.Response, error) {
	resp, err := c.Request(ctx, method, endpoint, query, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			Method:     method,
			Object:     object,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return resp, nil
}

// getJSON fetches an endpoint with `output=JSON` requested (unless the caller
// chose a different output) and decodes the body into out.
func (c *Controller) getJSON(ctx context.Context, endpoint, object string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if query.Get("output") == "" {
		query.Set("output", "JSON")
	}

	resp, err := c.requestOrFail(ctx, http.MethodGet, endpoint, object, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("controller: decode %s response: %w", object, err)
	}

	return nil
}

// getText fetches an endpoint and returns the raw response body. Used for
// endpoints that answer with XML and do not support `output=JSON`.
func (c *Controller) getText(ctx context.Context, endpoint, object string) (string, error) {
	resp, err := c.requestOrFail(ctx, http.MethodGet, endpoint, object, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("controller: read %s response: %w", object, err)
	}

	return string(body), nil
}
