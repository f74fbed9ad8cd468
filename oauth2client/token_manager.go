package oauth2client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	defaultTokenField  = "access_token"
	defaultExpiryField = "expires_in"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenManager caches an OAuth2 client-credentials bearer token, renews it in
// the background before expiry, and serves it to concurrent callers.
//
// At most one token request is in flight per manager: callers that find the
// cached token absent or expired share a single refresh and all observe its
// result. The network exchange always happens outside the manager's lock.
type TokenManager struct {
	endpoint tokenEndpoint
	client   *http.Client
	ctx      context.Context // detached context for background renewals and GetToken
	logger   Logger          // optional logger
	onError  func(error)     // optional hook for background renewal failures

	group singleflight.Group
	renew renewalTimer

	mu        sync.Mutex
	token     Token
	autoRenew bool
	retried   bool // background retry budget for the current renewal cycle
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithHTTPClient sets the HTTP client used for token requests.
// If not set, a client with a 30 second timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(tm *TokenManager) {
		tm.client = client
	}
}

// WithAutoRenewDisabled disables proactive background renewal. Tokens are
// then only refreshed lazily when a caller finds the cached one expired.
func WithAutoRenewDisabled() Option {
	return func(tm *TokenManager) {
		tm.autoRenew = false
	}
}

// WithTokenField overrides the response field the access token is read from.
// Default is "access_token".
func WithTokenField(name string) Option {
	return func(tm *TokenManager) {
		tm.endpoint.tokenField = name
	}
}

// WithExpiryField overrides the response field the token lifetime in seconds
// is read from. Default is "expires_in".
func WithExpiryField(name string) Option {
	return func(tm *TokenManager) {
		tm.endpoint.expiryField = name
	}
}

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithRenewErrorHandler registers a hook invoked whenever a background
// renewal attempt fails. Synchronous failures are returned to the caller
// instead and do not reach the hook.
func WithRenewErrorHandler(fn func(error)) Option {
	return func(tm *TokenManager) {
		tm.onError = fn
	}
}

// NewTokenManager creates an OAuth2 token manager using the client
// credentials flow and performs the initial token fetch synchronously.
// Construction fails if that first fetch fails, so a returned manager always
// starts with a usable token.
//
// Parameters:
//   - ctx: Context for token requests; detached from caller cancellation so
//     background renewals outlive the constructing call
//   - tokenURL: OAuth2 token endpoint (e.g., "https://controller.example.com/controller/api/oauth/access_token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - opts: Optional configuration (WithHTTPClient, WithAutoRenewDisabled, ...)
func NewTokenManager(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...Option) (*TokenManager, error) {
	// Keep token requests independent from caller cancellations while preserving values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	tm := &TokenManager{
		endpoint: tokenEndpoint{
			tokenURL:     tokenURL,
			clientID:     clientID,
			clientSecret: clientSecret,
			tokenField:   defaultTokenField,
			expiryField:  defaultExpiryField,
		},
		ctx:       ctx,
		autoRenew: true,
	}

	for _, opt := range opts {
		opt(tm)
	}

	if tm.client == nil {
		tm.client = &http.Client{Timeout: 30 * time.Second}
	}

	if _, err := tm.refresh(ctx); err != nil {
		return nil, err
	}

	return tm, nil
}

// GetTokenWithContext returns a token that is not expired at the time of
// return, fetching a new one first if necessary. The context applies to a
// fetch this call triggers; a caller that joins an already in-flight refresh
// shares that refresh's result.
//
// Safe for concurrent use. Concurrent callers against an empty or expired
// cache cause exactly one token request.
func (tm *TokenManager) GetTokenWithContext(ctx context.Context) (Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Fast path: serve the cached token while it is still valid.
	tm.mu.Lock()
	if tok := tm.token; tok.Valid(time.Now()) {
		tm.mu.Unlock()
		return tok, nil
	}
	tm.mu.Unlock()

	v, err, _ := tm.group.Do("refresh", func() (any, error) {
		// A refresh may have completed between the staleness check and
		// joining the group; serve its result instead of fetching again.
		tm.mu.Lock()
		if tok := tm.token; tok.Valid(time.Now()) {
			tm.mu.Unlock()
			return tok, nil
		}
		tm.mu.Unlock()

		return tm.refresh(ctx)
	})
	if err != nil {
		return Token{}, err
	}

	return v.(Token), nil
}

// GetToken returns a valid access token, fetching or refreshing if necessary.
// It uses the manager's detached context; prefer GetTokenWithContext when
// caller cancellation or deadlines matter.
func (tm *TokenManager) GetToken() (Token, error) {
	return tm.GetTokenWithContext(tm.ctx)
}

// Stop disables background renewal and cancels any pending renewal timer.
// Idempotent and safe to call concurrently with an in-flight refresh: a
// refresh that already fired completes normally but will not re-arm.
//
// The cached token stays valid until its expiry; later GetToken calls still
// refresh lazily, they just no longer schedule renewals.
func (tm *TokenManager) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.autoRenew = false
	tm.renew.Cancel()
}

// refresh performs one token exchange and installs the result as an atomic
// swap under the manager's lock. On success it re-arms the renewal timer
// (unless auto-renew is off) and resets the background retry budget. On
// failure the previously cached token is left untouched.
//
// Callers must serialize refreshes through tm.group; refresh itself holds the
// lock only around the swap, never around the network call.
func (tm *TokenManager) refresh(ctx context.Context) (Token, error) {
	value, expiresIn, err := fetchToken(ctx, tm.client, tm.endpoint)
	if err != nil {
		return Token{}, err
	}

	tok := newToken(value, expiresIn, time.Now())

	tm.mu.Lock()
	tm.token = tok
	tm.retried = false
	if tm.autoRenew {
		tm.renew.Arm(renewalDelay(expiresIn), tm.renewNow)
	}
	tm.mu.Unlock()

	if tm.logger != nil {
		tm.logger.Printf("oauth2: obtained new access token (expires: %s)", tok.ExpiresAt().Format(time.RFC3339))
	}

	return tok, nil
}

// renewNow is the renewal timer callback. Errors never escape the timer
// goroutine: a failed attempt is reported and retried once after a short
// fixed backoff, after which renewal rests until the next synchronous fetch.
func (tm *TokenManager) renewNow() {
	_, err, _ := tm.group.Do("refresh", func() (any, error) {
		return tm.refresh(tm.ctx)
	})
	if err == nil {
		return
	}

	tm.reportRenewError(err)

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.autoRenew && !tm.retried {
		tm.retried = true
		tm.renew.Arm(retryDelay, tm.renewNow)
	}
}

// reportRenewError surfaces a background renewal failure through the
// configured logger and error hook.
func (tm *TokenManager) reportRenewError(err error) {
	if tm.logger != nil {
		tm.logger.Printf("oauth2: background token renewal failed: %v", err)
	}
	if tm.onError != nil {
		tm.onError(err)
	}
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that adds
// the manager's bearer token to outgoing request metadata as
// "authorization: Bearer <token>". If the token cannot be obtained, the RPC
// is aborted with the fetch error.
func (tm *TokenManager) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		tok, err := tm.GetTokenWithContext(ctx)
		if err != nil {
			return fmt.Errorf("oauth2: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok.Value())

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that adds
// the manager's bearer token to outgoing request metadata. If the token
// cannot be obtained, stream creation is aborted with the fetch error.
func (tm *TokenManager) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		tok, err := tm.GetTokenWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth2: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok.Value())

		return streamer(ctx, desc, cc, method, opts...)
	}
}
