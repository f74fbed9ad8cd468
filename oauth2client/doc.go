// Package oauth2client provides an OAuth2 client-credentials token manager
// with proactive background renewal.
//
// TokenManager obtains a bearer token at construction, caches it, and renews
// it on a background timer five seconds before expiry. Concurrent callers
// never trigger duplicate token requests: a refresh in flight is shared by
// everyone waiting on it. Failed background renewals are retried once after
// one second and otherwise fall back to lazy refresh on the next GetToken.
//
// # Features
//
//   - Client-credentials flow with fail-fast initial fetch and automatic renewal
//   - Single-flight refresh: one token request no matter how many callers race
//   - Configurable token and expiry response field names
//   - gRPC unary and stream client interceptors that inject Bearer tokens
//   - Optional logging (WithLogger, WithLoggingEnabled) and a background
//     renewal error hook (WithRenewErrorHandler)
//
// # Quick Start
//
//	tm, err := oauth2client.NewTokenManager(
//	    ctx,
//	    "https://controller.example.com/controller/api/oauth/access_token",
//	    "client-id",
//	    "client-secret",
//	    oauth2client.WithLoggingEnabled(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tm.Stop()
//
//	tok, err := tm.GetTokenWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req.Header.Set("Authorization", "Bearer "+tok.Value())
//
// # Notes
//
//   - Stop disables renewal but keeps the cached token; later GetToken calls
//     still refresh lazily when it expires.
//   - Token request failures are typed: AuthorizationError,
//     TokenFieldMissingError, ExpiryFieldMissingError, TransportError.
package oauth2client
