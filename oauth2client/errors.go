package oauth2client

import "fmt"

// AuthorizationError indicates the token endpoint rejected the request with a
// non-success HTTP status, typically because the client credentials are wrong.
type AuthorizationError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("oauth2: authorization failed, token endpoint returned status %d", e.StatusCode)
}

// TokenFieldMissingError indicates a successful token response that lacks the
// configured access-token field.
type TokenFieldMissingError struct {
	// Field is the configured access-token field name.
	Field string
}

func (e *TokenFieldMissingError) Error() string {
	return fmt.Sprintf("oauth2: token field %q not in token endpoint response", e.Field)
}

// ExpiryFieldMissingError indicates a successful token response that lacks the
// configured expiry field.
type ExpiryFieldMissingError struct {
	// Field is the configured expiry field name.
	Field string
}

func (e *ExpiryFieldMissingError) Error() string {
	return fmt.Sprintf("oauth2: expiry field %q not in token endpoint response", e.Field)
}

// TransportError indicates the token endpoint could not be reached or the
// exchange failed below the HTTP layer. It wraps the underlying network error.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oauth2: token request failed: %v", e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
