package oauth2client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// tokenEndpoint describes a single client-credentials exchange: where to send
// it and which response fields carry the result.
type tokenEndpoint struct {
	tokenURL     string
	clientID     string
	clientSecret string
	tokenField   string
	expiryField  string
}

// fetchToken performs one client-credentials exchange against the token
// endpoint and returns the raw access token together with its lifetime in
// seconds. It never retries; retry policy belongs to the caller.
//
// Failures are classified as *TransportError, *AuthorizationError,
// *TokenFieldMissingError or *ExpiryFieldMissingError.
func fetchToken(ctx context.Context, client *http.Client, ep tokenEndpoint) (string, int, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ep.clientID},
		"client_secret": {ep.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("oauth2: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthorizationError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &TransportError{Err: err}
	}

	// The response is a flat key/value object; UseNumber keeps the expiry
	// value intact whether the endpoint reports it as a number or a string.
	fields := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return "", 0, fmt.Errorf("oauth2: decode token endpoint response: %w", err)
	}

	rawToken, ok := fields[ep.tokenField]
	if !ok {
		return "", 0, &TokenFieldMissingError{Field: ep.tokenField}
	}
	token, ok := rawToken.(string)
	if !ok {
		return "", 0, fmt.Errorf("oauth2: token field %q is not a string", ep.tokenField)
	}

	rawExpiry, ok := fields[ep.expiryField]
	if !ok {
		return "", 0, &ExpiryFieldMissingError{Field: ep.expiryField}
	}
	expiresIn, err := expirySeconds(rawExpiry)
	if err != nil {
		return "", 0, fmt.Errorf("oauth2: expiry field %q: %w", ep.expiryField, err)
	}
	// A token that is already expired on arrival is unusable; installing it
	// would hand callers a known-expired credential.
	if expiresIn <= 0 {
		return "", 0, fmt.Errorf("oauth2: expiry field %q: non-positive lifetime %d", ep.expiryField, expiresIn)
	}

	return token, expiresIn, nil
}

// expirySeconds coerces an expiry value to whole seconds. Endpoints disagree
// on the wire type; both `"expires_in": 300` and `"expires_in": "300"` occur
// in the wild.
func expirySeconds(v any) (int, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %w", err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
