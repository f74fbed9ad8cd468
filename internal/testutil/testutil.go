package testutil

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	return server
}

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// TokenEndpoint simulates an OAuth2 token endpoint without real sockets.
// It records every request (including its form body) and serves responses
// through a custom RoundTripper, safe for concurrent use.
type TokenEndpoint struct {
	URL string

	handler RoundTripFunc

	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

// NewTokenEndpoint builds a mock token endpoint backed by an in-memory
// RoundTripper. If handler is nil, it serves a default successful token
// response. tb may be nil when used from testable examples.
func NewTokenEndpoint(tb testing.TB, handler RoundTripFunc) *TokenEndpoint {
	if tb != nil {
		tb.Helper()
	}

	if handler == nil {
		handler = StaticJSONResponse(http.StatusOK, TokenJSON("mock-access-token", "3600"))
	}

	return &TokenEndpoint{
		URL:     "https://mock-oauth.example.com/token",
		handler: handler,
	}
}

// Client returns an HTTP client whose transport records requests and serves
// the endpoint's responses. Pass it to the code under test.
func (e *TokenEndpoint) Client() *http.Client {
	return &http.Client{
		Transport: RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			e.mu.Lock()
			e.requests = append(e.requests, req)
			e.bodies = append(e.bodies, string(body))
			e.mu.Unlock()

			return e.handler(req)
		}),
	}
}

// SetHandler swaps the response handler, e.g. to make later requests fail.
func (e *TokenEndpoint) SetHandler(handler RoundTripFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// RequestCount returns how many requests the endpoint has received.
func (e *TokenEndpoint) RequestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// Requests returns a snapshot of the recorded requests.
func (e *TokenEndpoint) Requests() []*http.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	reqs := make([]*http.Request, len(e.requests))
	copy(reqs, e.requests)
	return reqs
}

// Bodies returns a snapshot of the recorded request bodies.
func (e *TokenEndpoint) Bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	bodies := make([]string, len(e.bodies))
	copy(bodies, e.bodies)
	return bodies
}

// StaticJSONResponse returns a RoundTripper that always responds with the
// provided status and JSON body.
func StaticJSONResponse(status int, body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// TokenJSON renders a token endpoint success body. expiresIn is inserted
// verbatim, so pass `3600` for a numeric field or `"3600"` for a string one.
func TokenJSON(token, expiresIn string) string {
	return fmt.Sprintf(`{"access_token": %q, "token_type": "Bearer", "expires_in": %s}`, token, expiresIn)
}

// WriteTestCACert writes a self-signed CA certificate to the provided path for TLS tests.
func WriteTestCACert(tb testing.TB, path string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate CA key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		Subject:               pkix.Name{CommonName: "test-ca"},
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create CA certificate: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		tb.Fatalf("failed to write CA certificate: %v", err)
	}
}

// WriteTestCertAndKey writes a self-signed certificate and key to the provided paths.
func WriteTestCertAndKey(tb testing.TB, certPath, keyPath string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		Subject:      pkix.Name{CommonName: "test-cert"},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		tb.Fatalf("failed to write certificate: %v", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		tb.Fatalf("failed to write key: %v", err)
	}
}
