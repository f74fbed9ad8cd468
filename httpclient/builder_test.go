package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dklbreitling/go-appd/internal/testutil"
)

func TestBuilder_Defaults(t *testing.T) {
	client, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.Timeout != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %v", client.Timeout)
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}

	if transport.TLSClientConfig == nil || transport.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Error("expected TLS 1.2 minimum by default")
	}
}

func TestBuilder_WithTokenManager(t *testing.T) {
	tm := newTestManager(t, "builder-token")

	client, err := NewBuilder().WithTokenManager(tm).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport, ok := client.Transport.(*OAuth2Transport)
	if !ok {
		t.Fatalf("expected *OAuth2Transport, got %T", client.Transport)
	}

	if transport.TokenManager != tm {
		t.Error("expected the provided token manager to be wired in")
	}
}

func TestBuilder_WithOAuth2_BuildsManager(t *testing.T) {
	server := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testutil.TokenJSON("built-token", "3600")))
	}))
	defer server.Close()

	client, err := NewBuilder().
		WithOAuth2(context.Background(), server.URL, "client-id", "client-secret").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport, ok := client.Transport.(*OAuth2Transport)
	if !ok {
		t.Fatalf("expected *OAuth2Transport, got %T", client.Transport)
	}
	defer transport.TokenManager.Stop()

	tok, err := transport.TokenManager.GetToken()
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if tok.Value() != "built-token" {
		t.Errorf("expected 'built-token', got %q", tok.Value())
	}
}

func TestBuilder_WithOAuth2_FailFast(t *testing.T) {
	server := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewBuilder().
		WithOAuth2(context.Background(), server.URL, "client-id", "bad-secret").
		Build()
	if err == nil {
		t.Fatal("expected Build to fail when the initial token fetch fails")
	}
}

func TestBuilder_WithTLS_CAFile(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.crt")
	testutil.WriteTestCACert(t, caPath)

	client, err := NewBuilder().WithTLS(caPath, "", "").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}

	if transport.TLSClientConfig.RootCAs == nil {
		t.Error("expected custom root CA pool")
	}
}

func TestBuilder_WithTLS_ClientCertPair(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "client.crt")
	keyPath := filepath.Join(dir, "client.key")
	testutil.WriteTestCertAndKey(t, certPath, keyPath)

	client, err := NewBuilder().WithTLS("", certPath, keyPath).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := client.Transport.(*http.Transport)
	if len(transport.TLSClientConfig.Certificates) != 1 {
		t.Error("expected client certificate to be loaded")
	}
}

func TestBuilder_WithTLS_CertWithoutKey(t *testing.T) {
	certPath := filepath.Join(t.TempDir(), "client.crt")
	testutil.WriteTestCACert(t, certPath)

	if _, err := NewBuilder().WithTLS("", certPath, "").Build(); err == nil {
		t.Error("expected error for cert without key")
	}
}

func TestBuilder_WithTLS_MissingCAFile(t *testing.T) {
	if _, err := NewBuilder().WithTLS("/nonexistent/ca.crt", "", "").Build(); err == nil {
		t.Error("expected error for missing CA file")
	}
}

func TestBuilder_WithInsecureSkipVerify(t *testing.T) {
	client, err := NewBuilder().WithInsecureSkipVerify().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := client.Transport.(*http.Transport)
	if !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be set")
	}
}

func TestBuilder_WithTimeout(t *testing.T) {
	client, err := NewBuilder().WithTimeout(5 * time.Second).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", client.Timeout)
	}
}

func TestBuilder_WithoutRedirects(t *testing.T) {
	client, err := NewBuilder().WithoutRedirects().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.CheckRedirect == nil {
		t.Fatal("expected redirect policy to be set")
	}

	if err := client.CheckRedirect(nil, nil); err != http.ErrUseLastResponse {
		t.Errorf("expected ErrUseLastResponse, got %v", err)
	}
}

func TestBuilder_WithBaseTransport(t *testing.T) {
	base := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req), nil
	})

	client, err := NewBuilder().WithBaseTransport(base).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, ok := client.Transport.(testutil.RoundTripFunc); !ok {
		t.Errorf("expected custom base transport, got %T", client.Transport)
	}
}

func TestBuilder_WithBaseTransport_AppliesTLS(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.crt")
	testutil.WriteTestCACert(t, caPath)

	base := &http.Transport{}

	client, err := NewBuilder().
		WithBaseTransport(base).
		WithTLS(caPath, "", "").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}

	if transport.TLSClientConfig == nil || transport.TLSClientConfig.RootCAs == nil {
		t.Error("TLS options were ignored for the custom base transport")
	}

	// The caller's transport must stay untouched.
	if base.TLSClientConfig != nil {
		t.Error("caller-supplied base transport was mutated")
	}
}

func TestBuilder_WithBaseTransport_SkipVerify(t *testing.T) {
	client, err := NewBuilder().
		WithBaseTransport(&http.Transport{}).
		WithInsecureSkipVerify().
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := client.Transport.(*http.Transport)
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify was ignored for the custom base transport")
	}
}

func TestBuilder_WithBaseTransport_TLSNeedsHTTPTransport(t *testing.T) {
	base := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req), nil
	})

	if _, err := NewBuilder().WithBaseTransport(base).WithInsecureSkipVerify().Build(); err == nil {
		t.Error("expected error when TLS options are combined with a non-*http.Transport base")
	}
}

func TestNewHTTPClient(t *testing.T) {
	tm := newTestManager(t, "simple-token")

	client := NewHTTPClient(tm)

	if client.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", client.Timeout)
	}

	if _, ok := client.Transport.(*OAuth2Transport); !ok {
		t.Errorf("expected *OAuth2Transport, got %T", client.Transport)
	}
}
