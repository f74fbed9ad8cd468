package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dklbreitling/go-appd/oauth2client"
)

// Builder provides a fluent interface for constructing HTTP clients with
// optional OAuth2 authentication and TLS/mTLS support.
type Builder struct {
	// OAuth2 configuration. Either an existing token manager or the
	// parameters to construct one at Build time (construction can fail, so
	// it is deferred rather than done in the With method).
	tokenManager *oauth2client.TokenManager
	oauthCtx     context.Context
	tokenURL     string
	clientID     string
	clientSecret string
	oauthOpts    []oauth2client.Option

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithTokenManager sets an existing token manager for automatic authentication.
func (b *Builder) WithTokenManager(tm *oauth2client.TokenManager) *Builder {
	b.tokenManager = tm
	return b
}

// WithOAuth2 enables OAuth2 client-credentials authentication. The token
// manager is constructed (and performs its initial fetch) during Build.
//
// Parameters:
//   - ctx: Context for token requests
//   - tokenURL: OAuth2 token endpoint
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - opts: Optional token manager configuration
func (b *Builder) WithOAuth2(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...oauth2client.Option) *Builder {
	b.oauthCtx = ctx
	b.tokenURL = tokenURL
	b.clientID = clientID
	b.clientSecret = clientSecret
	b.oauthOpts = opts
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or using a custom connection pool.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the HTTP client with the configured options.
//
// Returns:
//   - *http.Client: Configured HTTP client
//   - error: Error if configuration is invalid or the initial token fetch fails
func (b *Builder) Build() (*http.Client, error) {
	transport := b.baseTransport
	if transport == nil {
		if httpTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			httpTransport = httpTransport.Clone()

			if b.tlsEnabled || b.tlsSkipVerify {
				tlsConfig, err := b.buildTLSConfig()
				if err != nil {
					return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
				}
				httpTransport.TLSClientConfig = tlsConfig
			} else {
				// Secure TLS defaults even when TLS is not explicitly configured.
				httpTransport.TLSClientConfig = &tls.Config{
					MinVersion: tls.VersionTLS12,
				}
			}

			transport = httpTransport
		} else {
			// Whatever default transport is configured (e.g., a test stub).
			transport = http.DefaultTransport
		}
	} else if b.tlsEnabled || b.tlsSkipVerify {
		// A custom base transport must still honor the TLS options. Clone it
		// so the caller's transport is not mutated.
		base, ok := transport.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("httpclient: TLS options require an *http.Transport base, got %T", transport)
		}

		tlsConfig, err := b.buildTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
		}

		cloned := base.Clone()
		cloned.TLSClientConfig = tlsConfig
		transport = cloned
	}

	// Resolve the token manager, constructing one if WithOAuth2 was used.
	tm := b.tokenManager
	if tm == nil && b.tokenURL != "" {
		opts := append([]oauth2client.Option{
			oauth2client.WithHTTPClient(&http.Client{Transport: transport, Timeout: b.timeout}),
		}, b.oauthOpts...)

		var err error
		tm, err = oauth2client.NewTokenManager(b.oauthCtx, b.tokenURL, b.clientID, b.clientSecret, opts...)
		if err != nil {
			return nil, fmt.Errorf("httpclient: token manager setup failed: %w", err)
		}
	}

	// Wrap with OAuth2 transport if a token manager is available.
	if tm != nil {
		transport = NewOAuth2Transport(tm, transport)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.tlsSkipVerify, // #nosec G402
	}

	// Load CA certificate for server verification
	if b.tlsCAFile != "" {
		caCert, err := os.ReadFile(b.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = certPool
	}

	// Load client certificate for mTLS (if both cert and key are provided)
	if b.tlsCertFile != "" && b.tlsKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.tlsCertFile, b.tlsKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	} else if b.tlsCertFile != "" || b.tlsKeyFile != "" {
		return nil, errors.New("both TLS cert and key files must be provided for mTLS")
	}

	return tlsConfig, nil
}

// NewHTTPClient is a convenience function that creates a simple HTTP client
// with automatic bearer token injection. For more configuration options, use
// Builder instead.
//
// Example:
//
//	tm, err := oauth2client.NewTokenManager(ctx, tokenURL, clientID, clientSecret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := httpclient.NewHTTPClient(tm)
//	resp, err := client.Get("https://controller.example.com/controller/rest/applications")
func NewHTTPClient(tm *oauth2client.TokenManager) *http.Client {
	transport := NewOAuth2Transport(tm, nil)
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
