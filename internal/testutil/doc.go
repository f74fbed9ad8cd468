// Package testutil provides test helpers for go-appd packages.
//
// It includes utilities to spin up IPv4-only local HTTP servers (avoiding IPv6 in sandboxes),
// mock OAuth2 token endpoints without real sockets, and generate self-signed certificates for TLS tests.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - TokenEndpoint and StaticJSONResponse: stub token endpoints and capture requests and bodies
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - WriteTestCACert / WriteTestCertAndKey: generate temporary CA and leaf certificates for tests
//
// TokenEndpoint hands out an isolated *http.Client instead of mutating
// http.DefaultTransport, so tests can run in parallel.
package testutil
