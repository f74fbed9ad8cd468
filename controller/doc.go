// Package controller provides an AppDynamics controller API client authorized
// via the OAuth2 client-credentials flow.
//
// The client wraps an oauth2client.TokenManager: every request carries a
// current bearer token (injected unless the caller supplied an Authorization
// header), tokens are renewed in the background before they expire, and
// construction fails fast if the controller rejects the API client's
// credentials.
//
// # Endpoints
//
//   - Applications / Application: business applications by list or name
//   - BusinessTransactions: transactions of an application
//   - CustomTransactionDetectionRules / AutoTransactionDetectionRules: XML rule exports
//   - LicenseRules, LicenseAllocations (+ name/license-key/tag filters), AccountID
//
// JSON endpoints request `output=JSON` automatically unless the caller chose a
// different output parameter. Unexpected status codes surface as *APIError.
//
// # Quick Start
//
//	ctrl, err := controller.New(ctx,
//	    "https://mytenant.saas.appdynamics.com",
//	    "api-client@mytenant",
//	    "client-secret",
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	apps, err := ctrl.Applications(ctx)
//
// For endpoints this package does not cover, use Request or Get directly, or
// build an authenticated *http.Client with the httpclient package and the
// controller's TokenManager.
package controller
