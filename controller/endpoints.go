package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Application is a business application registered on the controller.
type Application struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AccountGUID string `json:"accountGuid"`
}

// BusinessTransaction is a transaction detected within an application.
type BusinessTransaction struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	InternalName   string `json:"internalName"`
	EntryPointType string `json:"entryPointType"`
	TierID         int64  `json:"tierId"`
	TierName       string `json:"tierName"`
	Background     bool   `json:"background"`
}

// Applications requests all applications from the controller.
func (c *Controller) Applications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.getJSON(ctx, "/controller/rest/applications", "applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Application requests a single application by name.
func (c *Controller) Application(ctx context.Context, applicationName string) (Application, error) {
	endpoint := "/controller/rest/applications/" + url.PathEscape(applicationName)
	object := fmt.Sprintf("application %s", applicationName)

	// The controller answers with a single-element list.
	var apps []Application
	if err := c.getJSON(ctx, endpoint, object, nil, &apps); err != nil {
		return Application{}, err
	}
	if len(apps) == 0 {
		return Application{}, fmt.Errorf("controller: empty response for %s", object)
	}
	return apps[0], nil
}

// BusinessTransactions requests all business transactions of an application
// by application name.
func (c *Controller) BusinessTransactions(ctx context.Context, applicationName string) ([]BusinessTransaction, error) {
	endpoint := "/controller/rest/applications/" + url.PathEscape(applicationName) + "/business-transactions"
	object := fmt.Sprintf("business transactions for %s", applicationName)

	var bts []BusinessTransaction
	if err := c.getJSON(ctx, endpoint, object, nil, &bts); err != nil {
		return nil, err
	}
	return bts, nil
}

// CustomTransactionDetectionRules requests all custom transaction detection
// rules of an application by application ID. The controller answers with XML.
func (c *Controller) CustomTransactionDetectionRules(ctx context.Context, applicationID int64) (string, error) {
	endpoint := fmt.Sprintf("/controller/transactiondetection/%d/custom", applicationID)
	object := fmt.Sprintf("custom detection rules for application %d", applicationID)
	return c.getText(ctx, endpoint, object)
}

// AutoTransactionDetectionRules requests all automatic transaction detection
// rules of an application by application ID. The controller answers with XML.
func (c *Controller) AutoTransactionDetectionRules(ctx context.Context, applicationID int64) (string, error) {
	endpoint := fmt.Sprintf("/controller/transactiondetection/%d/auto", applicationID)
	object := fmt.Sprintf("auto detection rules for application %d", applicationID)
	return c.getText(ctx, endpoint, object)
}

// LicenseRules requests all license rules. Requires Agent-Based Licensing.
func (c *Controller) LicenseRules(ctx context.Context) (json.RawMessage, error) {
	var rules json.RawMessage
	if err := c.getJSON(ctx, "/controller/mds/v1/license/rules", "license rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// AccountID requests the numeric ID of the account the API client belongs to.
func (c *Controller) AccountID(ctx context.Context) (int64, error) {
	// The id is a number on SaaS controllers but has been observed as a
	// string on-prem, so coerce either way.
	var account struct {
		ID json.Number `json:"id"`
	}
	if err := c.getJSON(ctx, "/controller/api/accounts/myaccount", "account info", nil, &account); err != nil {
		return 0, err
	}

	id, err := account.ID.Int64()
	if err != nil {
		return 0, fmt.Errorf("controller: account id is not an integer: %w", err)
	}
	return id, nil
}

// LicenseAllocations requests all license allocations for an account.
// Requires Infrastructure-Based Licensing.
func (c *Controller) LicenseAllocations(ctx context.Context, accountID int64) (json.RawMessage, error) {
	return c.licenseAllocations(ctx, accountID, nil)
}

// LicenseAllocationsByName is LicenseAllocations filtered by allocation name.
func (c *Controller) LicenseAllocationsByName(ctx context.Context, accountID int64, name string) (json.RawMessage, error) {
	return c.licenseAllocations(ctx, accountID, url.Values{"name": {name}})
}

// LicenseAllocationsByLicenseKey is LicenseAllocations filtered by license key.
func (c *Controller) LicenseAllocationsByLicenseKey(ctx context.Context, accountID int64, licenseKey string) (json.RawMessage, error) {
	return c.licenseAllocations(ctx, accountID, url.Values{"license-key": {licenseKey}})
}

// LicenseAllocationsByTag is LicenseAllocations filtered by an allocation tag.
func (c *Controller) LicenseAllocationsByTag(ctx context.Context, accountID int64, tag string) (json.RawMessage, error) {
	return c.licenseAllocations(ctx, accountID, url.Values{"tag": {tag}})
}

func (c *Controller) licenseAllocations(ctx context.Context, accountID int64, query url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/controller/licensing/v1/account/%d/allocation", accountID)
	object := fmt.Sprintf("license allocations for account %d", accountID)

	var allocations json.RawMessage
	if err := c.getJSON(ctx, endpoint, object, query, &allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}
