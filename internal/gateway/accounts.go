package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// Address is the normalised registered address attached to a sub-account.
type Address struct {
	Street1    string `json:"street1,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// AccountProfile groups the business profile fields of a sub-account.
type AccountProfile struct {
	Category    string             `json:"category,omitempty"`
	Subcategory string             `json:"subcategory,omitempty"`
	Addresses   map[string]Address `json:"addresses,omitempty"`
}

// CreateAccountRequest describes a new linked sub-account.
type CreateAccountRequest struct {
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	LegalBusinessName string            `json:"legal_business_name"`
	BusinessType      string            `json:"business_type"`
	ContactName       string            `json:"contact_name"`
	Type              string            `json:"type"`
	Profile           AccountProfile    `json:"profile"`
	Description       string            `json:"legal_info,omitempty"`
	Notes             map[string]string `json:"notes,omitempty"`
}

// Account is a sub-account as returned by the gateway. Raw preserves the
// provider body because the status field's location varies across provider
// versions and is mapped separately.
type Account struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Email  string          `json:"email"`
	Raw    json.RawMessage `json:"-"`
}

// CreateAccount registers a new sub-account. This call is NOT idempotent at
// the gateway: repeating it creates a duplicate account, so callers must
// persist the returned id and never re-invoke for the same recipient.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodPost, "/v2/accounts", req, &out); err != nil {
		return Account{}, err
	}
	return out, nil
}

// FetchAccount retrieves a sub-account and keeps the raw provider body.
func (c *Client) FetchAccount(ctx context.Context, accountID string) (Account, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+accountID, nil, &raw); err != nil {
		return Account{}, err
	}
	var out Account
	if err := json.Unmarshal(raw, &out); err != nil {
		return Account{}, &Error{Err: err, Payload: raw}
	}
	out.Raw = raw
	return out, nil
}

// UpdateAccount patches the account root resource with arbitrary fields.
func (c *Client) UpdateAccount(ctx context.Context, accountID string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPatch, "/v2/accounts/"+accountID, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StakeholderRequest describes a stakeholder attached to a sub-account.
type StakeholderRequest struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Relationship map[string]bool   `json:"relationship,omitempty"`
	Notes        map[string]string `json:"notes,omitempty"`
}

// Stakeholder is the gateway's stakeholder resource.
type Stakeholder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateStakeholder attaches a stakeholder to the sub-account.
func (c *Client) CreateStakeholder(ctx context.Context, accountID string, req StakeholderRequest) (Stakeholder, error) {
	var out Stakeholder
	if err := c.do(ctx, http.MethodPost, "/v2/accounts/"+accountID+"/stakeholders", req, &out); err != nil {
		return Stakeholder{}, err
	}
	return out, nil
}
