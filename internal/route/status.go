package route

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/obs"
)

// Status is the canonical activation state of a linked account.
type Status string

const (
	StatusUnderReview        Status = "under_review"
	StatusNeedsClarification Status = "needs_clarification"
	StatusActivated          Status = "activated"
	StatusDisabled           Status = "disabled"
	StatusUnknown            Status = "unknown"
)

// StatusResult merges the sub-account and product state into one value.
type StatusResult struct {
	Status  Status
	Product *ProductInfo
}

// StatusResolver derives a canonical status from the gateway's sub-account
// and route product resources. The product's activation_status, when
// present, is more authoritative than the account baseline.
type StatusResolver struct {
	Accounts AccountAPI
	Products *ProductResolver
	Logger   zerolog.Logger
}

// GetStatus fetches the account and, when possible, its route product, and
// returns the merged status. It never mutates gateway state.
func (s *StatusResolver) GetStatus(ctx context.Context, accountID string) (StatusResult, error) {
	account, err := s.Accounts.FetchAccount(ctx, accountID)
	if err != nil {
		return StatusResult{}, err
	}
	result := StatusResult{Status: mapAccountStatus(account.Raw)}

	products, err := s.Products.Gateway.ListProducts(ctx, accountID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("account_id", accountID).Msg("product status unavailable, using account baseline")
		return result, nil
	}
	for _, p := range products {
		if isRouteProduct(p) {
			info := ProductInfo{ProductID: p.ID, ActivationStatus: p.ActivationStatus}
			result.Product = &info
			if mapped := canonicalStatus(p.ActivationStatus); mapped != StatusUnknown {
				result.Status = mapped
			}
			break
		}
	}
	return result, nil
}

// EnsureProductAndGetStatus behaves like GetStatus but creates the route
// product first when it does not exist. The side effect is explicit in the
// name; callers that only want to observe state use GetStatus.
func (s *StatusResolver) EnsureProductAndGetStatus(ctx context.Context, accountID string) (StatusResult, error) {
	account, err := s.Accounts.FetchAccount(ctx, accountID)
	if err != nil {
		return StatusResult{}, err
	}
	result := StatusResult{Status: mapAccountStatus(account.Raw)}

	info, err := s.Products.GetOrCreate(ctx, accountID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("account_id", accountID).Msg("route product ensure failed, using account baseline")
		return result, nil
	}
	result.Product = &info
	if mapped := canonicalStatus(info.ActivationStatus); mapped != StatusUnknown {
		result.Status = mapped
	}
	return result, nil
}

// Known provider response shapes for the account status. The field holding
// the status has moved across provider versions, so each shape is tried in
// order instead of probing blindly.
type statusShapeV2 struct {
	Status string `json:"status"`
}

type statusShapeLegacy struct {
	AccountStatus string `json:"account_status"`
}

type statusShapeActivation struct {
	ActivationDetails struct {
		Status string `json:"status"`
	} `json:"activation_details"`
}

func mapAccountStatus(raw json.RawMessage) Status {
	if len(raw) == 0 {
		return StatusUnknown
	}
	var v2 statusShapeV2
	if err := json.Unmarshal(raw, &v2); err == nil && v2.Status != "" {
		return canonicalStatus(v2.Status)
	}
	var legacy statusShapeLegacy
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.AccountStatus != "" {
		return canonicalStatus(legacy.AccountStatus)
	}
	var activation statusShapeActivation
	if err := json.Unmarshal(raw, &activation); err == nil && activation.ActivationDetails.Status != "" {
		return canonicalStatus(activation.ActivationDetails.Status)
	}
	if obs.StatusUnknownShapeTotal != nil {
		obs.StatusUnknownShapeTotal.Inc()
	}
	return StatusUnknown
}

func canonicalStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "created", "pending", "under_review", "in_review":
		return StatusUnderReview
	case "needs_clarification", "clarification_requested":
		return StatusNeedsClarification
	case "activated", "active":
		return StatusActivated
	case "disabled", "suspended", "rejected":
		return StatusDisabled
	default:
		if obs.StatusUnknownShapeTotal != nil && strings.TrimSpace(value) != "" {
			obs.StatusUnknownShapeTotal.Inc()
		}
		return StatusUnknown
	}
}
