package route

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/gateway"
	"github.com/noah-isme/backend-rent/internal/obs"
)

// AccountAPI is the slice of the gateway client used for sub-account
// provisioning and stakeholder management.
type AccountAPI interface {
	CreateAccount(ctx context.Context, req gateway.CreateAccountRequest) (gateway.Account, error)
	FetchAccount(ctx context.Context, accountID string) (gateway.Account, error)
	UpdateAccount(ctx context.Context, accountID string, body any) (json.RawMessage, error)
	CreateStakeholder(ctx context.Context, accountID string, req gateway.StakeholderRequest) (gateway.Stakeholder, error)
}

// ProvisionInput carries the recipient details required to register a
// sub-account.
type ProvisionInput struct {
	Name         string
	Email        string
	Contact      string
	BusinessType string
	Address      gateway.Address
}

const (
	profileCategory    = "housing"
	profileSubcategory = "space_rental"
	accountDescription = "Rent collection with split payouts to the property owner"
)

// Provisioner registers fund recipients with the gateway.
//
// Provisioning is NOT idempotent at the gateway: a repeated call creates a
// duplicate sub-account. The owning application persists the returned id and
// must never re-invoke Provision for the same recipient.
type Provisioner struct {
	Gateway AccountAPI
	Logger  zerolog.Logger
}

// Provision creates a sub-account for the recipient and returns its id.
// Name, email and contact are required; a missing field yields a
// ValidationError before any network call.
func (p *Provisioner) Provision(ctx context.Context, in ProvisionInput) (gateway.Account, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(in.Contact) == "" {
		missing = append(missing, "contact")
	}
	if len(missing) > 0 {
		return gateway.Account{}, &ValidationError{Fields: missing}
	}

	businessType := strings.TrimSpace(in.BusinessType)
	if businessType == "" {
		businessType = "individual"
	}
	address := in.Address
	address.State = NormalizeRegion(address.State)
	if address.Country == "" {
		address.Country = "IN"
	}

	req := gateway.CreateAccountRequest{
		Email:             strings.TrimSpace(in.Email),
		Phone:             strings.TrimSpace(in.Contact),
		LegalBusinessName: strings.TrimSpace(in.Name),
		ContactName:       strings.TrimSpace(in.Name),
		BusinessType:      businessType,
		Type:              "route",
		Profile: gateway.AccountProfile{
			Category:    profileCategory,
			Subcategory: profileSubcategory,
			Addresses:   map[string]gateway.Address{"registered": address},
		},
		Description: accountDescription,
	}

	account, err := p.Gateway.CreateAccount(ctx, req)
	if err != nil {
		if obs.ProvisionTotal != nil {
			obs.ProvisionTotal.WithLabelValues("error").Inc()
		}
		return gateway.Account{}, err
	}
	if obs.ProvisionTotal != nil {
		obs.ProvisionTotal.WithLabelValues("success").Inc()
	}
	p.Logger.Info().Str("account_id", account.ID).Msg("linked account provisioned")
	return account, nil
}

// AddStakeholder attaches a stakeholder to an existing sub-account.
func (p *Provisioner) AddStakeholder(ctx context.Context, accountID, name, email string, executive bool) (gateway.Stakeholder, error) {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return gateway.Stakeholder{}, &ValidationError{Fields: missing}
	}
	req := gateway.StakeholderRequest{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	if executive {
		req.Relationship = map[string]bool{"executive": true}
	}
	return p.Gateway.CreateStakeholder(ctx, accountID, req)
}
