package route

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/obs"
)

// SettlementInput carries the payout bank details for a sub-account.
type SettlementInput struct {
	AccountID       string
	BeneficiaryName string
	AccountNumber   string
	IFSC            string
	ProductID       string
}

// SettlementResult reports which strategy accepted the settlement write and
// the provider data it returned.
type SettlementResult struct {
	Method string
	Data   json.RawMessage
}

type settlementFields struct {
	BeneficiaryName string `json:"beneficiary_name"`
	AccountNumber   string `json:"account_number"`
	IFSCCode        string `json:"ifsc_code"`
}

type settlementStrategy struct {
	name    string
	attempt func(ctx context.Context) (json.RawMessage, error)
}

// SettlementConfigurator writes payout bank details for a sub-account.
//
// Which endpoint accepts a settlement write is an empirical, per-account,
// per-provider-version fact. The configurator probes a fixed chain of
// endpoints in order and stops at the first success. Writes are
// overwrite-idempotent: the gateway replaces the stored bank record, so
// repeating the same values never duplicates it.
type SettlementConfigurator struct {
	Accounts AccountAPI
	Products *ProductResolver
	Logger   zerolog.Logger
}

// Update validates the bank details and tries each strategy in order:
// account profile, account root, then the product resource when a product id
// is known. If every strategy fails it returns AggregateStrategyFailure.
func (s *SettlementConfigurator) Update(ctx context.Context, in SettlementInput) (SettlementResult, error) {
	var missing []string
	if strings.TrimSpace(in.AccountID) == "" {
		missing = append(missing, "accountId")
	}
	if strings.TrimSpace(in.BeneficiaryName) == "" {
		missing = append(missing, "beneficiary_name")
	}
	if strings.TrimSpace(in.AccountNumber) == "" {
		missing = append(missing, "account_number")
	}
	if strings.TrimSpace(in.IFSC) == "" {
		missing = append(missing, "ifsc_code")
	}
	if len(missing) > 0 {
		return SettlementResult{}, &ValidationError{Fields: missing}
	}

	productID := strings.TrimSpace(in.ProductID)
	if productID == "" && s.Products != nil {
		info, err := s.Products.GetOrCreate(ctx, in.AccountID)
		if err != nil {
			// degrade gracefully: the account-level strategies may still work
			s.Logger.Warn().Err(err).Str("account_id", in.AccountID).Msg("route product resolution failed, continuing without product strategy")
		} else {
			productID = info.ProductID
		}
	}

	fields := settlementFields{
		BeneficiaryName: strings.TrimSpace(in.BeneficiaryName),
		AccountNumber:   strings.TrimSpace(in.AccountNumber),
		IFSCCode:        strings.TrimSpace(in.IFSC),
	}

	strategies := []settlementStrategy{
		{
			name: "profile",
			attempt: func(ctx context.Context) (json.RawMessage, error) {
				return s.Accounts.UpdateAccount(ctx, in.AccountID, map[string]any{
					"profile": map[string]any{"settlements": fields},
				})
			},
		},
		{
			name: "account",
			attempt: func(ctx context.Context) (json.RawMessage, error) {
				return s.Accounts.UpdateAccount(ctx, in.AccountID, map[string]any{
					"settlements": fields,
				})
			},
		},
	}
	if productID != "" && s.Products != nil {
		strategies = append(strategies, settlementStrategy{
			name: "product",
			attempt: func(ctx context.Context) (json.RawMessage, error) {
				return s.Products.Gateway.UpdateProduct(ctx, in.AccountID, productID, map[string]any{
					"settlements": fields,
				})
			},
		})
	}

	var attempts []StrategyAttempt
	for _, strategy := range strategies {
		data, err := strategy.attempt(ctx)
		if err == nil {
			if obs.SettlementAttemptTotal != nil {
				obs.SettlementAttemptTotal.WithLabelValues(strategy.name, "success").Inc()
			}
			s.Logger.Info().Str("account_id", in.AccountID).Str("method", strategy.name).Msg("settlement details updated")
			return SettlementResult{Method: strategy.name, Data: data}, nil
		}
		if obs.SettlementAttemptTotal != nil {
			obs.SettlementAttemptTotal.WithLabelValues(strategy.name, "error").Inc()
		}
		s.Logger.Debug().Err(err).Str("account_id", in.AccountID).Str("method", strategy.name).Msg("settlement strategy rejected")
		attempts = append(attempts, StrategyAttempt{Strategy: strategy.name, Err: err})
	}

	return SettlementResult{}, &AggregateStrategyFailure{
		Attempts: attempts,
		Hint:     "every settlement endpoint rejected the update; the linked account may not be activated yet",
	}
}
