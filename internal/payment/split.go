package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rent/internal/gateway"
	"github.com/noah-isme/backend-rent/internal/obs"
)

// OrderAPI is the slice of the gateway client used for split orders.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (gateway.Order, error)
	FetchOrder(ctx context.Context, orderID string) (gateway.Order, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error)
}

// ErrNoRecipient is returned when a split order names no recipient account
// and no sandbox placeholder is configured. Creating the order anyway would
// strand the recipient's share on the platform, so the order is refused.
var ErrNoRecipient = errors.New("no recipient account configured for split order")

// SplitOrderInput is a rent order to be split between the property owner and
// the platform. Amount is in major currency units ("1000.00").
type SplitOrderInput struct {
	Amount             string
	Currency           string
	TenantID           string
	PropertyID         string
	RecipientAccountID string
	// FeePercent overrides the platform default when non-nil.
	FeePercent *int64
}

// SplitOrderResult reports the created order and the computed split.
type SplitOrderResult struct {
	Order          gateway.Order
	AmountMinor    int64
	RecipientShare int64
	PlatformShare  int64
	FeePercent     int64
}

// Orders creates split rent orders with the gateway.
type Orders struct {
	Gateway           OrderAPI
	DefaultFeePercent int64
	// SandboxAccountID substitutes for a missing recipient outside
	// production. Empty means fail closed.
	SandboxAccountID string
	Logger           zerolog.Logger
}

// Create converts the amount to minor units, computes the recipient's share
// after the platform fee, and opens a gateway order carrying the transfer
// instructions in its notes.
func (o *Orders) Create(ctx context.Context, in SplitOrderInput) (SplitOrderResult, error) {
	var missing []string
	if strings.TrimSpace(in.Amount) == "" {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(in.TenantID) == "" {
		missing = append(missing, "tenantId")
	}
	if strings.TrimSpace(in.PropertyID) == "" {
		missing = append(missing, "propertyId")
	}
	if len(missing) > 0 {
		return SplitOrderResult{}, &ValidationError{Fields: missing}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return SplitOrderResult{}, fmt.Errorf("parse amount %q: %w", in.Amount, err)
	}
	if !amount.IsPositive() {
		return SplitOrderResult{}, fmt.Errorf("amount must be positive, got %s", amount)
	}
	// Half-away-from-zero at the second decimal, then to paise.
	amountMinor := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	fee := o.DefaultFeePercent
	if in.FeePercent != nil {
		fee = *in.FeePercent
	}
	if fee < 0 || fee > 100 {
		return SplitOrderResult{}, fmt.Errorf("fee percent must be within [0,100], got %d", fee)
	}

	recipient := strings.TrimSpace(in.RecipientAccountID)
	if recipient == "" {
		if o.SandboxAccountID == "" {
			if obs.SplitOrderTotal != nil {
				obs.SplitOrderTotal.WithLabelValues("rejected").Inc()
			}
			return SplitOrderResult{}, ErrNoRecipient
		}
		recipient = o.SandboxAccountID
		o.Logger.Warn().Str("tenant_id", in.TenantID).Msg("using sandbox placeholder recipient for split order")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "INR"
	}

	// Integer floor keeps the recipient's share whole; the remainder stays
	// with the platform so the shares always sum to the order amount.
	recipientShare := amountMinor * (100 - fee) / 100
	platformShare := amountMinor - recipientShare

	notes := map[string]string{
		"tenantId":   strings.TrimSpace(in.TenantID),
		"propertyId": strings.TrimSpace(in.PropertyID),
	}
	if recipientShare > 0 {
		encoded, err := EncodeInstructions([]TransferInstruction{{
			Account:  recipient,
			Amount:   recipientShare,
			Currency: currency,
			Notes:    map[string]string{"propertyId": strings.TrimSpace(in.PropertyID)},
		}}, amountMinor)
		if err != nil {
			return SplitOrderResult{}, err
		}
		notes[notesKeyTransfers] = encoded
	}

	order, err := o.Gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  "rent_" + uuid.NewString(),
		Notes:    notes,
	})
	if err != nil {
		if obs.SplitOrderTotal != nil {
			obs.SplitOrderTotal.WithLabelValues("error").Inc()
		}
		return SplitOrderResult{}, err
	}
	if obs.SplitOrderTotal != nil {
		obs.SplitOrderTotal.WithLabelValues("success").Inc()
	}
	o.Logger.Info().
		Str("order_id", order.ID).
		Int64("amount_minor", amountMinor).
		Int64("recipient_share", recipientShare).
		Int64("fee_percent", fee).
		Msg("split order created")

	return SplitOrderResult{
		Order:          order,
		AmountMinor:    amountMinor,
		RecipientShare: recipientShare,
		PlatformShare:  platformShare,
		FeePercent:     fee,
	}, nil
}
