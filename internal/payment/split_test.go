package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

type fakeOrderGateway struct {
	calls []string

	createOrderFn        func(ctx context.Context, req gateway.CreateOrderRequest) (gateway.Order, error)
	fetchOrderFn         func(ctx context.Context, orderID string) (gateway.Order, error)
	fetchOrderPaymentsFn func(ctx context.Context, orderID string) ([]gateway.Payment, error)
}

func (f *fakeOrderGateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
	f.calls = append(f.calls, "CreateOrder")
	if f.createOrderFn == nil {
		return gateway.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Notes: req.Notes}, nil
	}
	return f.createOrderFn(ctx, req)
}

func (f *fakeOrderGateway) FetchOrder(ctx context.Context, orderID string) (gateway.Order, error) {
	f.calls = append(f.calls, "FetchOrder")
	if f.fetchOrderFn == nil {
		return gateway.Order{ID: orderID}, nil
	}
	return f.fetchOrderFn(ctx, orderID)
}

func (f *fakeOrderGateway) FetchOrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error) {
	f.calls = append(f.calls, "FetchOrderPayments")
	if f.fetchOrderPaymentsFn == nil {
		return nil, nil
	}
	return f.fetchOrderPaymentsFn(ctx, orderID)
}

func TestCreateSplitOrderComputesShares(t *testing.T) {
	var captured gateway.CreateOrderRequest
	fake := &fakeOrderGateway{
		createOrderFn: func(_ context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
			captured = req
			return gateway.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Notes: req.Notes}, nil
		},
	}
	o := &Orders{Gateway: fake, DefaultFeePercent: 5, Logger: zerolog.Nop()}

	result, err := o.Create(context.Background(), SplitOrderInput{
		Amount:             "1000.00",
		TenantID:           "tenant_1",
		PropertyID:         "prop_1",
		RecipientAccountID: "acc_owner",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), result.AmountMinor)
	assert.Equal(t, int64(95000), result.RecipientShare)
	assert.Equal(t, int64(5000), result.PlatformShare)
	assert.Equal(t, result.AmountMinor, result.RecipientShare+result.PlatformShare)

	assert.Equal(t, "INR", captured.Currency)
	assert.Equal(t, "tenant_1", captured.Notes["tenantId"])
	assert.Equal(t, "prop_1", captured.Notes["propertyId"])
	require.Contains(t, captured.Notes, "transfers")

	var instructions []TransferInstruction
	require.NoError(t, json.Unmarshal([]byte(captured.Notes["transfers"]), &instructions))
	require.Len(t, instructions, 1)
	assert.Equal(t, "acc_owner", instructions[0].Account)
	assert.Equal(t, int64(95000), instructions[0].Amount)
}

func TestCreateSplitOrderRoundsHalfAwayFromZero(t *testing.T) {
	fake := &fakeOrderGateway{}
	o := &Orders{Gateway: fake, DefaultFeePercent: 0, Logger: zerolog.Nop()}

	result, err := o.Create(context.Background(), SplitOrderInput{
		Amount:             "10.005",
		TenantID:           "t",
		PropertyID:         "p",
		RecipientAccountID: "acc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), result.AmountMinor)
}

func TestCreateSplitOrderFloorsRecipientShare(t *testing.T) {
	fake := &fakeOrderGateway{}
	fee := int64(3)
	o := &Orders{Gateway: fake, DefaultFeePercent: 5, Logger: zerolog.Nop()}

	// 101 paise at 3% fee: recipient floor(101*97/100)=97, platform 4
	result, err := o.Create(context.Background(), SplitOrderInput{
		Amount:             "1.01",
		TenantID:           "t",
		PropertyID:         "p",
		RecipientAccountID: "acc",
		FeePercent:         &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), result.AmountMinor)
	assert.Equal(t, int64(97), result.RecipientShare)
	assert.Equal(t, int64(4), result.PlatformShare)
	assert.Equal(t, int64(3), result.FeePercent)
}

func TestCreateSplitOrderFailsClosedWithoutRecipient(t *testing.T) {
	fake := &fakeOrderGateway{}
	o := &Orders{Gateway: fake, DefaultFeePercent: 5, Logger: zerolog.Nop()}

	_, err := o.Create(context.Background(), SplitOrderInput{
		Amount:     "1000.00",
		TenantID:   "t",
		PropertyID: "p",
	})
	require.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, fake.calls, "no order may be created without a recipient")
}

func TestCreateSplitOrderUsesSandboxPlaceholder(t *testing.T) {
	var captured gateway.CreateOrderRequest
	fake := &fakeOrderGateway{
		createOrderFn: func(_ context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
			captured = req
			return gateway.Order{ID: "order_1"}, nil
		},
	}
	o := &Orders{Gateway: fake, DefaultFeePercent: 5, SandboxAccountID: "acc_sandbox", Logger: zerolog.Nop()}

	_, err := o.Create(context.Background(), SplitOrderInput{
		Amount:     "1000.00",
		TenantID:   "t",
		PropertyID: "p",
	})
	require.NoError(t, err)

	var instructions []TransferInstruction
	require.NoError(t, json.Unmarshal([]byte(captured.Notes["transfers"]), &instructions))
	require.Len(t, instructions, 1)
	assert.Equal(t, "acc_sandbox", instructions[0].Account)
}

func TestCreateSplitOrderValidation(t *testing.T) {
	fake := &fakeOrderGateway{}
	o := &Orders{Gateway: fake, Logger: zerolog.Nop()}

	_, err := o.Create(context.Background(), SplitOrderInput{})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"amount", "tenantId", "propertyId"}, ve.Fields)
	assert.Empty(t, fake.calls)
}

func TestCreateSplitOrderHundredPercentFee(t *testing.T) {
	var captured gateway.CreateOrderRequest
	fake := &fakeOrderGateway{
		createOrderFn: func(_ context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
			captured = req
			return gateway.Order{ID: "order_1"}, nil
		},
	}
	fee := int64(100)
	o := &Orders{Gateway: fake, DefaultFeePercent: 5, Logger: zerolog.Nop()}

	result, err := o.Create(context.Background(), SplitOrderInput{
		Amount:             "500.00",
		TenantID:           "t",
		PropertyID:         "p",
		RecipientAccountID: "acc",
		FeePercent:         &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RecipientShare)
	assert.Equal(t, int64(50000), result.PlatformShare)
	// zero-amount transfers are never emitted
	assert.NotContains(t, captured.Notes, "transfers")
}
