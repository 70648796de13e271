package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

type fakeTransferGateway struct {
	fakeOrderGateway

	createTransfersFn func(ctx context.Context, paymentID string, transfers []gateway.TransferRequest) ([]gateway.Transfer, error)
	listTransfersFn   func(ctx context.Context, paymentID string) ([]gateway.Transfer, error)
}

func (f *fakeTransferGateway) CreateTransfersForPayment(ctx context.Context, paymentID string, transfers []gateway.TransferRequest) ([]gateway.Transfer, error) {
	f.calls = append(f.calls, "CreateTransfersForPayment")
	if f.createTransfersFn == nil {
		return nil, nil
	}
	return f.createTransfersFn(ctx, paymentID, transfers)
}

func (f *fakeTransferGateway) ListTransfersForPayment(ctx context.Context, paymentID string) ([]gateway.Transfer, error) {
	f.calls = append(f.calls, "ListTransfersForPayment")
	if f.listTransfersFn == nil {
		return nil, nil
	}
	return f.listTransfersFn(ctx, paymentID)
}

type recordingEnqueuer struct {
	retries [][2]string
	err     error
}

func (r *recordingEnqueuer) EnqueueTransferRetry(_ context.Context, orderID, paymentID string) error {
	r.retries = append(r.retries, [2]string{orderID, paymentID})
	return r.err
}

func orderWithInstructions(t *testing.T, orderID string) gateway.Order {
	t.Helper()
	encoded, err := EncodeInstructions([]TransferInstruction{
		{Account: "acc_owner", Amount: 95000, Currency: "INR"},
	}, 100000)
	require.NoError(t, err)
	return gateway.Order{
		ID:     orderID,
		Amount: 100000,
		Notes:  map[string]string{"transfers": encoded},
	}
}

func TestExecuteCreatesTransfers(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.createTransfersFn = func(_ context.Context, paymentID string, reqs []gateway.TransferRequest) ([]gateway.Transfer, error) {
		require.Len(t, reqs, 1)
		assert.Equal(t, "acc_owner", reqs[0].Account)
		assert.Equal(t, int64(95000), reqs[0].Amount)
		return []gateway.Transfer{{ID: "trf_1", Recipient: "acc_owner", Amount: 95000}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	transfers, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "trf_1", transfers[0].ID)
}

func TestExecuteSkipsAlreadyExecutedTransfers(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.listTransfersFn = func(_ context.Context, _ string) ([]gateway.Transfer, error) {
		return []gateway.Transfer{{ID: "trf_1", Recipient: "acc_owner", Amount: 95000}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	transfers, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.NotContains(t, fake.calls, "CreateTransfersForPayment")
}

func TestExecuteNoInstructionsIsANoop(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return gateway.Order{ID: orderID, Notes: map[string]string{"tenantId": "t"}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	transfers, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	assert.Nil(t, transfers)
	assert.NotContains(t, fake.calls, "CreateTransfersForPayment")
}

func TestExecuteCorruptInstructionsSurface(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return gateway.Order{ID: orderID, Notes: map[string]string{"transfers": "{broken"}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	_, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.ErrorIs(t, err, ErrInstructionDecode)
	assert.NotContains(t, fake.calls, "CreateTransfersForPayment")
}

func TestExecuteReconciliationGapEnqueuesRetry(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.createTransfersFn = func(_ context.Context, _ string, _ []gateway.TransferRequest) ([]gateway.Transfer, error) {
		return nil, &gateway.Error{StatusCode: 502, Description: "upstream timeout"}
	}
	enq := &recordingEnqueuer{}
	e := &Executor{Gateway: fake, Tasks: enq, Logger: zerolog.Nop()}

	_, err := e.Execute(context.Background(), "order_1", "pay_1")
	var gap *ReconciliationGap
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "order_1", gap.OrderID)
	assert.Equal(t, "pay_1", gap.PaymentID)
	require.Len(t, enq.retries, 1)
	assert.Equal(t, [2]string{"order_1", "pay_1"}, enq.retries[0])
}

func TestExecuteToleratesDuplicateTransferError(t *testing.T) {
	listCalls := 0
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.listTransfersFn = func(_ context.Context, _ string) ([]gateway.Transfer, error) {
		listCalls++
		if listCalls == 1 {
			return nil, nil
		}
		return []gateway.Transfer{{ID: "trf_1", Recipient: "acc_owner", Amount: 95000}}, nil
	}
	fake.createTransfersFn = func(_ context.Context, _ string, _ []gateway.TransferRequest) ([]gateway.Transfer, error) {
		return nil, &gateway.Error{StatusCode: 400, Description: "transfer already processed for this payment"}
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	transfers, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
}

func TestVerifyAndExecuteSkipsTransfersOnMismatch(t *testing.T) {
	fake := &fakeTransferGateway{}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	result, err := e.VerifyAndExecute(context.Background(), Verifier{KeySecret: "S"}, "order_1", "pay_1", "deadbeef")
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Empty(t, fake.calls, "gated actions must not run on mismatch")
}

func TestVerifyAndExecuteRunsSplitOnMatch(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.createTransfersFn = func(_ context.Context, _ string, _ []gateway.TransferRequest) ([]gateway.Transfer, error) {
		return []gateway.Transfer{{ID: "trf_1", Recipient: "acc_owner", Amount: 95000}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	sig := Signature("S", "order_1", "pay_1")
	result, err := e.VerifyAndExecute(context.Background(), Verifier{KeySecret: "S"}, "order_1", "pay_1", sig)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	require.Len(t, result.Transfers, 1)
}

func TestOrderStatusIncludesCapturedPaymentTransfers(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return gateway.Order{ID: orderID, Status: "paid", Amount: 100000, Currency: "INR", CreatedAt: 1700000000}, nil
	}
	fake.fetchOrderPaymentsFn = func(_ context.Context, _ string) ([]gateway.Payment, error) {
		return []gateway.Payment{
			{ID: "pay_failed", Status: "failed"},
			{ID: "pay_1", Status: "captured", Method: "upi"},
		}, nil
	}
	fake.listTransfersFn = func(_ context.Context, paymentID string) ([]gateway.Transfer, error) {
		assert.Equal(t, "pay_1", paymentID)
		return []gateway.Transfer{{ID: "trf_1"}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	state, err := e.OrderStatus(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", state.OrderID)
	assert.Equal(t, "paid", state.Status)
	assert.Equal(t, int64(100000), state.Amount)
	require.NotNil(t, state.PaymentDetails)
	assert.Equal(t, "pay_1", state.PaymentDetails.PaymentID)
	assert.Equal(t, "upi", state.PaymentDetails.Method)
	require.Len(t, state.PaymentDetails.Transfers, 1)
}

func TestOrderStatusExposesReconciliationGap(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return gateway.Order{ID: orderID, Status: "paid"}, nil
	}
	fake.fetchOrderPaymentsFn = func(_ context.Context, _ string) ([]gateway.Payment, error) {
		return []gateway.Payment{{ID: "pay_1", Status: "captured"}}, nil
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	state, err := e.OrderStatus(context.Background(), "order_1")
	require.NoError(t, err)
	require.NotNil(t, state.PaymentDetails)
	assert.Empty(t, state.PaymentDetails.Transfers, "captured payment without transfers marks the gap")
}

func TestExecutePropagatesFetchFailure(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, _ string) (gateway.Order, error) {
		return gateway.Order{}, errors.New("gateway unreachable")
	}
	e := &Executor{Gateway: fake, Logger: zerolog.Nop()}

	_, err := e.Execute(context.Background(), "order_1", "pay_1")
	require.Error(t, err)
	var gap *ReconciliationGap
	assert.False(t, errors.As(err, &gap), "fetch failure precedes verification of capture, not a gap")
}
