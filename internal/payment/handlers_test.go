package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

func newPaymentHandlerTest(fake *fakeTransferGateway) *Handler {
	return &Handler{
		Orders:   &Orders{Gateway: fake, DefaultFeePercent: 5, Logger: zerolog.Nop()},
		Executor: &Executor{Gateway: fake, Logger: zerolog.Nop()},
		Verifier: Verifier{KeySecret: "S"},
		Validate: validator.New(),
		KeyID:    "rzp_test_key",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateOrderResponseShape(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.createOrderFn = func(_ context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
		return gateway.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Notes: req.Notes}, nil
	}
	h := newPaymentHandlerTest(fake)

	payload := `{"amount":"1000.00","tenantId":"tenant_1","propertyId":"prop_1","landlordLinkedAccountId":"acc_owner"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/route/orders", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "order_1", body["orderId"])
	assert.Equal(t, float64(100000), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "rzp_test_key", body["keyId"])

	notes, ok := body["notes"].(map[string]any)
	require.True(t, ok, "notes must be returned so the client can echo them to checkout")
	assert.Equal(t, "tenant_1", notes["tenantId"])
	assert.Contains(t, notes, "transfers")
}

func TestCreateOrderAppliesPlatformFeeOverride(t *testing.T) {
	var captured gateway.CreateOrderRequest
	fake := &fakeTransferGateway{}
	fake.createOrderFn = func(_ context.Context, req gateway.CreateOrderRequest) (gateway.Order, error) {
		captured = req
		return gateway.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Notes: req.Notes}, nil
	}
	h := newPaymentHandlerTest(fake)

	payload := `{"amount":"1000.00","tenantId":"t","propertyId":"p","landlordLinkedAccountId":"acc","platformFeePercent":10}`
	req := httptest.NewRequest(http.MethodPost, "/payments/route/orders", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var instructions []TransferInstruction
	require.NoError(t, json.Unmarshal([]byte(captured.Notes["transfers"]), &instructions))
	require.Len(t, instructions, 1)
	assert.Equal(t, int64(90000), instructions[0].Amount)
}

func TestVerifyResponseShape(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.createTransfersFn = func(_ context.Context, _ string, _ []gateway.TransferRequest) ([]gateway.Transfer, error) {
		return []gateway.Transfer{{ID: "trf_1"}}, nil
	}
	h := newPaymentHandlerTest(fake)

	sig := Signature("S", "order_1", "pay_1")
	payload := `{"orderId":"order_1","paymentId":"pay_1","signature":"` + sig + `"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/route/verify", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"success": true}, body)
}

func TestVerifyMismatchReportsFailure(t *testing.T) {
	fake := &fakeTransferGateway{}
	h := newPaymentHandlerTest(fake)

	payload := `{"orderId":"order_1","paymentId":"pay_1","signature":"deadbeef"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/route/verify", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"success": false}, body)
	assert.Empty(t, fake.calls, "mismatch must not reach the gateway")
}

func TestVerifyReconciliationGapStillSucceeds(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return orderWithInstructions(t, orderID), nil
	}
	fake.createTransfersFn = func(_ context.Context, _ string, _ []gateway.TransferRequest) ([]gateway.Transfer, error) {
		return nil, &gateway.Error{StatusCode: 502, Description: "upstream timeout"}
	}
	h := newPaymentHandlerTest(fake)

	sig := Signature("S", "order_1", "pay_1")
	payload := `{"orderId":"order_1","paymentId":"pay_1","signature":"` + sig + `"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/route/verify", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"success": true}, body, "the payment is verified; the gap surfaces via order status")
}

func TestOrderStatusResponseShape(t *testing.T) {
	fake := &fakeTransferGateway{}
	fake.fetchOrderFn = func(_ context.Context, orderID string) (gateway.Order, error) {
		return gateway.Order{
			ID: orderID, Status: "paid", Amount: 100000, Currency: "INR",
			CreatedAt: 1700000000, Notes: map[string]string{"tenantId": "t"},
		}, nil
	}
	fake.fetchOrderPaymentsFn = func(_ context.Context, _ string) ([]gateway.Payment, error) {
		return []gateway.Payment{{ID: "pay_1", Status: "captured", Method: "upi"}}, nil
	}
	fake.listTransfersFn = func(_ context.Context, _ string) ([]gateway.Transfer, error) {
		return []gateway.Transfer{{ID: "trf_1"}}, nil
	}
	h := newPaymentHandlerTest(fake)

	router := chi.NewRouter()
	router.Get("/payments/route/orders/{orderId}", h.OrderStatus)
	req := httptest.NewRequest(http.MethodGet, "/payments/route/orders/order_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "order_1", body["orderId"])
	assert.Equal(t, "paid", body["status"])
	assert.Equal(t, float64(100000), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, float64(1700000000), body["created_at"])
	require.Contains(t, body, "notes")

	details, ok := body["paymentDetails"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pay_1", details["paymentId"])
}
