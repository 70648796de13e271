package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-rent/internal/common"
	"github.com/noah-isme/backend-rent/internal/gateway"
)

// Handler exposes the split order and verification HTTP surface. KeyID is
// the public gateway key; checkout clients need it to initialise the payment
// widget against the created order.
type Handler struct {
	Orders   *Orders
	Executor *Executor
	Verifier Verifier
	Validate *validator.Validate
	KeyID    string
}

type createOrderReq struct {
	Amount                  string `json:"amount" validate:"required"`
	Currency                string `json:"currency"`
	TenantID                string `json:"tenantId" validate:"required"`
	PropertyID              string `json:"propertyId" validate:"required"`
	LandlordLinkedAccountID string `json:"landlordLinkedAccountId"`
	PlatformFeePercent      *int64 `json:"platformFeePercent"`
}

// CreateOrder opens a split rent order and returns what a checkout client
// needs to start a payment against it.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing or invalid fields", nil)
			return
		}
	}
	result, err := h.Orders.Create(r.Context(), SplitOrderInput{
		Amount:             req.Amount,
		Currency:           req.Currency,
		TenantID:           req.TenantID,
		PropertyID:         req.PropertyID,
		RecipientAccountID: req.LandlordLinkedAccountID,
		FeePercent:         req.PlatformFeePercent,
	})
	if err != nil {
		writePaymentError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"orderId":  result.Order.ID,
		"amount":   result.AmountMinor,
		"currency": result.Order.Currency,
		"keyId":    h.KeyID,
		"notes":    result.Order.Notes,
	})
}

type verifyReq struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Verify checks a checkout signature and executes the recorded split when it
// matches. A mismatch is a 200 with success:false, not an error; a
// reconciliation gap still reports success because the payment itself is
// verified, and the gap surfaces through the order-status query.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing or invalid fields", nil)
			return
		}
	}
	result, err := h.Executor.VerifyAndExecute(r.Context(), h.Verifier, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		var gap *ReconciliationGap
		if errors.As(err, &gap) {
			common.JSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
		writePaymentError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"success": result.Verified})
}

// OrderStatus reports the merged order, payment, and transfer state.
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id is required", nil)
		return
	}
	state, err := h.Executor.OrderStatus(r.Context(), orderID)
	if err != nil {
		writePaymentError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, state)
}

func writePaymentError(w http.ResponseWriter, err error) {
	if ve, ok := AsValidationError(err); ok {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", ve.Error(), map[string]any{"fields": ve.Fields})
		return
	}
	if errors.Is(err, ErrNoRecipient) {
		common.JSONError(w, http.StatusUnprocessableEntity, "NO_RECIPIENT", err.Error(), nil)
		return
	}
	if errors.Is(err, ErrInstructionDecode) {
		common.JSONError(w, http.StatusConflict, "INSTRUCTIONS_CORRUPT", err.Error(), nil)
		return
	}
	if ge, ok := gateway.IsError(err); ok {
		status := http.StatusBadGateway
		if ge.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		common.JSONError(w, status, "GATEWAY_ERROR", ge.Description, map[string]any{"provider": json.RawMessage(ge.Payload)})
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
}
