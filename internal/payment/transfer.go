package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/events"
	"github.com/noah-isme/backend-rent/internal/gateway"
	"github.com/noah-isme/backend-rent/internal/obs"
)

// TransferAPI is the slice of the gateway client used for executing splits.
type TransferAPI interface {
	FetchOrder(ctx context.Context, orderID string) (gateway.Order, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error)
	CreateTransfersForPayment(ctx context.Context, paymentID string, transfers []gateway.TransferRequest) ([]gateway.Transfer, error)
	ListTransfersForPayment(ctx context.Context, paymentID string) ([]gateway.Transfer, error)
}

// TaskEnqueuer schedules a deferred transfer retry. Nil disables deferral;
// failures then surface directly to the caller.
type TaskEnqueuer interface {
	EnqueueTransferRetry(ctx context.Context, orderID, paymentID string) error
}

// Executor runs the transfer instructions recorded on an order against a
// captured payment.
type Executor struct {
	Gateway TransferAPI
	Tasks   TaskEnqueuer
	Bus     *events.Bus
	Logger  zerolog.Logger
}

// Execute loads the transfer instructions from the order's notes and creates
// the corresponding transfers on the payment. Transfers already present on
// the payment are not re-created, so a retry after partial failure is safe.
func (e *Executor) Execute(ctx context.Context, orderID, paymentID string) ([]gateway.Transfer, error) {
	order, err := e.Gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	instructions, err := DecodeInstructions(order.Notes)
	if err != nil {
		// present-but-corrupt is a data-loss signal, never retried blindly
		return nil, err
	}
	if len(instructions) == 0 {
		e.Logger.Info().Str("order_id", orderID).Msg("order carries no transfer instructions")
		return nil, nil
	}

	existing, err := e.Gateway.ListTransfersForPayment(ctx, paymentID)
	if err != nil {
		e.Logger.Warn().Err(err).Str("payment_id", paymentID).Msg("could not list existing transfers, proceeding with create")
	}
	pending := filterPending(instructions, existing)
	if len(pending) == 0 {
		e.Logger.Info().Str("payment_id", paymentID).Msg("transfers already executed")
		return existing, nil
	}

	created, err := e.Gateway.CreateTransfersForPayment(ctx, paymentID, toTransferRequests(pending))
	if err != nil {
		if isDuplicateTransfer(err) {
			e.Logger.Info().Str("payment_id", paymentID).Msg("gateway reports transfers already exist")
			return e.Gateway.ListTransfersForPayment(ctx, paymentID)
		}
		return nil, e.reconciliationGap(ctx, orderID, paymentID, err)
	}
	if obs.TransferTotal != nil {
		obs.TransferTotal.WithLabelValues("success").Inc()
	}
	e.emit(ctx, events.TopicTransferProcessed, map[string]any{
		"orderId":   orderID,
		"paymentId": paymentID,
		"count":     len(created),
	})
	e.Logger.Info().Str("order_id", orderID).Str("payment_id", paymentID).Int("transfers", len(created)).Msg("split transfers executed")
	return append(existing, created...), nil
}

// reconciliationGap records a verified payment whose split failed. The gap
// is counted, logged at error level, and a retry task is enqueued when a
// scheduler is wired.
func (e *Executor) reconciliationGap(ctx context.Context, orderID, paymentID string, cause error) error {
	if obs.TransferTotal != nil {
		obs.TransferTotal.WithLabelValues("error").Inc()
	}
	if obs.ReconciliationGapTotal != nil {
		obs.ReconciliationGapTotal.Inc()
	}
	e.Logger.Error().Err(cause).
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Msg("payment captured but transfers failed, funds held on platform account")
	e.emit(ctx, events.TopicTransferFailed, map[string]any{
		"orderId":   orderID,
		"paymentId": paymentID,
		"error":     cause.Error(),
	})
	if e.Tasks != nil {
		if err := e.Tasks.EnqueueTransferRetry(ctx, orderID, paymentID); err != nil {
			e.Logger.Error().Err(err).Str("payment_id", paymentID).Msg("could not enqueue transfer retry")
		}
	}
	return &ReconciliationGap{OrderID: orderID, PaymentID: paymentID, Err: cause}
}

func (e *Executor) emit(ctx context.Context, topic string, payload any) {
	if e.Bus == nil {
		return
	}
	if _, err := e.Bus.Emit(ctx, topic, payload); err != nil {
		e.Logger.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}

// filterPending drops instructions whose recipient already has a transfer of
// the same amount on the payment.
func filterPending(instructions []TransferInstruction, existing []gateway.Transfer) []TransferInstruction {
	if len(existing) == 0 {
		return instructions
	}
	done := make(map[string]bool, len(existing))
	for _, tr := range existing {
		done[tr.Recipient] = done[tr.Recipient] || tr.Amount > 0
	}
	pending := instructions[:0:0]
	for _, in := range instructions {
		if !done[in.Account] {
			pending = append(pending, in)
		}
	}
	return pending
}

func isDuplicateTransfer(err error) bool {
	ge, ok := gateway.IsError(err)
	if !ok {
		return false
	}
	desc := strings.ToLower(ge.Description)
	return strings.Contains(desc, "already") || strings.Contains(desc, "duplicate")
}

// VerifyResult reports the outcome of a checkout verification.
type VerifyResult struct {
	Verified  bool
	Transfers []gateway.Transfer
}

// VerifyAndExecute checks the checkout signature and, when valid, executes
// the recorded split. An invalid signature is a non-error outcome: gated
// actions simply do not run.
func (e *Executor) VerifyAndExecute(ctx context.Context, v Verifier, orderID, paymentID, signature string) (VerifyResult, error) {
	if !v.Verify(orderID, paymentID, signature) {
		e.Logger.Warn().Str("order_id", orderID).Str("payment_id", paymentID).Msg("checkout signature mismatch")
		return VerifyResult{Verified: false}, nil
	}
	transfers, err := e.Execute(ctx, orderID, paymentID)
	if err != nil {
		var gap *ReconciliationGap
		if errors.As(err, &gap) {
			// the payment itself is verified; the gap is reported alongside
			return VerifyResult{Verified: true}, err
		}
		return VerifyResult{Verified: true}, err
	}
	return VerifyResult{Verified: true, Transfers: transfers}, nil
}

// PaymentDetails is the captured payment attached to an order status view.
// An empty Transfers slice on a captured payment is the reconciliation gap
// made visible: money arrived but the split has not run.
type PaymentDetails struct {
	PaymentID string             `json:"paymentId"`
	Status    string             `json:"status"`
	Method    string             `json:"method"`
	Transfers []gateway.Transfer `json:"transfers"`
}

// OrderState is the flat order status view served to clients.
type OrderState struct {
	OrderID        string            `json:"orderId"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	CreatedAt      int64             `json:"created_at"`
	Notes          map[string]string `json:"notes"`
	PaymentDetails *PaymentDetails   `json:"paymentDetails,omitempty"`
}

// OrderStatus fetches the order and, when a payment was captured, its
// transfer state.
func (e *Executor) OrderStatus(ctx context.Context, orderID string) (OrderState, error) {
	order, err := e.Gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return OrderState{}, err
	}
	payments, err := e.Gateway.FetchOrderPayments(ctx, orderID)
	if err != nil {
		return OrderState{}, err
	}
	state := OrderState{
		OrderID:   order.ID,
		Status:    order.Status,
		Amount:    order.Amount,
		Currency:  order.Currency,
		CreatedAt: order.CreatedAt,
		Notes:     order.Notes,
	}
	for _, p := range payments {
		if !strings.EqualFold(p.Status, "captured") {
			continue
		}
		details := &PaymentDetails{
			PaymentID: p.ID,
			Status:    p.Status,
			Method:    p.Method,
			Transfers: []gateway.Transfer{},
		}
		transfers, err := e.Gateway.ListTransfersForPayment(ctx, p.ID)
		if err != nil {
			e.Logger.Warn().Err(err).Str("payment_id", p.ID).Msg("transfer listing unavailable for status view")
		} else if len(transfers) > 0 {
			details.Transfers = transfers
		}
		state.PaymentDetails = details
		break
	}
	return state, nil
}
