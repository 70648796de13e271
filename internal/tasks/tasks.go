package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/payment"
)

// TypeTransferRetry re-runs the split transfers of a verified payment after
// an earlier attempt left a reconciliation gap.
const TypeTransferRetry = "transfer:retry"

// TransferRetryPayload identifies the payment whose split must be re-run.
type TransferRetryPayload struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
}

// NewTransferRetryTask builds the asynq task for a transfer retry.
func NewTransferRetryTask(orderID, paymentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TransferRetryPayload{OrderID: orderID, PaymentID: paymentID})
	if err != nil {
		return nil, fmt.Errorf("marshal transfer retry payload: %w", err)
	}
	return asynq.NewTask(TypeTransferRetry, payload), nil
}

// Enqueuer schedules deferred work through asynq. It satisfies
// payment.TaskEnqueuer.
type Enqueuer struct {
	Client *asynq.Client
	// RetryDelay spaces the first retry away from the failure that caused
	// it; the gateway outage that broke the transfer is often still ongoing.
	RetryDelay time.Duration
	MaxRetry   int
	Logger     zerolog.Logger
}

// EnqueueTransferRetry schedules a transfer retry for the payment.
func (e *Enqueuer) EnqueueTransferRetry(ctx context.Context, orderID, paymentID string) error {
	task, err := NewTransferRetryTask(orderID, paymentID)
	if err != nil {
		return err
	}
	delay := e.RetryDelay
	if delay <= 0 {
		delay = time.Minute
	}
	maxRetry := e.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 5
	}
	info, err := e.Client.EnqueueContext(ctx, task,
		asynq.ProcessIn(delay),
		asynq.MaxRetry(maxRetry),
		asynq.Unique(delay),
	)
	if err != nil {
		return fmt.Errorf("enqueue transfer retry: %w", err)
	}
	e.Logger.Info().
		Str("task_id", info.ID).
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Msg("transfer retry scheduled")
	return nil
}

// Handler executes queued tasks inside the worker process.
type Handler struct {
	Executor *payment.Executor
	Logger   zerolog.Logger
}

// HandleTransferRetry re-runs the split. The executor's own list-then-create
// idempotency makes repeated runs safe; a returned error hands the task back
// to asynq for its retry schedule.
func (h *Handler) HandleTransferRetry(ctx context.Context, t *asynq.Task) error {
	var payload TransferRetryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal transfer retry payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == "" || payload.PaymentID == "" {
		return fmt.Errorf("transfer retry payload incomplete: %w", asynq.SkipRetry)
	}
	_, err := h.Executor.Execute(ctx, payload.OrderID, payload.PaymentID)
	if err != nil {
		h.Logger.Warn().Err(err).
			Str("order_id", payload.OrderID).
			Str("payment_id", payload.PaymentID).
			Msg("transfer retry failed, handing back to queue")
		return err
	}
	h.Logger.Info().
		Str("order_id", payload.OrderID).
		Str("payment_id", payload.PaymentID).
		Msg("transfer retry completed")
	return nil
}
