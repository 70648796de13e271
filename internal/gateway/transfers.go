package gateway

import (
	"context"
	"net/http"
)

// TransferRequest routes a slice of a captured payment to a sub-account.
type TransferRequest struct {
	Account  string            `json:"account"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Transfer is the gateway's transfer resource.
type Transfer struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

type transferList struct {
	Items []Transfer `json:"items"`
}

type createTransfersBody struct {
	Transfers []TransferRequest `json:"transfers"`
}

// CreateTransfersForPayment executes split transfers on a captured payment.
func (c *Client) CreateTransfersForPayment(ctx context.Context, paymentID string, transfers []TransferRequest) ([]Transfer, error) {
	var out transferList
	body := createTransfersBody{Transfers: transfers}
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/transfers", body, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListTransfersForPayment returns transfers already executed on a payment.
// Used to detect prior completion before re-executing a split.
func (c *Client) ListTransfersForPayment(ctx context.Context, paymentID string) ([]Transfer, error) {
	var out transferList
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID+"/transfers", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
