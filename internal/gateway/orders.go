package gateway

import (
	"context"
	"net/http"
)

// CreateOrderRequest opens a new payment order. Notes is the only durable
// metadata the gateway keeps for an order, so callers serialise anything they
// need to recover later (transfer instructions included) into it.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's order resource.
type Order struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// CreateOrder opens an order with the gateway.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

// FetchOrder retrieves an order by id.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+orderID, nil, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

// Payment is a captured (or attempted) payment against an order.
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

type paymentList struct {
	Items []Payment `json:"items"`
}

// FetchOrderPayments lists the payments recorded against an order.
func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	var out paymentList
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+orderID+"/payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
