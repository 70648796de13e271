package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// Product is a payout-enabling product configured under a sub-account.
type Product struct {
	ID               string          `json:"id"`
	ProductName      string          `json:"product_name"`
	ActivationStatus string          `json:"activation_status"`
	Raw              json.RawMessage `json:"-"`
}

type productList struct {
	Items []json.RawMessage `json:"items"`
}

// ListProducts returns the products configured under the sub-account.
func (c *Client) ListProducts(ctx context.Context, accountID string) ([]Product, error) {
	var raw productList
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+accountID+"/products", nil, &raw); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(raw.Items))
	for _, item := range raw.Items {
		var p Product
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		p.Raw = item
		products = append(products, p)
	}
	return products, nil
}

// RequestProductBody asks the gateway to configure a product for the account.
type RequestProductBody struct {
	ProductName string `json:"product_name"`
	TncAccepted bool   `json:"tnc_accepted"`
}

// RequestProduct configures a new product under the sub-account.
func (c *Client) RequestProduct(ctx context.Context, accountID string, body RequestProductBody) (Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/v2/accounts/"+accountID+"/products", body, &raw); err != nil {
		return Product{}, err
	}
	var out Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return Product{}, &Error{Err: err, Payload: raw}
	}
	out.Raw = raw
	return out, nil
}

// UpdateProduct patches a product configuration with arbitrary fields.
func (c *Client) UpdateProduct(ctx context.Context, accountID, productID string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPatch, "/v2/accounts/"+accountID+"/products/"+productID, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
