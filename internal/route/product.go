package route

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

// ProductAPI is the slice of the gateway client used for route products.
type ProductAPI interface {
	ListProducts(ctx context.Context, accountID string) ([]gateway.Product, error)
	RequestProduct(ctx context.Context, accountID string, body gateway.RequestProductBody) (gateway.Product, error)
	UpdateProduct(ctx context.Context, accountID, productID string, body any) (json.RawMessage, error)
}

// ProductInfo is the resolved route product for a sub-account.
type ProductInfo struct {
	ProductID        string `json:"productId"`
	ActivationStatus string `json:"activation_status"`
}

const routeProductName = "route"

// ProductResolver performs a get-or-create of the payout-enabling product
// under a sub-account. The gateway does not enforce product uniqueness, so a
// blind create would duplicate: the resolver always lists first.
type ProductResolver struct {
	Gateway ProductAPI
	Logger  zerolog.Logger
}

// GetOrCreate returns the existing route product for the account, creating
// one if absent. A failed list is tolerated and falls through to create; a
// failed create raises ProductProvisioningError with the provider payload.
func (r *ProductResolver) GetOrCreate(ctx context.Context, accountID string) (ProductInfo, error) {
	products, err := r.Gateway.ListProducts(ctx, accountID)
	if err != nil {
		r.Logger.Warn().Err(err).Str("account_id", accountID).Msg("list products failed, falling through to create")
	} else {
		for _, p := range products {
			if isRouteProduct(p) {
				return ProductInfo{ProductID: p.ID, ActivationStatus: p.ActivationStatus}, nil
			}
		}
	}

	created, err := r.Gateway.RequestProduct(ctx, accountID, gateway.RequestProductBody{
		ProductName: routeProductName,
		TncAccepted: true,
	})
	if err != nil {
		perr := &ProductProvisioningError{AccountID: accountID, Err: err}
		if ge, ok := gateway.IsError(err); ok {
			perr.Payload = ge.Payload
		}
		return ProductInfo{}, perr
	}
	r.Logger.Info().Str("account_id", accountID).Str("product_id", created.ID).Msg("route product requested")
	return ProductInfo{ProductID: created.ID, ActivationStatus: created.ActivationStatus}, nil
}

func isRouteProduct(p gateway.Product) bool {
	name := strings.ToLower(strings.TrimSpace(p.ProductName))
	if strings.Contains(name, routeProductName) {
		return true
	}
	// some provider versions carry the product code on the raw body only
	var shape struct {
		ProductCode string `json:"product_code"`
	}
	if err := json.Unmarshal(p.Raw, &shape); err == nil {
		return strings.Contains(strings.ToLower(shape.ProductCode), routeProductName)
	}
	return false
}
