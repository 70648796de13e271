package route

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

// fakeGateway implements AccountAPI and ProductAPI with pluggable behavior
// and records every call in order.
type fakeGateway struct {
	calls []string

	createAccountFn     func(ctx context.Context, req gateway.CreateAccountRequest) (gateway.Account, error)
	fetchAccountFn      func(ctx context.Context, accountID string) (gateway.Account, error)
	updateAccountFn     func(ctx context.Context, accountID string, body any) (json.RawMessage, error)
	createStakeholderFn func(ctx context.Context, accountID string, req gateway.StakeholderRequest) (gateway.Stakeholder, error)
	listProductsFn      func(ctx context.Context, accountID string) ([]gateway.Product, error)
	requestProductFn    func(ctx context.Context, accountID string, body gateway.RequestProductBody) (gateway.Product, error)
	updateProductFn     func(ctx context.Context, accountID, productID string, body any) (json.RawMessage, error)
}

var errFakeNotWired = errors.New("fake: not wired")

func (f *fakeGateway) CreateAccount(ctx context.Context, req gateway.CreateAccountRequest) (gateway.Account, error) {
	f.calls = append(f.calls, "CreateAccount")
	if f.createAccountFn == nil {
		return gateway.Account{}, errFakeNotWired
	}
	return f.createAccountFn(ctx, req)
}

func (f *fakeGateway) FetchAccount(ctx context.Context, accountID string) (gateway.Account, error) {
	f.calls = append(f.calls, "FetchAccount")
	if f.fetchAccountFn == nil {
		return gateway.Account{}, errFakeNotWired
	}
	return f.fetchAccountFn(ctx, accountID)
}

func (f *fakeGateway) UpdateAccount(ctx context.Context, accountID string, body any) (json.RawMessage, error) {
	f.calls = append(f.calls, "UpdateAccount")
	if f.updateAccountFn == nil {
		return nil, errFakeNotWired
	}
	return f.updateAccountFn(ctx, accountID, body)
}

func (f *fakeGateway) CreateStakeholder(ctx context.Context, accountID string, req gateway.StakeholderRequest) (gateway.Stakeholder, error) {
	f.calls = append(f.calls, "CreateStakeholder")
	if f.createStakeholderFn == nil {
		return gateway.Stakeholder{}, errFakeNotWired
	}
	return f.createStakeholderFn(ctx, accountID, req)
}

func (f *fakeGateway) ListProducts(ctx context.Context, accountID string) ([]gateway.Product, error) {
	f.calls = append(f.calls, "ListProducts")
	if f.listProductsFn == nil {
		return nil, errFakeNotWired
	}
	return f.listProductsFn(ctx, accountID)
}

func (f *fakeGateway) RequestProduct(ctx context.Context, accountID string, body gateway.RequestProductBody) (gateway.Product, error) {
	f.calls = append(f.calls, "RequestProduct")
	if f.requestProductFn == nil {
		return gateway.Product{}, errFakeNotWired
	}
	return f.requestProductFn(ctx, accountID, body)
}

func (f *fakeGateway) UpdateProduct(ctx context.Context, accountID, productID string, body any) (json.RawMessage, error) {
	f.calls = append(f.calls, "UpdateProduct")
	if f.updateProductFn == nil {
		return nil, errFakeNotWired
	}
	return f.updateProductFn(ctx, accountID, productID, body)
}
