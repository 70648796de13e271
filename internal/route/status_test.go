package route

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

func TestMapAccountStatusShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Status
	}{
		{"v2 status field", `{"id":"acc_1","status":"activated"}`, StatusActivated},
		{"legacy account_status", `{"account_status":"under_review"}`, StatusUnderReview},
		{"activation details", `{"activation_details":{"status":"needs_clarification"}}`, StatusNeedsClarification},
		{"created maps to under review", `{"status":"created"}`, StatusUnderReview},
		{"suspended maps to disabled", `{"status":"suspended"}`, StatusDisabled},
		{"unknown shape", `{"something":"else"}`, StatusUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapAccountStatus(json.RawMessage(tc.raw)))
		})
	}
}

func TestGetStatusProductOverridesAccountBaseline(t *testing.T) {
	fake := &fakeGateway{
		fetchAccountFn: func(_ context.Context, _ string) (gateway.Account, error) {
			return gateway.Account{ID: "acc_1", Raw: json.RawMessage(`{"status":"created"}`)}, nil
		},
		listProductsFn: func(_ context.Context, _ string) ([]gateway.Product, error) {
			return []gateway.Product{{ID: "prod_1", ProductName: "route", ActivationStatus: "activated"}}, nil
		},
	}
	s := &StatusResolver{
		Accounts: fake,
		Products: &ProductResolver{Gateway: fake, Logger: zerolog.Nop()},
		Logger:   zerolog.Nop(),
	}

	result, err := s.GetStatus(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, StatusActivated, result.Status)
	require.NotNil(t, result.Product)
	assert.Equal(t, "prod_1", result.Product.ProductID)
	assert.NotContains(t, fake.calls, "RequestProduct", "GetStatus must not mutate gateway state")
}

func TestGetStatusToleratesProductListFailure(t *testing.T) {
	fake := &fakeGateway{
		fetchAccountFn: func(_ context.Context, _ string) (gateway.Account, error) {
			return gateway.Account{ID: "acc_1", Raw: json.RawMessage(`{"status":"under_review"}`)}, nil
		},
		listProductsFn: func(_ context.Context, _ string) ([]gateway.Product, error) {
			return nil, errors.New("listing unavailable")
		},
	}
	s := &StatusResolver{
		Accounts: fake,
		Products: &ProductResolver{Gateway: fake, Logger: zerolog.Nop()},
		Logger:   zerolog.Nop(),
	}

	result, err := s.GetStatus(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, result.Status)
	assert.Nil(t, result.Product)
}

func TestEnsureProductCreatesWhenAbsent(t *testing.T) {
	fake := &fakeGateway{
		fetchAccountFn: func(_ context.Context, _ string) (gateway.Account, error) {
			return gateway.Account{ID: "acc_1", Raw: json.RawMessage(`{"status":"created"}`)}, nil
		},
		listProductsFn: func(_ context.Context, _ string) ([]gateway.Product, error) {
			return nil, nil
		},
		requestProductFn: func(_ context.Context, _ string, body gateway.RequestProductBody) (gateway.Product, error) {
			assert.Equal(t, "route", body.ProductName)
			assert.True(t, body.TncAccepted)
			return gateway.Product{ID: "prod_new", ActivationStatus: "under_review"}, nil
		},
	}
	s := &StatusResolver{
		Accounts: fake,
		Products: &ProductResolver{Gateway: fake, Logger: zerolog.Nop()},
		Logger:   zerolog.Nop(),
	}

	result, err := s.EnsureProductAndGetStatus(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, result.Status)
	require.NotNil(t, result.Product)
	assert.Equal(t, "prod_new", result.Product.ProductID)
	assert.Contains(t, fake.calls, "RequestProduct")
}
