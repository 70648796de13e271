package route

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

// Handler exposes the linked-account provisioning HTTP surface.
type Handler struct {
	Provisioner *Provisioner
	Settlements *SettlementConfigurator
	Statuses    *StatusResolver
	Validate    *validator.Validate
}

type addressReq struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type createAccountReq struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Contact      string      `json:"contact" validate:"required"`
	BusinessType string      `json:"business_type"`
	Address      *addressReq `json:"address"`
}

// Create provisions a linked account for a fund recipient.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing or invalid fields", validationDetails(err))
			return
		}
	}
	in := ProvisionInput{
		Name:         req.Name,
		Email:        req.Email,
		Contact:      req.Contact,
		BusinessType: req.BusinessType,
	}
	if req.Address != nil {
		in.Address = gateway.Address{
			Street1:    req.Address.Street1,
			Street2:    req.Address.Street2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
	}
	account, err := h.Provisioner.Provision(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := canonicalStatus(account.Status)
	common.JSON(w, http.StatusCreated, map[string]any{
		"linkedAccountId": account.ID,
		"status":          status,
	})
}

// Get reports the merged activation status of a linked account. With
// ensure_product=true the route product is created when absent.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(chi.URLParam(r, "id"))
	if accountID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "account id is required", nil)
		return
	}
	ensure := strings.EqualFold(r.URL.Query().Get("ensure_product"), "true")

	var (
		result StatusResult
		err    error
	)
	if ensure {
		result, err = h.Statuses.EnsureProductAndGetStatus(r.Context(), accountID)
	} else {
		result, err = h.Statuses.GetStatus(r.Context(), accountID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := map[string]any{
		"linkedAccountId": accountID,
		"status":          result.Status,
	}
	if result.Product != nil {
		resp["route_product"] = result.Product
	}
	common.JSON(w, http.StatusOK, resp)
}

type settlementReq struct {
	BeneficiaryName string `json:"beneficiary_name" validate:"required"`
	AccountNumber   string `json:"account_number" validate:"required"`
	IFSCCode        string `json:"ifsc_code" validate:"required"`
	ProductID       string `json:"productId"`
}

// UpdateSettlements writes payout bank details for a linked account.
func (h *Handler) UpdateSettlements(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(chi.URLParam(r, "id"))
	if accountID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "account id is required", nil)
		return
	}
	var req settlementReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing or invalid fields", validationDetails(err))
			return
		}
	}
	result, err := h.Settlements.Update(r.Context(), SettlementInput{
		AccountID:       accountID,
		BeneficiaryName: req.BeneficiaryName,
		AccountNumber:   req.AccountNumber,
		IFSC:            req.IFSCCode,
		ProductID:       req.ProductID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"method":  result.Method,
		"data":    result.Data,
	})
}

type stakeholderReq struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Executive bool   `json:"executive"`
}

// CreateStakeholder attaches a stakeholder to a linked account.
func (h *Handler) CreateStakeholder(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(chi.URLParam(r, "id"))
	if accountID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "account id is required", nil)
		return
	}
	var req stakeholderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing or invalid fields", validationDetails(err))
			return
		}
	}
	stakeholder, err := h.Provisioner.AddStakeholder(r.Context(), accountID, req.Name, req.Email, req.Executive)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"stakeholder": stakeholder,
	})
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return map[string]any{"fields": fields}
}

// writeDomainError maps domain errors onto the canonical error body.
func writeDomainError(w http.ResponseWriter, err error) {
	if ve, ok := AsValidationError(err); ok {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", ve.Error(), map[string]any{"fields": ve.Fields})
		return
	}
	var aggregate *AggregateStrategyFailure
	if errors.As(err, &aggregate) {
		details := map[string]any{"hint": aggregate.Hint}
		if last := aggregate.LastError(); last != nil {
			details["last_error"] = last.Error()
		}
		common.JSONError(w, http.StatusBadRequest, "SETTLEMENT_UPDATE_FAILED", aggregate.Error(), details)
		return
	}
	var product *ProductProvisioningError
	if errors.As(err, &product) {
		common.JSONError(w, http.StatusBadGateway, "PRODUCT_PROVISIONING_FAILED", product.Error(), map[string]any{"provider": json.RawMessage(product.Payload)})
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
