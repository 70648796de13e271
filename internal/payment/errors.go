package payment

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports required fields missing from a request. It is
// raised before any network call.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ReconciliationGap reports a payment that was verified as captured but
// whose transfer execution failed. Money sits on the platform account until
// the retry succeeds or an operator intervenes.
type ReconciliationGap struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *ReconciliationGap) Error() string {
	return fmt.Sprintf("payment %s on order %s verified but transfers failed: %v", e.PaymentID, e.OrderID, e.Err)
}

func (e *ReconciliationGap) Unwrap() error { return e.Err }
