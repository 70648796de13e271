package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports required fields that were missing from a request.
// It is raised before any network call is made.
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

// ProductProvisioningError reports a failed route product creation, keeping
// the provider payload for diagnosis.
type ProductProvisioningError struct {
	AccountID string
	Payload   json.RawMessage
	Err       error
}

func (e *ProductProvisioningError) Error() string {
	return fmt.Sprintf("route product provisioning failed for %s: %v", e.AccountID, e.Err)
}

func (e *ProductProvisioningError) Unwrap() error { return e.Err }

// StrategyAttempt records one failed settlement update attempt.
type StrategyAttempt struct {
	Strategy string
	Err      error
}

// AggregateStrategyFailure is returned when every settlement update strategy
// failed. It exposes the last error and an operator-facing hint.
type AggregateStrategyFailure struct {
	Attempts []StrategyAttempt
	Hint     string
}

func (e *AggregateStrategyFailure) Error() string {
	last := e.LastError()
	if last == nil {
		return "settlement update failed on every strategy"
	}
	return fmt.Sprintf("settlement update failed on every strategy, last: %v", last)
}

// LastError returns the error of the final attempted strategy.
func (e *AggregateStrategyFailure) LastError() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
