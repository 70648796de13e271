package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-rent/internal/gateway"
)

// notesKeyTransfers is the order-notes key holding the serialised transfer
// instructions. The gateway order is the only durable record of a split, so
// losing or corrupting this key means the split cannot be executed.
const notesKeyTransfers = "transfers"

// ErrInstructionDecode marks a transfers note that is present but not
// parseable. Callers must distinguish this from an order that simply carries
// no instructions: the former is a data-loss signal, the latter is normal
// for non-split orders.
var ErrInstructionDecode = errors.New("transfer instructions present but undecodable")

// TransferInstruction describes one slice of a split: which sub-account
// receives how much, in minor units.
type TransferInstruction struct {
	Account  string            `json:"account"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// EncodeInstructions serialises instructions into the notes value. The sum
// of instruction amounts must not exceed the order amount; the platform's
// share is whatever remains.
func EncodeInstructions(instructions []TransferInstruction, orderAmount int64) (string, error) {
	var total int64
	for i, in := range instructions {
		if in.Account == "" {
			return "", fmt.Errorf("instruction %d: account is required", i)
		}
		if in.Amount <= 0 {
			return "", fmt.Errorf("instruction %d: amount must be positive, got %d", i, in.Amount)
		}
		total += in.Amount
	}
	if total > orderAmount {
		return "", fmt.Errorf("instructions total %d exceeds order amount %d", total, orderAmount)
	}
	raw, err := json.Marshal(instructions)
	if err != nil {
		return "", fmt.Errorf("encode instructions: %w", err)
	}
	return string(raw), nil
}

// DecodeInstructions reads transfer instructions back from order notes.
// A missing key returns nil with no error.
func DecodeInstructions(notes map[string]string) ([]TransferInstruction, error) {
	raw, ok := notes[notesKeyTransfers]
	if !ok || raw == "" {
		return nil, nil
	}
	var instructions []TransferInstruction
	if err := json.Unmarshal([]byte(raw), &instructions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInstructionDecode, err)
	}
	return instructions, nil
}

// toTransferRequests maps decoded instructions onto gateway transfer bodies.
func toTransferRequests(instructions []TransferInstruction) []gateway.TransferRequest {
	reqs := make([]gateway.TransferRequest, 0, len(instructions))
	for _, in := range instructions {
		reqs = append(reqs, gateway.TransferRequest{
			Account:  in.Account,
			Amount:   in.Amount,
			Currency: in.Currency,
			Notes:    in.Notes,
		})
	}
	return reqs
}
