package transaction

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the closed set of transaction kinds.
type Type string

const (
	TypeLoad     Type = "load"
	TypeWithdraw Type = "withdraw"
	TypeTransfer Type = "transfer"
)

// ValidType reports whether t is a member of the closed type set.
func ValidType(t Type) bool {
	switch t {
	case TypeLoad, TypeWithdraw, TypeTransfer:
		return true
	}
	return false
}

// UnmarshalJSON rejects types outside the closed set at the decoding edge.
func (t *Type) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !ValidType(Type(raw)) {
		return fmt.Errorf("%w: unknown transaction type %q", ErrDecode, raw)
	}
	*t = Type(raw)
	return nil
}

// Transaction as returned by the backend. Amount is a positive
// currency-agnostic value.
type Transaction struct {
	TransactionID string    `json:"transaction_id"`
	Type          Type      `json:"type"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Sender        string    `json:"sender"`
	Receiver      string    `json:"receiver"`
	Participants  []string  `json:"participants"`
}

// Request describes a transaction to submit to the backend.
type Request struct {
	Amount      float64 `json:"amount"`
	Sender      string  `json:"sender"`
	Receiver    string  `json:"receiver"`
	Type        Type    `json:"type"`
	Message     string  `json:"msg,omitempty"`
	Description string  `json:"description,omitempty"`
}
