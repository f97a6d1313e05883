package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalState is the request lifecycle. PENDING is the only non-terminal
// state; a request is decided exactly once and never deleted.
type WithdrawalState string

const (
	WithdrawalPending  WithdrawalState = "PENDING"
	WithdrawalApproved WithdrawalState = "APPROVED"
	WithdrawalRejected WithdrawalState = "REJECTED"
)

// Destination is where approved funds are paid out.
type Destination struct {
	Method        string `json:"method"` // e.g. GCASH, BANK
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// WithdrawalRequest is an agent's ask to cash out a single source (or the
// REFERRAL_TOTAL aggregate). Balance sufficiency is checked at request time
// as a soft reservation and re-checked at decision time before any debit.
type WithdrawalRequest struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Source      Source          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Destination Destination     `json:"destination"`
	State       WithdrawalState `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	DecidedBy   string          `json:"decided_by,omitempty"`
}
