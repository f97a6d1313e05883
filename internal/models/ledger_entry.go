package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies one of the independent balance buckets an account holds.
type Source string

const (
	SourceReferralDirect   Source = "REFERRAL_DIRECT"
	SourceReferralIndirect Source = "REFERRAL_INDIRECT"
	SourceClickTask        Source = "CLICK_TASK"
	SourceSharedCapital    Source = "SHARED_CAPITAL"

	// SourceReferralTotal is a withdrawal-only aggregate over the direct and
	// indirect referral buckets. Nothing is ever posted against it.
	SourceReferralTotal Source = "REFERRAL_TOTAL"
)

// LedgerSources returns the four sources entries may be posted against.
func LedgerSources() []Source {
	return []Source{
		SourceReferralDirect,
		SourceReferralIndirect,
		SourceClickTask,
		SourceSharedCapital,
	}
}

// Valid reports whether s is a real ledger bucket.
func (s Source) Valid() bool {
	switch s {
	case SourceReferralDirect, SourceReferralIndirect, SourceClickTask, SourceSharedCapital:
		return true
	}
	return false
}

// EntryKind classifies why an entry was posted.
type EntryKind string

const (
	KindCreditEarning      EntryKind = "CREDIT_EARNING"
	KindDebitWithdrawal    EntryKind = "DEBIT_WITHDRAWAL"
	KindDebitPackageEntry  EntryKind = "DEBIT_PACKAGE_ENTRY"
	KindCreditPackageClaim EntryKind = "CREDIT_PACKAGE_CLAIM"
	KindReversal           EntryKind = "REVERSAL"
)

// LedgerEntry is an immutable balance-affecting fact. Entries are only ever
// appended; corrections are posted as REVERSAL entries referencing the
// original entry, never by mutating or deleting history.
type LedgerEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Source    Source          `json:"source"`
	Amount    decimal.Decimal `json:"amount"` // minor units, negative for debits
	Kind      EntryKind       `json:"kind"`
	Reference string          `json:"reference"` // ties to the causing package/withdrawal/click event
	CreatedAt time.Time       `json:"created_at"`
}
