package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topics the engine publishes to. Consumers (websocket pusher, notifiers)
// subscribe on their side; publishing here is fire-and-forget.
const (
	TopicBalanceChanged          = "balance_changed"
	TopicWithdrawalStatusChanged = "withdrawal_status_changed"
)

type BalanceChanged struct {
	AccountID  string          `json:"account_id"`
	Source     string          `json:"source"`
	EntryID    string          `json:"entry_id"`
	Delta      decimal.Decimal `json:"delta"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type WithdrawalStatusChanged struct {
	RequestID  string          `json:"request_id"`
	AccountID  string          `json:"account_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}
