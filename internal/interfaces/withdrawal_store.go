package interfaces

import (
	"context"
	"time"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

// WithdrawalStore persists withdrawal requests. Requests are mutated exactly
// once, by an admin decision, and never deleted.
type WithdrawalStore interface {
	SaveWithdrawal(ctx context.Context, request models.WithdrawalRequest) error
	Withdrawal(ctx context.Context, id string) (models.WithdrawalRequest, error)
	WithdrawalsByAccount(ctx context.Context, accountID string) ([]models.WithdrawalRequest, error)
	AllWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error)

	// DecideWithdrawal transitions PENDING to the given terminal state
	// exactly once. Returns ErrAlreadyDecided if the request is no longer
	// PENDING, ErrNotFound if it does not exist.
	DecideWithdrawal(ctx context.Context, id string, state models.WithdrawalState, adminID string, at time.Time) error
}
