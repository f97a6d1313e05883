package interfaces

import (
	"context"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

// AccountStore persists participant accounts. Accounts are never deleted,
// only deactivated.
type AccountStore interface {
	SaveAccount(ctx context.Context, account models.Account) error
	Account(ctx context.Context, id string) (models.Account, error)
	UpdateAccount(ctx context.Context, account models.Account) error
}
