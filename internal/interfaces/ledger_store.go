package interfaces

import (
	"context"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

// LedgerStore persists ledger entries. Implementations must treat entries as
// append-only; there is no update or delete.
type LedgerStore interface {
	SaveEntry(ctx context.Context, entry models.LedgerEntry) error
	EntryByID(ctx context.Context, id string) (models.LedgerEntry, error)
	EntriesByAccountSource(ctx context.Context, accountID string, source models.Source) ([]models.LedgerEntry, error)
	EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error)

	// ReferenceExists reports whether an entry with the given reference has
	// already been posted for (account, source). It is the cascade's
	// idempotency guard.
	ReferenceExists(ctx context.Context, accountID string, source models.Source, reference string) (bool, error)
}
