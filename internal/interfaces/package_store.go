package interfaces

import (
	"context"
	"time"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

// PackageStore persists investment packages. Only the claimed flag and claim
// timestamp are writable after creation.
type PackageStore interface {
	SavePackage(ctx context.Context, pkg models.InvestmentPackage) error
	Package(ctx context.Context, id string) (models.InvestmentPackage, error)
	PackagesByAccount(ctx context.Context, accountID string) ([]models.InvestmentPackage, error)

	// MarkClaimed flips the package to claimed exactly once. Returns
	// ErrAlreadyClaimed if another caller won the race, ErrNotFound if the
	// package does not exist.
	MarkClaimed(ctx context.Context, id string, at time.Time) error
}
