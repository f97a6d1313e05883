// Package packages manages investment package lifecycle: open, mature,
// claim. Maturity is computed from the stored dates on every read; no
// scheduler ever ticks a package forward.
package packages

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/monitoring"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/referral"
)

type Manager struct {
	ledger   *ledger.Ledger
	store    interfaces.PackageStore
	accounts interfaces.AccountStore
	cascade  *referral.Cascade
	catalog  []models.PackageTier
	now      clock.Clock
	log      *zap.Logger
}

func NewManager(l *ledger.Ledger, store interfaces.PackageStore, accounts interfaces.AccountStore,
	cascade *referral.Cascade, catalog []models.PackageTier, now clock.Clock, log *zap.Logger) *Manager {
	return &Manager{
		ledger:   l,
		store:    store,
		accounts: accounts,
		cascade:  cascade,
		catalog:  catalog,
		now:      now,
		log:      log,
	}
}

func (m *Manager) tier(name string) (models.PackageTier, bool) {
	for _, t := range m.catalog {
		if t.Name == name {
			return t, true
		}
	}
	return models.PackageTier{}, false
}

// Open debits the shared-capital wallet and creates the package in one
// atomic unit, then triggers the commission cascade. Opening is the
// platform's commission-qualifying event.
func (m *Manager) Open(ctx context.Context, accountID, tierName string, principal decimal.Decimal) (models.InvestmentPackage, error) {
	if _, err := m.accounts.Account(ctx, accountID); err != nil {
		return models.InvestmentPackage{}, err
	}
	tier, ok := m.tier(tierName)
	if !ok {
		return models.InvestmentPackage{}, apperrors.Newf(apperrors.CodeNotFound, "unknown package tier %q", tierName)
	}
	if principal.LessThan(tier.MinAmount) {
		return models.InvestmentPackage{}, apperrors.Newf(apperrors.CodeBelowMinimum,
			"principal %s is below the %s tier minimum of %s", principal, tier.Name, tier.MinAmount)
	}

	start := m.now()
	pkg := models.InvestmentPackage{
		ID:                 uuid.New().String(),
		AccountID:          accountID,
		Tier:               tier.Name,
		Principal:          principal,
		DurationDays:       tier.DurationDays,
		TotalIncomePercent: tier.TotalIncomePercent,
		DailyIncome:        models.DailyIncomeFor(principal, tier),
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, tier.DurationDays),
	}

	eventID := "package:" + pkg.ID
	err := m.ledger.Apply(ctx, accountID, models.SourceSharedCapital, func(v *ledger.View) error {
		debit, err := v.Append(models.LedgerEntry{
			Amount:    principal.Neg(),
			Kind:      models.KindDebitPackageEntry,
			Reference: eventID,
		})
		if err != nil {
			return err
		}
		if err := m.store.SavePackage(ctx, pkg); err != nil {
			// The debit is already persisted; reverse it under the same
			// lock so no money leaves the wallet for a package that was
			// never stored.
			if _, rerr := v.Append(models.LedgerEntry{
				Amount:    principal,
				Kind:      models.KindReversal,
				Reference: debit.ID,
			}); rerr != nil {
				m.log.Error("package debit left unreversed",
					zap.String("entry_id", debit.ID),
					zap.Error(rerr))
			}
			return apperrors.Wrap(apperrors.CodeTransientFailure, "save package", err)
		}
		return nil
	})
	if err != nil {
		return models.InvestmentPackage{}, err
	}
	monitoring.PackagesOpenedTotal.Inc()

	// Cascade hops are independent atomic units; a failure here leaves the
	// package open and is safe to re-run thanks to the per-hop reference
	// guard.
	if err := m.cascade.Distribute(ctx, eventID, accountID, principal); err != nil {
		m.log.Warn("commission cascade incomplete",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	m.log.Info("package opened",
		zap.String("package_id", pkg.ID),
		zap.String("account_id", accountID),
		zap.String("tier", tier.Name),
		zap.String("principal", principal.String()))
	return pkg, nil
}

// Claim settles a matured package exactly once, crediting principal plus the
// full return as one CREDIT_PACKAGE_CLAIM entry. The store's claimed flag is
// a compare-and-swap, so concurrent duplicate claims credit at most once; the
// credit itself is keyed by reference, so a claim that flipped the flag but
// failed to post is repaired by retrying rather than losing the money.
func (m *Manager) Claim(ctx context.Context, packageID string) (models.InvestmentPackage, error) {
	pkg, err := m.store.Package(ctx, packageID)
	if err != nil {
		return models.InvestmentPackage{}, err
	}

	now := m.now()
	switch pkg.StateAt(now) {
	case models.PackageActive:
		return models.InvestmentPackage{}, apperrors.Newf(apperrors.CodeNotMatured,
			"package matures at %s", pkg.EndDate.Format("2006-01-02"))
	case models.PackageClaimed:
		// Only a delivered credit is a duplicate claim.
		posted, err := m.creditClaim(ctx, pkg)
		if err != nil {
			return models.InvestmentPackage{}, err
		}
		if !posted {
			return models.InvestmentPackage{}, apperrors.ErrAlreadyClaimed
		}
		monitoring.PackagesClaimedTotal.Inc()
		m.log.Info("package claim repaired",
			zap.String("package_id", pkg.ID),
			zap.String("account_id", pkg.AccountID))
		return pkg, nil
	}

	if err := m.store.MarkClaimed(ctx, packageID, now); err != nil {
		return models.InvestmentPackage{}, err
	}

	if _, err := m.creditClaim(ctx, pkg); err != nil {
		// The flag stays set; the next claim attempt takes the repair
		// path above and posts the missing credit.
		return models.InvestmentPackage{}, err
	}
	monitoring.PackagesClaimedTotal.Inc()

	pkg.Claimed = true
	pkg.ClaimedAt = &now
	m.log.Info("package claimed",
		zap.String("package_id", pkg.ID),
		zap.String("account_id", pkg.AccountID),
		zap.String("credited", pkg.ClaimAmount().String()))
	return pkg, nil
}

// creditClaim posts the settlement credit at most once, guarded by the claim
// reference under the wallet's key lock.
func (m *Manager) creditClaim(ctx context.Context, pkg models.InvestmentPackage) (bool, error) {
	reference := "package-claim:" + pkg.ID
	posted := false
	err := m.ledger.Apply(ctx, pkg.AccountID, models.SourceSharedCapital, func(v *ledger.View) error {
		exists, err := v.ReferenceExists(reference)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := v.Append(models.LedgerEntry{
			Amount:    pkg.ClaimAmount(),
			Kind:      models.KindCreditPackageClaim,
			Reference: reference,
		}); err != nil {
			return err
		}
		posted = true
		return nil
	})
	return posted, err
}

// List returns an account's packages; callers derive state via StateAt.
func (m *Manager) List(ctx context.Context, accountID string) ([]models.InvestmentPackage, error) {
	return m.store.PackagesByAccount(ctx, accountID)
}

// Get returns one package.
func (m *Manager) Get(ctx context.Context, packageID string) (models.InvestmentPackage, error) {
	return m.store.Package(ctx, packageID)
}

// Now exposes the manager's clock so callers can derive states consistently.
func (m *Manager) Now() clock.Clock {
	return m.now
}
