// Package engine wires the ledger, lifecycle managers and cascade behind the
// operation surface the transport layer calls.
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clicks"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/config"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/packages"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/referral"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/withdrawals"
)

// Stores groups the persistence interfaces. Memory and postgres stores both
// satisfy all four.
type Stores struct {
	Ledger      interfaces.LedgerStore
	Accounts    interfaces.AccountStore
	Packages    interfaces.PackageStore
	Withdrawals interfaces.WithdrawalStore
}

type Engine struct {
	Ledger      *ledger.Ledger
	Packages    *packages.Manager
	Clicks      *clicks.Limiter
	Withdrawals *withdrawals.Arbiter

	accounts interfaces.AccountStore
	now      clock.Clock
	log      *zap.Logger
}

func New(cfg *config.Config, stores Stores, publisher interfaces.EventPublisher, log *zap.Logger, now clock.Clock) *Engine {
	l := ledger.New(stores.Ledger, publisher, log, now)

	cascade := referral.New(l, stores.Accounts, referral.Config{
		DirectRate:   cfg.DirectRate,
		IndirectRate: cfg.IndirectRate,
		MaxDepth:     cfg.MaxCommissionDepth,
		PayInactive:  cfg.PayInactiveUplines,
	}, log)

	return &Engine{
		Ledger:   l,
		Packages: packages.NewManager(l, stores.Packages, stores.Accounts, cascade, cfg.Catalog, now, log),
		Clicks: clicks.NewLimiter(l, stores.Accounts, clicks.Config{
			MaxClicksPerDay:     cfg.MaxClicksPerDay,
			PerClickReward:      cfg.PerClickReward,
			DailyRewardBudget:   cfg.DailyClickRewardBudget,
			ActivationThreshold: cfg.ActivationThreshold,
		}, now, log),
		Withdrawals: withdrawals.NewArbiter(l, stores.Withdrawals, stores.Accounts, publisher,
			cfg.MinimumWithdrawal, now, log),
		accounts: stores.Accounts,
		now:      now,
		log:      log,
	}
}

// CreateAccount registers an approved account. The upline, when given, must
// already exist: that ordering is what makes the referral graph a forest.
func (e *Engine) CreateAccount(ctx context.Context, id, uplineID string) (models.Account, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if uplineID != "" {
		if _, err := e.accounts.Account(ctx, uplineID); err != nil {
			return models.Account{}, err
		}
	}
	// Creation is idempotent on the id; re-approving an existing account is
	// a no-op.
	if existing, err := e.accounts.Account(ctx, id); err == nil {
		return existing, nil
	}

	account := models.Account{
		ID:        id,
		UplineID:  uplineID,
		IsActive:  true,
		CreatedAt: e.now(),
	}
	if err := e.accounts.SaveAccount(ctx, account); err != nil {
		// A concurrent create may have won between the exists check and
		// the insert; a duplicate-key failure resolves to the winner.
		if existing, lookupErr := e.accounts.Account(ctx, id); lookupErr == nil {
			return existing, nil
		}
		return models.Account{}, apperrors.Wrap(apperrors.CodeTransientFailure, "save account", err)
	}
	e.log.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("upline_id", uplineID))
	return account, nil
}

// DeactivateAccount soft-deletes: the account and its history remain, and
// commission treatment of inactive uplines follows the configured rule.
func (e *Engine) DeactivateAccount(ctx context.Context, id string) error {
	account, err := e.accounts.Account(ctx, id)
	if err != nil {
		return err
	}
	account.IsActive = false
	if err := e.accounts.UpdateAccount(ctx, account); err != nil {
		return apperrors.Wrap(apperrors.CodeTransientFailure, "update account", err)
	}
	e.log.Info("account deactivated", zap.String("account_id", id))
	return nil
}

// Account returns one participant.
func (e *Engine) Account(ctx context.Context, id string) (models.Account, error) {
	return e.accounts.Account(ctx, id)
}

// ReverseEntry posts a REVERSAL correcting an existing entry.
func (e *Engine) ReverseEntry(ctx context.Context, entryID string) (models.LedgerEntry, error) {
	return e.Ledger.Reverse(ctx, entryID)
}
