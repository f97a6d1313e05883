// Package clicks enforces the daily cap on the repeatable micro-reward
// action. Two independent bounds apply per day: the click count and the
// reward budget.
package clicks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/monitoring"
)

type Config struct {
	MaxClicksPerDay     int
	PerClickReward      decimal.Decimal
	DailyRewardBudget   decimal.Decimal
	ActivationThreshold decimal.Decimal
}

type Limiter struct {
	ledger   *ledger.Ledger
	accounts interfaces.AccountStore
	cfg      Config
	now      clock.Clock
	log      *zap.Logger
}

func NewLimiter(l *ledger.Ledger, accounts interfaces.AccountStore, cfg Config, now clock.Clock, log *zap.Logger) *Limiter {
	return &Limiter{ledger: l, accounts: accounts, cfg: cfg, now: now, log: log}
}

// Result is what a rewarded click returns to the caller.
type Result struct {
	ClicksToday int             `json:"clicks_today"`
	Reward      decimal.Decimal `json:"reward"`
	EarnedToday decimal.Decimal `json:"earned_today"`
}

// Activate is the one-time opt-in. The wallet threshold is checked once,
// here, and never re-checked per click.
func (l *Limiter) Activate(ctx context.Context, accountID string) error {
	account, err := l.accounts.Account(ctx, accountID)
	if err != nil {
		return err
	}
	if account.ClickTaskActivated {
		return nil
	}

	balances, err := l.ledger.Balances(ctx, accountID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, balance := range balances {
		total = total.Add(balance)
	}
	if total.LessThan(l.cfg.ActivationThreshold) {
		return apperrors.Newf(apperrors.CodeBelowMinimum,
			"wallet balance %s is below the activation threshold of %s", total, l.cfg.ActivationThreshold)
	}

	account.ClickTaskActivated = true
	if err := l.accounts.UpdateAccount(ctx, account); err != nil {
		return apperrors.Wrap(apperrors.CodeTransientFailure, "update account", err)
	}
	l.log.Info("click task activated", zap.String("account_id", accountID))
	return nil
}

// Record rewards one click. The counter check, budget check, credit and
// counter bump all run under the account's CLICK_TASK key lock, so parallel
// clicks cannot exceed either bound.
func (l *Limiter) Record(ctx context.Context, accountID string) (Result, error) {
	var result Result
	err := l.ledger.Apply(ctx, accountID, models.SourceClickTask, func(v *ledger.View) error {
		account, err := l.accounts.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.ClickTaskActivated {
			return apperrors.ErrTaskNotActivated
		}

		now := l.now()
		if !clock.SameDay(account.DailyClickWindowStart, now) {
			account.DailyClickCount = 0
			account.DailyClickWindowStart = clock.DayStart(now)
		}
		if account.DailyClickCount >= l.cfg.MaxClicksPerDay {
			return apperrors.ErrDailyLimitReached
		}

		earnedToday, err := l.earnedSince(v, account.DailyClickWindowStart)
		if err != nil {
			return err
		}
		remaining := l.cfg.DailyRewardBudget.Sub(earnedToday)
		if !remaining.IsPositive() {
			return apperrors.New(apperrors.CodeDailyLimitReached, "daily reward budget exhausted")
		}
		reward := decimal.Min(l.cfg.PerClickReward, remaining)

		credit, err := v.Append(models.LedgerEntry{
			Amount:    reward,
			Kind:      models.KindCreditEarning,
			Reference: fmt.Sprintf("click:%s:%s", now.Format("2006-01-02"), uuid.New().String()),
		})
		if err != nil {
			return err
		}

		account.DailyClickCount++
		if err := l.accounts.UpdateAccount(ctx, account); err != nil {
			// The credit is already persisted; take it back so a failed
			// counter bump cannot mint an uncounted reward.
			if _, rerr := v.Append(models.LedgerEntry{
				Amount:    reward.Neg(),
				Kind:      models.KindReversal,
				Reference: credit.ID,
			}); rerr != nil {
				l.log.Error("click reward left unreversed",
					zap.String("entry_id", credit.ID),
					zap.Error(rerr))
			}
			return apperrors.Wrap(apperrors.CodeTransientFailure, "update account", err)
		}

		monitoring.ClicksRecordedTotal.Inc()
		result = Result{
			ClicksToday: account.DailyClickCount,
			Reward:      reward,
			EarnedToday: earnedToday.Add(reward),
		}
		return nil
	})
	return result, err
}

// earnedSince sums today's click credits net of reversals so the budget
// bound holds no matter how the per-click reward is configured.
func (l *Limiter) earnedSince(v *ledger.View, windowStart time.Time) (decimal.Decimal, error) {
	entries, err := v.Entries()
	if err != nil {
		return decimal.Zero, err
	}
	earned := decimal.Zero
	for _, entry := range entries {
		if entry.CreatedAt.Before(windowStart) {
			continue
		}
		if entry.Kind == models.KindCreditEarning || entry.Kind == models.KindReversal {
			earned = earned.Add(entry.Amount)
		}
	}
	return earned, nil
}
