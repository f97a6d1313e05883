// Package withdrawals arbitrates cash-out requests against per-source
// balances. Requests reserve nothing; the balance is re-validated at
// decision time, which is the defense against drift during the
// human-latency gap between request and approval.
package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models/events"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/monitoring"
)

type Arbiter struct {
	ledger    *ledger.Ledger
	store     interfaces.WithdrawalStore
	accounts  interfaces.AccountStore
	publisher interfaces.EventPublisher
	minimum   decimal.Decimal
	now       clock.Clock
	log       *zap.Logger
}

func NewArbiter(l *ledger.Ledger, store interfaces.WithdrawalStore, accounts interfaces.AccountStore,
	publisher interfaces.EventPublisher, minimum decimal.Decimal, now clock.Clock, log *zap.Logger) *Arbiter {
	return &Arbiter{
		ledger:    l,
		store:     store,
		accounts:  accounts,
		publisher: publisher,
		minimum:   minimum,
		now:       now,
		log:       log,
	}
}

// Request records a PENDING withdrawal after a sufficiency check. The check
// is a courtesy, not a hold: nothing stops the balance from shrinking before
// an admin decides.
func (a *Arbiter) Request(ctx context.Context, accountID string, source models.Source,
	amount decimal.Decimal, destination models.Destination) (models.WithdrawalRequest, error) {

	if _, err := a.accounts.Account(ctx, accountID); err != nil {
		return models.WithdrawalRequest{}, err
	}
	if source != models.SourceReferralTotal && !source.Valid() {
		return models.WithdrawalRequest{}, apperrors.Newf(apperrors.CodeInvalidSource, "unknown source %q", source)
	}
	if amount.LessThan(a.minimum) {
		return models.WithdrawalRequest{}, apperrors.Newf(apperrors.CodeBelowMinimum,
			"minimum withdrawal is %s", a.minimum)
	}

	balance, err := a.ledger.Balance(ctx, accountID, source)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	if amount.GreaterThan(balance) {
		return models.WithdrawalRequest{}, apperrors.Newf(apperrors.CodeInsufficientFunds,
			"requested %s but %s balance is %s", amount, source, balance)
	}

	request := models.WithdrawalRequest{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Source:      source,
		Amount:      amount,
		Destination: destination,
		State:       models.WithdrawalPending,
		CreatedAt:   a.now(),
	}
	if err := a.store.SaveWithdrawal(ctx, request); err != nil {
		return models.WithdrawalRequest{}, apperrors.Wrap(apperrors.CodeTransientFailure, "save withdrawal", err)
	}

	a.publishStatus(request)
	a.log.Info("withdrawal requested",
		zap.String("request_id", request.ID),
		zap.String("account_id", accountID),
		zap.String("source", string(source)),
		zap.String("amount", amount.String()))
	return request, nil
}

// Decide settles a PENDING request exactly once. Approval re-validates the
// balance at decision time; if funds shrank since the request, the request
// stays PENDING for manual resolution and InsufficientFunds is returned.
func (a *Arbiter) Decide(ctx context.Context, requestID string, approve bool, adminID string) (models.WithdrawalRequest, error) {
	request, err := a.store.Withdrawal(ctx, requestID)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	if request.State != models.WithdrawalPending {
		return models.WithdrawalRequest{}, apperrors.ErrAlreadyDecided
	}

	at := a.now()

	if !approve {
		if err := a.store.DecideWithdrawal(ctx, requestID, models.WithdrawalRejected, adminID, at); err != nil {
			return models.WithdrawalRequest{}, err
		}
		request.State = models.WithdrawalRejected
		request.DecidedAt = &at
		request.DecidedBy = adminID
		monitoring.WithdrawalsDecidedTotal.WithLabelValues("rejected").Inc()
		a.publishStatus(request)
		return request, nil
	}

	if request.Source == models.SourceReferralTotal {
		return a.approveReferralTotal(ctx, request, adminID, at)
	}

	err = a.ledger.Apply(ctx, request.AccountID, request.Source, func(v *ledger.View) error {
		balance, err := v.Balance()
		if err != nil {
			return err
		}
		if request.Amount.GreaterThan(balance) {
			return apperrors.Newf(apperrors.CodeInsufficientFunds,
				"balance shrank to %s since the request; request left pending", balance)
		}
		debit, err := v.Append(models.LedgerEntry{
			Amount:    request.Amount.Neg(),
			Kind:      models.KindDebitWithdrawal,
			Reference: attemptReference(request.ID),
		})
		if err != nil {
			return err
		}
		if err := a.store.DecideWithdrawal(ctx, requestID, models.WithdrawalApproved, adminID, at); err != nil {
			// Lost a decide race after debiting; put the money back.
			if _, rerr := v.Append(models.LedgerEntry{
				Amount:    request.Amount,
				Kind:      models.KindReversal,
				Reference: debit.ID,
			}); rerr != nil {
				a.log.Error("withdrawal debit left unreversed",
					zap.String("entry_id", debit.ID),
					zap.Error(rerr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	request.State = models.WithdrawalApproved
	request.DecidedAt = &at
	request.DecidedBy = adminID
	monitoring.WithdrawalsDecidedTotal.WithLabelValues("approved").Inc()
	a.publishStatus(request)
	a.log.Info("withdrawal approved",
		zap.String("request_id", request.ID),
		zap.String("admin_id", adminID))
	return request, nil
}

// approveReferralTotal settles an aggregate-bucket request: the debit lands
// direct-first, remainder on indirect. The two buckets are separate lock
// keys, so the halves are independent atomic units; a failed second half
// reverses the first and leaves the request PENDING.
func (a *Arbiter) approveReferralTotal(ctx context.Context, request models.WithdrawalRequest,
	adminID string, at time.Time) (models.WithdrawalRequest, error) {

	ref := attemptReference(request.ID)
	var directEntry, indirectEntry models.LedgerEntry
	debitedDirect := decimal.Zero

	err := a.ledger.Apply(ctx, request.AccountID, models.SourceReferralDirect, func(v *ledger.View) error {
		balance, err := v.Balance()
		if err != nil {
			return err
		}
		take := decimal.Min(request.Amount, balance)
		if take.IsPositive() {
			directEntry, err = v.Append(models.LedgerEntry{
				Amount:    take.Neg(),
				Kind:      models.KindDebitWithdrawal,
				Reference: ref,
			})
			if err != nil {
				return err
			}
			debitedDirect = take
		}
		return nil
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	remainder := request.Amount.Sub(debitedDirect)
	if remainder.IsPositive() {
		err = a.ledger.Apply(ctx, request.AccountID, models.SourceReferralIndirect, func(v *ledger.View) error {
			indirectEntry, err = v.Append(models.LedgerEntry{
				Amount:    remainder.Neg(),
				Kind:      models.KindDebitWithdrawal,
				Reference: ref,
			})
			return err
		})
		if err != nil {
			a.compensate(ctx, directEntry)
			return models.WithdrawalRequest{}, err
		}
	}

	if err := a.store.DecideWithdrawal(ctx, request.ID, models.WithdrawalApproved, adminID, at); err != nil {
		// Lost a decide race after debiting; put the money back.
		a.compensate(ctx, directEntry)
		a.compensate(ctx, indirectEntry)
		return models.WithdrawalRequest{}, err
	}

	request.State = models.WithdrawalApproved
	request.DecidedAt = &at
	request.DecidedBy = adminID
	monitoring.WithdrawalsDecidedTotal.WithLabelValues("approved").Inc()
	a.publishStatus(request)
	return request, nil
}

// attemptReference tags the debits of one approval attempt. The suffix keeps
// a compensated attempt from occupying the (account, source, reference)
// uniqueness key a later retry needs.
func attemptReference(requestID string) string {
	return "withdrawal:" + requestID + ":" + uuid.New().String()
}

func (a *Arbiter) compensate(ctx context.Context, entry models.LedgerEntry) {
	if entry.ID == "" {
		return
	}
	if _, err := a.ledger.Reverse(ctx, entry.ID); err != nil {
		a.log.Error("compensating reversal failed",
			zap.String("entry_id", entry.ID),
			zap.Error(err))
	}
}

// List returns withdrawals for one account, or all when accountID is empty.
func (a *Arbiter) List(ctx context.Context, accountID string) ([]models.WithdrawalRequest, error) {
	if accountID == "" {
		return a.store.AllWithdrawals(ctx)
	}
	return a.store.WithdrawalsByAccount(ctx, accountID)
}

// Get returns one request.
func (a *Arbiter) Get(ctx context.Context, requestID string) (models.WithdrawalRequest, error) {
	return a.store.Withdrawal(ctx, requestID)
}

func (a *Arbiter) publishStatus(request models.WithdrawalRequest) {
	event := events.WithdrawalStatusChanged{
		RequestID:  request.ID,
		AccountID:  request.AccountID,
		Status:     string(request.State),
		Amount:     request.Amount,
		OccurredAt: a.now(),
	}
	if err := a.publisher.Publish(events.TopicWithdrawalStatusChanged, event); err != nil {
		a.log.Warn("publish withdrawal status failed",
			zap.String("request_id", request.ID),
			zap.Error(err))
	}
}
