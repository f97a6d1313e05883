// Package ledger owns all money state. Balances are never stored; they are
// derived by summing the append-only entry log for a (account, source) pair,
// inside the same critical section that appends new entries.
package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models/events"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/monitoring"
)

// Ledger serializes all mutations per (account, source) key through a lock
// registry, so operations on different keys never block each other.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	log       *zap.Logger
	now       clock.Clock

	muMap map[string]*sync.Mutex // one mutex per (account, source) key
	mapMu sync.Mutex             // protects muMap itself
}

func New(store interfaces.LedgerStore, publisher interfaces.EventPublisher, log *zap.Logger, now clock.Clock) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       now,
		muMap:     make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) lockFor(accountID string, source models.Source) *sync.Mutex {
	key := accountID + "/" + string(source)

	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[key]; !exists {
		l.muMap[key] = &sync.Mutex{}
	}
	return l.muMap[key]
}

// View is the window a critical section gets onto one (account, source)
// key. All reads and appends through it happen under that key's lock.
type View struct {
	ctx       context.Context
	ledger    *Ledger
	accountID string
	source    models.Source
	appended  []models.LedgerEntry
}

// Balance sums every entry for the key.
func (v *View) Balance() (decimal.Decimal, error) {
	return v.ledger.sum(v.ctx, v.accountID, v.source)
}

// Entries returns all entries for the key, oldest first.
func (v *View) Entries() ([]models.LedgerEntry, error) {
	entries, err := v.ledger.store.EntriesByAccountSource(v.ctx, v.accountID, v.source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransientFailure, "load entries", err)
	}
	return entries, nil
}

// ReferenceExists reports whether the key already carries an entry with the
// given reference.
func (v *View) ReferenceExists(reference string) (bool, error) {
	exists, err := v.ledger.store.ReferenceExists(v.ctx, v.accountID, v.source, reference)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeTransientFailure, "check reference", err)
	}
	return exists, nil
}

// Append posts one entry for the key. A debit that would drive the balance
// negative is rejected with InsufficientFunds and leaves no side effects.
func (v *View) Append(entry models.LedgerEntry) (models.LedgerEntry, error) {
	entry.AccountID = v.accountID
	entry.Source = v.source
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = v.ledger.now()
	}

	if entry.Amount.IsNegative() {
		balance, err := v.Balance()
		if err != nil {
			return models.LedgerEntry{}, err
		}
		if balance.Add(entry.Amount).IsNegative() {
			return models.LedgerEntry{}, apperrors.Newf(apperrors.CodeInsufficientFunds,
				"balance %s on %s cannot cover debit of %s", balance, v.source, entry.Amount.Neg())
		}
	}

	if err := v.ledger.store.SaveEntry(v.ctx, entry); err != nil {
		return models.LedgerEntry{}, apperrors.Wrap(apperrors.CodeTransientFailure, "append entry", err)
	}

	monitoring.LedgerEntriesTotal.WithLabelValues(string(entry.Kind), string(entry.Source)).Inc()
	v.ledger.log.Debug("ledger entry appended",
		zap.String("entry_id", entry.ID),
		zap.String("account_id", entry.AccountID),
		zap.String("source", string(entry.Source)),
		zap.String("kind", string(entry.Kind)),
		zap.String("amount", entry.Amount.String()))

	v.appended = append(v.appended, entry)
	return entry, nil
}

// Apply runs fn while holding the (account, source) lock. Appends made
// through the view are published as BalanceChanged events after the lock is
// released; no network I/O ever happens while the lock is held.
func (l *Ledger) Apply(ctx context.Context, accountID string, source models.Source, fn func(v *View) error) error {
	if !source.Valid() {
		return apperrors.Newf(apperrors.CodeInvalidSource, "unknown source %q", source)
	}

	mu := l.lockFor(accountID, source)
	mu.Lock()
	view := &View{ctx: ctx, ledger: l, accountID: accountID, source: source}
	err := fn(view)
	mu.Unlock()

	if err != nil {
		return err
	}
	for _, entry := range view.appended {
		l.publishBalanceChanged(entry)
	}
	return nil
}

// Append posts one entry under its key lock.
func (l *Ledger) Append(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	var saved models.LedgerEntry
	err := l.Apply(ctx, entry.AccountID, entry.Source, func(v *View) error {
		var appendErr error
		saved, appendErr = v.Append(entry)
		return appendErr
	})
	return saved, err
}

// Reverse corrects an erroneously posted entry by appending a REVERSAL with
// the opposite amount, referencing the original. History is never edited.
func (l *Ledger) Reverse(ctx context.Context, entryID string) (models.LedgerEntry, error) {
	original, err := l.store.EntryByID(ctx, entryID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return l.Append(ctx, models.LedgerEntry{
		AccountID: original.AccountID,
		Source:    original.Source,
		Amount:    original.Amount.Neg(),
		Kind:      models.KindReversal,
		Reference: original.ID,
	})
}

// Balance derives the current balance for one source; SourceReferralTotal
// sums the two referral buckets.
func (l *Ledger) Balance(ctx context.Context, accountID string, source models.Source) (decimal.Decimal, error) {
	if source == models.SourceReferralTotal {
		direct, err := l.sum(ctx, accountID, models.SourceReferralDirect)
		if err != nil {
			return decimal.Zero, err
		}
		indirect, err := l.sum(ctx, accountID, models.SourceReferralIndirect)
		if err != nil {
			return decimal.Zero, err
		}
		return direct.Add(indirect), nil
	}
	if !source.Valid() {
		return decimal.Zero, apperrors.Newf(apperrors.CodeInvalidSource, "unknown source %q", source)
	}
	return l.sum(ctx, accountID, source)
}

// Balances derives all four source balances for an account.
func (l *Ledger) Balances(ctx context.Context, accountID string) (map[models.Source]decimal.Decimal, error) {
	balances := make(map[models.Source]decimal.Decimal, 4)
	for _, source := range models.LedgerSources() {
		balance, err := l.sum(ctx, accountID, source)
		if err != nil {
			return nil, err
		}
		balances[source] = balance
	}
	return balances, nil
}

// Entries returns an account's full ledger history.
func (l *Ledger) Entries(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	entries, err := l.store.EntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTransientFailure, "load entries", err)
	}
	return entries, nil
}

func (l *Ledger) sum(ctx context.Context, accountID string, source models.Source) (decimal.Decimal, error) {
	entries, err := l.store.EntriesByAccountSource(ctx, accountID, source)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.CodeTransientFailure, "load entries", err)
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}

func (l *Ledger) publishBalanceChanged(entry models.LedgerEntry) {
	event := events.BalanceChanged{
		AccountID:  entry.AccountID,
		Source:     string(entry.Source),
		EntryID:    entry.ID,
		Delta:      entry.Amount,
		OccurredAt: entry.CreatedAt,
	}
	if err := l.publisher.Publish(events.TopicBalanceChanged, event); err != nil {
		l.log.Warn("publish balance changed failed",
			zap.String("account_id", entry.AccountID),
			zap.String("source", string(entry.Source)),
			zap.Error(err))
	}
}
