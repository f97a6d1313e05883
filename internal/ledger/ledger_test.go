package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/events/noop"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/storage/memory"
)

func newTestLedger() *Ledger {
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return New(memory.NewStore(), noop.NewPublisher(), zap.NewNop(), now)
}

func credit(t *testing.T, l *Ledger, accountID string, source models.Source, amount int64) models.LedgerEntry {
	t.Helper()
	entry, err := l.Append(context.Background(), models.LedgerEntry{
		AccountID: accountID,
		Source:    source,
		Amount:    decimal.NewFromInt(amount),
		Kind:      models.KindCreditEarning,
	})
	if err != nil {
		t.Fatalf("credit %d: %v", amount, err)
	}
	return entry
}

func TestBalanceIsSumOfEntries(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	credit(t, l, "acct-1", models.SourceClickTask, 100)
	credit(t, l, "acct-1", models.SourceClickTask, 250)
	if _, err := l.Append(ctx, models.LedgerEntry{
		AccountID: "acct-1",
		Source:    models.SourceClickTask,
		Amount:    decimal.NewFromInt(-50),
		Kind:      models.KindDebitWithdrawal,
	}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := l.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected balance 300, got %s", balance)
	}
}

func TestSourcesAreIndependent(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	credit(t, l, "acct-1", models.SourceClickTask, 100)
	credit(t, l, "acct-1", models.SourceSharedCapital, 700)

	balance, err := l.Balance(ctx, "acct-1", models.SourceReferralDirect)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero referral balance, got %s", balance)
	}
}

func TestDebitRejectedWhenInsufficient(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	credit(t, l, "acct-1", models.SourceClickTask, 100)

	_, err := l.Append(ctx, models.LedgerEntry{
		AccountID: "acct-1",
		Source:    models.SourceClickTask,
		Amount:    decimal.NewFromInt(-101),
		Kind:      models.KindDebitWithdrawal,
	})
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// A rejected debit must leave zero side effects.
	balance, err := l.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100 after rejected debit, got %s", balance)
	}
	entries, err := l.Entries(ctx, "acct-1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	credit(t, l, "acct-1", models.SourceSharedCapital, 100)

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Append(ctx, models.LedgerEntry{
				AccountID: "acct-1",
				Source:    models.SourceSharedCapital,
				Amount:    decimal.NewFromInt(-30),
				Kind:      models.KindDebitWithdrawal,
			})
			if err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	var wins int
	for range succeeded {
		wins++
	}
	if wins != 3 {
		t.Fatalf("expected exactly 3 debits of 30 against 100, got %d", wins)
	}

	balance, err := l.Balance(ctx, "acct-1", models.SourceSharedCapital)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected balance 10, got %s", balance)
	}
}

func TestReverseRestoresBalance(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	entry := credit(t, l, "acct-1", models.SourceClickTask, 100)

	reversal, err := l.Reverse(ctx, entry.ID)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if reversal.Kind != models.KindReversal {
		t.Fatalf("expected REVERSAL kind, got %s", reversal.Kind)
	}
	if reversal.Reference != entry.ID {
		t.Fatalf("expected reversal to reference %s, got %s", entry.ID, reversal.Reference)
	}

	balance, err := l.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance after reversal, got %s", balance)
	}
}

func TestReverseUnknownEntry(t *testing.T) {
	l := newTestLedger()
	_, err := l.Reverse(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReferralTotalAggregatesBothBuckets(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	credit(t, l, "acct-1", models.SourceReferralDirect, 60)
	credit(t, l, "acct-1", models.SourceReferralIndirect, 40)

	balance, err := l.Balance(ctx, "acct-1", models.SourceReferralTotal)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected referral total 100, got %s", balance)
	}
}

func TestInvalidSourceRejected(t *testing.T) {
	l := newTestLedger()
	ctx := context.Background()

	if _, err := l.Balance(ctx, "acct-1", models.Source("BOGUS")); !errors.Is(err, apperrors.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource from Balance, got %v", err)
	}

	err := l.Apply(ctx, "acct-1", models.SourceReferralTotal, func(v *View) error { return nil })
	if !errors.Is(err, apperrors.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource from Apply on aggregate source, got %v", err)
	}
}
