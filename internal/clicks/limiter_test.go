package clicks

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
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/storage/memory"
)

type fixture struct {
	limiter *Limiter
	ledger  *ledger.Ledger
	store   *memory.Store
	now     time.Time
	mu      sync.Mutex
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	log := zap.NewNop()
	f.ledger = ledger.New(f.store, noop.NewPublisher(), log, f.clock)
	f.limiter = NewLimiter(f.ledger, f.store, cfg, f.clock, log)

	if err := f.store.SaveAccount(context.Background(), models.Account{
		ID: "acct-1", IsActive: true, ClickTaskActivated: true,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return f
}

func defaultConfig() Config {
	return Config{
		MaxClicksPerDay:     3,
		PerClickReward:      decimal.NewFromInt(50),
		DailyRewardBudget:   decimal.NewFromInt(500),
		ActivationThreshold: decimal.NewFromInt(1000),
	}
}

func TestRecordRequiresActivation(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	if err := f.store.SaveAccount(ctx, models.Account{ID: "fresh", IsActive: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := f.limiter.Record(ctx, "fresh")
	if !errors.Is(err, apperrors.ErrTaskNotActivated) {
		t.Fatalf("expected ErrTaskNotActivated, got %v", err)
	}
}

func TestActivateChecksWalletThresholdOnce(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	if err := f.store.SaveAccount(ctx, models.Account{ID: "fresh", IsActive: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.limiter.Activate(ctx, "fresh"); !errors.Is(err, apperrors.ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum with empty wallet, got %v", err)
	}

	if _, err := f.ledger.Append(ctx, models.LedgerEntry{
		AccountID: "fresh",
		Source:    models.SourceSharedCapital,
		Amount:    decimal.NewFromInt(1000),
		Kind:      models.KindCreditEarning,
	}); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := f.limiter.Activate(ctx, "fresh"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// The threshold is checked at opt-in only; draining the wallet later
	// does not deactivate clicking.
	if _, err := f.ledger.Append(ctx, models.LedgerEntry{
		AccountID: "fresh",
		Source:    models.SourceSharedCapital,
		Amount:    decimal.NewFromInt(-1000),
		Kind:      models.KindDebitWithdrawal,
	}); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := f.limiter.Record(ctx, "fresh"); err != nil {
		t.Fatalf("record after drain: %v", err)
	}
}

func TestDailyClickLimit(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		result, err := f.limiter.Record(ctx, "acct-1")
		if err != nil {
			t.Fatalf("click %d: %v", i, err)
		}
		if result.ClicksToday != i {
			t.Fatalf("expected clicks today %d, got %d", i, result.ClicksToday)
		}
		if !result.Reward.Equal(decimal.NewFromInt(50)) {
			t.Fatalf("expected reward 50, got %s", result.Reward)
		}
	}

	_, err := f.limiter.Record(ctx, "acct-1")
	if !errors.Is(err, apperrors.ErrDailyLimitReached) {
		t.Fatalf("expected ErrDailyLimitReached, got %v", err)
	}

	// The rejected click must post nothing.
	balance, err := f.ledger.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected click earnings 150, got %s", balance)
	}
}

func TestDailyRewardBudgetCapsIndependently(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxClicksPerDay = 10
	cfg.DailyRewardBudget = decimal.NewFromInt(120)
	f := newFixture(t, cfg)
	ctx := context.Background()

	wantRewards := []int64{50, 50, 20}
	for i, want := range wantRewards {
		result, err := f.limiter.Record(ctx, "acct-1")
		if err != nil {
			t.Fatalf("click %d: %v", i+1, err)
		}
		if !result.Reward.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("click %d: expected reward %d, got %s", i+1, want, result.Reward)
		}
	}

	// Budget exhausted even though the click counter allows more.
	_, err := f.limiter.Record(ctx, "acct-1")
	if !errors.Is(err, apperrors.ErrDailyLimitReached) {
		t.Fatalf("expected ErrDailyLimitReached on exhausted budget, got %v", err)
	}
}

func TestWindowResetsAtDayBoundary(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.limiter.Record(ctx, "acct-1"); err != nil {
			t.Fatalf("click: %v", err)
		}
	}
	if _, err := f.limiter.Record(ctx, "acct-1"); !errors.Is(err, apperrors.ErrDailyLimitReached) {
		t.Fatalf("expected limit reached, got %v", err)
	}

	// Crossing midnight resets the counter and the budget.
	f.advance(13 * time.Hour)
	result, err := f.limiter.Record(ctx, "acct-1")
	if err != nil {
		t.Fatalf("click after reset: %v", err)
	}
	if result.ClicksToday != 1 {
		t.Fatalf("expected counter reset to 1, got %d", result.ClicksToday)
	}
	if !result.EarnedToday.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected earned today 50 after reset, got %s", result.EarnedToday)
	}
}

// failingAccountStore simulates the durable store erroring on the counter
// bump after the reward credit already landed.
type failingAccountStore struct {
	*memory.Store
	failUpdates bool
}

func (s *failingAccountStore) UpdateAccount(ctx context.Context, account models.Account) error {
	if s.failUpdates {
		return errors.New("connection reset by peer")
	}
	return s.Store.UpdateAccount(ctx, account)
}

func TestRecordReversesRewardWhenCounterUpdateFails(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	log := zap.NewNop()

	accounts := &failingAccountStore{Store: f.store, failUpdates: true}
	limiter := NewLimiter(f.ledger, accounts, defaultConfig(), f.clock, log)

	_, err := limiter.Record(ctx, "acct-1")
	if apperrors.CodeOf(err) != apperrors.CodeTransientFailure {
		t.Fatalf("expected TRANSIENT_FAILURE, got %v", err)
	}

	// The reward must have been taken back along with the failed bump.
	balance, err := f.ledger.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero click earnings after reversal, got %s", balance)
	}

	// The failed attempt consumed neither the counter nor the budget.
	accounts.failUpdates = false
	result, err := limiter.Record(ctx, "acct-1")
	if err != nil {
		t.Fatalf("retry record: %v", err)
	}
	if result.ClicksToday != 1 {
		t.Fatalf("expected first counted click, got %d", result.ClicksToday)
	}
	if !result.EarnedToday.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected earned today 50, got %s", result.EarnedToday)
	}
}

func TestParallelClicksRespectTheCap(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.limiter.Record(ctx, "acct-1")
		}()
	}
	wg.Wait()

	balance, err := f.ledger.Balance(ctx, "acct-1", models.SourceClickTask)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected at most 3 rewarded clicks (150), got %s", balance)
	}
}
