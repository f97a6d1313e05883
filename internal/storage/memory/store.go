// Package memory is the in-memory store used by tests and dev mode. It is
// thread-safe and implements every store interface.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

type Store struct {
	mu          sync.Mutex
	entries     []models.LedgerEntry
	refs        map[string]struct{} // account/source/reference uniqueness
	accounts    map[string]models.Account
	packages    map[string]models.InvestmentPackage
	withdrawals map[string]models.WithdrawalRequest
}

func NewStore() *Store {
	return &Store{
		refs:        make(map[string]struct{}),
		accounts:    make(map[string]models.Account),
		packages:    make(map[string]models.InvestmentPackage),
		withdrawals: make(map[string]models.WithdrawalRequest),
	}
}

func refKey(accountID string, source models.Source, reference string) string {
	return accountID + "/" + string(source) + "/" + reference
}

// --- LedgerStore ---

// SaveEntry enforces (account, source, reference) uniqueness for non-empty
// references, matching the durable store's partial unique index.
func (s *Store) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Reference != "" {
		key := refKey(entry.AccountID, entry.Source, entry.Reference)
		if _, dup := s.refs[key]; dup {
			return fmt.Errorf("duplicate reference %q for %s/%s", entry.Reference, entry.AccountID, entry.Source)
		}
		s.refs[key] = struct{}{}
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) EntryByID(ctx context.Context, id string) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return models.LedgerEntry{}, apperrors.Newf(apperrors.CodeNotFound, "ledger entry %s", id)
}

func (s *Store) EntriesByAccountSource(ctx context.Context, accountID string, source models.Source) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.LedgerEntry
	for _, entry := range s.entries {
		if entry.AccountID == accountID && entry.Source == source {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.LedgerEntry
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (s *Store) ReferenceExists(ctx context.Context, accountID string, source models.Source, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.refs[refKey(accountID, source, reference)]
	return exists, nil
}

// --- AccountStore ---

func (s *Store) SaveAccount(ctx context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.ID] = account
	return nil
}

func (s *Store) Account(ctx context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, apperrors.Newf(apperrors.CodeNotFound, "account %s", id)
	}
	return account, nil
}

func (s *Store) UpdateAccount(ctx context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "account %s", account.ID)
	}
	s.accounts[account.ID] = account
	return nil
}

// --- PackageStore ---

func (s *Store) SavePackage(ctx context.Context, pkg models.InvestmentPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packages[pkg.ID] = pkg
	return nil
}

func (s *Store) Package(ctx context.Context, id string) (models.InvestmentPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, ok := s.packages[id]
	if !ok {
		return models.InvestmentPackage{}, apperrors.Newf(apperrors.CodeNotFound, "package %s", id)
	}
	return pkg, nil
}

func (s *Store) PackagesByAccount(ctx context.Context, accountID string) ([]models.InvestmentPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.InvestmentPackage
	for _, pkg := range s.packages {
		if pkg.AccountID == accountID {
			result = append(result, pkg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

func (s *Store) MarkClaimed(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, ok := s.packages[id]
	if !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "package %s", id)
	}
	if pkg.Claimed {
		return apperrors.ErrAlreadyClaimed
	}
	pkg.Claimed = true
	pkg.ClaimedAt = &at
	s.packages[id] = pkg
	return nil
}

// --- WithdrawalStore ---

func (s *Store) SaveWithdrawal(ctx context.Context, request models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.withdrawals[request.ID] = request
	return nil
}

func (s *Store) Withdrawal(ctx context.Context, id string) (models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, apperrors.Newf(apperrors.CodeNotFound, "withdrawal %s", id)
	}
	return request, nil
}

func (s *Store) WithdrawalsByAccount(ctx context.Context, accountID string) ([]models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.WithdrawalRequest
	for _, request := range s.withdrawals {
		if request.AccountID == accountID {
			result = append(result, request)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) AllWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.WithdrawalRequest, 0, len(s.withdrawals))
	for _, request := range s.withdrawals {
		result = append(result, request)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DecideWithdrawal(ctx context.Context, id string, state models.WithdrawalState, adminID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.withdrawals[id]
	if !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "withdrawal %s", id)
	}
	if request.State != models.WithdrawalPending {
		return apperrors.ErrAlreadyDecided
	}
	request.State = state
	request.DecidedAt = &at
	request.DecidedBy = adminID
	s.withdrawals[id] = request
	return nil
}

// Compile-time interface checks.
var (
	_ interfaces.LedgerStore     = (*Store)(nil)
	_ interfaces.AccountStore    = (*Store)(nil)
	_ interfaces.PackageStore    = (*Store)(nil)
	_ interfaces.WithdrawalStore = (*Store)(nil)
)
