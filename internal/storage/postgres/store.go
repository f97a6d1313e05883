// Package postgres is the durable store. Each method is a single statement
// or transaction; the engine's per-key locks provide serialization above it.
package postgres

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema. The partial unique index on (account_id,
// source, reference) is the cascade's idempotency backstop at the storage
// layer.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                       TEXT PRIMARY KEY,
	upline_id                TEXT NOT NULL DEFAULT '',
	is_active                BOOLEAN NOT NULL DEFAULT TRUE,
	click_task_activated     BOOLEAN NOT NULL DEFAULT FALSE,
	daily_click_count        INTEGER NOT NULL DEFAULT 0,
	daily_click_window_start TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	created_at               TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	source     TEXT NOT NULL,
	amount     NUMERIC(20,0) NOT NULL,
	kind       TEXT NOT NULL,
	reference  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_account_source ON ledger_entries (account_id, source);
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_reference
	ON ledger_entries (account_id, source, reference) WHERE reference <> '';

CREATE TABLE IF NOT EXISTS packages (
	id                   TEXT PRIMARY KEY,
	account_id           TEXT NOT NULL,
	tier                 TEXT NOT NULL,
	principal            NUMERIC(20,0) NOT NULL,
	duration_days        INTEGER NOT NULL,
	total_income_percent NUMERIC(10,2) NOT NULL,
	daily_income         NUMERIC(20,0) NOT NULL,
	start_date           TIMESTAMPTZ NOT NULL,
	end_date             TIMESTAMPTZ NOT NULL,
	claimed              BOOLEAN NOT NULL DEFAULT FALSE,
	claimed_at           TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_packages_account ON packages (account_id);

CREATE TABLE IF NOT EXISTS withdrawals (
	id             TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL,
	source         TEXT NOT NULL,
	amount         NUMERIC(20,0) NOT NULL,
	dest_method    TEXT NOT NULL,
	dest_name      TEXT NOT NULL,
	dest_number    TEXT NOT NULL,
	state          TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	decided_at     TIMESTAMPTZ,
	decided_by     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawals (account_id);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// --- LedgerStore ---

func (s *Store) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO ledger_entries (id, account_id, source, amount, kind, reference, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.AccountID, string(entry.Source), entry.Amount, string(entry.Kind), entry.Reference, entry.CreatedAt)
	return err
}

func (s *Store) EntryByID(ctx context.Context, id string) (models.LedgerEntry, error) {
	const query = `SELECT id, account_id, source, amount, kind, reference, created_at
	FROM ledger_entries WHERE id = $1`

	var entry models.LedgerEntry
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.AccountID, &entry.Source, &entry.Amount, &entry.Kind, &entry.Reference, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return models.LedgerEntry{}, apperrors.Newf(apperrors.CodeNotFound, "ledger entry %s", id)
	}
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

func (s *Store) EntriesByAccountSource(ctx context.Context, accountID string, source models.Source) ([]models.LedgerEntry, error) {
	const query = `SELECT id, account_id, source, amount, kind, reference, created_at
	FROM ledger_entries WHERE account_id = $1 AND source = $2 ORDER BY created_at`

	return s.queryEntries(ctx, query, accountID, string(source))
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	const query = `SELECT id, account_id, source, amount, kind, reference, created_at
	FROM ledger_entries WHERE account_id = $1 ORDER BY created_at`

	return s.queryEntries(ctx, query, accountID)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Source, &entry.Amount,
			&entry.Kind, &entry.Reference, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) ReferenceExists(ctx context.Context, accountID string, source models.Source, reference string) (bool, error) {
	const query = `SELECT 1 FROM ledger_entries WHERE account_id = $1 AND source = $2 AND reference = $3 LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, accountID, string(source), reference).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// --- AccountStore ---

func (s *Store) SaveAccount(ctx context.Context, account models.Account) error {
	const query = `INSERT INTO accounts (id, upline_id, is_active, click_task_activated, daily_click_count, daily_click_window_start, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query, account.ID, account.UplineID, account.IsActive,
		account.ClickTaskActivated, account.DailyClickCount, account.DailyClickWindowStart, account.CreatedAt)
	return err
}

func (s *Store) Account(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT id, upline_id, is_active, click_task_activated, daily_click_count, daily_click_window_start, created_at
	FROM accounts WHERE id = $1`

	var account models.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(&account.ID, &account.UplineID, &account.IsActive,
		&account.ClickTaskActivated, &account.DailyClickCount, &account.DailyClickWindowStart, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Account{}, apperrors.Newf(apperrors.CodeNotFound, "account %s", id)
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *Store) UpdateAccount(ctx context.Context, account models.Account) error {
	const query = `UPDATE accounts SET is_active = $2, click_task_activated = $3, daily_click_count = $4, daily_click_window_start = $5
	WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, account.ID, account.IsActive,
		account.ClickTaskActivated, account.DailyClickCount, account.DailyClickWindowStart)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "account %s", account.ID)
	}
	return nil
}

// --- PackageStore ---

func (s *Store) SavePackage(ctx context.Context, pkg models.InvestmentPackage) error {
	const query = `INSERT INTO packages (id, account_id, tier, principal, duration_days, total_income_percent, daily_income, start_date, end_date, claimed, claimed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query, pkg.ID, pkg.AccountID, pkg.Tier, pkg.Principal, pkg.DurationDays,
		pkg.TotalIncomePercent, pkg.DailyIncome, pkg.StartDate, pkg.EndDate, pkg.Claimed, pkg.ClaimedAt)
	return err
}

func (s *Store) Package(ctx context.Context, id string) (models.InvestmentPackage, error) {
	const query = `SELECT id, account_id, tier, principal, duration_days, total_income_percent, daily_income, start_date, end_date, claimed, claimed_at
	FROM packages WHERE id = $1`

	pkg, err := scanPackage(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return models.InvestmentPackage{}, apperrors.Newf(apperrors.CodeNotFound, "package %s", id)
	}
	return pkg, err
}

func (s *Store) PackagesByAccount(ctx context.Context, accountID string) ([]models.InvestmentPackage, error) {
	const query = `SELECT id, account_id, tier, principal, duration_days, total_income_percent, daily_income, start_date, end_date, claimed, claimed_at
	FROM packages WHERE account_id = $1 ORDER BY start_date`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.InvestmentPackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pkg)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (models.InvestmentPackage, error) {
	var pkg models.InvestmentPackage
	var claimedAt sql.NullTime
	err := row.Scan(&pkg.ID, &pkg.AccountID, &pkg.Tier, &pkg.Principal, &pkg.DurationDays,
		&pkg.TotalIncomePercent, &pkg.DailyIncome, &pkg.StartDate, &pkg.EndDate, &pkg.Claimed, &claimedAt)
	if err != nil {
		return models.InvestmentPackage{}, err
	}
	if claimedAt.Valid {
		pkg.ClaimedAt = &claimedAt.Time
	}
	return pkg, nil
}

func (s *Store) MarkClaimed(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE packages SET claimed = TRUE, claimed_at = $2 WHERE id = $1 AND claimed = FALSE`

	result, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.Package(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrAlreadyClaimed
	}
	return nil
}

// --- WithdrawalStore ---

func (s *Store) SaveWithdrawal(ctx context.Context, request models.WithdrawalRequest) error {
	const query = `INSERT INTO withdrawals (id, account_id, source, amount, dest_method, dest_name, dest_number, state, created_at, decided_at, decided_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query, request.ID, request.AccountID, string(request.Source), request.Amount,
		request.Destination.Method, request.Destination.AccountName, request.Destination.AccountNumber,
		string(request.State), request.CreatedAt, request.DecidedAt, request.DecidedBy)
	return err
}

func (s *Store) Withdrawal(ctx context.Context, id string) (models.WithdrawalRequest, error) {
	const query = `SELECT id, account_id, source, amount, dest_method, dest_name, dest_number, state, created_at, decided_at, decided_by
	FROM withdrawals WHERE id = $1`

	request, err := scanWithdrawal(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return models.WithdrawalRequest{}, apperrors.Newf(apperrors.CodeNotFound, "withdrawal %s", id)
	}
	return request, err
}

func (s *Store) WithdrawalsByAccount(ctx context.Context, accountID string) ([]models.WithdrawalRequest, error) {
	const query = `SELECT id, account_id, source, amount, dest_method, dest_name, dest_number, state, created_at, decided_at, decided_by
	FROM withdrawals WHERE account_id = $1 ORDER BY created_at`

	return s.queryWithdrawals(ctx, query, accountID)
}

func (s *Store) AllWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	const query = `SELECT id, account_id, source, amount, dest_method, dest_name, dest_number, state, created_at, decided_at, decided_by
	FROM withdrawals ORDER BY created_at`

	return s.queryWithdrawals(ctx, query)
}

func (s *Store) queryWithdrawals(ctx context.Context, query string, args ...any) ([]models.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.WithdrawalRequest
	for rows.Next() {
		request, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func scanWithdrawal(row rowScanner) (models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	var decidedAt sql.NullTime
	err := row.Scan(&request.ID, &request.AccountID, &request.Source, &request.Amount,
		&request.Destination.Method, &request.Destination.AccountName, &request.Destination.AccountNumber,
		&request.State, &request.CreatedAt, &decidedAt, &request.DecidedBy)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	if decidedAt.Valid {
		request.DecidedAt = &decidedAt.Time
	}
	return request, nil
}

func (s *Store) DecideWithdrawal(ctx context.Context, id string, state models.WithdrawalState, adminID string, at time.Time) error {
	const query = `UPDATE withdrawals SET state = $2, decided_by = $3, decided_at = $4
	WHERE id = $1 AND state = 'PENDING'`

	result, err := s.db.ExecContext(ctx, query, id, string(state), adminID, at)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.Withdrawal(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrAlreadyDecided
	}
	return nil
}

// Compile-time interface checks.
var (
	_ interfaces.LedgerStore     = (*Store)(nil)
	_ interfaces.AccountStore    = (*Store)(nil)
	_ interfaces.PackageStore    = (*Store)(nil)
	_ interfaces.WithdrawalStore = (*Store)(nil)
)
