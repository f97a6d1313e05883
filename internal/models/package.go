package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageState is derived from the stored dates on every read; only the
// claimed flag is ever written after creation.
type PackageState string

const (
	PackageActive  PackageState = "ACTIVE"
	PackageMatured PackageState = "MATURED"
	PackageClaimed PackageState = "CLAIMED"
)

// PackageTier is one row of the fixed package catalog.
type PackageTier struct {
	Name               string          `json:"name"`
	MinAmount          decimal.Decimal `json:"min_amount"` // minor units
	DurationDays       int             `json:"duration_days"`
	TotalIncomePercent decimal.Decimal `json:"total_income_percent"` // 200 means 200%
}

// DefaultCatalog is the platform's shared-capital tier table.
func DefaultCatalog() []PackageTier {
	return []PackageTier{
		{Name: "STARTER", MinAmount: decimal.NewFromInt(1000), DurationDays: 30, TotalIncomePercent: decimal.NewFromInt(200)},
		{Name: "BRONZE", MinAmount: decimal.NewFromInt(5000), DurationDays: 45, TotalIncomePercent: decimal.NewFromInt(250)},
		{Name: "SILVER", MinAmount: decimal.NewFromInt(10000), DurationDays: 60, TotalIncomePercent: decimal.NewFromInt(300)},
		{Name: "GOLD", MinAmount: decimal.NewFromInt(50000), DurationDays: 90, TotalIncomePercent: decimal.NewFromInt(400)},
	}
}

// InvestmentPackage is a time-boxed principal + fixed-return instance.
type InvestmentPackage struct {
	ID                 string          `json:"id"`
	AccountID          string          `json:"account_id"`
	Tier               string          `json:"tier"`
	Principal          decimal.Decimal `json:"principal"`
	DurationDays       int             `json:"duration_days"`
	TotalIncomePercent decimal.Decimal `json:"total_income_percent"`
	DailyIncome        decimal.Decimal `json:"daily_income"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Claimed            bool            `json:"claimed"`
	ClaimedAt          *time.Time      `json:"claimed_at,omitempty"`
}

// TotalIncome is the full return excluding principal, banker's rounded to
// whole minor units.
func (p InvestmentPackage) TotalIncome() decimal.Decimal {
	return p.Principal.Mul(p.TotalIncomePercent).Div(decimal.NewFromInt(100)).RoundBank(0)
}

// ClaimAmount is what a claim credits: principal plus total income.
func (p InvestmentPackage) ClaimAmount() decimal.Decimal {
	return p.Principal.Add(p.TotalIncome())
}

// StateAt derives the lifecycle state at the given instant. Maturity is a
// fact of the stored dates, not a stored field, so it can never drift or
// depend on a scheduler having run.
func (p InvestmentPackage) StateAt(now time.Time) PackageState {
	if p.Claimed {
		return PackageClaimed
	}
	if now.Before(p.EndDate) {
		return PackageActive
	}
	return PackageMatured
}

// AccruedAt reports the income accrued up to now for display purposes.
// Nothing is posted per day; the single claim entry settles the package.
func (p InvestmentPackage) AccruedAt(now time.Time) decimal.Decimal {
	if !now.After(p.StartDate) {
		return decimal.Zero
	}
	days := int(now.Sub(p.StartDate).Hours() / 24)
	if days >= p.DurationDays {
		return p.TotalIncome()
	}
	return p.DailyIncome.Mul(decimal.NewFromInt(int64(days)))
}

// DailyIncomeFor computes the per-day income for a principal under a tier,
// banker's rounded to whole minor units.
func DailyIncomeFor(principal decimal.Decimal, tier PackageTier) decimal.Decimal {
	return principal.
		Mul(tier.TotalIncomePercent).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(tier.DurationDays))).
		RoundBank(0)
}
