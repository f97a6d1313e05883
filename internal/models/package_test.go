package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testPackage() InvestmentPackage {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return InvestmentPackage{
		ID:                 "pkg-1",
		AccountID:          "acct-1",
		Tier:               "STARTER",
		Principal:          decimal.NewFromInt(1000),
		DurationDays:       30,
		TotalIncomePercent: decimal.NewFromInt(200),
		DailyIncome: DailyIncomeFor(decimal.NewFromInt(1000), PackageTier{
			DurationDays: 30, TotalIncomePercent: decimal.NewFromInt(200),
		}),
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 30),
	}
}

func TestStateAtDerivesMaturity(t *testing.T) {
	pkg := testPackage()

	tests := []struct {
		name string
		at   time.Time
		want PackageState
	}{
		{name: "day zero", at: pkg.StartDate, want: PackageActive},
		{name: "day 29", at: pkg.StartDate.AddDate(0, 0, 29), want: PackageActive},
		{name: "day 30", at: pkg.StartDate.AddDate(0, 0, 30), want: PackageMatured},
		{name: "long after", at: pkg.StartDate.AddDate(1, 0, 0), want: PackageMatured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pkg.StateAt(tt.at); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStateAtClaimedIsTerminal(t *testing.T) {
	pkg := testPackage()
	pkg.Claimed = true
	if got := pkg.StateAt(pkg.StartDate); got != PackageClaimed {
		t.Fatalf("expected CLAIMED, got %s", got)
	}
}

func TestClaimAmount(t *testing.T) {
	pkg := testPackage()
	// 1000 principal at 200% pays 1000 + 2000.
	if got := pkg.ClaimAmount(); !got.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected claim amount 3000, got %s", got)
	}
}

func TestDailyIncomeRoundsHalfEven(t *testing.T) {
	tier := PackageTier{DurationDays: 4, TotalIncomePercent: decimal.NewFromInt(200)}

	tests := []struct {
		principal int64
		want      int64
	}{
		{principal: 1001, want: 500}, // 500.5 rounds to even 500
		{principal: 1003, want: 502}, // 501.5 rounds to even 502
		{principal: 1000, want: 500},
	}

	for _, tt := range tests {
		got := DailyIncomeFor(decimal.NewFromInt(tt.principal), tier)
		if !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Fatalf("principal %d: expected daily income %d, got %s", tt.principal, tt.want, got)
		}
	}
}

func TestAccruedAt(t *testing.T) {
	pkg := testPackage()

	tests := []struct {
		name string
		at   time.Time
		want decimal.Decimal
	}{
		{name: "before start", at: pkg.StartDate.AddDate(0, 0, -1), want: decimal.Zero},
		{name: "day 15", at: pkg.StartDate.AddDate(0, 0, 15), want: pkg.DailyIncome.Mul(decimal.NewFromInt(15))},
		{name: "after maturity caps at total", at: pkg.StartDate.AddDate(0, 0, 45), want: pkg.TotalIncome()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pkg.AccruedAt(tt.at); !got.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
