package models

import "time"

// Account is one participant. UplineID points at the account that referred
// this one; it is set once at registration approval and only to an account
// that already exists, so the referral graph is a forest by construction.
type Account struct {
	ID       string `json:"id"`
	UplineID string `json:"upline_id,omitempty"` // empty for a root account
	IsActive bool   `json:"is_active"`

	// Click-task state. Activated is the one-time opt-in flag; the daily
	// counter and window belong to the accrual limiter.
	ClickTaskActivated    bool      `json:"click_task_activated"`
	DailyClickCount       int       `json:"daily_click_count"`
	DailyClickWindowStart time.Time `json:"daily_click_window_start"`

	CreatedAt time.Time `json:"created_at"`
}
