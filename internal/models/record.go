package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for records in forms and storage.
const DateLayout = "2006-01-02"

// Record represents a dated financial entry owned by a single user.
// Negative amounts are expenses, positive amounts are income.
type Record struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"user_id"`
	Date   time.Time       `json:"date"`
	Item   string          `json:"item"`
	Amount decimal.Decimal `json:"amount"`
}

// FormattedDate returns the record date in DateLayout.
func (r Record) FormattedDate() string {
	return r.Date.Format(DateLayout)
}

// IsIncome reports whether the record adds to the balance.
func (r Record) IsIncome() bool {
	return r.Amount.IsPositive()
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token        string    `json:"token"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}
