package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Calculation signs recorded on statement entries.
const (
	SignCredit = "+"
	SignDebit  = "-"
)

// Wallet is one customer's prepaid balance in a single currency. One row
// exists per (customer, currency) pair, created lazily on first credit
// and never deleted; a zero balance is a valid state.
type Wallet struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	CustomerID snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_wallets_customer_currency,priority:1"`
	Currency   string          `gorm:"type:text;not null;uniqueIndex:ux_wallets_customer_currency,priority:2"`
	Balance    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Wallet) TableName() string { return "wallets" }

// StatementEntry is an immutable row of the per-(customer, currency)
// ledger. Replaying sign*amount in creation order over a zero
// accumulator reproduces every RunningTotal exactly; corrections are
// written as offsetting entries, never as edits.
type StatementEntry struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	CustomerID   snowflake.ID    `gorm:"not null;index:ix_statement_customer_currency,priority:1"`
	Currency     string          `gorm:"type:text;not null;index:ix_statement_customer_currency,priority:2"`
	Sign         string          `gorm:"type:text;not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RunningTotal decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Description  string          `gorm:"type:text;not null"`
	Note         string          `gorm:"type:text"`
	CreatedBy    string          `gorm:"type:text;not null"`
	ConfirmedAt  *time.Time
	ConfirmedBy  *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StatementEntry) TableName() string { return "statement_entries" }
