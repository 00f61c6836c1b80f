package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ExchangeRate is the single USD-to-LYD conversion row maintained by
// the back office. The allocator takes its rate from the caller's
// payment declaration; this row feeds display and pre-fill paths.
type ExchangeRate struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	FromCurrency string          `gorm:"type:text;not null;default:'USD'"`
	ToCurrency   string          `gorm:"type:text;not null;default:'LYD'"`
	Rate         decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ExchangeRate) TableName() string { return "exchange_rates" }
