package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment history categories. Allocation debits record receivedGoods
// rows; plain invoice payments use the invoice category.
const (
	CategoryInvoice       = "invoice"
	CategoryReceivedGoods = "receivedGoods"
)

// Entry is one order-level payment record, distinct from the wallet
// statement ledger: the ledger tracks balances, these rows attribute a
// received amount to a specific order for auditing. One row exists per
// wallet debit, so a single allocation batch can write several per
// order (one per currency used).
type Entry struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	OrderID        snowflake.ID    `gorm:"not null;index"`
	CustomerID     snowflake.ID    `gorm:"not null;index"`
	CreatedBy      string          `gorm:"type:text;not null"`
	ReceivedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency       string          `gorm:"type:text;not null"`
	Rate           decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	Category       string          `gorm:"type:text;not null"`
	LineItems      datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"`
	Note           string          `gorm:"type:text"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "order_payment_histories" }
