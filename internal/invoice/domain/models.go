package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice categories. Allocation batches issue shipment invoices; the
// plain invoice category survives for legacy rows.
const (
	CategoryInvoice  = "invoice"
	CategoryShipment = "shipment"
)

// Invoice is the immutable summary document of one allocation batch.
// ReferenceID is a monotonically increasing business number assigned at
// creation; there is no update or delete operation.
type Invoice struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	ReferenceID int64           `gorm:"not null;uniqueIndex"`
	CustomerID  snowflake.ID    `gorm:"not null;index"`
	CreatedBy   string          `gorm:"type:text;not null"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency    string          `gorm:"type:text;not null"`
	AmountUSD   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AmountLYD   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Rate        decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	Category    string          `gorm:"type:text;not null"`
	LineItems   datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"`
	Note        string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one package summarized on an invoice.
type LineItem struct {
	PackageID      string          `json:"package_id"`
	OrderReference string          `json:"order_reference"`
	TrackingNumber string          `json:"tracking_number"`
	Weight         decimal.Decimal `json:"weight"`
	MeasureUnit    string          `json:"measure_unit,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
}
