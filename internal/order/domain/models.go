package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is one customer shipment consisting of one or more packages.
// OrderStatus and IsFinished are derived from the package set and never
// set directly by callers.
type Order struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	CustomerID  snowflake.ID   `gorm:"not null;index"`
	Reference   string         `gorm:"type:text;not null;uniqueIndex"`
	Office      string         `gorm:"type:text;not null"`
	IsPrepaid   bool           `gorm:"not null;default:false"`
	OrderStatus int            `gorm:"not null;default:0"`
	IsFinished  bool           `gorm:"not null;default:false"`
	ActivityLog datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	Packages    []Package      `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// Package is one deliverable unit within an order. The status booleans
// are set by warehouse and customs scan events, except Received, which
// only the payment allocator sets, atomically with payment.
type Package struct {
	ID                 snowflake.ID    `gorm:"primaryKey"`
	OrderID            snowflake.ID    `gorm:"not null;index"`
	TrackingNumber     string          `gorm:"type:text;not null;index"`
	Cost               decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Weight             decimal.Decimal `gorm:"type:numeric(10,2)"`
	MeasureUnit        string          `gorm:"type:text"`
	Arrived            bool            `gorm:"not null;default:false"`
	ArrivedDestination bool            `gorm:"not null;default:false"`
	Paid               bool            `gorm:"not null;default:false"`
	Received           bool            `gorm:"not null;default:false"`
	ReceivedAt         *time.Time
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Package) TableName() string { return "packages" }

// ActivityEntry is one human-readable line of an order's activity log,
// stored as JSON on the order row.
type ActivityEntry struct {
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// StateCounts summarizes a customer's orders by lifecycle state.
type StateCounts struct {
	Active         int64
	Finished       int64
	AwaitingPickup int64
	InTransit      int64
}
