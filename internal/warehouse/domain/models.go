package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PickupListing is one package sitting on a warehouse's awaiting-pickup
// list. Rows are dropped when the allocator settles the package.
type PickupListing struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	PackageID snowflake.ID `gorm:"not null;uniqueIndex"`
	Office    string       `gorm:"type:text;not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PickupListing) TableName() string { return "pickup_listings" }
