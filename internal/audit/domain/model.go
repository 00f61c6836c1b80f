package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Audit actions written by the payment core.
const (
	ActionPaymentAllocated = "payment.allocated"
	ActionPaymentCancelled = "payment.cancelled"
	ActionWalletCredited   = "wallet.credited"
)

// AuditLog captures an immutable record of an operational action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	CustomerID *snowflake.ID     `gorm:"index"`
	ActorID    string            `gorm:"type:text;not null"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
