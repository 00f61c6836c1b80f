package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ScanUpdate carries a warehouse or customs scan event for one package.
// Nil fields leave the flag untouched. Received is deliberately absent:
// only the allocator sets it.
type ScanUpdate struct {
	Arrived            *bool
	ArrivedDestination *bool
	Paid               *bool
}

// CreateOrderInput describes a new order and its initial packages.
type CreateOrderInput struct {
	CustomerID snowflake.ID
	Reference  string
	Office     string
	IsPrepaid  bool
	Packages   []Package
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
	// RecordScan applies a tracking event and recomputes the order status.
	RecordScan(ctx context.Context, packageID snowflake.ID, update ScanUpdate) (*Order, error)
	// MarkPackageReceivedTx flips a package to received inside an existing
	// transaction and appends the activity-log line naming its tracking
	// number. The caller recomputes order state afterwards via Refresh.
	MarkPackageReceivedTx(ctx context.Context, tx *gorm.DB, packageID snowflake.ID, receivedAt time.Time) error
	// Refresh recomputes and persists the derived status of one order.
	Refresh(ctx context.Context, orderID snowflake.ID) (*Order, error)
	CountsByState(ctx context.Context, customerID snowflake.ID) (StateCounts, error)
}

var (
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrPackageNotFound  = errors.New("package_not_found")
	ErrInvalidReference = errors.New("invalid_order_reference")
	ErrNoPackages       = errors.New("order_requires_packages")
)
