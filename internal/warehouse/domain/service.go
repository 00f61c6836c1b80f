package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Tracker maintains the awaiting-pickup listing. The allocator calls
// RemoveSettled fire-and-forget: a failure is logged by the caller,
// never propagated.
type Tracker interface {
	Track(ctx context.Context, packageID snowflake.ID, office string) error
	RemoveSettled(ctx context.Context, packageIDs []snowflake.ID) error
	ListByOffice(ctx context.Context, office string) ([]PickupListing, error)
}

var ErrInvalidOffice = errors.New("invalid_office")
