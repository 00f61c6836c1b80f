package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Current returns the LYD-per-USD rate, served from cache when warm.
	Current(ctx context.Context) (decimal.Decimal, error)
	// Update replaces the stored rate and invalidates the cache.
	Update(ctx context.Context, rate decimal.Decimal) error
}

var ErrRateNotSet = errors.New("exchange_rate_not_set")
