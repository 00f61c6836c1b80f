package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/cache"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	ratesdomain "github.com/Emad-Khatrush/Exios-Api/internal/rates/domain"
)

const (
	cacheKey = "usd_lyd"
	cacheTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Service reads the exchange-rate row through a TTL cache so display
// paths do not hit the database on every request.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cache cache.Cache[string, decimal.Decimal]
}

func NewService(p Params) ratesdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rates.service"),
		genID: p.GenID,
		clock: p.Clock,
		cache: cache.NewTTLCache[string, decimal.Decimal](),
	}
}

func (s *Service) Current(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := s.cache.Get(cacheKey); ok {
		return rate, nil
	}

	var row struct {
		Found bool
		Rate  decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT TRUE AS found, rate
		 FROM exchange_rates
		 WHERE from_currency = ? AND to_currency = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		money.CurrencyUSD,
		money.CurrencyLYD,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Found {
		return decimal.Zero, ratesdomain.ErrRateNotSet
	}

	s.cache.Set(cacheKey, row.Rate, cacheTTL)
	return row.Rate, nil
}

func (s *Service) Update(ctx context.Context, rate decimal.Decimal) error {
	if rate.Sign() <= 0 {
		return money.ErrInvalidRate
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Exec(
			`UPDATE exchange_rates SET rate = ?, updated_at = ?
			 WHERE from_currency = ? AND to_currency = ?`,
			rate,
			now,
			money.CurrencyUSD,
			money.CurrencyLYD,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		return tx.WithContext(ctx).Create(&ratesdomain.ExchangeRate{
			ID:           s.genID.Generate(),
			FromCurrency: money.CurrencyUSD,
			ToCurrency:   money.CurrencyLYD,
			Rate:         rate,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
	if err != nil {
		return err
	}

	s.cache.Delete(cacheKey)
	return nil
}
