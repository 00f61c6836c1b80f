package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	ratesdomain "github.com/Emad-Khatrush/Exios-Api/internal/rates/domain"
)

// defaultRate is the LYD-per-USD rate seeded on an empty database so
// display paths have something to show before the back office sets one.
var defaultRate = decimal.NewFromInt(5)

// EnsureExchangeRate seeds the USD-to-LYD exchange-rate row.
func EnsureExchangeRate(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&ratesdomain.ExchangeRate{}).
			Where("from_currency = ? AND to_currency = ?", money.CurrencyUSD, money.CurrencyLYD).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.WithContext(ctx).Create(&ratesdomain.ExchangeRate{
			ID:           node.Generate(),
			FromCurrency: money.CurrencyUSD,
			ToCurrency:   money.CurrencyLYD,
			Rate:         defaultRate,
		}).Error
	})
}
