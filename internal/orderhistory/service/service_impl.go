package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	historydomain "github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) historydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("orderhistory.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, entry *historydomain.Entry) error {
	if entry == nil || entry.OrderID == 0 || entry.CustomerID == 0 {
		return historydomain.ErrInvalidEntry
	}
	if strings.TrimSpace(entry.CreatedBy) == "" {
		return historydomain.ErrInvalidEntry
	}
	if !money.ValidDisplayCurrency(entry.Currency) {
		return historydomain.ErrInvalidEntry
	}
	if entry.ReceivedAmount.Sign() <= 0 {
		return historydomain.ErrInvalidEntry
	}
	switch entry.Category {
	case historydomain.CategoryInvoice, historydomain.CategoryReceivedGoods:
	default:
		return historydomain.ErrInvalidEntry
	}

	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	entry.ReceivedAmount = money.Truncate2(entry.ReceivedAmount)
	return tx.WithContext(ctx).Create(entry).Error
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*historydomain.Entry, error) {
	var entry historydomain.Entry
	err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, historydomain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID snowflake.ID) ([]historydomain.Entry, error) {
	var entries []historydomain.Entry
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) DeleteTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	result := tx.WithContext(ctx).Exec(`DELETE FROM order_payment_histories WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return historydomain.ErrEntryNotFound
	}
	return nil
}
