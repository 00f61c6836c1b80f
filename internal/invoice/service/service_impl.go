package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	invoicedomain "github.com/Emad-Khatrush/Exios-Api/internal/invoice/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
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

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Issue(ctx context.Context, in invoicedomain.IssueInput) (*invoicedomain.Invoice, error) {
	if in.CustomerID == 0 || strings.TrimSpace(in.CreatedBy) == "" {
		return nil, invoicedomain.ErrInvalidInvoice
	}

	items, err := json.Marshal(in.LineItems)
	if err != nil {
		return nil, err
	}

	invoice := invoicedomain.Invoice{
		ID:         s.genID.Generate(),
		CustomerID: in.CustomerID,
		CreatedBy:  strings.TrimSpace(in.CreatedBy),
		Total:      money.Truncate2(in.Total),
		Currency:   money.CurrencyUSD,
		AmountUSD:  money.Truncate2(in.AmountUSD),
		AmountLYD:  money.Truncate2(in.AmountLYD),
		Rate:       in.Rate,
		Category:   invoicedomain.CategoryShipment,
		LineItems:  datatypes.JSON(items),
		Note:       in.Note,
		CreatedAt:  s.clock.Now(),
	}

	// The reference number is max+1, read and written in one transaction
	// so two concurrent batches cannot mint the same number.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int64
		if err := tx.Raw(
			`SELECT COALESCE(MAX(reference_id), 0) FROM invoices`,
		).Scan(&latest).Error; err != nil {
			return err
		}
		invoice.ReferenceID = latest + 1
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) GetByReference(ctx context.Context, referenceID int64) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "reference_id = ?", referenceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("reference_id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
