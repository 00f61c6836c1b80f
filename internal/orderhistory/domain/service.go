package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// RecordTx writes one history row inside an existing transaction so
	// it stays atomic with the wallet debit it attributes.
	RecordTx(ctx context.Context, tx *gorm.DB, entry *Entry) error
	Get(ctx context.Context, id snowflake.ID) (*Entry, error)
	ListByOrder(ctx context.Context, orderID snowflake.ID) ([]Entry, error)
	// DeleteTx removes a history row. Only the cancel-payment path calls
	// this; the wallet ledger itself is never deleted from.
	DeleteTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}

var (
	ErrEntryNotFound = errors.New("payment_history_not_found")
	ErrInvalidEntry  = errors.New("invalid_payment_history")
)
