package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mutation describes one wallet movement and the statement row that
// records it. Amount must be positive; the operation supplies the sign.
type Mutation struct {
	CustomerID  snowflake.ID
	Currency    string
	Amount      decimal.Decimal
	Description string
	Note        string
	CreatedBy   string
}

// Service owns wallet balances and the statement ledger. Every debit or
// credit appends exactly one statement entry inside the same
// transaction.
type Service interface {
	Balance(ctx context.Context, customerID snowflake.ID, currency string) (decimal.Decimal, error)
	Credit(ctx context.Context, m Mutation) (*StatementEntry, error)
	Debit(ctx context.Context, m Mutation) (*StatementEntry, error)
	// Lock serializes movements for one (customer, currency) pair and
	// returns the release func. A movement's balance read, update and
	// statement append are only safe while the pair lock is held, and it
	// must stay held until the enclosing transaction commits: releasing
	// before commit lets the next movement read a stale balance and
	// overwrite the wallet with a total computed from it.
	Lock(customerID snowflake.ID, currency string) func()
	// CreditTx and DebitTx run against an existing transaction so a caller
	// can keep a wallet movement and its payment-history row atomic. The
	// caller must hold the pair lock across the whole transaction.
	CreditTx(ctx context.Context, tx *gorm.DB, m Mutation) (*StatementEntry, error)
	DebitTx(ctx context.Context, tx *gorm.DB, m Mutation) (*StatementEntry, error)
	Statement(ctx context.Context, customerID snowflake.ID, currency string) ([]StatementEntry, error)
	ConfirmEntry(ctx context.Context, entryID snowflake.ID, confirmedBy string, receivedAt time.Time) error
	UnconfirmedCustomers(ctx context.Context) ([]snowflake.ID, error)
}

var (
	ErrWalletNotFound    = errors.New("wallet_not_found")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrEntryNotFound     = errors.New("statement_entry_not_found")
)
