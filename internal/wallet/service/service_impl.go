package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/Emad-Khatrush/Exios-Api/internal/audit/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	walletdomain "github.com/Emad-Khatrush/Exios-Api/internal/wallet/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Audit auditdomain.Service `optional:"true"`
}

// Service implements the wallet store and statement ledger. A mutex
// keyed by (customer, currency) serializes every movement with its
// statement append, since the running total depends on reading the
// latest prior entry.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	audit auditdomain.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("wallet.service"),
		genID: p.GenID,
		clock: p.Clock,
		audit: p.Audit,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock serializes movements for one (customer, currency) pair. Held
// through commit by every caller, it is what makes the absolute
// balance write and the running-total read safe without FOR UPDATE.
func (s *Service) Lock(customerID snowflake.ID, currency string) func() {
	key := customerID.String() + "|" + currency
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) Balance(ctx context.Context, customerID snowflake.ID, currency string) (decimal.Decimal, error) {
	if !money.ValidWalletCurrency(currency) {
		return decimal.Zero, walletdomain.ErrInvalidCurrency
	}

	var row struct {
		Found   bool
		Balance decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT TRUE AS found, balance
		 FROM wallets
		 WHERE customer_id = ? AND currency = ?`,
		customerID,
		currency,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Found {
		return decimal.Zero, nil
	}
	return row.Balance, nil
}

func (s *Service) Credit(ctx context.Context, m walletdomain.Mutation) (*walletdomain.StatementEntry, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	unlock := s.Lock(m.CustomerID, m.Currency)
	defer unlock()

	var entry *walletdomain.StatementEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Top-ups are admin actions; record them. The allocator writes its
	// own audit rows for debits and reversals.
	if s.audit != nil {
		entryID := entry.ID.String()
		if err := s.audit.AuditLog(ctx, &m.CustomerID, m.CreatedBy, auditdomain.ActionWalletCredited, "statement_entry", &entryID, map[string]any{
			"amount":   entry.Amount.String(),
			"currency": entry.Currency,
		}); err != nil {
			s.log.Warn("audit log write failed", zap.Error(err))
		}
	}
	return entry, nil
}

func (s *Service) Debit(ctx context.Context, m walletdomain.Mutation) (*walletdomain.StatementEntry, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	unlock := s.Lock(m.CustomerID, m.Currency)
	defer unlock()

	var entry *walletdomain.StatementEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.DebitTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx assumes the caller holds the pair lock until its
// transaction commits.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, m walletdomain.Mutation) (*walletdomain.StatementEntry, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}

	amount := money.Truncate2(m.Amount)
	now := s.clock.Now()

	balance, found, err := s.loadBalance(ctx, tx, m.CustomerID, m.Currency)
	if err != nil {
		return nil, err
	}
	if found {
		newBalance := money.Truncate2(balance.Add(amount))
		if err := tx.WithContext(ctx).Exec(
			`UPDATE wallets SET balance = ?, updated_at = ? WHERE customer_id = ? AND currency = ?`,
			newBalance,
			now,
			m.CustomerID,
			m.Currency,
		).Error; err != nil {
			return nil, err
		}
	} else {
		wallet := walletdomain.Wallet{
			ID:         s.genID.Generate(),
			CustomerID: m.CustomerID,
			Currency:   m.Currency,
			Balance:    amount,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&wallet).Error; err != nil {
			return nil, err
		}
	}

	return s.appendEntry(ctx, tx, m, walletdomain.SignCredit, amount, now)
}

// DebitTx assumes the caller holds the pair lock until its
// transaction commits.
func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, m walletdomain.Mutation) (*walletdomain.StatementEntry, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}

	amount := money.Truncate2(m.Amount)
	now := s.clock.Now()

	balance, found, err := s.loadBalance(ctx, tx, m.CustomerID, m.Currency)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, walletdomain.ErrWalletNotFound
	}
	// The store never clamps; callers pass the already-clamped amount on
	// the last-package path.
	if amount.GreaterThan(balance) {
		return nil, walletdomain.ErrInsufficientFunds
	}

	newBalance := money.Truncate2(balance.Sub(amount))
	if err := tx.WithContext(ctx).Exec(
		`UPDATE wallets SET balance = ?, updated_at = ? WHERE customer_id = ? AND currency = ?`,
		newBalance,
		now,
		m.CustomerID,
		m.Currency,
	).Error; err != nil {
		return nil, err
	}

	return s.appendEntry(ctx, tx, m, walletdomain.SignDebit, amount, now)
}

func (s *Service) loadBalance(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, currency string) (decimal.Decimal, bool, error) {
	var row struct {
		Found   bool
		Balance decimal.Decimal
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT TRUE AS found, balance
		 FROM wallets
		 WHERE customer_id = ? AND currency = ?`,
		customerID,
		currency,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.Balance, row.Found, nil
}

func (s *Service) appendEntry(
	ctx context.Context,
	tx *gorm.DB,
	m walletdomain.Mutation,
	sign string,
	amount decimal.Decimal,
	now time.Time,
) (*walletdomain.StatementEntry, error) {
	var prev struct {
		Found bool
		Total decimal.Decimal
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT TRUE AS found, running_total AS total
		 FROM statement_entries
		 WHERE customer_id = ? AND currency = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		m.CustomerID,
		m.Currency,
	).Scan(&prev).Error
	if err != nil {
		return nil, err
	}

	total := prev.Total
	if sign == walletdomain.SignCredit {
		total = money.Truncate2(total.Add(amount))
	} else {
		total = money.Truncate2(total.Sub(amount))
	}

	entry := walletdomain.StatementEntry{
		ID:           s.genID.Generate(),
		CustomerID:   m.CustomerID,
		Currency:     m.Currency,
		Sign:         sign,
		Amount:       amount,
		RunningTotal: total,
		Description:  m.Description,
		Note:         m.Note,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) Statement(ctx context.Context, customerID snowflake.ID, currency string) ([]walletdomain.StatementEntry, error) {
	if !money.ValidWalletCurrency(currency) {
		return nil, walletdomain.ErrInvalidCurrency
	}
	var entries []walletdomain.StatementEntry
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND currency = ?", customerID, currency).
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) ConfirmEntry(ctx context.Context, entryID snowflake.ID, confirmedBy string, receivedAt time.Time) error {
	confirmedBy = strings.TrimSpace(confirmedBy)
	result := s.db.WithContext(ctx).Exec(
		`UPDATE statement_entries
		 SET confirmed_at = ?, confirmed_by = ?
		 WHERE id = ? AND confirmed_at IS NULL`,
		receivedAt,
		confirmedBy,
		entryID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return walletdomain.ErrEntryNotFound
	}
	return nil
}

func (s *Service) UnconfirmedCustomers(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT customer_id
		 FROM statement_entries
		 WHERE confirmed_at IS NULL
		 ORDER BY customer_id`,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func validateMutation(m walletdomain.Mutation) error {
	if !money.ValidWalletCurrency(m.Currency) {
		return walletdomain.ErrInvalidCurrency
	}
	if m.Amount.Sign() <= 0 {
		return walletdomain.ErrInvalidAmount
	}
	return nil
}
