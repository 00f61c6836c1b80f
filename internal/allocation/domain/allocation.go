package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	invoicedomain "github.com/Emad-Khatrush/Exios-Api/internal/invoice/domain"
	orderdomain "github.com/Emad-Khatrush/Exios-Api/internal/order/domain"
)

// SelectedPackage is one package chosen for settlement, with its
// authoritative cost figure resolved from the order record by the
// caller. The slice order matters: funds flow through it sequentially
// and the last element absorbs whatever remains.
type SelectedPackage struct {
	PackageID      snowflake.ID
	OrderID        snowflake.ID
	OrderReference string
	TrackingNumber string
	Cost           decimal.Decimal
	Weight         decimal.Decimal
	MeasureUnit    string
}

// Payment is the declared funds for one allocation batch. Rate is
// LYD per USD and must be positive whenever AmountLYD covers cost.
type Payment struct {
	AmountUSD decimal.Decimal
	AmountLYD decimal.Decimal
	Rate      decimal.Decimal
}

// AllocateInput carries one settlement request.
type AllocateInput struct {
	CustomerID snowflake.ID
	CreatedBy  string
	Packages   []SelectedPackage
	Payment    Payment
}

// AllocateResult is what a successful batch settles to: the issued
// invoice and every order whose derived status was recomputed.
type AllocateResult struct {
	Invoice       *invoicedomain.Invoice
	UpdatedOrders []orderdomain.Order
}

// Service distributes a declared multi-currency payment across a batch
// of packages, debiting wallets and recording the movement as it goes.
type Service interface {
	AllocatePayment(ctx context.Context, in AllocateInput) (*AllocateResult, error)
	// CancelPayment reverses one order payment: it credits the wallet
	// back, appends the offsetting statement entry and deletes the
	// history row. Package and order state are left untouched.
	CancelPayment(ctx context.Context, customerID snowflake.ID, historyEntryID snowflake.ID, actor string) error
}

var (
	ErrNoPackagesSelected        = errors.New("no_packages_selected")
	ErrZeroPayment               = errors.New("zero_payment")
	ErrNegativePayment           = errors.New("negative_payment_amount")
	ErrInsufficientUSD           = errors.New("insufficient_usd_balance")
	ErrInsufficientLYD           = errors.New("insufficient_lyd_balance")
	ErrInvalidRate               = errors.New("invalid_rate")
	ErrInsufficientCombinedFunds = errors.New("insufficient_combined_funds")
)
