package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// IssueInput describes one allocation batch to summarize.
type IssueInput struct {
	CustomerID snowflake.ID
	CreatedBy  string
	Total      decimal.Decimal
	AmountUSD  decimal.Decimal
	AmountLYD  decimal.Decimal
	Rate       decimal.Decimal
	LineItems  []LineItem
	Note       string
}

type Service interface {
	// Issue assigns the next reference number and writes the invoice.
	Issue(ctx context.Context, in IssueInput) (*Invoice, error)
	GetByReference(ctx context.Context, referenceID int64) (*Invoice, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Invoice, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvalidInvoice  = errors.New("invalid_invoice")
)
