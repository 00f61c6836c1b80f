package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	invoicedomain "github.com/Emad-Khatrush/Exios-Api/internal/invoice/domain"
)

func newTestService(t *testing.T) invoicedomain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&invoicedomain.Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	})
}

func TestIssueAssignsSequentialReferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, invoicedomain.IssueInput{
		CustomerID: snowflake.ID(3001),
		CreatedBy:  "admin",
		Total:      decimal.NewFromInt(30),
		AmountUSD:  decimal.NewFromInt(30),
		Rate:       decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := svc.Issue(ctx, invoicedomain.IssueInput{
		CustomerID: snowflake.ID(3002),
		CreatedBy:  "admin",
		Total:      decimal.NewFromInt(12),
		AmountUSD:  decimal.NewFromInt(12),
		Rate:       decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first.ReferenceID != 1 {
		t.Fatalf("expected first reference 1, got %d", first.ReferenceID)
	}
	if second.ReferenceID != first.ReferenceID+1 {
		t.Fatalf("expected strictly increasing references, got %d then %d", first.ReferenceID, second.ReferenceID)
	}
	if second.Category != invoicedomain.CategoryShipment {
		t.Fatalf("expected shipment category, got %q", second.Category)
	}
}

func TestIssueValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, invoicedomain.IssueInput{CreatedBy: "admin"})
	if err != invoicedomain.ErrInvalidInvoice {
		t.Fatalf("expected ErrInvalidInvoice for missing customer, got %v", err)
	}
	_, err = svc.Issue(ctx, invoicedomain.IssueInput{CustomerID: snowflake.ID(3003)})
	if err != invoicedomain.ErrInvalidInvoice {
		t.Fatalf("expected ErrInvalidInvoice for missing creator, got %v", err)
	}
}

func TestGetByReference(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, invoicedomain.IssueInput{
		CustomerID: snowflake.ID(3004),
		CreatedBy:  "admin",
		Total:      decimal.NewFromFloat(10.999),
		AmountUSD:  decimal.NewFromFloat(10.999),
		Rate:       decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	found, err := svc.GetByReference(ctx, issued.ReferenceID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found.Total.Equal(decimal.NewFromFloat(10.99)) {
		t.Fatalf("expected truncated total 10.99, got %s", found.Total)
	}

	if _, err := svc.GetByReference(ctx, 99999); err != invoicedomain.ErrInvoiceNotFound {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
