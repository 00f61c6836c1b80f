package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	allocdomain "github.com/Emad-Khatrush/Exios-Api/internal/allocation/domain"
	auditservice "github.com/Emad-Khatrush/Exios-Api/internal/audit/service"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	invoiceservice "github.com/Emad-Khatrush/Exios-Api/internal/invoice/service"
	"github.com/Emad-Khatrush/Exios-Api/internal/migration"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	orderdomain "github.com/Emad-Khatrush/Exios-Api/internal/order/domain"
	orderservice "github.com/Emad-Khatrush/Exios-Api/internal/order/service"
	historydomain "github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/domain"
	historyservice "github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/service"
	walletdomain "github.com/Emad-Khatrush/Exios-Api/internal/wallet/domain"
	walletservice "github.com/Emad-Khatrush/Exios-Api/internal/wallet/service"
	warehousedomain "github.com/Emad-Khatrush/Exios-Api/internal/warehouse/domain"
	warehouseservice "github.com/Emad-Khatrush/Exios-Api/internal/warehouse/service"
)

type fixture struct {
	db        *gorm.DB
	params    Params
	allocator allocdomain.Service
	wallets   walletdomain.Service
	orders    orderdomain.Service
	history   historydomain.Service
	warehouse warehousedomain.Tracker
	customer  snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migration.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	log := zap.NewNop()
	fixed := clock.Fixed{At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	wallets := walletservice.NewService(walletservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	orders := orderservice.NewService(orderservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	invoices := invoiceservice.NewService(invoiceservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	history := historyservice.NewService(historyservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	warehouse := warehouseservice.NewService(warehouseservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	audit := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Clock: fixed})
	outbox := events.NewOutbox(db, node)

	params := Params{
		DB:        db,
		Log:       log,
		Clock:     fixed,
		Wallets:   wallets,
		Orders:    orders,
		Invoices:  invoices,
		History:   history,
		Warehouse: warehouse,
		Audit:     audit,
		Outbox:    outbox,
	}

	return &fixture{
		db:        db,
		params:    params,
		allocator: NewService(params),
		wallets:   wallets,
		orders:    orders,
		history:   history,
		warehouse: warehouse,
		customer:  snowflake.ID(9001),
	}
}

func (f *fixture) credit(t *testing.T, currency, amount string) {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("decimal %q: %v", amount, err)
	}
	if _, err := f.wallets.Credit(context.Background(), walletdomain.Mutation{
		CustomerID:  f.customer,
		Currency:    currency,
		Amount:      value,
		Description: "top up",
		CreatedBy:   "admin",
	}); err != nil {
		t.Fatalf("credit %s %s: %v", amount, currency, err)
	}
}

func (f *fixture) createOrder(t *testing.T, reference string, costs ...string) *orderdomain.Order {
	t.Helper()
	packages := make([]orderdomain.Package, 0, len(costs))
	for i, cost := range costs {
		value, err := decimal.NewFromString(cost)
		if err != nil {
			t.Fatalf("decimal %q: %v", cost, err)
		}
		packages = append(packages, orderdomain.Package{
			TrackingNumber:     fmt.Sprintf("%s-PKG-%d", reference, i+1),
			Cost:               value,
			Arrived:            true,
			ArrivedDestination: true,
		})
	}
	order, err := f.orders.Create(context.Background(), orderdomain.CreateOrderInput{
		CustomerID: f.customer,
		Reference:  reference,
		Office:     "tripoli",
		Packages:   packages,
	})
	if err != nil {
		t.Fatalf("create order %s: %v", reference, err)
	}
	return order
}

func selectPackages(order *orderdomain.Order) []allocdomain.SelectedPackage {
	selected := make([]allocdomain.SelectedPackage, 0, len(order.Packages))
	for _, pkg := range order.Packages {
		selected = append(selected, allocdomain.SelectedPackage{
			PackageID:      pkg.ID,
			OrderID:        order.ID,
			OrderReference: order.Reference,
			TrackingNumber: pkg.TrackingNumber,
			Cost:           pkg.Cost,
			Weight:         pkg.Weight,
			MeasureUnit:    pkg.MeasureUnit,
		})
	}
	return selected
}

func payment(usd, lyd, rate string) allocdomain.Payment {
	return allocdomain.Payment{
		AmountUSD: decimal.RequireFromString(usd),
		AmountLYD: decimal.RequireFromString(lyd),
		Rate:      decimal.RequireFromString(rate),
	}
}

func TestAllocateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Payment:    payment("10", "0", "5"),
	})
	if err != allocdomain.ErrNoPackagesSelected {
		t.Fatalf("expected ErrNoPackagesSelected, got %v", err)
	}

	order := f.createOrder(t, "EX-100", "10")
	_, err = f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("0", "0", "5"),
	})
	if err != allocdomain.ErrZeroPayment {
		t.Fatalf("expected ErrZeroPayment, got %v", err)
	}

	_, err = f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("-5", "50", "5"),
	})
	if err != allocdomain.ErrNegativePayment {
		t.Fatalf("expected ErrNegativePayment, got %v", err)
	}

	f.credit(t, money.CurrencyLYD, "100")
	_, err = f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("0", "50", "0"),
	})
	if err != allocdomain.ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestInsufficientLYDRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyLYD, "5")
	order := f.createOrder(t, "EX-210", "10")

	_, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("0", "10", "5"),
	})
	if err != allocdomain.ErrInsufficientLYD {
		t.Fatalf("expected ErrInsufficientLYD, got %v", err)
	}

	balance, err := f.wallets.Balance(ctx, f.customer, money.CurrencyLYD)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected untouched balance 5, got %s", balance)
	}
}

func TestInsufficientUSDRejectedBeforeMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "5")
	order := f.createOrder(t, "EX-200", "10")

	_, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	})
	if err != allocdomain.ErrInsufficientUSD {
		t.Fatalf("expected ErrInsufficientUSD, got %v", err)
	}

	balance, err := f.wallets.Balance(ctx, f.customer, money.CurrencyUSD)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected untouched balance 5, got %s", balance)
	}

	reloaded, err := f.orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if reloaded.Packages[0].Received {
		t.Fatalf("package must not be marked received after a rejected batch")
	}

	var histories int64
	if err := f.db.Model(&historydomain.Entry{}).Count(&histories).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if histories != 0 {
		t.Fatalf("expected no history rows, got %d", histories)
	}
}

func TestInsufficientCombinedFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-300", "20")

	_, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	})
	if err != allocdomain.ErrInsufficientCombinedFunds {
		t.Fatalf("expected ErrInsufficientCombinedFunds, got %v", err)
	}
}

func TestCombinedFundsToleranceAllowsTruncationSlack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Declared funds land exactly on the tolerance boundary:
	// available 10 against cost 12 is inside the two-unit slack.
	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-310", "12")

	if _, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	}); err != nil {
		t.Fatalf("expected allocation inside tolerance to pass, got %v", err)
	}
}

func TestLastPackageAbsorbsRemainder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "25")
	order := f.createOrder(t, "EX-400", "10", "10", "10")

	result, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("25", "0", "5"),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	entries, err := f.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(entries))
	}

	// ListByOrder returns newest-first.
	got := []string{
		entries[2].ReceivedAmount.String(),
		entries[1].ReceivedAmount.String(),
		entries[0].ReceivedAmount.String(),
	}
	want := []string{"10", "10", "5"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("debit %d: expected %s, got %s (all: %v)", i+1, want[i], got[i], got)
		}
	}

	balance, err := f.wallets.Balance(ctx, f.customer, money.CurrencyUSD)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected exhausted wallet, got %s", balance)
	}

	if !result.Invoice.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected invoice total 30, got %s", result.Invoice.Total)
	}
	if !result.Invoice.AmountUSD.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected invoice amountUSD 25, got %s", result.Invoice.AmountUSD)
	}
}

func TestConservationAcrossCurrencies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "20")
	f.credit(t, money.CurrencyLYD, "50")
	order := f.createOrder(t, "EX-500", "10", "10", "8")

	_, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("20", "50", "5"),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	entries, err := f.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	usdTotal := decimal.Zero
	lydTotal := decimal.Zero
	for _, entry := range entries {
		switch entry.Currency {
		case money.CurrencyUSD:
			usdTotal = usdTotal.Add(entry.ReceivedAmount)
		case money.CurrencyLYD:
			lydTotal = lydTotal.Add(entry.ReceivedAmount)
		}
	}
	if !usdTotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected USD debits to sum to 20, got %s", usdTotal)
	}
	if !lydTotal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected LYD debits to sum to 50, got %s", lydTotal)
	}

	usdBalance, _ := f.wallets.Balance(ctx, f.customer, money.CurrencyUSD)
	lydBalance, _ := f.wallets.Balance(ctx, f.customer, money.CurrencyLYD)
	if !usdBalance.IsZero() || !lydBalance.IsZero() {
		t.Fatalf("expected both wallets exhausted, got USD=%s LYD=%s", usdBalance, lydBalance)
	}
}

func TestAllocationFinishesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "20")
	order := f.createOrder(t, "EX-600", "10", "10")

	result, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("20", "0", "5"),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(result.UpdatedOrders) != 1 {
		t.Fatalf("expected 1 updated order, got %d", len(result.UpdatedOrders))
	}
	updated := result.UpdatedOrders[0]
	if !updated.IsFinished || updated.OrderStatus != 4 {
		t.Fatalf("expected terminal non-prepaid order, got status=%d finished=%v", updated.OrderStatus, updated.IsFinished)
	}
	for _, pkg := range updated.Packages {
		if !pkg.Received {
			t.Fatalf("package %s not marked received", pkg.TrackingNumber)
		}
	}
}

func TestSequentialBatchesIssueIncreasingInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "40")
	first := f.createOrder(t, "EX-700", "10")
	second := f.createOrder(t, "EX-701", "10")

	resultA, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(first),
		Payment:    payment("10", "0", "5"),
	})
	if err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	resultB, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(second),
		Payment:    payment("10", "0", "5"),
	})
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}

	if resultB.Invoice.ReferenceID <= resultA.Invoice.ReferenceID {
		t.Fatalf("expected strictly increasing references, got %d then %d",
			resultA.Invoice.ReferenceID, resultB.Invoice.ReferenceID)
	}
}

func TestAllocationClearsPickupListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-800", "10")
	if err := f.warehouse.Track(ctx, order.Packages[0].ID, "tripoli"); err != nil {
		t.Fatalf("track: %v", err)
	}

	if _, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	listings, err := f.warehouse.ListByOffice(ctx, "tripoli")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected settled package dropped from pickup listing, got %d rows", len(listings))
	}
}

func TestAllocationWritesOutboxEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-850", "10")

	if _, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	var rows []events.OpsEvent
	if err := f.db.Find(&rows).Error; err != nil {
		t.Fatalf("events: %v", err)
	}
	// The batch settles the payment and finishes the order.
	types := map[string]bool{}
	for _, row := range rows {
		types[row.EventType] = true
		if row.Published {
			t.Fatalf("event %s must start unpublished", row.EventType)
		}
	}
	if len(rows) != 2 || !types[events.EventPaymentSettled] || !types[events.EventOrderFinished] {
		t.Fatalf("expected payment_settled and order_finished events, got %v", types)
	}
}

func TestCancelPaymentReversesLedgerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-900", "10")

	if _, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	entries, err := f.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(entries))
	}

	if err := f.allocator.CancelPayment(ctx, f.customer, entries[0].ID, "admin"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	balance, err := f.wallets.Balance(ctx, f.customer, money.CurrencyUSD)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected refunded balance 10, got %s", balance)
	}

	statement, err := f.wallets.Statement(ctx, f.customer, money.CurrencyUSD)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	// top up, debit, reversing credit
	if len(statement) != 3 {
		t.Fatalf("expected 3 statement entries, got %d", len(statement))
	}
	latest := statement[0]
	if latest.Sign != walletdomain.SignCredit {
		t.Fatalf("expected reversing credit entry, got sign %q", latest.Sign)
	}
	if !latest.RunningTotal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected running total 10 after reversal, got %s", latest.RunningTotal)
	}

	if _, err := f.history.Get(ctx, entries[0].ID); err != historydomain.ErrEntryNotFound {
		t.Fatalf("expected history row deleted, got %v", err)
	}

	// The refund does not undo the physical receipt.
	reloaded, err := f.orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !reloaded.Packages[0].Received {
		t.Fatalf("cancel must leave the package received")
	}
	if !reloaded.IsFinished {
		t.Fatalf("cancel must leave the order state untouched")
	}
}

func TestCancelPaymentRejectsForeignEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "10")
	order := f.createOrder(t, "EX-950", "10")
	if _, err := f.allocator.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("10", "0", "5"),
	}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	entries, err := f.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	err = f.allocator.CancelPayment(ctx, snowflake.ID(4242), entries[0].ID, "admin")
	if err != historydomain.ErrEntryNotFound {
		t.Fatalf("expected ErrEntryNotFound for another customer's entry, got %v", err)
	}
}

// debitLimitedWallet fails every debit after the first N, simulating a
// wallet store outage partway through a batch.
type debitLimitedWallet struct {
	walletdomain.Service
	allowed int
	debits  int
}

func (w *debitLimitedWallet) DebitTx(ctx context.Context, tx *gorm.DB, m walletdomain.Mutation) (*walletdomain.StatementEntry, error) {
	w.debits++
	if w.debits > w.allowed {
		return nil, errors.New("wallet store unavailable")
	}
	return w.Service.DebitTx(ctx, tx, m)
}

func TestMidBatchFailureLeavesEarlierPackagesCommitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.credit(t, money.CurrencyUSD, "30")
	order := f.createOrder(t, "EX-860", "10", "10", "10")

	p := f.params
	p.Wallets = &debitLimitedWallet{Service: f.wallets, allowed: 1}
	limited := NewService(p)

	_, err := limited.AllocatePayment(ctx, allocdomain.AllocateInput{
		CustomerID: f.customer,
		CreatedBy:  "admin",
		Packages:   selectPackages(order),
		Payment:    payment("30", "0", "5"),
	})
	if err == nil {
		t.Fatal("expected the second debit to fail the batch")
	}

	// The first package's consumption stays committed: its debit, its
	// history row and its received flag are not compensated.
	balance, err := f.wallets.Balance(ctx, f.customer, money.CurrencyUSD)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected first debit committed, balance 20, got %s", balance)
	}

	entries, err := f.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || !entries[0].ReceivedAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected exactly the first history row, got %d", len(entries))
	}

	reloaded, err := f.orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	received := 0
	for _, pkg := range reloaded.Packages {
		if pkg.Received {
			received++
		}
	}
	if received != 1 {
		t.Fatalf("expected exactly 1 package received, got %d", received)
	}

	// The batch never reached issuance or broadcast.
	var invoices int64
	if err := f.db.Table("invoices").Count(&invoices).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoices != 0 {
		t.Fatalf("expected no invoice after a failed batch, got %d", invoices)
	}
	var published int64
	if err := f.db.Model(&events.OpsEvent{}).Count(&published).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if published != 0 {
		t.Fatalf("expected no outbox events after a failed batch, got %d", published)
	}
}
