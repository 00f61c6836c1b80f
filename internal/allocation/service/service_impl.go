package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	allocdomain "github.com/Emad-Khatrush/Exios-Api/internal/allocation/domain"
	auditdomain "github.com/Emad-Khatrush/Exios-Api/internal/audit/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	invoicedomain "github.com/Emad-Khatrush/Exios-Api/internal/invoice/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/money"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/metrics"
	orderdomain "github.com/Emad-Khatrush/Exios-Api/internal/order/domain"
	historydomain "github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/domain"
	walletdomain "github.com/Emad-Khatrush/Exios-Api/internal/wallet/domain"
	warehousedomain "github.com/Emad-Khatrush/Exios-Api/internal/warehouse/domain"
)

// sufficiencyTolerance is the slack allowed between the declared funds
// and the batch's total cost. Truncation during rate conversion can
// legitimately leave the USD-equivalent up to two units short.
var sufficiencyTolerance = decimal.NewFromInt(2)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Wallets   walletdomain.Service
	Orders    orderdomain.Service
	Invoices  invoicedomain.Service
	History   historydomain.Service
	Warehouse warehousedomain.Tracker
	Audit     auditdomain.Service
	Outbox    *events.Outbox
	Metrics   *metrics.AllocationMetrics
}

// Service implements the payment allocator. Batches for the same
// customer serialize on a keyed mutex: two batches reading the same
// wallet snapshot concurrently could otherwise double-spend it.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	wallets   walletdomain.Service
	orders    orderdomain.Service
	invoices  invoicedomain.Service
	history   historydomain.Service
	warehouse warehousedomain.Tracker
	audit     auditdomain.Service
	outbox    *events.Outbox
	metrics   *metrics.AllocationMetrics
	tracer    trace.Tracer

	mu    sync.Mutex
	locks map[snowflake.ID]*sync.Mutex
}

func NewService(p Params) allocdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("allocation.service"),
		clock:     p.Clock,
		wallets:   p.Wallets,
		orders:    p.Orders,
		invoices:  p.Invoices,
		history:   p.History,
		warehouse: p.Warehouse,
		audit:     p.Audit,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
		tracer:    otel.Tracer("exios/allocation"),
		locks:     make(map[snowflake.ID]*sync.Mutex),
	}
}

func (s *Service) lock(customerID snowflake.ID) func() {
	s.mu.Lock()
	l, ok := s.locks[customerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[customerID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) AllocatePayment(ctx context.Context, in allocdomain.AllocateInput) (*allocdomain.AllocateResult, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.allocate_payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_id", in.CustomerID.String()),
		attribute.Int("packages", len(in.Packages)),
	)

	if len(in.Packages) == 0 {
		s.metrics.RecordBatchRejected("no_packages_selected")
		return nil, allocdomain.ErrNoPackagesSelected
	}

	usd := money.Truncate2(in.Payment.AmountUSD)
	lyd := money.Truncate2(in.Payment.AmountLYD)
	rate := in.Payment.Rate
	// A negative amount would slip past the zero check whenever the
	// other currency is positive and skew the combined-funds total.
	if usd.Sign() < 0 || lyd.Sign() < 0 {
		s.metrics.RecordBatchRejected("negative_payment")
		return nil, allocdomain.ErrNegativePayment
	}
	if usd.Sign() == 0 && lyd.Sign() == 0 {
		s.metrics.RecordBatchRejected("zero_payment")
		return nil, allocdomain.ErrZeroPayment
	}

	unlock := s.lock(in.CustomerID)
	defer unlock()

	usdBalance, err := s.wallets.Balance(ctx, in.CustomerID, money.CurrencyUSD)
	if err != nil {
		return nil, err
	}
	lydBalance, err := s.wallets.Balance(ctx, in.CustomerID, money.CurrencyLYD)
	if err != nil {
		return nil, err
	}
	if usd.Sign() > 0 && usd.GreaterThan(usdBalance) {
		s.metrics.RecordBatchRejected("insufficient_usd")
		return nil, allocdomain.ErrInsufficientUSD
	}
	if lyd.Sign() > 0 && lyd.GreaterThan(lydBalance) {
		s.metrics.RecordBatchRejected("insufficient_lyd")
		return nil, allocdomain.ErrInsufficientLYD
	}
	if lyd.Sign() > 0 && rate.Sign() <= 0 {
		s.metrics.RecordBatchRejected("invalid_rate")
		return nil, allocdomain.ErrInvalidRate
	}

	totalCost := decimal.Zero
	for _, pkg := range in.Packages {
		totalCost = totalCost.Add(money.Truncate2(pkg.Cost))
	}
	available := usd
	if lyd.Sign() > 0 {
		available = available.Add(lyd.Div(rate))
	}
	available = money.Truncate2(available)
	if available.LessThan(totalCost.Sub(sufficiencyTolerance)) {
		s.metrics.RecordBatchRejected("insufficient_combined_funds")
		return nil, allocdomain.ErrInsufficientCombinedFunds
	}

	// Phase one: all but the last package consume USD first, then LYD at
	// the declared rate. Phase two: the last package absorbs everything
	// still remaining, whatever its nominal cost, so the batch exhausts
	// the declared payment exactly and the ledger carries no residue.
	usdRemaining := usd
	lydRemaining := lyd
	var (
		lineItems  []invoicedomain.LineItem
		settledIDs []snowflake.ID
		orderIDs   []snowflake.ID
		seenOrders = map[snowflake.ID]bool{}
	)
	for i, pkg := range in.Packages {
		last := i == len(in.Packages)-1
		if last {
			if usdRemaining.Sign() > 0 {
				if err := s.settle(ctx, in, pkg, money.CurrencyUSD, usdRemaining, rate, true); err != nil {
					s.metrics.RecordBatchFailed()
					return nil, err
				}
				usdRemaining = decimal.Zero
			}
			if lydRemaining.Sign() > 0 {
				if err := s.settle(ctx, in, pkg, money.CurrencyLYD, lydRemaining, rate, true); err != nil {
					s.metrics.RecordBatchFailed()
					return nil, err
				}
				lydRemaining = decimal.Zero
			}
		} else {
			costLeft := money.Truncate2(pkg.Cost)
			if useUSD := decimal.Min(usdRemaining, costLeft); useUSD.Sign() > 0 {
				if err := s.settle(ctx, in, pkg, money.CurrencyUSD, useUSD, rate, false); err != nil {
					s.metrics.RecordBatchFailed()
					return nil, err
				}
				usdRemaining = money.Truncate2(usdRemaining.Sub(useUSD))
				costLeft = money.Truncate2(costLeft.Sub(useUSD))
			}
			if costLeft.Sign() > 0 && lydRemaining.Sign() > 0 {
				needLYD := money.Truncate2(costLeft.Mul(rate))
				if useLYD := decimal.Min(lydRemaining, needLYD); useLYD.Sign() > 0 {
					if err := s.settle(ctx, in, pkg, money.CurrencyLYD, useLYD, rate, false); err != nil {
						s.metrics.RecordBatchFailed()
						return nil, err
					}
					lydRemaining = money.Truncate2(lydRemaining.Sub(useLYD))
				}
			}
		}

		if err := s.markReceived(ctx, pkg.PackageID); err != nil {
			s.metrics.RecordBatchFailed()
			return nil, err
		}

		lineItems = append(lineItems, invoicedomain.LineItem{
			PackageID:      pkg.PackageID.String(),
			OrderReference: pkg.OrderReference,
			TrackingNumber: pkg.TrackingNumber,
			Weight:         pkg.Weight,
			MeasureUnit:    pkg.MeasureUnit,
			Cost:           money.Truncate2(pkg.Cost),
		})
		settledIDs = append(settledIDs, pkg.PackageID)
		if !seenOrders[pkg.OrderID] {
			seenOrders[pkg.OrderID] = true
			orderIDs = append(orderIDs, pkg.OrderID)
		}
	}

	updatedOrders := make([]orderdomain.Order, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		order, err := s.orders.Refresh(ctx, orderID)
		if err != nil {
			s.metrics.RecordBatchFailed()
			return nil, err
		}
		updatedOrders = append(updatedOrders, *order)
		if order.IsFinished {
			s.publishOrderFinished(ctx, order)
		}
	}

	invoice, err := s.invoices.Issue(ctx, invoicedomain.IssueInput{
		CustomerID: in.CustomerID,
		CreatedBy:  in.CreatedBy,
		Total:      money.Truncate2(totalCost),
		AmountUSD:  usd,
		AmountLYD:  lyd,
		Rate:       rate,
		LineItems:  lineItems,
	})
	if err != nil {
		s.metrics.RecordBatchFailed()
		return nil, err
	}
	span.SetAttributes(attribute.Int64("invoice_reference", invoice.ReferenceID))

	// Fire-and-forget collaborators: a pickup-listing, audit or outbox
	// failure must not fail a batch whose money already moved.
	if err := s.warehouse.RemoveSettled(ctx, settledIDs); err != nil {
		s.log.Warn("removing settled packages from pickup listing failed",
			zap.Error(err),
			zap.String("customer_id", in.CustomerID.String()))
	}
	s.recordAllocationAudit(ctx, in, invoice, len(settledIDs))
	s.publishSettled(ctx, in, invoice, usd, lyd, len(settledIDs))
	s.metrics.RecordBatchSettled(len(settledIDs), usd.InexactFloat64(), lyd.InexactFloat64())

	s.log.Info("payment allocated",
		zap.String("customer_id", in.CustomerID.String()),
		zap.Int64("invoice_reference", invoice.ReferenceID),
		zap.Int("packages", len(settledIDs)),
		zap.String("amount_usd", usd.String()),
		zap.String("amount_lyd", lyd.String()))

	return &allocdomain.AllocateResult{Invoice: invoice, UpdatedOrders: updatedOrders}, nil
}

// settle performs one wallet consumption: a debit plus its statement
// entry plus the order-level history row, all in one transaction. On
// the last-package path the amount is clamped to the wallet balance
// here; the wallet store itself never clamps.
func (s *Service) settle(
	ctx context.Context,
	in allocdomain.AllocateInput,
	pkg allocdomain.SelectedPackage,
	currency string,
	amount decimal.Decimal,
	rate decimal.Decimal,
	clampToBalance bool,
) error {
	amount = money.Truncate2(amount)

	// The pair lock must outlive the transaction: the wallet's balance
	// write and running-total read are only safe against concurrent
	// movements while no other movement can start before commit.
	unlock := s.wallets.Lock(in.CustomerID, currency)
	defer unlock()

	if clampToBalance {
		balance, err := s.wallets.Balance(ctx, in.CustomerID, currency)
		if err != nil {
			return err
		}
		amount = decimal.Min(amount, balance)
	}
	if amount.Sign() <= 0 {
		return nil
	}

	lineItem, err := json.Marshal([]invoicedomain.LineItem{{
		PackageID:      pkg.PackageID.String(),
		OrderReference: pkg.OrderReference,
		TrackingNumber: pkg.TrackingNumber,
		Weight:         pkg.Weight,
		MeasureUnit:    pkg.MeasureUnit,
		Cost:           money.Truncate2(pkg.Cost),
	}})
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.wallets.DebitTx(ctx, tx, walletdomain.Mutation{
			CustomerID:  in.CustomerID,
			Currency:    currency,
			Amount:      amount,
			Description: fmt.Sprintf("Received package %s", pkg.TrackingNumber),
			CreatedBy:   in.CreatedBy,
		})
		if err != nil {
			return err
		}
		priorTotal := money.Truncate2(entry.RunningTotal.Add(amount))
		return s.history.RecordTx(ctx, tx, &historydomain.Entry{
			OrderID:        pkg.OrderID,
			CustomerID:     in.CustomerID,
			CreatedBy:      in.CreatedBy,
			ReceivedAmount: amount,
			Currency:       currency,
			Rate:           rate,
			Category:       historydomain.CategoryReceivedGoods,
			LineItems:      datatypes.JSON(lineItem),
			Note:           fmt.Sprintf("wallet total before payment was %s %s", priorTotal.StringFixed(2), currency),
		})
	})
}

func (s *Service) markReceived(ctx context.Context, packageID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orders.MarkPackageReceivedTx(ctx, tx, packageID, s.clock.Now())
	})
}

func (s *Service) CancelPayment(ctx context.Context, customerID snowflake.ID, historyEntryID snowflake.ID, actor string) error {
	ctx, span := s.tracer.Start(ctx, "allocation.cancel_payment")
	defer span.End()
	span.SetAttributes(attribute.String("customer_id", customerID.String()))

	unlock := s.lock(customerID)
	defer unlock()

	entry, err := s.history.Get(ctx, historyEntryID)
	if err != nil {
		return err
	}
	if entry.CustomerID != customerID {
		return historydomain.ErrEntryNotFound
	}

	// Reverses the wallet and ledger effect only. The package stays
	// received and the order state stays where the batch left it; the
	// refund and the physical handover are separate facts.
	unlockWallet := s.wallets.Lock(customerID, entry.Currency)
	defer unlockWallet()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.wallets.CreditTx(ctx, tx, walletdomain.Mutation{
			CustomerID:  customerID,
			Currency:    entry.Currency,
			Amount:      entry.ReceivedAmount,
			Description: "order payment cancelled",
			Note:        fmt.Sprintf("reversal of payment record %s", entry.ID.String()),
			CreatedBy:   actor,
		}); err != nil {
			return err
		}
		return s.history.DeleteTx(ctx, tx, historyEntryID)
	})
	if err != nil {
		return err
	}

	s.recordCancellationAudit(ctx, customerID, actor, entry)
	s.publishCancelled(ctx, customerID, entry)
	s.metrics.RecordCancellation()

	s.log.Info("payment cancelled",
		zap.String("customer_id", customerID.String()),
		zap.String("history_entry_id", historyEntryID.String()),
		zap.String("amount", entry.ReceivedAmount.String()),
		zap.String("currency", entry.Currency))
	return nil
}

func (s *Service) recordAllocationAudit(ctx context.Context, in allocdomain.AllocateInput, invoice *invoicedomain.Invoice, packages int) {
	targetID := fmt.Sprintf("%d", invoice.ReferenceID)
	err := s.audit.AuditLog(ctx, &in.CustomerID, in.CreatedBy, auditdomain.ActionPaymentAllocated, "invoice", &targetID, map[string]any{
		"invoice_reference": invoice.ReferenceID,
		"packages":          packages,
		"amount_usd":        invoice.AmountUSD.String(),
		"amount_lyd":        invoice.AmountLYD.String(),
		"rate":              invoice.Rate.String(),
	})
	if err != nil {
		s.log.Warn("audit log write failed", zap.Error(err))
	}
}

func (s *Service) recordCancellationAudit(ctx context.Context, customerID snowflake.ID, actor string, entry *historydomain.Entry) {
	targetID := entry.ID.String()
	err := s.audit.AuditLog(ctx, &customerID, actor, auditdomain.ActionPaymentCancelled, "order_payment_history", &targetID, map[string]any{
		"order_id": entry.OrderID.String(),
		"amount":   entry.ReceivedAmount.String(),
		"currency": entry.Currency,
	})
	if err != nil {
		s.log.Warn("audit log write failed", zap.Error(err))
	}
}

func (s *Service) publishSettled(ctx context.Context, in allocdomain.AllocateInput, invoice *invoicedomain.Invoice, usd, lyd decimal.Decimal, packages int) {
	payload := events.PaymentSettledPayload{
		CustomerID:       in.CustomerID.String(),
		InvoiceReference: invoice.ReferenceID,
		PackageCount:     packages,
		AmountUSD:        usd.StringFixed(2),
		AmountLYD:        lyd.StringFixed(2),
	}
	err := s.outbox.Publish(ctx, events.Event{
		CustomerID: in.CustomerID.String(),
		Type:       events.EventPaymentSettled,
		Payload:    payload.ToMap(),
		DedupeKey:  fmt.Sprintf("payment_settled:%d", invoice.ReferenceID),
	})
	if err != nil {
		s.log.Warn("outbox publish failed", zap.Error(err))
	}
}

func (s *Service) publishOrderFinished(ctx context.Context, order *orderdomain.Order) {
	err := s.outbox.Publish(ctx, events.Event{
		CustomerID: order.CustomerID.String(),
		Type:       events.EventOrderFinished,
		Payload: map[string]any{
			"order_id":        order.ID.String(),
			"order_reference": order.Reference,
		},
		DedupeKey: fmt.Sprintf("order_finished:%s", order.ID.String()),
	})
	if err != nil {
		s.log.Warn("outbox publish failed", zap.Error(err))
	}
}

func (s *Service) publishCancelled(ctx context.Context, customerID snowflake.ID, entry *historydomain.Entry) {
	payload := events.PaymentCancelledPayload{
		CustomerID:     customerID.String(),
		HistoryEntryID: entry.ID.String(),
		Amount:         entry.ReceivedAmount.StringFixed(2),
		Currency:       entry.Currency,
	}
	err := s.outbox.Publish(ctx, events.Event{
		CustomerID: customerID.String(),
		Type:       events.EventPaymentCancelled,
		Payload:    payload.ToMap(),
		DedupeKey:  fmt.Sprintf("payment_cancelled:%s", entry.ID.String()),
	})
	if err != nil {
		s.log.Warn("outbox publish failed", zap.Error(err))
	}
}
