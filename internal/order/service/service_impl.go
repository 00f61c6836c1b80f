package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	orderdomain "github.com/Emad-Khatrush/Exios-Api/internal/order/domain"
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

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := s.db.WithContext(ctx).Preload("Packages").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*orderdomain.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, orderdomain.ErrInvalidReference
	}
	var order orderdomain.Order
	err := s.db.WithContext(ctx).Preload("Packages").First(&order, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) Create(ctx context.Context, in orderdomain.CreateOrderInput) (*orderdomain.Order, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, orderdomain.ErrInvalidReference
	}
	if len(in.Packages) == 0 {
		return nil, orderdomain.ErrNoPackages
	}

	now := s.clock.Now()
	activity, err := json.Marshal([]orderdomain.ActivityEntry{{
		Description: "order is being prepared",
		At:          now,
	}})
	if err != nil {
		return nil, err
	}

	order := orderdomain.Order{
		ID:          s.genID.Generate(),
		CustomerID:  in.CustomerID,
		Reference:   reference,
		Office:      strings.TrimSpace(in.Office),
		IsPrepaid:   in.IsPrepaid,
		ActivityLog: datatypes.JSON(activity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	packages := make([]orderdomain.Package, 0, len(in.Packages))
	for _, pkg := range in.Packages {
		pkg.ID = s.genID.Generate()
		pkg.OrderID = order.ID
		pkg.CreatedAt = now
		pkg.UpdatedAt = now
		packages = append(packages, pkg)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&packages).Error
	})
	if err != nil {
		return nil, err
	}
	order.Packages = packages
	return &order, nil
}

func (s *Service) RecordScan(ctx context.Context, packageID snowflake.ID, update orderdomain.ScanUpdate) (*orderdomain.Order, error) {
	now := s.clock.Now()

	sets := map[string]any{"updated_at": now}
	if update.Arrived != nil {
		sets["arrived"] = *update.Arrived
	}
	if update.ArrivedDestination != nil {
		sets["arrived_destination"] = *update.ArrivedDestination
	}
	if update.Paid != nil {
		sets["paid"] = *update.Paid
	}

	var orderID snowflake.ID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pkg orderdomain.Package
		if err := tx.First(&pkg, "id = ?", packageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderdomain.ErrPackageNotFound
			}
			return err
		}
		orderID = pkg.OrderID
		return tx.Model(&orderdomain.Package{}).Where("id = ?", packageID).Updates(sets).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Refresh(ctx, orderID)
}

func (s *Service) MarkPackageReceivedTx(ctx context.Context, tx *gorm.DB, packageID snowflake.ID, receivedAt time.Time) error {
	var pkg orderdomain.Package
	if err := tx.WithContext(ctx).First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orderdomain.ErrPackageNotFound
		}
		return err
	}

	if err := tx.WithContext(ctx).Exec(
		`UPDATE packages
		 SET received = TRUE, received_at = ?, updated_at = ?
		 WHERE id = ?`,
		receivedAt,
		receivedAt,
		packageID,
	).Error; err != nil {
		return err
	}

	line := fmt.Sprintf("package %s was received by the customer", pkg.TrackingNumber)
	return s.appendActivityTx(ctx, tx, pkg.OrderID, orderdomain.ActivityEntry{
		Description: line,
		At:          receivedAt,
	})
}

func (s *Service) appendActivityTx(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, entry orderdomain.ActivityEntry) error {
	var order orderdomain.Order
	if err := tx.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orderdomain.ErrOrderNotFound
		}
		return err
	}

	var log []orderdomain.ActivityEntry
	if len(order.ActivityLog) > 0 {
		if err := json.Unmarshal(order.ActivityLog, &log); err != nil {
			return err
		}
	}
	log = append(log, entry)
	raw, err := json.Marshal(log)
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).Exec(
		`UPDATE orders SET activity_log = ?, updated_at = ? WHERE id = ?`,
		datatypes.JSON(raw),
		entry.At,
		orderID,
	).Error
}

func (s *Service) Refresh(ctx context.Context, orderID snowflake.ID) (*orderdomain.Order, error) {
	var order *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found orderdomain.Order
		if err := tx.Preload("Packages").First(&found, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderdomain.ErrOrderNotFound
			}
			return err
		}

		status, finished := orderdomain.DeriveStatus(found.IsPrepaid, found.Packages)
		if status == found.OrderStatus && finished == found.IsFinished {
			order = &found
			return nil
		}

		now := s.clock.Now()
		if err := tx.Exec(
			`UPDATE orders SET order_status = ?, is_finished = ?, updated_at = ? WHERE id = ?`,
			status,
			finished,
			now,
			orderID,
		).Error; err != nil {
			return err
		}
		found.OrderStatus = status
		found.IsFinished = finished
		found.UpdatedAt = now
		order = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) CountsByState(ctx context.Context, customerID snowflake.ID) (orderdomain.StateCounts, error) {
	var rows []struct {
		IsPrepaid   bool
		OrderStatus int
		IsFinished  bool
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT is_prepaid, order_status, is_finished
		 FROM orders
		 WHERE customer_id = ?`,
		customerID,
	).Scan(&rows).Error
	if err != nil {
		return orderdomain.StateCounts{}, err
	}

	// In-memory fold over the fetched rows; the predicates mirror the
	// prepaid/non-prepaid status mapping of DeriveStatus.
	var counts orderdomain.StateCounts
	for _, row := range rows {
		switch {
		case row.IsFinished:
			counts.Finished++
		case (row.IsPrepaid && row.OrderStatus == 4) || (!row.IsPrepaid && row.OrderStatus == 3):
			counts.AwaitingPickup++
			counts.Active++
		case (row.IsPrepaid && row.OrderStatus == 3) || (!row.IsPrepaid && row.OrderStatus == 2):
			counts.InTransit++
			counts.Active++
		default:
			counts.Active++
		}
	}
	return counts, nil
}
