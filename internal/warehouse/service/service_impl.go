package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	warehousedomain "github.com/Emad-Khatrush/Exios-Api/internal/warehouse/domain"
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

func NewService(p Params) warehousedomain.Tracker {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("warehouse.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Track(ctx context.Context, packageID snowflake.ID, office string) error {
	office = strings.TrimSpace(office)
	if office == "" {
		return warehousedomain.ErrInvalidOffice
	}
	listing := warehousedomain.PickupListing{
		ID:        s.genID.Generate(),
		PackageID: packageID,
		Office:    office,
		CreatedAt: s.clock.Now(),
	}
	return s.db.WithContext(ctx).Create(&listing).Error
}

func (s *Service) RemoveSettled(ctx context.Context, packageIDs []snowflake.ID) error {
	if len(packageIDs) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM pickup_listings WHERE package_id IN ?`,
		packageIDs,
	)
	if result.Error != nil {
		return result.Error
	}
	s.log.Debug("removed settled packages from pickup listing",
		zap.Int("requested", len(packageIDs)),
		zap.Int64("removed", result.RowsAffected),
	)
	return nil
}

func (s *Service) ListByOffice(ctx context.Context, office string) ([]warehousedomain.PickupListing, error) {
	office = strings.TrimSpace(office)
	if office == "" {
		return nil, warehousedomain.ErrInvalidOffice
	}
	var listings []warehousedomain.PickupListing
	err := s.db.WithContext(ctx).
		Where("office = ?", office).
		Order("id").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}
