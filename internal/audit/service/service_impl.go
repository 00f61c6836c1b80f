package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/Emad-Khatrush/Exios-Api/internal/audit/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/auditcontext"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/logger"
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

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) AuditLog(
	ctx context.Context,
	customerID *snowflake.ID,
	actorID string,
	action string,
	targetType string,
	targetID *string,
	metadata map[string]any,
) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		return auditdomain.ErrInvalidTarget
	}

	meta := datatypes.JSONMap{}
	for key, value := range logger.MaskJSON(metadata) {
		if strings.TrimSpace(key) == "" {
			continue
		}
		meta[key] = value
	}
	if rm := auditcontext.FromContext(ctx); rm != (auditcontext.Meta{}) {
		if rm.RequestID != "" {
			meta["request_id"] = rm.RequestID
		}
		if rm.IPAddress != "" {
			meta["ip_address"] = rm.IPAddress
		}
		if rm.UserAgent != "" {
			meta["user_agent"] = rm.UserAgent
		}
		if rm.ActorType != "" {
			meta["actor_type"] = rm.ActorType
		}
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   meta,
		CreatedAt:  s.clock.Now(),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *Service) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	query := s.db.WithContext(ctx).Model(&auditdomain.AuditLog{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("created_at < ?", *filter.EndAt)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []*auditdomain.AuditLog
	err := query.Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
