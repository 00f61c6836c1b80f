package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ListFilter struct {
	CustomerID snowflake.ID
	Action     string
	TargetType string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

type Service interface {
	AuditLog(ctx context.Context, customerID *snowflake.ID, actorID string, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_audit_action")
	ErrInvalidTarget = errors.New("invalid_audit_target")
)
