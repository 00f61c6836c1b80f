package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OpsEvent is a stored operational event awaiting broadcast.
type OpsEvent struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	CustomerID string            `gorm:"size:64;index;uniqueIndex:ux_ops_events_customer_dedupe,priority:1"`
	EventType  string            `gorm:"size:64"`
	Payload    datatypes.JSONMap `gorm:"type:jsonb"`
	DedupeKey  *string           `gorm:"size:128;uniqueIndex:ux_ops_events_customer_dedupe,priority:2"`
	Published  bool
	CreatedAt  time.Time
}

func (OpsEvent) TableName() string { return "ops_events" }

// Event describes an operational event to store in the outbox.
type Event struct {
	CustomerID string
	Type       string
	Payload    map[string]any
	DedupeKey  string
}

// Outbox inserts operational events into the ops_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	customerID := strings.TrimSpace(event.CustomerID)
	if customerID == "" {
		return errors.New("invalid_customer_id")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	record := OpsEvent{
		ID:         o.genID.Generate(),
		CustomerID: customerID,
		EventType:  name,
		Payload:    payload,
		Published:  false,
		CreatedAt:  time.Now().UTC(),
	}
	if dedupe := strings.TrimSpace(event.DedupeKey); dedupe != "" {
		record.DedupeKey = &dedupe
	}

	tx := db.WithContext(ctx)
	if record.DedupeKey != nil {
		tx = tx.Exec(
			`INSERT INTO ops_events (id, customer_id, event_type, payload, dedupe_key, published, created_at)
			 VALUES (?, ?, ?, ?, ?, false, ?)
			 ON CONFLICT (customer_id, dedupe_key) DO NOTHING`,
			record.ID,
			record.CustomerID,
			record.EventType,
			record.Payload,
			record.DedupeKey,
			record.CreatedAt,
		)
		return tx.Error
	}
	return tx.Create(&record).Error
}
