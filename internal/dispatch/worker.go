package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/metrics"
)

// Sender delivers one operational event to the outbound messaging
// system. Retry and rate-limit mechanics live behind this interface,
// outside this worker.
type Sender interface {
	Send(ctx context.Context, event events.OpsEvent) error
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Sender  Sender
	Metrics *metrics.AllocationMetrics
	Config  Config `optional:"true"`
}

// Worker relays unpublished ops_events rows to the Sender. Rows are
// claimed with FOR UPDATE SKIP LOCKED so multiple instances can run
// against the same database without double-sending; this claim path
// requires postgres.
type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	sender  Sender
	metrics *metrics.AllocationMetrics
	cfg     Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("dispatch.worker"),
		sender:  p.Sender,
		metrics: p.Metrics,
		cfg:     cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("outbox relay run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	return err
}

func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	if w.db == nil || w.sender == nil {
		return 0, errors.New("dispatch_worker_unavailable")
	}
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	sent := 0
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []events.OpsEvent
		err := tx.WithContext(ctx).Raw(
			`SELECT id, customer_id, event_type, payload, dedupe_key, published, created_at
			 FROM ops_events
			 WHERE published = false
			 ORDER BY id
			 FOR UPDATE SKIP LOCKED
			 LIMIT ?`,
			limit,
		).Scan(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			if err := w.sender.Send(ctx, row); err != nil {
				// Leave the row unpublished; the next poll retries it.
				w.metrics.RecordEventDelivery("failed")
				w.log.Warn("event delivery failed",
					zap.Error(err),
					zap.String("event_id", row.ID.String()),
					zap.String("event_type", row.EventType))
				continue
			}
			if err := tx.WithContext(ctx).Exec(
				`UPDATE ops_events SET published = true WHERE id = ?`,
				row.ID,
			).Error; err != nil {
				return err
			}
			w.metrics.RecordEventDelivery("sent")
			sent++
		}
		return nil
	})
	if err != nil {
		return sent, err
	}
	return sent, nil
}
