package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/logger"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/tracing"
)

// WebhookSender posts operational events to the broadcast system's
// inbound webhook. When no URL is configured events are logged and
// dropped, which keeps local development working without the broadcast
// stack.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
	log    *zap.Logger
}

func NewWebhookSender(url, token string, log *zap.Logger) *WebhookSender {
	return &WebhookSender{
		url:    strings.TrimSpace(url),
		token:  strings.TrimSpace(token),
		client: tracing.WrapHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		log:    log.Named("dispatch.webhook"),
	}
}

type webhookEnvelope struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id"`
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (s *WebhookSender) Send(ctx context.Context, event events.OpsEvent) error {
	if s.url == "" {
		s.log.Debug("no broadcast webhook configured, dropping event",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", event.EventType))
		return nil
	}

	body, err := json.Marshal(webhookEnvelope{
		ID:         event.ID.String(),
		CustomerID: event.CustomerID,
		EventType:  event.EventType,
		Payload:    event.Payload,
		CreatedAt:  event.CreatedAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("broadcast webhook rejected event",
			zap.Int("status", resp.StatusCode),
			zap.String("event_id", event.ID.String()),
			zap.Any("headers", logger.MaskHeaders(req.Header)))
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
