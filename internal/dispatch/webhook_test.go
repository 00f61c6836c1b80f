package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Emad-Khatrush/Exios-Api/internal/events"
)

func sampleEvent() events.OpsEvent {
	return events.OpsEvent{
		ID:         snowflake.ID(12345),
		CustomerID: "9001",
		EventType:  events.EventPaymentSettled,
		Payload:    datatypes.JSONMap{"invoice_reference": float64(7)},
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSendPostsEnvelope(t *testing.T) {
	var got webhookEnvelope
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewWebhookSender(server.URL, "secret-token", zap.NewNop())
	if err := sender.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if auth != "Bearer secret-token" {
		t.Fatalf("expected bearer token header, got %q", auth)
	}
	if got.CustomerID != "9001" || got.EventType != events.EventPaymentSettled {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Payload["invoice_reference"] != float64(7) {
		t.Fatalf("payload not forwarded: %+v", got.Payload)
	}
}

func TestSendReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewWebhookSender(server.URL, "", zap.NewNop())
	if err := sender.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestSendDropsWithoutURL(t *testing.T) {
	sender := NewWebhookSender("", "", zap.NewNop())
	if err := sender.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected silent drop without url, got %v", err)
	}
}
