package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"onboard/internal/platform/kafka/consumer"
	id "onboard/pkg/domain"
	audit "onboard/pkg/platform/audit"
)

// EventStore is the storage side of materialization.
type EventStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// EventsHandler writes audit events from the stream into the audit_events
// table for querying.
type EventsHandler struct {
	store  EventStore
	logger *slog.Logger
}

// NewEventsHandler creates the materializing handler.
func NewEventsHandler(store EventStore, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		store:  store,
		logger: logger,
	}
}

// eventPayload matches the JSON the outbox relay publishes.
type eventPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	UserID    string `json:"UserID"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Step      string `json:"Step"`
	Reason    string `json:"Reason"`
	Email     string `json:"Email"`
	RequestID string `json:"RequestID"`
	Device    string `json:"Device"`
}

// Handle materializes one audit event. Malformed messages are logged and
// committed; they would fail identically on every redelivery.
func (h *EventsHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.Error("failed to parse audit event ID, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var payload eventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("failed to unmarshal audit payload, skipping",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}
	if payload.Action == "" {
		h.logger.Error("audit event missing action, skipping",
			"event_id", eventID,
		)
		return nil
	}

	event := audit.Event{
		Category:  audit.EventCategory(payload.Category),
		Subject:   payload.Subject,
		Action:    payload.Action,
		Step:      payload.Step,
		Reason:    payload.Reason,
		Email:     payload.Email,
		RequestID: payload.RequestID,
		Device:    payload.Device,
	}

	event.Timestamp = msg.Timestamp
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}
	if payload.UserID != "" {
		if uid, err := uuid.Parse(payload.UserID); err == nil {
			event.UserID = id.UserID(uid)
		}
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}

	h.logger.Debug("materialized audit event",
		"event_id", eventID,
		"action", event.Action,
		"category", event.Category,
	)
	return nil
}
