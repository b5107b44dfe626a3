package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	StreamPayments      = "authora:payments"
	StreamNotifications = "authora:notifications"
)

const (
	EventPaymentReceived     = "payment.received"
	EventNotificationCreated = "notification.created"
	EventWalletConnected     = "wallet.connected"
)

// Event is the envelope published on Redis pub/sub and fanned out to
// websocket clients.
type Event struct {
	Type      string         `json:"type"`
	UserID    uuid.UUID      `json:"user_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func New(eventType string, userID uuid.UUID, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		UserID:    userID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
