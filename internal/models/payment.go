package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is an append-only ledger row behind a link's earnings counters.
// tx_hash is unique: a replayed payment report cannot credit twice.
type Payment struct {
	ID           uuid.UUID `json:"id"`
	LinkID       uuid.UUID `json:"link_id"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	TxHash       string    `json:"tx_hash"`
	PayerAddress *string   `json:"payer_address,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Email outbox statuses
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// MaxOutboxAttempts caps dispatch retries before a row is marked failed.
const MaxOutboxAttempts = 5

// EmailOutbox is a queued email side-channel message. Persisting the
// notification and sending the email are decoupled: the worker drains
// this table and a send failure never surfaces to the notification writer.
type EmailOutbox struct {
	ID        uuid.UUID  `json:"id"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Attempts  int        `json:"attempts"`
	Status    string     `json:"status"`
	LastError *string    `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
