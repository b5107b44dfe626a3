package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationTypePayment = "payment"
	NotificationTypeSystem  = "system"
	NotificationTypeLink    = "link"
)

type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TruncateTxHash shortens a transaction hash for display,
// e.g. "5UfDuX…" the way the payment toast shows it.
func TruncateTxHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return fmt.Sprintf("%s…", hash[:10])
}
