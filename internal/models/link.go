package models

import (
	"time"

	"github.com/google/uuid"
)

// Link statuses
const (
	LinkStatusActive = "active"
	LinkStatusPaused = "paused"
)

func IsValidLinkStatus(s string) bool {
	return s == LinkStatusActive || s == LinkStatusPaused
}

type Link struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// Suggested amount; nil means the payer chooses.
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency"`
	Website  *string  `json:"website,omitempty"`
	// Shareable payment page URL, {base}/payment/{user_id}/{id}.
	URL string `json:"url"`

	// Earnings counters mutate only through payment recording.
	Earnings     float64 `json:"earnings"`
	Transactions int     `json:"transactions"`

	Status             string    `json:"status"`
	PreviewTitle       *string   `json:"preview_title,omitempty"`
	PreviewDescription *string   `json:"preview_description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PublicLink is the payer-facing view served on the payment page.
// Earnings and owner fields stay private.
type PublicLink struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Amount             *float64  `json:"amount,omitempty"`
	Currency           string    `json:"currency"`
	Status             string    `json:"status"`
	PreviewTitle       *string   `json:"preview_title,omitempty"`
	PreviewDescription *string   `json:"preview_description,omitempty"`
}

func (l *Link) Public() PublicLink {
	return PublicLink{
		ID:                 l.ID,
		UserID:             l.UserID,
		Name:               l.Name,
		Description:        l.Description,
		Amount:             l.Amount,
		Currency:           l.Currency,
		Status:             l.Status,
		PreviewTitle:       l.PreviewTitle,
		PreviewDescription: l.PreviewDescription,
	}
}
