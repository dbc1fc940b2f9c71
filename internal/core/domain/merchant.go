package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a registered merchant account.
type Merchant struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	APIKey        string    `json:"api_key"`
	APISecret     string    `json:"-"` // Never expose
	WebhookURL    *string   `json:"webhook_url,omitempty"`
	WebhookSecret string    `json:"-"` // HMAC key for outbound webhooks, never expose
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasWebhook returns true if the merchant has a delivery URL configured.
// Webhooks are never attempted for merchants without one.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != ""
}
