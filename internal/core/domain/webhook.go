package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus represents the delivery state of a webhook log.
type WebhookStatus string

const (
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// Webhook event names.
const (
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

// MaxWebhookAttempts bounds delivery retries. A log reaching this many
// failed attempts is marked failed and never rescheduled.
const MaxWebhookAttempts = 5

// WebhookLog is the durable record of one logical outbound notification
// event. Attempts is incremented in place across retries; only an explicit
// operator retry resets it.
type WebhookLog struct {
	ID            uuid.UUID       `json:"id"`
	MerchantID    uuid.UUID       `json:"merchant_id"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"` // Snapshot signed and POSTed verbatim
	Status        WebhookStatus   `json:"status"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	ResponseCode  *int            `json:"response_code,omitempty"`
	ResponseBody  *string         `json:"response_body,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
