package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Queue names shared between the API (producer) and the worker (consumer).
const (
	PaymentQueue = "payment-queue"
	RefundQueue  = "refund-queue"
	WebhookQueue = "webhook-queue"
)

// PaymentJob asks the settlement worker to resolve a pending payment.
// Jobs carry identifiers only; the ledger remains the source of truth.
type PaymentJob struct {
	PaymentID string `json:"payment_id"`
}

// RefundJob asks the settlement worker to resolve a pending refund.
type RefundJob struct {
	RefundID string `json:"refund_id"`
}

// WebhookJob asks the dispatcher to deliver one event to a merchant.
// LogID is nil on the first attempt; retries carry it so attempts
// accumulate on the same log row.
type WebhookJob struct {
	MerchantID uuid.UUID       `json:"merchant_id"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	LogID      *uuid.UUID      `json:"log_id,omitempty"`
}
