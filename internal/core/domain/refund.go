package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund represents a (possibly partial) reversal of a payment.
// Invariant: the sum of non-failed refund amounts for a payment never
// exceeds the payment's amount.
type Refund struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"payment_id"`
	MerchantID  uuid.UUID    `json:"merchant_id"`
	Amount      int64        `json:"amount"`
	Reason      *string      `json:"reason,omitempty"`
	Status      RefundStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}
