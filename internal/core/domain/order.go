package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinOrderAmount is the smallest accepted amount in minor currency units.
const MinOrderAmount = 100

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
)

// Order represents a merchant's intent to collect a payment.
// Orders are immutable once created.
type Order struct {
	ID         string      `json:"id"`
	MerchantID uuid.UUID   `json:"merchant_id"`
	Amount     int64       `json:"amount"` // In minor currency units (e.g. paise)
	Currency   string      `json:"currency"`
	Receipt    *string     `json:"receipt,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}
