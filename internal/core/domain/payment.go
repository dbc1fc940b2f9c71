package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod represents the instrument used for a payment.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusSuccess           PaymentStatus = "success"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// Settlement failure taxonomy.
const (
	ErrorCodeBankDeclined = "BANK_DECLINED"
)

// Payment represents a single payment attempt against an order.
// Created pending by the API layer; exactly one settlement run moves it
// to success or failed, and refund processing may later move a success
// payment to partially_refunded or refunded.
type Payment struct {
	ID               string        `json:"id"`
	OrderID          string        `json:"order_id"`
	MerchantID       uuid.UUID     `json:"merchant_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Method           PaymentMethod `json:"method"`
	Status           PaymentStatus `json:"status"`
	Captured         bool          `json:"captured"`
	ErrorCode        *string       `json:"error_code,omitempty"`
	ErrorDescription *string       `json:"error_description,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsTerminal returns true if settlement has already resolved this payment.
func (p *Payment) IsTerminal() bool {
	return p.Status != PaymentStatusPending
}

// IsRefundable returns true if this payment can accept a new refund.
func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusPartiallyRefunded
}
