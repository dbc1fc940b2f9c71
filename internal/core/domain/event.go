package domain

import "time"

// PaymentEvent is the webhook payload for payment.success / payment.failed.
type PaymentEvent struct {
	Event string           `json:"event"`
	Data  PaymentEventData `json:"data"`
}

type PaymentEventData struct {
	Payment PaymentEventBody `json:"payment"`
}

// PaymentEventBody is the payment snapshot embedded in the event.
type PaymentEventBody struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

// RefundEvent is the webhook payload for refund.processed.
type RefundEvent struct {
	Event string          `json:"event"`
	Data  RefundEventData `json:"data"`
}

type RefundEventData struct {
	Refund RefundEventBody `json:"refund"`
}

// RefundEventBody is the refund snapshot embedded in the event.
type RefundEventBody struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}
