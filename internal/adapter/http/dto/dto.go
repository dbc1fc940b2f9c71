package dto

// CreateOrderRequest is the request body for order creation.
type CreateOrderRequest struct {
	Amount   int64   `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
	Receipt  *string `json:"receipt,omitempty" binding:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty" binding:"omitempty,max=512"`
}

// CreatePaymentRequest is the request body for payment creation.
type CreatePaymentRequest struct {
	OrderID  string `json:"order_id" binding:"required,safe_id,max=64"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,len=3"`
	Method   string `json:"method" binding:"required,oneof=upi card"`
}

// CreateRefundRequest is the request body for refund creation.
type CreateRefundRequest struct {
	Amount int64   `json:"amount" binding:"required,gt=0"`
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=256"`
}

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	Email      string  `json:"email" binding:"required,email,max=255"`
	WebhookURL *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url,max=2048"`
}

// RegisterMerchantResponse exposes the generated credentials. This is the
// only response that ever carries the API secret and webhook signing
// secret in plaintext.
type RegisterMerchantResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	APIKey        string  `json:"api_key"`
	APISecret     string  `json:"api_secret"`
	WebhookURL    *string `json:"webhook_url,omitempty"`
	WebhookSecret string  `json:"webhook_secret"`
	CreatedAt     string  `json:"created_at"`
}

// UpdateWebhookRequest is the request body for changing a merchant's
// webhook delivery URL. A null URL disables delivery.
type UpdateWebhookRequest struct {
	WebhookURL *string `json:"webhook_url" binding:"omitempty,safe_url,max=2048"`
}

// WebhookLogListResponse wraps a paginated webhook log listing.
type WebhookLogListResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// QueueStatsResponse reports depth and throughput counters for the
// background job queues.
type QueueStatsResponse struct {
	Queues map[string]QueueStats `json:"queues"`
}

// QueueStats is one queue's counters.
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
