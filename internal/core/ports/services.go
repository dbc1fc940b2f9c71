package ports

import (
	"context"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// SignatureService handles HMAC-SHA256 signing and verification of
// outbound webhook payloads.
type SignatureService interface {
	Sign(secret string, payload []byte) string
	Verify(secret string, payload []byte, signature string) bool
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
// Keys are scoped per merchant by the implementation.
type IdempotencyCache interface {
	Get(ctx context.Context, merchantID uuid.UUID, key string) ([]byte, error) // Returns cached response or nil
	Set(ctx context.Context, merchantID uuid.UUID, key string, value []byte, ttl time.Duration) error
}

// OutcomeDecider decides settlement results and latency. Production uses a
// method-dependent success probability; tests inject deterministic
// implementations instead of branching on environment flags inline.
type OutcomeDecider interface {
	Decide(method domain.PaymentMethod) bool
	PaymentDelay() time.Duration
	RefundDelay() time.Duration
}

// --- Service Ports (Business Logic) ---

// OrderService defines order creation and lookup.
type OrderService interface {
	Create(ctx context.Context, req CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// CreateOrderRequest holds validated input for order creation.
type CreateOrderRequest struct {
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Receipt    *string
	Notes      *string
}

// PaymentService defines the API-side payment flow: idempotency guard,
// pending row creation and settlement job enqueue.
type PaymentService interface {
	// Create returns the exact response body bytes. Repeated calls with the
	// same idempotency key within the validity window return byte-identical
	// output and perform no new side effects.
	Create(ctx context.Context, req CreatePaymentRequest) ([]byte, error)
	Get(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error)
	Capture(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	MerchantID     uuid.UUID
	OrderID        string
	Amount         int64
	Currency       string
	Method         domain.PaymentMethod
	IdempotencyKey string // empty = no deduplication
}

// RefundService defines the API-side refund flow.
type RefundService interface {
	Create(ctx context.Context, req CreateRefundRequest) (*domain.Refund, error)
	Get(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Refund, error)
}

// CreateRefundRequest holds validated input for refund creation.
type CreateRefundRequest struct {
	MerchantID uuid.UUID
	PaymentID  string
	Amount     int64
	Reason     *string
}

// MerchantService defines merchant onboarding and profile management.
type MerchantService interface {
	// Register creates a merchant with freshly generated API credentials
	// and webhook signing secret. The secret values are returned once.
	Register(ctx context.Context, req RegisterMerchantRequest) (*domain.Merchant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) (*domain.Merchant, error)
}

// RegisterMerchantRequest holds validated input for merchant registration.
type RegisterMerchantRequest struct {
	Email      string
	WebhookURL *string
}

// WebhookService defines webhook log inspection and operator retry.
type WebhookService interface {
	List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error)
	// Retry re-enqueues delivery for an existing log and restarts its
	// backoff sequence (attempts reset to 0, status back to pending).
	Retry(ctx context.Context, merchantID, logID uuid.UUID) (*domain.WebhookLog, error)
}
