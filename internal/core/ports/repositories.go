package ports

import (
	"context"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) (*domain.Merchant, error)
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// PaymentRepository defines persistence operations for payments.
// Methods accepting pgx.Tx run inside transaction blocks where refund
// settlement holds a row lock on the parent payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error)
	MarkCaptured(ctx context.Context, id string) error
	// Settle conditionally moves a pending payment to its terminal
	// settlement state. Returns false when the payment was no longer
	// pending, which serializes concurrent settlement of one payment.
	Settle(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.PaymentStatus) error
}

// RefundRepository defines persistence operations for refunds.
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByID(ctx context.Context, id string) (*domain.Refund, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Refund, error)
	// SumNonFailed returns the total amount of refunds for a payment whose
	// status is not failed, including pending ones.
	SumNonFailed(ctx context.Context, paymentID string) (int64, error)
	SumNonFailedTx(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, id string) error
}

// IdempotencyRepository defines durable persistence for idempotency records.
type IdempotencyRepository interface {
	Create(ctx context.Context, rec *domain.IdempotencyRecord) error
	// Get returns nil for missing or expired records; expired rows are
	// inert, not purged here.
	Get(ctx context.Context, merchantID uuid.UUID, key string) (*domain.IdempotencyRecord, error)
}

// WebhookLogRepository defines persistence for webhook delivery logs.
type WebhookLogRepository interface {
	Create(ctx context.Context, log *domain.WebhookLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error)
	// Update persists the outcome of one delivery attempt.
	Update(ctx context.Context, log *domain.WebhookLog) error
	List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error)
	// ResetForRetry sets attempts=0, status=pending and clears next_retry_at.
	ResetForRetry(ctx context.Context, id uuid.UUID) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
