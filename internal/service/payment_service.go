package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	paymentRepo  ports.PaymentRepository
	orderRepo    ports.OrderRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	paymentQueue ports.Queue
	outcome      ports.OutcomeDecider
	log          zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	paymentRepo ports.PaymentRepository,
	orderRepo ports.OrderRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	paymentQueue ports.Queue,
	outcome ports.OutcomeDecider,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		paymentRepo:  paymentRepo,
		orderRepo:    orderRepo,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		paymentQueue: paymentQueue,
		outcome:      outcome,
		log:          log,
	}
}

// Create registers a pending payment and enqueues its settlement job.
// When req.IdempotencyKey is set, a repeat within the validity window
// returns the originally cached bytes and performs no new side effects.
func (s *PaymentServiceImpl) Create(ctx context.Context, req ports.CreatePaymentRequest) ([]byte, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	if req.Method != domain.PaymentMethodUPI && req.Method != domain.PaymentMethodCard {
		return nil, apperror.Validation("method must be upi or card")
	}

	if req.IdempotencyKey != "" {
		cached, err := s.lookupIdempotent(ctx, req.MerchantID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			s.log.Info().
				Str("idempotency_key", req.IdempotencyKey).
				Str("merchant_id", req.MerchantID.String()).
				Msg("idempotent replay, returning cached response")
			return cached, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load order: %w", err))
	}
	if order == nil || order.MerchantID != req.MerchantID {
		return nil, apperror.ErrNotFound("order")
	}
	if req.Amount != order.Amount {
		return nil, apperror.Validation("amount does not match order amount")
	}
	if req.Currency != order.Currency {
		return nil, apperror.Validation("currency does not match order currency")
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:         domain.NewID("pay_"),
		OrderID:    order.ID,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Method:     req.Method,
		Status:     domain.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	job, err := json.Marshal(domain.PaymentJob{PaymentID: payment.ID})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal payment job: %w", err))
	}
	if err := s.paymentQueue.EnqueueIn(ctx, job, s.outcome.PaymentDelay()); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("enqueue payment job: %w", err))
	}

	body, err := json.Marshal(payment)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal payment: %w", err))
	}

	if req.IdempotencyKey != "" {
		s.recordIdempotent(ctx, req.MerchantID, req.IdempotencyKey, body, now)
	}

	s.log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Str("method", string(payment.Method)).
		Msg("payment created, settlement enqueued")

	return body, nil
}

// lookupIdempotent checks the Redis fast path first, falling back to the
// durable record. A cache miss with a live DB record refills the cache.
func (s *PaymentServiceImpl) lookupIdempotent(ctx context.Context, merchantID uuid.UUID, key string) ([]byte, error) {
	cached, err := s.idempCache.Get(ctx, merchantID, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return cached, nil
	}

	rec, err := s.idempRepo.Get(ctx, merchantID, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if rec == nil {
		return nil, nil
	}

	if ttl := time.Until(rec.ExpiresAt); ttl > 0 {
		if err := s.idempCache.Set(ctx, merchantID, key, rec.Response, ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache refill failed")
		}
	}
	return rec.Response, nil
}

// recordIdempotent persists the response bytes durably and in the cache.
// Failures are logged, not surfaced: the payment is already committed.
func (s *PaymentServiceImpl) recordIdempotent(ctx context.Context, merchantID uuid.UUID, key string, body []byte, now time.Time) {
	rec := &domain.IdempotencyRecord{
		Key:        key,
		MerchantID: merchantID,
		Response:   body,
		ExpiresAt:  now.Add(domain.IdempotencyTTL),
		CreatedAt:  now,
	}
	if err := s.idempRepo.Create(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("persist idempotency record failed")
	}
	if err := s.idempCache.Set(ctx, merchantID, key, body, domain.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache idempotency record failed")
	}
}

// Get returns a payment by ID.
func (s *PaymentServiceImpl) Get(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	return payment, nil
}

// List returns all payments for a merchant, newest first.
func (s *PaymentServiceImpl) List(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.paymentRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return payments, nil
}

// Capture marks a successful payment as captured.
func (s *PaymentServiceImpl) Capture(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("payment")
	}
	if payment.Status != domain.PaymentStatusSuccess || payment.Captured {
		return nil, apperror.ErrPaymentNotCapturable()
	}

	if err := s.paymentRepo.MarkCaptured(ctx, id); err != nil {
		return nil, apperror.InternalError(err)
	}
	payment.Captured = true
	payment.UpdatedAt = time.Now().UTC()
	return payment, nil
}
