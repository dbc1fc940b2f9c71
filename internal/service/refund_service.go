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

type refundService struct {
	refundRepo  ports.RefundRepository
	paymentRepo ports.PaymentRepository
	refundQueue ports.Queue
	outcome     ports.OutcomeDecider
	log         zerolog.Logger
}

// NewRefundService creates a new refund service.
func NewRefundService(
	refundRepo ports.RefundRepository,
	paymentRepo ports.PaymentRepository,
	refundQueue ports.Queue,
	outcome ports.OutcomeDecider,
	log zerolog.Logger,
) ports.RefundService {
	return &refundService{
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		refundQueue: refundQueue,
		outcome:     outcome,
		log:         log,
	}
}

// Create registers a pending refund and enqueues its processing job.
// The available-amount check here is advisory; the worker re-validates
// the refund sum under a row lock before marking it processed.
func (s *refundService) Create(ctx context.Context, req ports.CreateRefundRequest) (*domain.Refund, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	payment, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load payment: %w", err))
	}
	if payment == nil || payment.MerchantID != req.MerchantID {
		return nil, apperror.ErrNotFound("payment")
	}
	if !payment.IsRefundable() {
		return nil, apperror.ErrPaymentNotRefundable()
	}

	refunded, err := s.refundRepo.SumNonFailed(ctx, payment.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum refunds: %w", err))
	}
	if refunded+req.Amount > payment.Amount {
		return nil, apperror.ErrRefundExceedsAvailable()
	}

	refund := &domain.Refund{
		ID:         domain.NewID("rfnd_"),
		PaymentID:  payment.ID,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Status:     domain.RefundStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create refund: %w", err))
	}

	job, err := json.Marshal(domain.RefundJob{RefundID: refund.ID})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal refund job: %w", err))
	}
	if err := s.refundQueue.EnqueueIn(ctx, job, s.outcome.RefundDelay()); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("enqueue refund job: %w", err))
	}

	s.log.Info().
		Str("refund_id", refund.ID).
		Str("payment_id", refund.PaymentID).
		Int64("amount", refund.Amount).
		Msg("refund created, processing enqueued")

	return refund, nil
}

func (s *refundService) Get(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if refund == nil || refund.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("refund")
	}
	return refund, nil
}
