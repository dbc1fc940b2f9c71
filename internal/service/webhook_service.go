package service

import (
	"context"
	"encoding/json"
	"fmt"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type webhookService struct {
	logRepo      ports.WebhookLogRepository
	webhookQueue ports.Queue
	log          zerolog.Logger
}

// NewWebhookService creates a new webhook log service.
func NewWebhookService(
	logRepo ports.WebhookLogRepository,
	webhookQueue ports.Queue,
	log zerolog.Logger,
) ports.WebhookService {
	return &webhookService{
		logRepo:      logRepo,
		webhookQueue: webhookQueue,
		log:          log,
	}
}

func (s *webhookService) List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	logs, total, err := s.logRepo.List(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return logs, total, nil
}

// Retry resets a delivery log and re-enqueues it for immediate dispatch.
// The reset restarts the backoff sequence from attempt zero.
func (s *webhookService) Retry(ctx context.Context, merchantID, logID uuid.UUID) (*domain.WebhookLog, error) {
	whLog, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if whLog == nil || whLog.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("webhook")
	}

	if err := s.logRepo.ResetForRetry(ctx, logID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reset webhook log: %w", err))
	}

	job, err := json.Marshal(domain.WebhookJob{
		MerchantID: whLog.MerchantID,
		Event:      whLog.Event,
		Payload:    whLog.Payload,
		LogID:      &whLog.ID,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal webhook job: %w", err))
	}
	if err := s.webhookQueue.Enqueue(ctx, job); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("enqueue webhook job: %w", err))
	}

	s.log.Info().
		Str("log_id", logID.String()).
		Str("event", whLog.Event).
		Msg("webhook retry requested, delivery re-enqueued")

	whLog.Status = domain.WebhookStatusPending
	whLog.Attempts = 0
	whLog.NextRetryAt = nil
	return whLog, nil
}
