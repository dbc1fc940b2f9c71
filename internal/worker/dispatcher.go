package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel response code recorded when a delivery attempt times out.
const timeoutResponseCode = http.StatusRequestTimeout

// maxResponseBodyBytes bounds how much of the merchant's response is
// persisted on the log row.
const maxResponseBodyBytes = 1024

// Dispatcher delivers webhook events to merchant endpoints. Each logical
// event owns one log row; failed attempts reschedule the same row with
// attempt-indexed backoff until MaxWebhookAttempts, after which the log
// is marked failed and only an operator retry revives it.
type Dispatcher struct {
	merchantRepo ports.MerchantRepository
	logRepo      ports.WebhookLogRepository
	sigSvc       ports.SignatureService
	webhookQueue ports.Queue
	backoff      *Backoff
	client       *http.Client
	log          zerolog.Logger
}

// NewDispatcher creates a webhook dispatcher. timeout bounds each
// delivery attempt end to end.
func NewDispatcher(
	merchantRepo ports.MerchantRepository,
	logRepo ports.WebhookLogRepository,
	sigSvc ports.SignatureService,
	webhookQueue ports.Queue,
	backoff *Backoff,
	timeout time.Duration,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		merchantRepo: merchantRepo,
		logRepo:      logRepo,
		sigSvc:       sigSvc,
		webhookQueue: webhookQueue,
		backoff:      backoff,
		client:       &http.Client{Timeout: timeout},
		log:          log,
	}
}

// Process handles one webhook delivery job.
func (d *Dispatcher) Process(ctx context.Context, payload []byte) error {
	var job domain.WebhookJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal webhook job: %w", err)
	}

	merchant, err := d.merchantRepo.GetByID(ctx, job.MerchantID)
	if err != nil {
		return fmt.Errorf("load merchant %s: %w", job.MerchantID, err)
	}
	if merchant == nil {
		d.log.Warn().Str("merchant_id", job.MerchantID.String()).Msg("webhook job for unknown merchant, dropping")
		return nil
	}
	if !merchant.HasWebhook() {
		// No endpoint configured: not an error, nothing is logged.
		return nil
	}

	whLog, err := d.resolveLog(ctx, &job)
	if err != nil {
		return err
	}
	if whLog == nil {
		return nil
	}

	attempt := whLog.Attempts
	now := time.Now().UTC()
	whLog.Attempts = attempt + 1
	whLog.LastAttemptAt = &now

	// The log row reflects the latest attempt only: stale detail from an
	// earlier failure must not survive a later delivery.
	code, body, deliverErr := d.deliver(ctx, *merchant.WebhookURL, merchant.WebhookSecret, whLog.Payload)
	whLog.ResponseCode = nil
	if code != 0 {
		whLog.ResponseCode = &code
	}
	whLog.ResponseBody = nil
	if body != "" {
		whLog.ResponseBody = &body
	}

	if deliverErr == nil {
		whLog.Status = domain.WebhookStatusSuccess
		whLog.NextRetryAt = nil
		if err := d.logRepo.Update(ctx, whLog); err != nil {
			return fmt.Errorf("update webhook log: %w", err)
		}
		d.log.Info().
			Str("log_id", whLog.ID.String()).
			Str("event", whLog.Event).
			Int("attempt", whLog.Attempts).
			Msg("webhook delivered")
		return nil
	}

	if whLog.Attempts >= domain.MaxWebhookAttempts {
		whLog.Status = domain.WebhookStatusFailed
		whLog.NextRetryAt = nil
		if err := d.logRepo.Update(ctx, whLog); err != nil {
			return fmt.Errorf("update webhook log: %w", err)
		}
		d.log.Error().
			Str("log_id", whLog.ID.String()).
			Str("event", whLog.Event).
			Err(deliverErr).
			Msg("webhook permanently failed")
		return fmt.Errorf("webhook %s exhausted retries: %w", whLog.ID, deliverErr)
	}

	delay := d.backoff.Delay(whLog.Attempts)
	nextRetry := now.Add(delay)
	whLog.Status = domain.WebhookStatusPending
	whLog.NextRetryAt = &nextRetry
	if err := d.logRepo.Update(ctx, whLog); err != nil {
		return fmt.Errorf("update webhook log: %w", err)
	}

	retryJob, err := json.Marshal(domain.WebhookJob{
		MerchantID: job.MerchantID,
		Event:      job.Event,
		Payload:    whLog.Payload,
		LogID:      &whLog.ID,
	})
	if err != nil {
		return fmt.Errorf("marshal retry job: %w", err)
	}
	if err := d.webhookQueue.EnqueueIn(ctx, retryJob, delay); err != nil {
		return fmt.Errorf("enqueue webhook retry: %w", err)
	}

	d.log.Warn().
		Str("log_id", whLog.ID.String()).
		Str("event", whLog.Event).
		Int("attempt", whLog.Attempts).
		Dur("retry_in", delay).
		Err(deliverErr).
		Msg("webhook delivery failed, retry scheduled")
	return nil
}

// resolveLog loads the log row for a retry job or creates a fresh row for
// a first delivery. Returns nil for retry jobs whose log has already been
// resolved, e.g. marked success by a concurrent delivery.
func (d *Dispatcher) resolveLog(ctx context.Context, job *domain.WebhookJob) (*domain.WebhookLog, error) {
	if job.LogID != nil {
		whLog, err := d.logRepo.GetByID(ctx, *job.LogID)
		if err != nil {
			return nil, fmt.Errorf("load webhook log %s: %w", *job.LogID, err)
		}
		if whLog == nil {
			d.log.Warn().Str("log_id", job.LogID.String()).Msg("retry job for unknown webhook log, dropping")
			return nil, nil
		}
		if whLog.Status != domain.WebhookStatusPending {
			return nil, nil
		}
		return whLog, nil
	}

	now := time.Now().UTC()
	whLog := &domain.WebhookLog{
		ID:          uuid.New(),
		MerchantID:  job.MerchantID,
		Event:       job.Event,
		Payload:     job.Payload,
		Status:      domain.WebhookStatusPending,
		NextRetryAt: &now,
		CreatedAt:   now,
	}
	if err := d.logRepo.Create(ctx, whLog); err != nil {
		return nil, fmt.Errorf("create webhook log: %w", err)
	}
	return whLog, nil
}

// deliver signs the payload and POSTs it. The signature covers the exact
// bytes sent on the wire. Returns the response code (or the timeout
// sentinel), a truncated response body and nil on a 2xx response.
func (d *Dispatcher) deliver(ctx context.Context, url, secret string, payload []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", d.sigSvc.Sign(secret, payload))

	resp, err := d.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return timeoutResponseCode, err.Error(), fmt.Errorf("delivery timed out: %w", err)
		}
		return 0, err.Error(), fmt.Errorf("delivery failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, string(body), fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, string(body), nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
