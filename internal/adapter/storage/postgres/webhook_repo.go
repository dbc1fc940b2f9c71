package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookLogRepo implements ports.WebhookLogRepository.
type WebhookLogRepo struct {
	pool Pool
}

// NewWebhookLogRepo creates a new WebhookLogRepo.
func NewWebhookLogRepo(pool Pool) *WebhookLogRepo {
	return &WebhookLogRepo{pool: pool}
}

const webhookLogColumns = `id, merchant_id, event, payload, status, attempts,
		last_attempt_at, next_retry_at, response_code, response_body, created_at`

// Create inserts a new webhook log row.
func (r *WebhookLogRepo) Create(ctx context.Context, l *domain.WebhookLog) error {
	query := `INSERT INTO webhook_logs (id, merchant_id, event, payload, status, attempts,
		last_attempt_at, next_retry_at, response_code, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.MerchantID, l.Event, []byte(l.Payload), l.Status, l.Attempts,
		l.LastAttemptAt, l.NextRetryAt, l.ResponseCode, l.ResponseBody, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

// GetByID fetches a webhook log by UUID.
func (r *WebhookLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error) {
	query := `SELECT ` + webhookLogColumns + ` FROM webhook_logs WHERE id = $1`
	return scanWebhookLog(r.pool.QueryRow(ctx, query, id))
}

// Update persists the outcome of one delivery attempt in place. Attempts
// only grow here; ResetForRetry is the single path that rewinds them.
func (r *WebhookLogRepo) Update(ctx context.Context, l *domain.WebhookLog) error {
	query := `UPDATE webhook_logs SET status = $1, attempts = $2, last_attempt_at = $3,
		next_retry_at = $4, response_code = $5, response_body = $6 WHERE id = $7`

	tag, err := r.pool.Exec(ctx, query,
		l.Status, l.Attempts, l.LastAttemptAt, l.NextRetryAt, l.ResponseCode, l.ResponseBody, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update webhook log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook log not found: %s", l.ID)
	}
	return nil
}

// List fetches webhook logs for a merchant, newest first, with the total
// count for pagination.
func (r *WebhookLogRepo) List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, merchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhook logs: %w", err)
	}

	query := `SELECT ` + webhookLogColumns + ` FROM webhook_logs
		WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		var l domain.WebhookLog
		var payload []byte
		if err := rows.Scan(
			&l.ID, &l.MerchantID, &l.Event, &payload, &l.Status, &l.Attempts,
			&l.LastAttemptAt, &l.NextRetryAt, &l.ResponseCode, &l.ResponseBody, &l.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan webhook log row: %w", err)
		}
		l.Payload = payload
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate webhook log rows: %w", err)
	}
	return logs, total, nil
}

// ResetForRetry restarts a log's backoff sequence: attempts back to zero,
// status back to pending, no scheduled retry.
func (r *WebhookLogRepo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE webhook_logs SET status = 'pending', attempts = 0, next_retry_at = NULL WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reset webhook log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook log not found: %s", id)
	}
	return nil
}

// scanWebhookLog is a helper to scan a single row into a WebhookLog.
func scanWebhookLog(row pgx.Row) (*domain.WebhookLog, error) {
	l := &domain.WebhookLog{}
	var payload []byte
	err := row.Scan(
		&l.ID, &l.MerchantID, &l.Event, &payload, &l.Status, &l.Attempts,
		&l.LastAttemptAt, &l.NextRetryAt, &l.ResponseCode, &l.ResponseBody, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan webhook log: %w", err)
	}
	l.Payload = payload
	return l, nil
}
