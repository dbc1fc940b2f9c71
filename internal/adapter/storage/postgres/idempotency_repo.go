package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create inserts an idempotency record.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_keys (key, merchant_id, response, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, rec.Key, rec.MerchantID, rec.Response, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Get fetches a non-expired idempotency record for (key, merchant).
// Expired records are ignored rather than purged; pruning is a
// housekeeping concern elsewhere.
func (r *IdempotencyRepo) Get(ctx context.Context, merchantID uuid.UUID, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, merchant_id, response, expires_at, created_at
		FROM idempotency_keys WHERE key = $1 AND merchant_id = $2`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key, merchantID).Scan(
		&rec.Key, &rec.MerchantID, &rec.Response, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	if rec.Expired(time.Now()) {
		return nil, nil
	}
	return rec, nil
}
