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

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

const merchantColumns = `id, email, api_key, api_secret, webhook_url, webhook_secret, created_at, updated_at`

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, email, api_key, api_secret, webhook_url, webhook_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Email, m.APIKey, m.APISecret, m.WebhookURL, m.WebhookSecret,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return r.scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByAPIKey fetches a merchant by its API key.
func (r *MerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE api_key = $1`
	return r.scanMerchant(r.pool.QueryRow(ctx, query, apiKey))
}

// GetByEmail fetches a merchant by email.
func (r *MerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE email = $1`
	return r.scanMerchant(r.pool.QueryRow(ctx, query, email))
}

// UpdateWebhookURL updates the merchant's webhook delivery URL and returns
// the updated row.
func (r *MerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) (*domain.Merchant, error) {
	query := `UPDATE merchants SET webhook_url = $1, updated_at = $2 WHERE id = $3
		RETURNING ` + merchantColumns
	return r.scanMerchant(r.pool.QueryRow(ctx, query, webhookURL, time.Now().UTC(), id))
}

// scanMerchant is a helper to scan a single row into a Merchant.
func (r *MerchantRepo) scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Email, &m.APIKey, &m.APISecret, &m.WebhookURL, &m.WebhookSecret,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
