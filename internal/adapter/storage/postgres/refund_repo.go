package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RefundRepo implements ports.RefundRepository.
type RefundRepo struct {
	pool Pool
}

// NewRefundRepo creates a new RefundRepo.
func NewRefundRepo(pool Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

const refundColumns = `id, payment_id, merchant_id, amount, reason, status, created_at, processed_at`

const sumNonFailedQuery = `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1 AND status != 'failed'`

// Create inserts a new pending refund.
func (r *RefundRepo) Create(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (id, payment_id, merchant_id, amount, reason, status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		rf.ID, rf.PaymentID, rf.MerchantID, rf.Amount, rf.Reason, rf.Status, rf.CreatedAt, rf.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// GetByID fetches a refund by identifier.
func (r *RefundRepo) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return scanRefund(r.pool.QueryRow(ctx, query, id))
}

// GetForUpdate fetches a refund with a row lock held for the duration of
// the surrounding transaction.
func (r *RefundRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1 FOR UPDATE`
	return scanRefund(tx.QueryRow(ctx, query, id))
}

// SumNonFailed totals refund amounts for a payment excluding failed ones.
// Pending refunds count, so an in-flight refund is included in its own
// validation total.
func (r *RefundRepo) SumNonFailed(ctx context.Context, paymentID string) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, sumNonFailedQuery, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return total, nil
}

// SumNonFailedTx is SumNonFailed inside a transaction, used while the
// parent payment row lock is held.
func (r *RefundRepo) SumNonFailedTx(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error) {
	var total int64
	if err := tx.QueryRow(ctx, sumNonFailedQuery, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return total, nil
}

// MarkProcessed moves a refund to processed within a database transaction.
func (r *RefundRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	query := `UPDATE refunds SET status = 'processed', processed_at = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark refund processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("refund not found: %s", id)
	}
	return nil
}

// scanRefund is a helper to scan a single row into a Refund.
func scanRefund(row pgx.Row) (*domain.Refund, error) {
	rf := &domain.Refund{}
	err := row.Scan(
		&rf.ID, &rf.PaymentID, &rf.MerchantID, &rf.Amount, &rf.Reason, &rf.Status, &rf.CreatedAt, &rf.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan refund: %w", err)
	}
	return rf, nil
}
