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

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, merchant_id, amount, currency, method, status, captured,
		error_code, error_description, created_at, updated_at`

// Create inserts a new pending payment.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, order_id, merchant_id, amount, currency, method, status, captured,
		error_code, error_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.Status, p.Captured,
		p.ErrorCode, p.ErrorDescription, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by identifier.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.pool.QueryRow(ctx, query, id))
}

// ListByMerchant fetches all payments for a merchant, newest first.
func (r *PaymentRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.Captured,
			&p.ErrorCode, &p.ErrorDescription, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return payments, nil
}

// MarkCaptured flips the captured flag on a payment.
func (r *PaymentRepo) MarkCaptured(ctx context.Context, id string) error {
	query := `UPDATE payments SET captured = TRUE, updated_at = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark payment captured: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found: %s", id)
	}
	return nil
}

// Settle conditionally resolves a pending payment. The status predicate
// makes the update a compare-and-swap: only one of any number of
// concurrent settlement attempts can win.
func (r *PaymentRepo) Settle(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error) {
	query := `UPDATE payments SET status = $1, error_code = $2, error_description = $3, updated_at = $4
		WHERE id = $5 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, status, errorCode, errorDescription, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("settle payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetForUpdate fetches a payment with a row lock held for the duration of
// the surrounding transaction.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return scanPayment(tx.QueryRow(ctx, query, id))
}

// UpdateStatus updates a payment's status within a database transaction.
// Used by refund settlement to move success payments to partially_refunded
// or refunded.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found: %s", id)
	}
	return nil
}

// scanPayment is a helper to scan a single row into a Payment.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.Captured,
		&p.ErrorCode, &p.ErrorDescription, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}
