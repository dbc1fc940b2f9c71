package postgres

import (
	"context"
	"testing"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "order_id", "merchant_id", "amount", "currency", "method", "status", "captured",
		"error_code", "error_description", "created_at", "updated_at",
	})
}

func TestPaymentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	now := time.Now().UTC()
	p := &domain.Payment{
		ID:         "pay_abc123",
		OrderID:    "order_xyz789",
		MerchantID: uuid.New(),
		Amount:     50000,
		Currency:   "INR",
		Method:     domain.PaymentMethodUPI,
		Status:     domain.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.Status, p.Captured,
			p.ErrorCode, p.ErrorDescription, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	merchantID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE id").
		WithArgs("pay_abc123").
		WillReturnRows(paymentRows().AddRow(
			"pay_abc123", "order_xyz789", merchantID, int64(50000), "INR",
			domain.PaymentMethodUPI, domain.PaymentStatusSuccess, true,
			nil, nil, now, now,
		))

	p, err := repo.GetByID(context.Background(), "pay_abc123")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)
	assert.Equal(t, int64(50000), p.Amount)
	assert.True(t, p.Captured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE id").
		WithArgs("pay_missing").
		WillReturnRows(paymentRows())

	p, err := repo.GetByID(context.Background(), "pay_missing")
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Settle_Wins(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)
	code := "BANK_DECLINED"
	desc := "The bank declined the transaction."

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(domain.PaymentStatusFailed, &code, &desc, pgxmock.AnyArg(), "pay_abc123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	settled, err := repo.Settle(context.Background(), "pay_abc123", domain.PaymentStatusFailed, &code, &desc)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_Settle_AlreadySettled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	// The conditional update touches no rows when status left pending.
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(domain.PaymentStatusSuccess, (*string)(nil), (*string)(nil), pgxmock.AnyArg(), "pay_abc123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	settled, err := repo.Settle(context.Background(), "pay_abc123", domain.PaymentStatusSuccess, nil, nil)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_UpdateStatus_InTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(domain.PaymentStatusPartiallyRefunded, pgxmock.AnyArg(), "pay_abc123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, "pay_abc123", domain.PaymentStatusPartiallyRefunded)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_MarkCaptured_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepo(mock)

	mock.ExpectExec("UPDATE payments SET captured").
		WithArgs(pgxmock.AnyArg(), "pay_missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.MarkCaptured(context.Background(), "pay_missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
