package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Email == m.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.APIKey == apiKey {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) (*domain.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	m.WebhookURL = webhookURL
	m.UpdatedAt = time.Now()
	cp := *m
	return &cp, nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *inMemoryPaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPaymentRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.MerchantID == merchantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *inMemoryPaymentRepo) MarkCaptured(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("payment not found")
	}
	p.Captured = true
	p.UpdatedAt = time.Now()
	return nil
}

// Settle is compare-and-set on pending status, mirroring the conditional
// UPDATE the postgres repo issues.
func (r *inMemoryPaymentRepo) Settle(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return false, fmt.Errorf("payment not found")
	}
	if p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.ErrorCode = errorCode
	p.ErrorDescription = errorDescription
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *inMemoryPaymentRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryPaymentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("payment not found")
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Refund Repo ---

type inMemoryRefundRepo struct {
	mu      sync.Mutex
	refunds map[string]*domain.Refund
}

func newInMemoryRefundRepo() *inMemoryRefundRepo {
	return &inMemoryRefundRepo{refunds: make(map[string]*domain.Refund)}
}

func (r *inMemoryRefundRepo) Create(ctx context.Context, rf *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rf
	r.refunds[rf.ID] = &cp
	return nil
}

func (r *inMemoryRefundRepo) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.refunds[id]
	if !ok {
		return nil, nil
	}
	cp := *rf
	return &cp, nil
}

func (r *inMemoryRefundRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Refund, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryRefundRepo) SumNonFailed(ctx context.Context, paymentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, rf := range r.refunds {
		if rf.PaymentID == paymentID && rf.Status != domain.RefundStatusFailed {
			sum += rf.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryRefundRepo) SumNonFailedTx(ctx context.Context, tx pgx.Tx, paymentID string) (int64, error) {
	return r.SumNonFailed(ctx, paymentID)
}

func (r *inMemoryRefundRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.refunds[id]
	if !ok {
		return fmt.Errorf("refund not found")
	}
	now := time.Now()
	rf.Status = domain.RefundStatusProcessed
	rf.ProcessedAt = &now
	return nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[domain.BuildIdempotencyKey(rec.MerchantID, rec.Key)] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, merchantID uuid.UUID, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[domain.BuildIdempotencyKey(merchantID, key)]
	if !ok || rec.Expired(time.Now()) {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// --- In-Memory Webhook Log Repo ---

type inMemoryWebhookLogRepo struct {
	mu   sync.Mutex
	logs map[uuid.UUID]*domain.WebhookLog
}

func newInMemoryWebhookLogRepo() *inMemoryWebhookLogRepo {
	return &inMemoryWebhookLogRepo{logs: make(map[uuid.UUID]*domain.WebhookLog)}
}

func (r *inMemoryWebhookLogRepo) Create(ctx context.Context, l *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.logs[l.ID] = &cp
	return nil
}

func (r *inMemoryWebhookLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryWebhookLogRepo) Update(ctx context.Context, l *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[l.ID]; !ok {
		return fmt.Errorf("webhook log not found")
	}
	cp := *l
	r.logs[l.ID] = &cp
	return nil
}

func (r *inMemoryWebhookLogRepo) List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.WebhookLog
	for _, l := range r.logs {
		if l.MerchantID == merchantID {
			all = append(all, *l)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.WebhookLog{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *inMemoryWebhookLogRepo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return fmt.Errorf("webhook log not found")
	}
	l.Status = domain.WebhookStatusPending
	l.Attempts = 0
	l.NextRetryAt = nil
	return nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
