package worker

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

const bankDeclinedDescription = "Payment was declined by the issuing bank"

// PaymentProcessor settles pending payments. Exactly one settlement run
// resolves a payment: the conditional Settle update serializes concurrent
// deliveries of the same job, so redelivery is a harmless no-op.
type PaymentProcessor struct {
	paymentRepo  ports.PaymentRepository
	webhookQueue ports.Queue
	outcome      ports.OutcomeDecider
	log          zerolog.Logger
}

// NewPaymentProcessor creates a payment settlement processor.
func NewPaymentProcessor(
	paymentRepo ports.PaymentRepository,
	webhookQueue ports.Queue,
	outcome ports.OutcomeDecider,
	log zerolog.Logger,
) *PaymentProcessor {
	return &PaymentProcessor{
		paymentRepo:  paymentRepo,
		webhookQueue: webhookQueue,
		outcome:      outcome,
		log:          log,
	}
}

// Process handles one payment settlement job.
func (p *PaymentProcessor) Process(ctx context.Context, payload []byte) error {
	var job domain.PaymentJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal payment job: %w", err)
	}

	payment, err := p.paymentRepo.GetByID(ctx, job.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment %s: %w", job.PaymentID, err)
	}
	if payment == nil {
		// Fail the job so the queue's failure counters record the lost row.
		p.log.Error().Str("payment_id", job.PaymentID).Msg("settlement job for unknown payment")
		return fmt.Errorf("settle payment %s: %w", job.PaymentID, apperror.ErrNotFound("Payment"))
	}
	if payment.IsTerminal() {
		// Already settled, e.g. a redelivered job.
		return nil
	}

	status := domain.PaymentStatusSuccess
	var errorCode, errorDescription *string
	if !p.outcome.Decide(payment.Method) {
		status = domain.PaymentStatusFailed
		code, desc := domain.ErrorCodeBankDeclined, bankDeclinedDescription
		errorCode, errorDescription = &code, &desc
	}

	won, err := p.paymentRepo.Settle(ctx, payment.ID, status, errorCode, errorDescription)
	if err != nil {
		return fmt.Errorf("settle payment %s: %w", payment.ID, err)
	}
	if !won {
		// Another settlement run resolved this payment first.
		p.log.Info().Str("payment_id", payment.ID).Msg("payment no longer pending, skipping")
		return nil
	}

	p.log.Info().
		Str("payment_id", payment.ID).
		Str("status", string(status)).
		Msg("payment settled")

	event := domain.EventPaymentSuccess
	if status == domain.PaymentStatusFailed {
		event = domain.EventPaymentFailed
	}
	return enqueueWebhook(ctx, p.webhookQueue, payment.MerchantID, event, domain.PaymentEvent{
		Event: event,
		Data: domain.PaymentEventData{
			Payment: domain.PaymentEventBody{
				ID:        payment.ID,
				OrderID:   payment.OrderID,
				Amount:    payment.Amount,
				Currency:  payment.Currency,
				Status:    string(status),
				Method:    string(payment.Method),
				CreatedAt: payment.CreatedAt,
			},
		},
	})
}

// RefundProcessor resolves pending refunds. The refund sum invariant is
// re-validated inside a transaction holding a row lock on the parent
// payment, so concurrent refunds of one payment serialize here.
type RefundProcessor struct {
	refundRepo   ports.RefundRepository
	paymentRepo  ports.PaymentRepository
	transactor   ports.DBTransactor
	webhookQueue ports.Queue
	log          zerolog.Logger
}

// NewRefundProcessor creates a refund settlement processor.
func NewRefundProcessor(
	refundRepo ports.RefundRepository,
	paymentRepo ports.PaymentRepository,
	transactor ports.DBTransactor,
	webhookQueue ports.Queue,
	log zerolog.Logger,
) *RefundProcessor {
	return &RefundProcessor{
		refundRepo:   refundRepo,
		paymentRepo:  paymentRepo,
		transactor:   transactor,
		webhookQueue: webhookQueue,
		log:          log,
	}
}

// Process handles one refund processing job.
func (p *RefundProcessor) Process(ctx context.Context, payload []byte) error {
	var job domain.RefundJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("unmarshal refund job: %w", err)
	}

	tx, err := p.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	refund, err := p.refundRepo.GetForUpdate(ctx, tx, job.RefundID)
	if err != nil {
		return fmt.Errorf("load refund %s: %w", job.RefundID, err)
	}
	if refund == nil {
		// Fail the job so the queue's failure counters record the lost row.
		p.log.Error().Str("refund_id", job.RefundID).Msg("refund job for unknown refund")
		return fmt.Errorf("process refund %s: %w", job.RefundID, apperror.ErrNotFound("Refund"))
	}
	if refund.Status != domain.RefundStatusPending {
		return nil
	}

	// Lock the parent payment before re-checking the refund sum.
	payment, err := p.paymentRepo.GetForUpdate(ctx, tx, refund.PaymentID)
	if err != nil {
		return fmt.Errorf("lock payment %s: %w", refund.PaymentID, err)
	}
	if payment == nil {
		return fmt.Errorf("refund %s references missing payment %s", refund.ID, refund.PaymentID)
	}

	refunded, err := p.refundRepo.SumNonFailedTx(ctx, tx, payment.ID)
	if err != nil {
		return fmt.Errorf("sum refunds for %s: %w", payment.ID, err)
	}
	if refunded > payment.Amount {
		// Invariant breach. The job fails loudly and the refund stays
		// pending for operator inspection.
		return apperror.ErrRefundExceedsPayment()
	}

	if err := p.refundRepo.MarkProcessed(ctx, tx, refund.ID); err != nil {
		return fmt.Errorf("mark refund processed: %w", err)
	}

	newStatus := domain.PaymentStatusPartiallyRefunded
	if refunded == payment.Amount {
		newStatus = domain.PaymentStatusRefunded
	}
	if err := p.paymentRepo.UpdateStatus(ctx, tx, payment.ID, newStatus); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit refund tx: %w", err)
	}

	p.log.Info().
		Str("refund_id", refund.ID).
		Str("payment_id", payment.ID).
		Str("payment_status", string(newStatus)).
		Msg("refund processed")

	return enqueueWebhook(ctx, p.webhookQueue, refund.MerchantID, domain.EventRefundProcessed, domain.RefundEvent{
		Event: domain.EventRefundProcessed,
		Data: domain.RefundEventData{
			Refund: domain.RefundEventBody{
				ID:        refund.ID,
				PaymentID: refund.PaymentID,
				Amount:    refund.Amount,
				Status:    string(domain.RefundStatusProcessed),
			},
		},
	})
}

// enqueueWebhook serializes the event once and hands it to the dispatcher
// queue. These exact bytes are later signed and POSTed verbatim.
func enqueueWebhook(ctx context.Context, queue ports.Queue, merchantID uuid.UUID, event string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	job, err := json.Marshal(domain.WebhookJob{
		MerchantID: merchantID,
		Event:      event,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook job: %w", err)
	}
	if err := queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue webhook job: %w", err)
	}
	return nil
}
