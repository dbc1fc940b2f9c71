package handler

import (
	"payment-gateway/internal/adapter/http/dto"
	"payment-gateway/internal/adapter/http/middleware"
	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"
	"payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey carries the client-chosen deduplication key for
// payment creation. Optional; requests without it are never deduplicated.
const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
	refundSvc  ports.RefundService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService, refundSvc ports.RefundService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, refundSvc: refundSvc}
}

// Create handles POST /api/v1/payments. The response body is written as
// raw pre-serialized bytes so idempotent replays are byte-identical.
func (h *PaymentHandler) Create(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	body, err := h.paymentSvc.Create(c.Request.Context(), ports.CreatePaymentRequest{
		MerchantID:     merchantID.(uuid.UUID),
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         domain.PaymentMethod(req.Method),
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.CreatedRaw(c, body)
}

// Get handles GET /api/v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if payment.MerchantID != merchantID.(uuid.UUID) {
		response.Error(c, apperror.ErrNotFound("payment"))
		return
	}

	response.OK(c, payment)
}

// List handles GET /api/v1/payments.
func (h *PaymentHandler) List(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	payments, err := h.paymentSvc.List(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"items": payments, "count": len(payments)})
}

// Capture handles POST /api/v1/payments/:id/capture.
func (h *PaymentHandler) Capture(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	payment, err := h.paymentSvc.Capture(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, payment)
}

// CreateRefund handles POST /api/v1/payments/:id/refunds.
func (h *PaymentHandler) CreateRefund(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	refund, err := h.refundSvc.Create(c.Request.Context(), ports.CreateRefundRequest{
		MerchantID: merchantID.(uuid.UUID),
		PaymentID:  c.Param("id"),
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, refund)
}

// GetRefund handles GET /api/v1/refunds/:id.
func (h *PaymentHandler) GetRefund(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	refund, err := h.refundSvc.Get(c.Request.Context(), merchantID.(uuid.UUID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, refund)
}
