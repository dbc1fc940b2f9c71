package handler

import (
	"strconv"

	"payment-gateway/internal/adapter/http/dto"
	"payment-gateway/internal/adapter/http/middleware"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"
	"payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler handles webhook log inspection and operator retry.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// List handles GET /api/v1/webhooks.
func (h *WebhookHandler) List(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.webhookSvc.List(c.Request.Context(), merchantID.(uuid.UUID), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookLogListResponse{
		Items:  logs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Retry handles POST /api/v1/webhooks/:id/retry. Resets the log's attempt
// counter and re-enqueues delivery with a fresh backoff sequence.
func (h *WebhookHandler) Retry(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("webhook"))
		return
	}

	whLog, err := h.webhookSvc.Retry(c.Request.Context(), merchantID.(uuid.UUID), logID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, whLog)
}
