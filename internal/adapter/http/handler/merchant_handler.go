package handler

import (
	"time"

	"payment-gateway/internal/adapter/http/dto"
	"payment-gateway/internal/adapter/http/middleware"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"
	"payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant onboarding and self-service endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// Register handles POST /api/v1/merchants. Public endpoint; the response
// is the only place the API secret and webhook secret appear in plaintext.
func (h *MerchantHandler) Register(c *gin.Context) {
	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.Register(c.Request.Context(), ports.RegisterMerchantRequest{
		Email:      req.Email,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RegisterMerchantResponse{
		ID:            merchant.ID.String(),
		Email:         merchant.Email,
		APIKey:        merchant.APIKey,
		APISecret:     merchant.APISecret,
		WebhookURL:    merchant.WebhookURL,
		WebhookSecret: merchant.WebhookSecret,
		CreatedAt:     merchant.CreatedAt.Format(time.RFC3339),
	})
}

// GetProfile handles GET /api/v1/merchants/me.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// UpdateWebhookURL handles PUT /api/v1/merchants/me/webhook. A null URL
// disables webhook delivery for the merchant.
func (h *MerchantHandler) UpdateWebhookURL(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidCredentials())
		return
	}

	var req dto.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.UpdateWebhookURL(c.Request.Context(), merchantID.(uuid.UUID), req.WebhookURL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}
