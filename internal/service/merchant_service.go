package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type merchantService struct {
	merchantRepo ports.MerchantRepository
	log          zerolog.Logger
}

// NewMerchantService creates a new merchant management service.
func NewMerchantService(merchantRepo ports.MerchantRepository, log zerolog.Logger) ports.MerchantService {
	return &merchantService{merchantRepo: merchantRepo, log: log}
}

func (s *merchantService) Register(ctx context.Context, req ports.RegisterMerchantRequest) (*domain.Merchant, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}

	existing, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.Validation("email already registered")
	}

	apiKey, err := generateKey("key_", 16)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}
	apiSecret, err := generateKey("secret_", 24)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api secret: %w", err))
	}
	webhookSecret, err := generateKey("whsec_", 24)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:            uuid.New(),
		Email:         email,
		APIKey:        apiKey,
		APISecret:     apiSecret,
		WebhookURL:    req.WebhookURL,
		WebhookSecret: webhookSecret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("email", merchant.Email).
		Msg("merchant registered")

	return merchant, nil
}

func (s *merchantService) Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	return merchant, nil
}

func (s *merchantService) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) (*domain.Merchant, error) {
	if webhookURL != nil && *webhookURL != "" && !strings.HasPrefix(*webhookURL, "http") {
		return nil, apperror.Validation("webhook_url must be an http(s) URL")
	}
	merchant, err := s.merchantRepo.UpdateWebhookURL(ctx, id, webhookURL)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	return merchant, nil
}

// generateKey returns prefix plus n random bytes hex-encoded.
func generateKey(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}
