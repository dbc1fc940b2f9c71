package service

import (
	"context"
	"testing"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/core/ports/mocks"
	"payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupMerchantService(t *testing.T) (ports.MerchantService, *mocks.MockMerchantRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMerchantRepository(ctrl)
	return NewMerchantService(repo, zerolog.Nop()), repo
}

func TestMerchantService_Register_Success(t *testing.T) {
	svc, repo := setupMerchantService(t)

	ctx := context.Background()
	repo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(nil, nil)
	repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, m *domain.Merchant) error {
			assert.Contains(t, m.APIKey, "key_")
			assert.Contains(t, m.APISecret, "secret_")
			assert.Contains(t, m.WebhookSecret, "whsec_")
			return nil
		})

	merchant, err := svc.Register(ctx, ports.RegisterMerchantRequest{Email: "Shop@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", merchant.Email)
}

func TestMerchantService_Register_DuplicateEmail(t *testing.T) {
	svc, repo := setupMerchantService(t)

	ctx := context.Background()
	repo.EXPECT().GetByEmail(ctx, "taken@example.com").Return(&domain.Merchant{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, ports.RegisterMerchantRequest{Email: "taken@example.com"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST_ERROR", appErr.Code)
}

func TestMerchantService_Register_InvalidEmail(t *testing.T) {
	svc, _ := setupMerchantService(t)

	_, err := svc.Register(context.Background(), ports.RegisterMerchantRequest{Email: "not-an-email"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST_ERROR", appErr.Code)
}

func TestMerchantService_UpdateWebhookURL(t *testing.T) {
	svc, repo := setupMerchantService(t)

	ctx := context.Background()
	id := uuid.New()
	url := "https://shop.example.com/webhooks"
	repo.EXPECT().UpdateWebhookURL(ctx, id, &url).Return(&domain.Merchant{ID: id, WebhookURL: &url}, nil)

	merchant, err := svc.UpdateWebhookURL(ctx, id, &url)
	require.NoError(t, err)
	assert.Equal(t, url, *merchant.WebhookURL)
}

func TestMerchantService_UpdateWebhookURL_Invalid(t *testing.T) {
	svc, _ := setupMerchantService(t)

	bad := "ftp://nope"
	_, err := svc.UpdateWebhookURL(context.Background(), uuid.New(), &bad)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST_ERROR", appErr.Code)
}
