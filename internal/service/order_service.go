package service

import (
	"context"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

type orderService struct {
	orderRepo ports.OrderRepository
	log       zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo ports.OrderRepository, log zerolog.Logger) ports.OrderService {
	return &orderService{orderRepo: orderRepo, log: log}
}

func (s *orderService) Create(ctx context.Context, req ports.CreateOrderRequest) (*domain.Order, error) {
	if req.Amount < domain.MinOrderAmount {
		return nil, apperror.ErrAmountTooSmall()
	}
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}

	order := &domain.Order{
		ID:         domain.NewID("order_"),
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
		Status:     domain.OrderStatusCreated,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("order_id", order.ID).
		Str("merchant_id", order.MerchantID.String()).
		Int64("amount", order.Amount).
		Msg("order created")

	return order, nil
}

func (s *orderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	return order, nil
}
