package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-gateway/internal/adapter/http/dto"
	"payment-gateway/internal/adapter/http/middleware"
	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/core/ports/mocks"
	"payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body != nil {
		c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	return c, w
}

// --- Merchant Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMerchant := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockMerchant)

	merchantID := uuid.New()
	mockMerchant.EXPECT().Register(gomock.Any(), ports.RegisterMerchantRequest{
		Email: "shop@example.com",
	}).Return(&domain.Merchant{
		ID:            merchantID,
		Email:         "shop@example.com",
		APIKey:        "key_abc",
		APISecret:     "secret_def",
		WebhookSecret: "whsec_ghi",
		CreatedAt:     time.Now(),
	}, nil)

	body, _ := json.Marshal(dto.RegisterMerchantRequest{Email: "shop@example.com"})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants", body)

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.RegisterMerchantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, merchantID.String(), resp.ID)
	assert.Equal(t, "key_abc", resp.APIKey)
	assert.Equal(t, "secret_def", resp.APISecret)
	assert.Equal(t, "whsec_ghi", resp.WebhookSecret)
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMerchantHandler(mocks.NewMockMerchantService(ctrl))

	// Empty body => binding error, service never called.
	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants", []byte("{}"))

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateWebhookURL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMerchant := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockMerchant)

	merchantID := uuid.New()
	url := "https://shop.example.com/hooks"
	mockMerchant.EXPECT().UpdateWebhookURL(gomock.Any(), merchantID, &url).
		Return(&domain.Merchant{ID: merchantID, WebhookURL: &url}, nil)

	body, _ := json.Marshal(dto.UpdateWebhookRequest{WebhookURL: &url})
	c, w := newTestContext(t, http.MethodPut, "/api/v1/merchants/me/webhook", body)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.UpdateWebhookURL(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Order Handler Tests ---

func TestCreateOrder_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder)

	merchantID := uuid.New()
	mockOrder.EXPECT().Create(gomock.Any(), ports.CreateOrderRequest{
		MerchantID: merchantID,
		Amount:     50000,
		Currency:   "INR",
	}).Return(&domain.Order{
		ID:         "order_abc123",
		MerchantID: merchantID,
		Amount:     50000,
		Currency:   "INR",
		Status:     domain.OrderStatusCreated,
		CreatedAt:  time.Now(),
	}, nil)

	body, _ := json.Marshal(dto.CreateOrderRequest{Amount: 50000, Currency: "INR"})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/orders", body)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order_abc123", resp.ID)
	assert.Equal(t, domain.OrderStatusCreated, resp.Status)
}

func TestGetOrder_WrongMerchantIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder)

	mockOrder.EXPECT().Get(gomock.Any(), "order_abc123").Return(&domain.Order{
		ID:         "order_abc123",
		MerchantID: uuid.New(), // someone else's order
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/orders/order_abc123", nil)
	c.Set(middleware.CtxMerchantID, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: "order_abc123"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Payment Handler Tests ---

func TestCreatePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	merchantID := uuid.New()
	responseBody := []byte(`{"id":"pay_xyz789","status":"pending"}`)
	mockPayment.EXPECT().Create(gomock.Any(), ports.CreatePaymentRequest{
		MerchantID:     merchantID,
		OrderID:        "order_abc123",
		Amount:         50000,
		Currency:       "INR",
		Method:         domain.PaymentMethodUPI,
		IdempotencyKey: "idem-001",
	}).Return(responseBody, nil)

	body, _ := json.Marshal(dto.CreatePaymentRequest{
		OrderID:  "order_abc123",
		Amount:   50000,
		Currency: "INR",
		Method:   "upi",
	})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments", body)
	c.Request.Header.Set(HeaderIdempotencyKey, "idem-001")
	c.Set(middleware.CtxMerchantID, merchantID)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	// Body must be the service's exact bytes, untouched by re-encoding.
	assert.Equal(t, responseBody, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestCreatePayment_MissingMerchantID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl), nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments", nil)

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePayment_InvalidMethodRejectedByBinding(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl), nil)

	body, _ := json.Marshal(dto.CreatePaymentRequest{
		OrderID:  "order_abc123",
		Amount:   50000,
		Currency: "INR",
		Method:   "netbanking",
	})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments", body)
	c.Set(middleware.CtxMerchantID, uuid.New())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayment_WrongMerchantIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	mockPayment.EXPECT().Get(gomock.Any(), "pay_xyz789").Return(&domain.Payment{
		ID:         "pay_xyz789",
		MerchantID: uuid.New(),
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/payments/pay_xyz789", nil)
	c.Set(middleware.CtxMerchantID, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: "pay_xyz789"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCapturePayment_NotCapturable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	merchantID := uuid.New()
	mockPayment.EXPECT().Capture(gomock.Any(), merchantID, "pay_xyz789").
		Return(nil, apperror.ErrPaymentNotCapturable())

	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments/pay_xyz789/capture", nil)
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: "pay_xyz789"}}

	h.Capture(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Refund Handler Tests ---

func TestCreateRefund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefund := mocks.NewMockRefundService(ctrl)
	h := NewPaymentHandler(nil, mockRefund)

	merchantID := uuid.New()
	mockRefund.EXPECT().Create(gomock.Any(), ports.CreateRefundRequest{
		MerchantID: merchantID,
		PaymentID:  "pay_xyz789",
		Amount:     20000,
	}).Return(&domain.Refund{
		ID:        "rfnd_abc123",
		PaymentID: "pay_xyz789",
		Amount:    20000,
		Status:    domain.RefundStatusPending,
	}, nil)

	body, _ := json.Marshal(dto.CreateRefundRequest{Amount: 20000})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments/pay_xyz789/refunds", body)
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: "pay_xyz789"}}

	h.CreateRefund(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp domain.Refund
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rfnd_abc123", resp.ID)
	assert.Equal(t, domain.RefundStatusPending, resp.Status)
}

func TestCreateRefund_ExceedsAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefund := mocks.NewMockRefundService(ctrl)
	h := NewPaymentHandler(nil, mockRefund)

	merchantID := uuid.New()
	mockRefund.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrRefundExceedsAvailable())

	body, _ := json.Marshal(dto.CreateRefundRequest{Amount: 999999})
	c, w := newTestContext(t, http.MethodPost, "/api/v1/payments/pay_xyz789/refunds", body)
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: "pay_xyz789"}}

	h.CreateRefund(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Webhook Handler Tests ---

func TestListWebhooks_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook)

	merchantID := uuid.New()
	mockWebhook.EXPECT().List(gomock.Any(), merchantID, 20, 0).Return([]domain.WebhookLog{
		{ID: uuid.New(), Event: domain.EventPaymentSuccess, Status: domain.WebhookStatusSuccess},
	}, int64(1), nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/webhooks", nil)
	c.Set(middleware.CtxMerchantID, merchantID)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["total"])
	assert.Len(t, resp["items"], 1)
}

func TestRetryWebhook_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook)

	merchantID := uuid.New()
	logID := uuid.New()
	mockWebhook.EXPECT().Retry(gomock.Any(), merchantID, logID).Return(&domain.WebhookLog{
		ID:       logID,
		Status:   domain.WebhookStatusPending,
		Attempts: 0,
	}, nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/webhooks/"+logID.String()+"/retry", nil)
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: logID.String()}}

	h.Retry(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp domain.WebhookLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.WebhookStatusPending, resp.Status)
	assert.Equal(t, 0, resp.Attempts)
}

func TestRetryWebhook_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWebhookHandler(mocks.NewMockWebhookService(ctrl))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/webhooks/not-a-uuid/retry", nil)
	c.Set(middleware.CtxMerchantID, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Retry(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- System Handler Tests ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	c, w := newTestContext(t, http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestJobsStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQueue := mocks.NewMockQueue(ctrl)
	mockQueue.EXPECT().Stats(gomock.Any()).Return(ports.QueueStats{
		Waiting: 2, Delayed: 1, Completed: 10,
	}, nil)
	mockQueue.EXPECT().Name().Return("payments")

	c, w := newTestContext(t, http.MethodGet, "/api/v1/test/jobs/status", nil)

	JobsStatus(mockQueue)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.QueueStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Queues["payments"].Waiting)
	assert.Equal(t, int64(1), resp.Queues["payments"].Delayed)
	assert.Equal(t, int64(10), resp.Queues["payments"].Completed)
}

func TestSwaggerUI(t *testing.T) {
	c, w := newTestContext(t, http.MethodGet, "/swagger", nil)

	SwaggerUI(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "swagger-ui")
	assert.Contains(t, w.Body.String(), "/swagger/spec")
}

func TestSwaggerSpec_NotLoaded(t *testing.T) {
	SetSwaggerSpec(nil)

	c, w := newTestContext(t, http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
