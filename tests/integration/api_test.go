package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	httpHandler "payment-gateway/internal/adapter/http/handler"
	redisStorage "payment-gateway/internal/adapter/storage/redis"
	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/service"
	"payment-gateway/internal/worker"
	"payment-gateway/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack end to end: real HTTP layer,
// middleware, services, Redis-backed queues on miniredis, and the worker
// pools consuming them. Only postgres is replaced, with in-memory repos.

type testApp struct {
	server       *httptest.Server
	redis        *miniredis.Miniredis
	paymentQueue *redisStorage.Queue
	refundQueue  *redisStorage.Queue
	webhookQueue *redisStorage.Queue
	cancel       context.CancelFunc
	workersDone  chan struct{}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := logger.New("error", false)

	// In-memory repos standing in for postgres
	merchantRepo := newInMemoryMerchantRepo()
	orderRepo := newInMemoryOrderRepo()
	paymentRepo := newInMemoryPaymentRepo()
	refundRepo := newInMemoryRefundRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	webhookRepo := newInMemoryWebhookLogRepo()
	transactor := newInMemoryTransactor()

	// Redis stores and queues
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	paymentQueue := redisStorage.NewQueue(rdb, domain.PaymentQueue)
	refundQueue := redisStorage.NewQueue(rdb, domain.RefundQueue)
	webhookQueue := redisStorage.NewQueue(rdb, domain.WebhookQueue)

	// Deterministic settlement, no artificial latency
	outcome := &worker.FixedOutcome{Success: true, Delay: 0}

	// Business services
	orderSvc := service.NewOrderService(orderRepo, log)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, idempotencyRepo, idempotencyCache, paymentQueue, outcome, log)
	refundSvc := service.NewRefundService(refundRepo, paymentRepo, refundQueue, outcome, log)
	webhookSvc := service.NewWebhookService(webhookRepo, webhookQueue, log)
	merchantSvc := service.NewMerchantService(merchantRepo, log)
	sigSvc := service.NewHMACSignatureService()

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		OrderSvc:     orderSvc,
		PaymentSvc:   paymentSvc,
		RefundSvc:    refundSvc,
		MerchantSvc:  merchantSvc,
		WebhookSvc:   webhookSvc,
		MerchantRepo: merchantRepo,
		Queues:       []ports.Queue{paymentQueue, refundQueue, webhookQueue},
		Logger:       log,
	})

	// Workers
	paymentProc := worker.NewPaymentProcessor(paymentRepo, webhookQueue, outcome, log)
	refundProc := worker.NewRefundProcessor(refundRepo, paymentRepo, transactor, webhookQueue, log)
	dispatcher := worker.NewDispatcher(merchantRepo, webhookRepo, sigSvc, webhookQueue, worker.NewBackoff("test"), 2*time.Second, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, r := range []*worker.Runner{
		worker.NewRunner(paymentQueue, paymentProc.Process, 2, log),
		worker.NewRunner(refundQueue, refundProc.Process, 1, log),
		worker.NewRunner(webhookQueue, dispatcher.Process, 2, log),
	} {
		wg.Add(1)
		go func(r *worker.Runner) {
			defer wg.Done()
			r.Run(ctx)
		}(r)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	server := httptest.NewServer(router)

	return &testApp{
		server:       server,
		redis:        mr,
		paymentQueue: paymentQueue,
		refundQueue:  refundQueue,
		webhookQueue: webhookQueue,
		cancel:       cancel,
		workersDone:  done,
	}
}

func (a *testApp) close() {
	a.cancel()
	<-a.workersDone
	a.server.Close()
	a.redis.Close()
}

type merchantCreds struct {
	ID            string `json:"id"`
	APIKey        string `json:"api_key"`
	APISecret     string `json:"api_secret"`
	WebhookSecret string `json:"webhook_secret"`
}

// do issues an authenticated request and returns status plus raw body.
func (a *testApp) do(t *testing.T, creds merchantCreds, method, path string, body []byte, headers map[string]string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Api-Key", creds.APIKey)
	req.Header.Set("X-Api-Secret", creds.APISecret)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func registerMerchant(t *testing.T, a *testApp, email string, webhookURL *string) merchantCreds {
	t.Helper()
	payload := map[string]interface{}{"email": email}
	if webhookURL != nil {
		payload["webhook_url"] = *webhookURL
	}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(a.server.URL+"/api/v1/merchants", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var creds merchantCreds
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&creds))
	require.NotEmpty(t, creds.APIKey)
	require.NotEmpty(t, creds.APISecret)
	return creds
}

func createOrder(t *testing.T, a *testApp, creds merchantCreds, amount int64) string {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"amount": amount, "currency": "INR"})
	code, respBody := a.do(t, creds, http.MethodPost, "/api/v1/orders", body, nil)
	require.Equal(t, http.StatusCreated, code, "order response: %s", respBody)

	var order domain.Order
	require.NoError(t, json.Unmarshal(respBody, &order))
	return order.ID
}

func createPayment(t *testing.T, a *testApp, creds merchantCreds, orderID string, amount int64, idempotencyKey string) (int, []byte) {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"order_id": orderID,
		"amount":   amount,
		"currency": "INR",
		"method":   "upi",
	})
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[httpHandler.HeaderIdempotencyKey] = idempotencyKey
	}
	return a.do(t, creds, http.MethodPost, "/api/v1/payments", body, headers)
}

func waitForPaymentStatus(t *testing.T, a *testApp, creds merchantCreds, paymentID string, want domain.PaymentStatus) domain.Payment {
	t.Helper()
	var payment domain.Payment
	require.Eventually(t, func() bool {
		code, body := a.do(t, creds, http.MethodGet, "/api/v1/payments/"+paymentID, nil, nil)
		if code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(body, &payment); err != nil {
			return false
		}
		return payment.Status == want
	}, 5*time.Second, 50*time.Millisecond, "payment %s never reached %s", paymentID, want)
	return payment
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterMerchant(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerMerchant(t, app, "shop@example.com", nil)
	assert.NotEmpty(t, creds.ID)
	assert.NotEmpty(t, creds.WebhookSecret)

	// Same email again is rejected.
	body, _ := json.Marshal(map[string]string{"email": "shop@example.com"})
	resp, err := http.Post(app.server.URL+"/api/v1/merchants", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_MissingCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Post(app.server.URL+"/api/v1/orders", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_PaymentEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Webhook receiver capturing deliveries
	type delivery struct {
		signature string
		body      []byte
	}
	deliveries := make(chan delivery, 4)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		deliveries <- delivery{signature: r.Header.Get("X-Webhook-Signature"), body: body}
		w.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	creds := registerMerchant(t, app, "e2e@example.com", &receiver.URL)
	orderID := createOrder(t, app, creds, 50000)

	// Create payment with an idempotency key
	code, firstBody := createPayment(t, app, creds, orderID, 50000, "idem-e2e-001")
	require.Equal(t, http.StatusCreated, code, "payment response: %s", firstBody)

	var payment domain.Payment
	require.NoError(t, json.Unmarshal(firstBody, &payment))
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)

	// Worker settles it
	settled := waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusSuccess)
	assert.Nil(t, settled.ErrorCode)

	// Webhook arrives signed over the exact payload bytes
	sigSvc := service.NewHMACSignatureService()
	select {
	case d := <-deliveries:
		assert.True(t, sigSvc.Verify(creds.WebhookSecret, d.body, d.signature), "webhook signature must verify")
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(d.body, &event))
		assert.Equal(t, domain.EventPaymentSuccess, event["event"])
	case <-time.After(5 * time.Second):
		t.Fatal("webhook never delivered")
	}

	// Replaying the same idempotency key returns the original bytes,
	// pending status and all, even though the payment has since settled.
	code, replayBody := createPayment(t, app, creds, orderID, 50000, "idem-e2e-001")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, firstBody, replayBody, "idempotent replay must be byte-identical")
}

func TestIntegration_RefundEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerMerchant(t, app, "refund@example.com", nil)
	orderID := createOrder(t, app, creds, 100000)

	code, body := createPayment(t, app, creds, orderID, 100000, "")
	require.Equal(t, http.StatusCreated, code)
	var payment domain.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusSuccess)

	// Partial refund
	refundBody, _ := json.Marshal(map[string]interface{}{"amount": 30000})
	code, respBody := app.do(t, creds, http.MethodPost, "/api/v1/payments/"+payment.ID+"/refunds", refundBody, nil)
	require.Equal(t, http.StatusCreated, code, "refund response: %s", respBody)

	var refund domain.Refund
	require.NoError(t, json.Unmarshal(respBody, &refund))
	assert.Equal(t, domain.RefundStatusPending, refund.Status)

	// Worker processes it and the payment becomes partially refunded
	require.Eventually(t, func() bool {
		code, body := app.do(t, creds, http.MethodGet, "/api/v1/refunds/"+refund.ID, nil, nil)
		if code != http.StatusOK {
			return false
		}
		var r domain.Refund
		if err := json.Unmarshal(body, &r); err != nil {
			return false
		}
		return r.Status == domain.RefundStatusProcessed
	}, 5*time.Second, 50*time.Millisecond)
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusPartiallyRefunded)

	// Refund exceeding the remaining amount is rejected at the API
	tooMuch, _ := json.Marshal(map[string]interface{}{"amount": 80000})
	code, _ = app.do(t, creds, http.MethodPost, "/api/v1/payments/"+payment.ID+"/refunds", tooMuch, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Refunding the rest moves the payment to refunded
	rest, _ := json.Marshal(map[string]interface{}{"amount": 70000})
	code, respBody = app.do(t, creds, http.MethodPost, "/api/v1/payments/"+payment.ID+"/refunds", rest, nil)
	require.Equal(t, http.StatusCreated, code, "refund response: %s", respBody)
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusRefunded)
}

func TestIntegration_WebhookLogAndRetry(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Receiver that always fails, so the log stays pending with a retry scheduled.
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer receiver.Close()

	creds := registerMerchant(t, app, "hooks@example.com", &receiver.URL)
	orderID := createOrder(t, app, creds, 50000)
	code, body := createPayment(t, app, creds, orderID, 50000, "")
	require.Equal(t, http.StatusCreated, code)
	var payment domain.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusSuccess)

	// The failed delivery shows up in the log with the attempt recorded.
	var logID string
	require.Eventually(t, func() bool {
		code, body := app.do(t, creds, http.MethodGet, "/api/v1/webhooks", nil, nil)
		if code != http.StatusOK {
			return false
		}
		var list struct {
			Items []domain.WebhookLog `json:"items"`
			Total int64               `json:"total"`
		}
		if err := json.Unmarshal(body, &list); err != nil || list.Total == 0 {
			return false
		}
		l := list.Items[0]
		if l.Attempts < 1 || l.ResponseCode == nil || *l.ResponseCode != http.StatusServiceUnavailable {
			return false
		}
		logID = l.ID.String()
		return true
	}, 5*time.Second, 50*time.Millisecond)

	// Operator retry resets the attempt counter and re-enqueues delivery.
	code, body = app.do(t, creds, http.MethodPost, "/api/v1/webhooks/"+logID+"/retry", nil, nil)
	require.Equal(t, http.StatusOK, code, "retry response: %s", body)
	var retried domain.WebhookLog
	require.NoError(t, json.Unmarshal(body, &retried))
	assert.Equal(t, domain.WebhookStatusPending, retried.Status)
	assert.Equal(t, 0, retried.Attempts)
}

func TestIntegration_NoWebhookURLNoLogs(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerMerchant(t, app, "silent@example.com", nil)
	orderID := createOrder(t, app, creds, 50000)
	code, body := createPayment(t, app, creds, orderID, 50000, "")
	require.Equal(t, http.StatusCreated, code)
	var payment domain.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusSuccess)

	// Give the dispatcher a moment, then confirm it dropped silently.
	require.Eventually(t, func() bool {
		stats, err := app.webhookQueue.Stats(context.Background())
		return err == nil && stats.Completed >= 1
	}, 5*time.Second, 50*time.Millisecond)

	code, respBody := app.do(t, creds, http.MethodGet, "/api/v1/webhooks", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(respBody, &list))
	assert.Equal(t, int64(0), list.Total, "merchants without a webhook URL get no log rows")
}

func TestIntegration_JobsStatus(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerMerchant(t, app, "jobs@example.com", nil)
	orderID := createOrder(t, app, creds, 50000)
	code, body := createPayment(t, app, creds, orderID, 50000, "")
	require.Equal(t, http.StatusCreated, code)
	var payment domain.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	waitForPaymentStatus(t, app, creds, payment.ID, domain.PaymentStatusSuccess)

	code, respBody := app.do(t, creds, http.MethodGet, "/api/v1/test/jobs/status", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var stats struct {
		Queues map[string]struct {
			Completed int64 `json:"completed"`
		} `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(respBody, &stats))
	assert.GreaterOrEqual(t, stats.Queues[domain.PaymentQueue].Completed, int64(1))
}

func TestIntegration_OrderOwnershipScoped(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	alice := registerMerchant(t, app, "alice@example.com", nil)
	mallory := registerMerchant(t, app, "mallory@example.com", nil)

	orderID := createOrder(t, app, alice, 50000)

	// Another merchant's credentials can't see the order.
	code, _ := app.do(t, mallory, http.MethodGet, "/api/v1/orders/"+orderID, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Nor pay against it.
	payCode, payBody := createPayment(t, app, mallory, orderID, 50000, "")
	assert.Equal(t, http.StatusNotFound, payCode, "payment response: %s", payBody)
}
