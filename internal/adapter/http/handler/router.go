package handler

import (
	"payment-gateway/internal/adapter/http/middleware"
	redisStore "payment-gateway/internal/adapter/storage/redis"
	"payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	OrderSvc       ports.OrderService
	PaymentSvc     ports.PaymentService
	RefundSvc      ports.RefundService
	MerchantSvc    ports.MerchantService
	WebhookSvc     ports.WebhookService
	MerchantRepo   ports.MerchantRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Queues         []ports.Queue // surfaced on the jobs status endpoint
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	v1.POST("/merchants", rl("register"), merchantHandler.Register)

	// --- API-key-authenticated routes (merchant API) ---
	apiAuth := middleware.APIKeyAuth(deps.MerchantRepo, deps.Logger)

	orderHandler := NewOrderHandler(deps.OrderSvc)
	orders := v1.Group("/orders", apiAuth)
	{
		orders.POST("", rl("orders"), orderHandler.Create)
		orders.GET("/:id", rl("orders"), orderHandler.Get)
	}

	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.RefundSvc)
	payments := v1.Group("/payments", apiAuth)
	{
		payments.POST("", rl("payments"), paymentHandler.Create)
		payments.GET("", rl("payments"), paymentHandler.List)
		payments.GET("/:id", rl("payments"), paymentHandler.Get)
		payments.POST("/:id/capture", rl("payments"), paymentHandler.Capture)
		payments.POST("/:id/refunds", rl("refunds"), paymentHandler.CreateRefund)
	}

	refunds := v1.Group("/refunds", apiAuth)
	{
		refunds.GET("/:id", rl("refunds"), paymentHandler.GetRefund)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	webhooks := v1.Group("/webhooks", apiAuth)
	{
		webhooks.GET("", rl("webhooks"), webhookHandler.List)
		webhooks.POST("/:id/retry", rl("webhooks"), webhookHandler.Retry)
	}

	merchants := v1.Group("/merchants/me", apiAuth)
	{
		merchants.GET("", rl("merchants"), merchantHandler.GetProfile)
		merchants.PUT("/webhook", rl("merchants"), merchantHandler.UpdateWebhookURL)
	}

	// Job queue visibility for test harnesses and operators.
	v1.GET("/test/jobs/status", apiAuth, JobsStatus(deps.Queues...))

	return r
}
