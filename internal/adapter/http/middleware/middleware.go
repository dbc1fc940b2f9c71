package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/apperror"
	"payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Header names for API key authentication
	HeaderAPIKey    = "X-Api-Key"
	HeaderAPISecret = "X-Api-Secret"

	// Context keys
	CtxMerchantID  = "merchant_id"
	CtxMerchantKey = "merchant"
)

// APIKeyAuth creates a middleware that authenticates merchants by API key
// and secret headers.
func APIKeyAuth(merchantRepo ports.MerchantRepository, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		apiSecret := c.GetHeader(HeaderAPISecret)

		if apiKey == "" || apiSecret == "" {
			response.Error(c, apperror.ErrMissingCredentials())
			c.Abort()
			return
		}

		merchant, err := merchantRepo.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.Error().Err(err).Msg("failed to fetch merchant")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if merchant == nil {
			response.Error(c, apperror.ErrInvalidCredentials())
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(merchant.APISecret), []byte(apiSecret)) != 1 {
			response.Error(c, apperror.ErrInvalidCredentials())
			c.Abort()
			return
		}

		c.Set(CtxMerchantID, merchant.ID)
		c.Set(CtxMerchantKey, merchant)

		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{
					Error: response.ErrorDetail{
						Code:        "SERVER_ERROR",
						Description: "Internal server error",
					},
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and binding
// fails with 400.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
