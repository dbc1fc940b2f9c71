package handler

import (
	"net/http"

	"payment-gateway/internal/adapter/http/dto"
	"payment-gateway/internal/core/ports"
	"payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

// JobsStatus handles GET /api/v1/test/jobs/status — reports depth and
// throughput counters for every background queue. Intended for test
// harnesses and operators watching settlement drain.
func JobsStatus(queues ...ports.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := dto.QueueStatsResponse{Queues: make(map[string]dto.QueueStats, len(queues))}
		for _, q := range queues {
			stats, err := q.Stats(c.Request.Context())
			if err != nil {
				response.Error(c, err)
				return
			}
			out.Queues[q.Name()] = dto.QueueStats{
				Waiting:   stats.Waiting,
				Delayed:   stats.Delayed,
				Active:    stats.Active,
				Completed: stats.Completed,
				Failed:    stats.Failed,
			}
		}
		response.OK(c, out)
	}
}
