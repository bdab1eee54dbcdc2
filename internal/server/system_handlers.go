package server

import (
	"context"
	"net/http"
	"time"

	"quickcourt/internal/api"
	"quickcourt/internal/logger"
	"quickcourt/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type redisPingFunc func(ctx context.Context) error

type queueLength interface {
	QueueLength(ctx context.Context) int64
}

// Health godoc
// @Summary      Health check
// @Description  Reports ok when Postgres and Redis answer within two seconds.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(db pinger, rdb redisPingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "database unavailable"})
			return
		}
		if rdb != nil {
			if err := rdb(ctx); err != nil {
				logger.Warn("health check: redis unreachable", "error", err)
				c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "redis unavailable"})
				return
			}
		}

		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// Metrics godoc
// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics(queue queueLength) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if queue != nil {
			metrics.EmailQueueLength.Set(float64(queue.QueueLength(c.Request.Context())))
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
