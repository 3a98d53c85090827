package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/service"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/response"
)

type storePinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   storePinger
	timeout time.Duration
}

// NewMetricsHandler constructs a metrics handler. store may be nil, in which
// case readiness mirrors liveness.
func NewMetricsHandler(metrics *service.MetricsService, store storePinger, timeout time.Duration) *MetricsHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &MetricsHandler{metrics: metrics, store: store, timeout: timeout}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the student store answers.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
