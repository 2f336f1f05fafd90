package v1

import (
	"context"
	"net/http"

	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/gin-gonic/gin"
)

// Pinger is implemented by every backing store the health check covers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pingers map[string]Pinger
	logger  *logger.Logger
}

func NewHealthHandler(pingers map[string]Pinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{pingers: pingers, logger: logger}
}

// Health pings every backing store and reports per-store status.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.pingers))

	for name, pinger := range h.pingers {
		if err := pinger.Ping(c.Request.Context()); err != nil {
			h.logger.Errorw("health check failed", "store", name, "error", err)
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	c.JSON(status, gin.H{"status": checks})
}
