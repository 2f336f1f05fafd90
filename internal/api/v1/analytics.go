package v1

import (
	"net/http"

	"github.com/creatorly/churnalytics/internal/api/dto"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/service"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	churnService service.ChurnAnalyticsService
	logger       *logger.Logger
}

func NewAnalyticsHandler(
	churnService service.ChurnAnalyticsService,
	logger *logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		churnService: churnService,
		logger:       logger,
	}
}

// GetChurn serves the churn dashboard dataset for the authenticated seller.
// Missing query params fall back to the trailing 30 days.
func (h *AnalyticsHandler) GetChurn(c *gin.Context) {
	req := &dto.ChurnAnalyticsRequest{}
	if startDate := c.Query("start_date"); startDate != "" {
		req.StartDate = startDate
	}
	if endDate := c.Query("end_date"); endDate != "" {
		req.EndDate = endDate
	}

	response, err := h.churnService.GenerateData(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to generate churn analytics", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
