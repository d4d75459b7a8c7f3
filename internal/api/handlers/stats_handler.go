package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locmaison/backend/internal/services"
)

// StatsHandler handles GET /api/stats.
type StatsHandler struct {
	statsService services.IStatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.IStatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats returns site-wide listing and message counts plus listing
// breakdowns by location and by type.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
