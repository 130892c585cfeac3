package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-saas/internal/httperr"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/dashboard"
)

type DashboardHandler struct {
	stats *dashboard.Service
}

func NewDashboardHandler(stats *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats accepts ?date=YYYY-MM-DD and defaults to today in the shop.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context(), tenantID(c), c.Query("date"))
	if err != nil {
		httperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
