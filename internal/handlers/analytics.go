package handlers

import (
	"fmt"
	"time"

	"momentum/internal/middleware"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler handles the dashboard overview and workbook export
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview returns the dashboard aggregate
// GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.analytics.Overview(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(overview)
}

// Export streams the user's records as an Excel workbook
// GET /api/analytics/export
func (h *AnalyticsHandler) Export(c *fiber.Ctx) error {
	data, err := h.analytics.ExportWorkbook(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	filename := fmt.Sprintf("momentum-export-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
