package handlers

import (
	"time"

	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	connManager *services.ConnectionManager
	ai          *services.AIClient
	vector      *services.VectorClient
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(connManager *services.ConnectionManager, ai *services.AIClient, vector *services.VectorClient) *HealthHandler {
	return &HealthHandler{connManager: connManager, ai: ai, vector: vector}
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"connections": h.connManager.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// Ready also checks the downstream AI and vector services
// GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok"}
	status := fiber.StatusOK

	if err := h.ai.HealthCheck(c.Context()); err != nil {
		checks["ai_service"] = err.Error()
		status = fiber.StatusServiceUnavailable
	} else {
		checks["ai_service"] = "ok"
	}

	if err := h.vector.HealthCheck(c.Context()); err != nil {
		checks["vector_service"] = err.Error()
		status = fiber.StatusServiceUnavailable
	} else {
		checks["vector_service"] = "ok"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": map[bool]string{true: "ready", false: "degraded"}[status == fiber.StatusOK],
		"checks": checks,
	})
}
