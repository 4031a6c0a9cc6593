package handlers

import (
	"context"
	"strconv"
	"time"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles daily plan generation and retrieval
type PlanHandler struct {
	planning *services.PlanningService
	plans    *services.PlanService
	metrics  *services.Metrics
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planning *services.PlanningService, plans *services.PlanService, metrics *services.Metrics) *PlanHandler {
	return &PlanHandler{planning: planning, plans: plans, metrics: metrics}
}

// GenerateRequest asks for a plan for one day
type GenerateRequest struct {
	Date   string `json:"date,omitempty"` // "2006-01-02", defaults to today
	Source string `json:"source,omitempty"`
}

// Generate produces and stores a plan
// POST /api/ai/plan
func (h *PlanHandler) Generate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planning.GeneratePlan(c.Context(), middleware.UserID(c), req.Date, req.Source)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if h.metrics != nil {
		h.metrics.RecordPlanGenerated(plan.Source)
	}
	return c.JSON(plan)
}

// Today returns the canonical plan for today
// GET /api/ai/plan/today
func (h *PlanHandler) Today(c *fiber.Ctx) error {
	date := time.Now().UTC().Format("2006-01-02")
	plan, err := h.plans.GetPlanForDate(context.Background(), middleware.UserID(c), date)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(plan)
}

// ForDate returns the canonical plan for one date
// GET /api/ai/plans/:date
func (h *PlanHandler) ForDate(c *fiber.Ctx) error {
	date := c.Params("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return badRequest(c, "Date must be formatted as 2006-01-02")
	}

	plan, err := h.plans.GetPlanForDate(context.Background(), middleware.UserID(c), date)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(plan)
}

// Recent returns the newest plan per day, most recent days first
// GET /api/ai/plans?limit=
func (h *PlanHandler) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "7"))
	plans, err := h.plans.ListRecentPlans(context.Background(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(plans)
}

// CompleteRequest reports a task outcome
type CompleteRequest struct {
	TaskID        string `json:"task_id"`
	Outcome       string `json:"outcome"` // "done", "partial", "missed"
	ActualMinutes int    `json:"actual_minutes"`
}

// Complete records a task outcome and returns the adapted plan, if any
// POST /api/ai/plan/complete
func (h *PlanHandler) Complete(c *fiber.Ctx) error {
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TaskID == "" {
		return badRequest(c, "task_id is required")
	}

	plan, err := h.planning.CompleteTask(c.Context(), middleware.UserID(c), req.TaskID, req.Outcome, req.ActualMinutes)
	if err != nil {
		return serviceError(c, err)
	}

	if plan == nil {
		// Outcome recorded, adaptation unavailable right now
		return c.JSON(fiber.Map{"message": "Outcome recorded"})
	}
	if h.metrics != nil {
		h.metrics.RecordPlanGenerated(models.PlanSourceRebalance)
	}
	return c.JSON(plan)
}

// Rebalance redistributes the remaining day
// POST /api/ai/plan/rebalance
func (h *PlanHandler) Rebalance(c *fiber.Ctx) error {
	plan, err := h.planning.Rebalance(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if h.metrics != nil {
		h.metrics.RecordPlanGenerated(models.PlanSourceRebalance)
	}
	return c.JSON(plan)
}
