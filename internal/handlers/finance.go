package handlers

import (
	"context"

	"momentum/internal/middleware"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// FinanceHandler handles the money ledger, savings goals and budgets
type FinanceHandler struct {
	finances *services.FinanceService
	builder  *services.ContextBuilder
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(finances *services.FinanceService, builder *services.ContextBuilder) *FinanceHandler {
	return &FinanceHandler{finances: finances, builder: builder}
}

// List returns ledger entries, optionally filtered by month ("2006-01")
// GET /api/finances?month=
func (h *FinanceHandler) List(c *fiber.Ctx) error {
	entries, err := h.finances.ListEntries(context.Background(), middleware.UserID(c), c.Query("month"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(entries)
}

// Create adds one income or expense entry
// POST /api/finances
func (h *FinanceHandler) Create(c *fiber.Ctx) error {
	var entry models.Finance
	if err := c.BodyParser(&entry); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	created, err := h.finances.CreateEntry(context.Background(), userID, &entry)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update applies a partial update to a ledger entry
// PATCH /api/finances/:id
func (h *FinanceHandler) Update(c *fiber.Ctx) error {
	var upd services.FinanceUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	entry, err := h.finances.UpdateEntry(context.Background(), userID, c.Params("id"), upd)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(entry)
}

// Delete removes a ledger entry
// DELETE /api/finances/:id
func (h *FinanceHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.finances.DeleteEntry(context.Background(), userID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(fiber.Map{"message": "Entry deleted"})
}

// Summary returns totals, per-category breakdown and the month's budget
// GET /api/finances/summary?month=
func (h *FinanceHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.finances.Summary(context.Background(), middleware.UserID(c), c.Query("month"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(summary)
}

// CreateGoal adds a savings goal
// POST /api/finances/goals
func (h *FinanceHandler) CreateGoal(c *fiber.Ctx) error {
	var goal models.SavingsGoal
	if err := c.BodyParser(&goal); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.finances.CreateSavingsGoal(context.Background(), middleware.UserID(c), &goal)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListGoals returns the user's savings goals
// GET /api/finances/goals
func (h *FinanceHandler) ListGoals(c *fiber.Ctx) error {
	goals, err := h.finances.ListSavingsGoals(context.Background(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(goals)
}

// UpdateGoalRequest carries the new saved amount
type UpdateGoalRequest struct {
	SavedAmount float64 `json:"saved_amount"`
}

// UpdateGoal sets the saved amount on a goal
// PATCH /api/finances/goals/:id
func (h *FinanceHandler) UpdateGoal(c *fiber.Ctx) error {
	var req UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.finances.UpdateSavedAmount(context.Background(), middleware.UserID(c), c.Params("id"), req.SavedAmount); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Goal updated"})
}

// DeleteGoal removes a savings goal
// DELETE /api/finances/goals/:id
func (h *FinanceHandler) DeleteGoal(c *fiber.Ctx) error {
	if err := h.finances.DeleteSavingsGoal(context.Background(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Goal deleted"})
}

// SetBudgetRequest sets the spending cap for one month
type SetBudgetRequest struct {
	Month  string  `json:"month"` // "2006-01"
	Amount float64 `json:"amount"`
}

// SetBudget upserts the monthly budget
// PUT /api/finances/budget
func (h *FinanceHandler) SetBudget(c *fiber.Ctx) error {
	var req SetBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := middleware.UserID(c)
	budget, err := h.finances.SetBudget(context.Background(), userID, req.Month, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}

	h.builder.Invalidate(userID)
	return c.JSON(budget)
}

// GetBudget returns the budget for one month
// GET /api/finances/budget?month=
func (h *FinanceHandler) GetBudget(c *fiber.Ctx) error {
	budget, err := h.finances.GetBudget(context.Background(), middleware.UserID(c), c.Query("month"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(budget)
}
